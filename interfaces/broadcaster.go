package interfaces

import (
	"context"

	"pohchain/block"
	"pohchain/types"
)

// Broadcaster is the network collaborator boundary. Both calls are
// fire-and-forget: failures are logged and retried at the collaborator,
// never surfaced into admission or mining.
type Broadcaster interface {
	BroadcastBlock(ctx context.Context, blk *block.Block) error
	BroadcastTx(ctx context.Context, tx *types.Transaction) error
}
