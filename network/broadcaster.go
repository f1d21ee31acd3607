package network

import (
	"context"
	"fmt"

	"pohchain/block"
	"pohchain/logx"
	"pohchain/types"
)

// LogBroadcaster is a single-node stand-in for the gossip collaborator: it
// acknowledges NewBlock/NewTransaction emissions by logging them. Peer
// replication lives outside this module.
type LogBroadcaster struct{}

func NewLogBroadcaster() *LogBroadcaster {
	return &LogBroadcaster{}
}

func (LogBroadcaster) BroadcastBlock(ctx context.Context, blk *block.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logx.Info("NETWORK", fmt.Sprintf("NewBlock | hash=%s txs=%d", blk.Hash, len(blk.Transactions)))
	return nil
}

func (LogBroadcaster) BroadcastTx(ctx context.Context, tx *types.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logx.Info("NETWORK", fmt.Sprintf("NewTransaction | id=%s", tx.ID))
	return nil
}
