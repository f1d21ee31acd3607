package interfaces

import (
	"pohchain/block"
	"pohchain/wallet"
)

// BlockPersister is the persistence collaborator boundary for sealed
// blocks. Persistence runs strictly after a block is sealed and never
// gates or rolls back the chain.
type BlockPersister interface {
	SaveBlock(blk *block.Block) error
	LatestBlock() (*block.Block, error)
	Close() error
}

// WalletStore persists wallet records keyed by address.
type WalletStore interface {
	SaveWallet(w *wallet.Wallet) error
	GetWallet(address string) (*wallet.Wallet, error)
}
