package blockstore

import (
	"encoding/json"
	"fmt"
	"sync"

	"pohchain/block"
	"pohchain/db"
	"pohchain/interfaces"
	"pohchain/wallet"
)

const (
	// Key prefixes
	prefixBlocks  = "blocks:"
	prefixWallets = "wallets:"
	prefixMeta    = "meta:"

	// Metadata keys
	keyLatestHash = "latest_hash"
)

// BlockStore persists sealed blocks and wallets over a DatabaseProvider.
// Blocks are keyed by hash; a metadata key tracks the latest appended hash.
type BlockStore struct {
	mu       sync.Mutex
	provider db.DatabaseProvider
}

var (
	_ interfaces.BlockPersister = (*BlockStore)(nil)
	_ interfaces.WalletStore    = (*BlockStore)(nil)
)

// NewBlockStore wraps an opened provider.
func NewBlockStore(provider db.DatabaseProvider) (*BlockStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	return &BlockStore{provider: provider}, nil
}

func blockKey(hash string) []byte {
	return []byte(prefixBlocks + hash)
}

func walletKey(address string) []byte {
	return []byte(prefixWallets + address)
}

// SaveBlock writes the block and advances the latest-hash metadata in one
// batch. Saving the same hash twice is a no-op overwrite of equal bytes.
func (s *BlockStore) SaveBlock(blk *block.Block) error {
	if blk == nil {
		return fmt.Errorf("block cannot be nil")
	}

	raw, err := json.Marshal(blk)
	if err != nil {
		return fmt.Errorf("failed to marshal block: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.provider.Batch()
	batch.Put(blockKey(blk.Hash), raw)
	batch.Put([]byte(prefixMeta+keyLatestHash), []byte(blk.Hash))
	return batch.Write()
}

// GetBlock retrieves a block by hash; (nil, nil) when absent.
func (s *BlockStore) GetBlock(hash string) (*block.Block, error) {
	raw, err := s.provider.Get(blockKey(hash))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var blk block.Block
	if err := json.Unmarshal(raw, &blk); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block: %w", err)
	}
	return &blk, nil
}

// LatestBlock returns the most recently saved block; (nil, nil) when the
// store is empty.
func (s *BlockStore) LatestBlock() (*block.Block, error) {
	hash, err := s.provider.Get([]byte(prefixMeta + keyLatestHash))
	if err != nil {
		return nil, err
	}
	if hash == nil {
		return nil, nil
	}
	return s.GetBlock(string(hash))
}

// SaveWallet persists a wallet record keyed by address.
func (s *BlockStore) SaveWallet(w *wallet.Wallet) error {
	if w == nil {
		return fmt.Errorf("wallet cannot be nil")
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}
	return s.provider.Put(walletKey(w.Address), raw)
}

// GetWallet retrieves a wallet record by address; (nil, nil) when absent.
func (s *BlockStore) GetWallet(address string) (*wallet.Wallet, error) {
	raw, err := s.provider.Get(walletKey(address))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var w wallet.Wallet
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}
	return &w, nil
}

// Close closes the underlying provider.
func (s *BlockStore) Close() error {
	return s.provider.Close()
}
