package chain

import (
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"pohchain/block"
	"pohchain/errors"
	"pohchain/poh"
)

// Chain is the append-only ordered sequence of sealed blocks. Index 0 is
// the genesis block; entries are never removed or mutated.
type Chain struct {
	mu     sync.RWMutex
	blocks []*block.Block
	byHash map[string]*block.Block
}

// NewChain creates a chain holding only the genesis block.
func NewChain() *Chain {
	return NewChainFrom(block.Genesis(time.Now()))
}

// NewChainFrom seeds the chain with a previously sealed block restored from
// a persistence collaborator. Verification recomputes from this root onward;
// blocks before it stay with the persister.
func NewChainFrom(root *block.Block) *Chain {
	return &Chain{
		blocks: []*block.Block{root},
		byHash: map[string]*block.Block{root.Hash: root},
	}
}

// Append adds a sealed block to the tail. Only the assembler calls this;
// the linkage checks guard against programming errors, not adversaries.
func (c *Chain) Append(b *block.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tip := c.blocks[len(c.blocks)-1]
	if b.PrevHash != tip.Hash {
		return fmt.Errorf("append: previous hash %s does not match tip %s", b.PrevHash, tip.Hash)
	}
	if _, dup := c.byHash[b.Hash]; dup {
		return fmt.Errorf("append: block %s already in chain", b.Hash)
	}

	c.blocks = append(c.blocks, b)
	c.byHash[b.Hash] = b
	return nil
}

// Latest returns the tail block.
func (c *Chain) Latest() *block.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[len(c.blocks)-1]
}

// Get looks a block up by hash.
func (c *Chain) Get(hash string) (*block.Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.byHash[hash]
	return b, ok
}

// Height returns the number of blocks including genesis.
func (c *Chain) Height() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// Blocks returns a snapshot of the chain in order.
func (c *Chain) Blocks() []*block.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*block.Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Verify walks the chain from genesis, recomputing every block hash, the
// previous-hash linkage, and the hash-clock chain across all block stamps.
// The first mismatch yields a CorruptionError naming the offending index.
func (c *Chain) Verify() error {
	c.mu.RLock()
	blocks := make([]*block.Block, len(c.blocks))
	copy(blocks, c.blocks)
	c.mu.RUnlock()

	for i, b := range blocks {
		if recomputed := b.ComputeHash(); recomputed != b.Hash {
			return errors.NewCorruption(i, "hash mismatch: stored=%s recomputed=%s", b.Hash, recomputed)
		}
		if i == 0 {
			continue
		}
		if b.PrevHash != blocks[i-1].Hash {
			return errors.NewCorruption(i, "broken linkage: previous_hash=%s predecessor=%s", b.PrevHash, blocks[i-1].Hash)
		}
	}

	// One clock tick is sealed per block, so the stamps after genesis form
	// a contiguous tick chain starting from the genesis stamp.
	stamps := make([]poh.Entry, 0, len(blocks)-1)
	for _, b := range blocks[1:] {
		stamps = append(stamps, b.PohEntry())
	}
	if err := poh.VerifyEntries(stamps, blocks[0].PohHash, blocks[0].PohCount); err != nil {
		idx := 1
		var mismatch *poh.MismatchError
		if stderrors.As(err, &mismatch) {
			idx = mismatch.Index + 1
		}
		return errors.NewCorruption(idx, "%v", err)
	}

	return nil
}
