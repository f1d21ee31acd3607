package ledger

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"pohchain/block"
	"pohchain/chain"
	"pohchain/errors"
	"pohchain/events"
	"pohchain/exception"
	"pohchain/interfaces"
	"pohchain/logx"
	"pohchain/mempool"
	"pohchain/poh"
	"pohchain/types"
)

const (
	// DefaultMineWait bounds how long Mine waits for the mining slot
	// before returning a ConcurrencyError.
	DefaultMineWait = 5 * time.Second

	collaboratorTimeout = 10 * time.Second
	persistAttempts     = 3
	persistBackoff      = 200 * time.Millisecond
)

// Ledger owns the mutable ledger state: the pool, the hash clock and the
// chain. All mutation goes through this handle; Mine holds exclusive access
// across pool-drain, clock-tick and chain-append as one indivisible unit.
type Ledger struct {
	mp    *mempool.Mempool
	clock *poh.Clock
	chain *chain.Chain
	bus   *events.EventBus

	broadcaster interfaces.Broadcaster
	persister   interfaces.BlockPersister

	mineSlot chan struct{}
	mineWait time.Duration
	halted   atomic.Bool
}

// NewLedger wires the core around its collaborators. broadcaster and
// persister may be nil; bus may be nil.
func NewLedger(mp *mempool.Mempool, clock *poh.Clock, ch *chain.Chain, bus *events.EventBus,
	broadcaster interfaces.Broadcaster, persister interfaces.BlockPersister) *Ledger {
	return &Ledger{
		mp:          mp,
		clock:       clock,
		chain:       ch,
		bus:         bus,
		broadcaster: broadcaster,
		persister:   persister,
		mineSlot:    make(chan struct{}, 1),
		mineWait:    DefaultMineWait,
	}
}

// SetMineWait overrides the bounded wait for the mining slot.
func (l *Ledger) SetMineWait(d time.Duration) {
	if d > 0 {
		l.mineWait = d
	}
}

// SubmitTx admits a transaction into the pool and, on success, hands it to
// the network collaborator fire-and-forget. It never triggers assembly.
func (l *Ledger) SubmitTx(tx *types.Transaction) (string, error) {
	id, err := l.mp.AddTx(tx)
	if err != nil {
		return "", err
	}

	if l.broadcaster != nil {
		exception.SafeGo("tx-broadcast", func() {
			ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
			defer cancel()
			if err := l.broadcaster.BroadcastTx(ctx, tx); err != nil {
				logx.Warn("LEDGER", fmt.Sprintf("Transaction broadcast failed | id=%s err=%v", tx.ID, err))
			}
		})
	}
	return id, nil
}

// Mine drains the entire pending queue in FIFO order, stamps exactly one
// clock tick, links to the chain tip and seals a new block. Only one Mine
// runs at a time system-wide; an empty drain is legal and yields an
// empty-transaction block.
func (l *Ledger) Mine() (*block.Block, error) {
	if l.halted.Load() {
		return nil, errors.ErrMiningHalted
	}

	select {
	case l.mineSlot <- struct{}{}:
	case <-time.After(l.mineWait):
		return nil, &errors.ConcurrencyError{Op: "mine"}
	}
	defer func() { <-l.mineSlot }()

	// Re-check under the slot: corruption may have been flagged while
	// we waited.
	if l.halted.Load() {
		return nil, errors.ErrMiningHalted
	}

	txs := l.mp.PullAll()
	entry := l.clock.Tick()
	prev := l.chain.Latest().Hash

	b := block.Assemble(prev, txs, entry, time.Now())
	if err := l.chain.Append(b); err != nil {
		return nil, err
	}
	l.mp.MarkIncluded(b.TxIDs())

	logx.Info("LEDGER", fmt.Sprintf("Block sealed | hash=%s height=%d txs=%d poh_count=%d",
		b.Hash, l.chain.Height(), len(b.Transactions), b.PohCount))

	if l.bus != nil {
		l.bus.Publish(events.NewBlockSealed(b))
	}
	l.notifyCollaborators(b)

	return b, nil
}

// notifyCollaborators hands the sealed block to persistence and network,
// asynchronously and best-effort. Failures never roll the block back.
func (l *Ledger) notifyCollaborators(b *block.Block) {
	if l.persister != nil {
		exception.SafeGo("block-persist", func() {
			backoff := persistBackoff
			for attempt := 1; attempt <= persistAttempts; attempt++ {
				err := l.persister.SaveBlock(b)
				if err == nil {
					return
				}
				logx.Warn("LEDGER", fmt.Sprintf("Block persist failed | hash=%s attempt=%d err=%v", b.Hash, attempt, err))
				time.Sleep(backoff)
				backoff *= 2
			}
		})
	}
	if l.broadcaster != nil {
		exception.SafeGo("block-broadcast", func() {
			ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
			defer cancel()
			if err := l.broadcaster.BroadcastBlock(ctx, b); err != nil {
				logx.Warn("LEDGER", fmt.Sprintf("Block broadcast failed | hash=%s err=%v", b.Hash, err))
			}
		})
	}
}

// Verify runs full-chain verification. A corruption finding halts further
// block production until operator intervention.
func (l *Ledger) Verify() error {
	err := l.chain.Verify()
	if err != nil && errors.IsCorruption(err) {
		l.halted.Store(true)
		logx.Error("LEDGER", fmt.Sprintf("Chain corruption detected, mining halted | %v", err))
	}
	return err
}

// Halted reports whether block production is halted.
func (l *Ledger) Halted() bool {
	return l.halted.Load()
}

// Latest returns the chain tip.
func (l *Ledger) Latest() *block.Block {
	return l.chain.Latest()
}

// GetBlock looks a sealed block up by hash.
func (l *Ledger) GetBlock(hash string) (*block.Block, bool) {
	return l.chain.Get(hash)
}

// Height returns the chain length including genesis.
func (l *Ledger) Height() int {
	return l.chain.Height()
}

// PendingCount returns the number of pooled transactions.
func (l *Ledger) PendingCount() int {
	return l.mp.Size()
}

// Pending returns a snapshot of pooled transactions in FIFO order.
func (l *Ledger) Pending() []*types.Transaction {
	return l.mp.Pending()
}
