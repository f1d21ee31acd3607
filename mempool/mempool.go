package mempool

import (
	"fmt"
	"sync"

	"pohchain/errors"
	"pohchain/events"
	"pohchain/interfaces"
	"pohchain/logx"
	"pohchain/types"
)

// Mempool is the transaction admission stage: it validates and deduplicates
// incoming transactions and keeps them in an insertion-ordered queue until
// the assembler drains them. A transaction identifier lives in at most one
// of {pool, a sealed block}; identifiers of sealed transactions stay
// deduplicated forever.
type Mempool struct {
	mu       sync.Mutex
	max      int
	txs      map[string]*types.Transaction
	queue    []string
	included map[string]struct{}

	verifier interfaces.SignatureVerifier
	bus      *events.EventBus
}

// NewMempool creates an empty pool bounded at max transactions. The event
// bus may be nil.
func NewMempool(max int, verifier interfaces.SignatureVerifier, bus *events.EventBus) *Mempool {
	return &Mempool{
		max:      max,
		txs:      make(map[string]*types.Transaction),
		queue:    make([]string, 0),
		included: make(map[string]struct{}),
		verifier: verifier,
		bus:      bus,
	}
}

// AddTx validates tx and inserts it into the pool. Validation runs outside
// the pool lock so concurrent admits only serialize on the final insert.
// A second admit of the same identifier is rejected, never overwritten.
func (m *Mempool) AddTx(tx *types.Transaction) (string, error) {
	if err := m.validate(tx); err != nil {
		m.publishRejected(tx, err)
		return "", err
	}

	m.mu.Lock()
	err := m.insertLocked(tx)
	m.mu.Unlock()

	if err != nil {
		m.publishRejected(tx, err)
		return "", err
	}

	logx.Info("MEMPOOL", fmt.Sprintf("Transaction admitted | id=%s sender=%s amount=%s", tx.ID, tx.Sender, tx.AmountString()))
	if m.bus != nil {
		m.bus.Publish(events.NewTransactionAdmitted(tx))
	}
	return tx.ID, nil
}

// validate performs the stateless checks: well-formed fields, positive
// amount, and a valid signature over the canonical bytes.
func (m *Mempool) validate(tx *types.Transaction) error {
	if tx == nil || tx.ID == "" {
		return errors.NewValidation(errors.ErrCodeInvalidTransaction, errors.ErrMsgInvalidTransaction)
	}
	if tx.Sender == "" || tx.Recipient == "" {
		return errors.NewValidation(errors.ErrCodeInvalidTransaction, errors.ErrMsgInvalidTransaction)
	}
	if tx.Amount == nil || tx.Amount.IsZero() {
		return errors.NewValidation(errors.ErrCodeInvalidAmount, errors.ErrMsgInvalidAmount)
	}
	if !m.verifier.Verify(tx.Serialize(), tx.Signature, tx.Sender) {
		return errors.NewValidation(errors.ErrCodeInvalidSignature, errors.ErrMsgInvalidSignature)
	}
	return nil
}

// insertLocked is the single serialized mutation point of admission.
func (m *Mempool) insertLocked(tx *types.Transaction) error {
	if _, dup := m.txs[tx.ID]; dup {
		return errors.NewValidation(errors.ErrCodeDuplicateTransaction, errors.ErrMsgDuplicateTransaction)
	}
	if _, sealed := m.included[tx.ID]; sealed {
		return errors.NewValidation(errors.ErrCodeDuplicateTransaction, errors.ErrMsgDuplicateTransaction)
	}
	// backpressure, not a validation failure: the tx may be retried
	if len(m.txs) >= m.max {
		return errors.ErrMempoolFull
	}

	m.txs[tx.ID] = tx
	m.queue = append(m.queue, tx.ID)
	return nil
}

func (m *Mempool) publishRejected(tx *types.Transaction, err error) {
	id := ""
	if tx != nil {
		id = tx.ID
	}
	logx.Warn("MEMPOOL", fmt.Sprintf("Transaction rejected | id=%s reason=%v", id, err))
	if m.bus != nil {
		m.bus.Publish(events.NewTransactionRejected(id, err.Error()))
	}
}

// PullAll drains the entire pending queue in FIFO order. The drained
// identifiers leave the pending map; MarkIncluded pins them afterwards.
func (m *Mempool) PullAll() []*types.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return nil
	}

	out := make([]*types.Transaction, 0, len(m.queue))
	for _, id := range m.queue {
		if tx, ok := m.txs[id]; ok {
			out = append(out, tx)
			delete(m.txs, id)
		}
	}
	m.queue = m.queue[:0]
	return out
}

// MarkIncluded records identifiers of sealed transactions so they stay
// deduplicated against future re-submission.
func (m *Mempool) MarkIncluded(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.included[id] = struct{}{}
	}
}

// Size returns the number of pending transactions.
func (m *Mempool) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}

// Contains reports whether id is pending in the pool.
func (m *Mempool) Contains(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.txs[id]
	return ok
}

// Pending returns a snapshot of the pending transactions in FIFO order.
func (m *Mempool) Pending() []*types.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*types.Transaction, 0, len(m.queue))
	for _, id := range m.queue {
		if tx, ok := m.txs[id]; ok {
			out = append(out, tx)
		}
	}
	return out
}
