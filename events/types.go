package events

import (
	"time"

	"pohchain/block"
	"pohchain/types"
)

// EventType is an enum-like string type for ledger events
type EventType string

const (
	EventTransactionAdmitted EventType = "TransactionAdmitted"
	EventTransactionRejected EventType = "TransactionRejected"
	EventBlockSealed         EventType = "BlockSealed"
)

// LedgerEvent represents any event emitted by the ledger core. Ref is the
// transaction identifier or block hash the event concerns.
type LedgerEvent interface {
	Type() EventType
	Timestamp() time.Time
	Ref() string
}

// TransactionAdmitted fires when a transaction enters the pool.
type TransactionAdmitted struct {
	tx        *types.Transaction
	timestamp time.Time
}

func NewTransactionAdmitted(tx *types.Transaction) *TransactionAdmitted {
	return &TransactionAdmitted{tx: tx, timestamp: time.Now()}
}

func (e *TransactionAdmitted) Type() EventType      { return EventTransactionAdmitted }
func (e *TransactionAdmitted) Timestamp() time.Time { return e.timestamp }
func (e *TransactionAdmitted) Ref() string          { return e.tx.ID }

func (e *TransactionAdmitted) Transaction() *types.Transaction { return e.tx }

// TransactionRejected fires when admission rejects a transaction.
type TransactionRejected struct {
	txID      string
	reason    string
	timestamp time.Time
}

func NewTransactionRejected(txID, reason string) *TransactionRejected {
	return &TransactionRejected{txID: txID, reason: reason, timestamp: time.Now()}
}

func (e *TransactionRejected) Type() EventType      { return EventTransactionRejected }
func (e *TransactionRejected) Timestamp() time.Time { return e.timestamp }
func (e *TransactionRejected) Ref() string          { return e.txID }

func (e *TransactionRejected) Reason() string { return e.reason }

// BlockSealed fires after the assembler appends a new block to the chain.
type BlockSealed struct {
	blk       *block.Block
	timestamp time.Time
}

func NewBlockSealed(blk *block.Block) *BlockSealed {
	return &BlockSealed{blk: blk, timestamp: time.Now()}
}

func (e *BlockSealed) Type() EventType      { return EventBlockSealed }
func (e *BlockSealed) Timestamp() time.Time { return e.timestamp }
func (e *BlockSealed) Ref() string          { return e.blk.Hash }

func (e *BlockSealed) Block() *block.Block { return e.blk }
