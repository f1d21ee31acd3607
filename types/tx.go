package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// Transaction is a signed transfer between two addresses. It is immutable
// once admitted to the pool.
type Transaction struct {
	ID        string       `json:"id"`
	Sender    string       `json:"sender"`
	Recipient string       `json:"recipient"`
	Amount    *uint256.Int `json:"amount"`
	Timestamp uint64       `json:"timestamp"`
	Signature string       `json:"signature,omitempty"`
}

// Serialize returns the canonical byte form of the transaction, the exact
// bytes that are signed and that feed block hashing. Field order is fixed:
//
//	id|sender|recipient|amount|timestamp
//
// with the amount as a decimal string. Changing this layout invalidates
// every existing signature and block hash.
func (tx *Transaction) Serialize() []byte {
	metadata := fmt.Sprintf("%s|%s|%s|%s|%d", tx.ID, tx.Sender, tx.Recipient, tx.AmountString(), tx.Timestamp)
	return []byte(metadata)
}

// AmountString renders the amount as a decimal string, "0" when unset.
func (tx *Transaction) AmountString() string {
	if tx.Amount == nil {
		return "0"
	}
	return tx.Amount.Dec()
}

func (tx *Transaction) Bytes() []byte {
	b, _ := json.Marshal(tx)
	return b
}

func (tx *Transaction) Hash() string {
	sum256 := sha256.Sum256(tx.Bytes())
	return hex.EncodeToString(sum256[:])
}
