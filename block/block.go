package block

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"pohchain/poh"
	"pohchain/types"
)

// Block is a sealed unit of the chain. Hash is a pure function of every
// other field; once sealed nothing in the block ever changes.
type Block struct {
	Hash         string               `json:"hash"`
	PrevHash     string               `json:"previous_hash"`
	Timestamp    int64                `json:"timestamp"` // UnixNano at assembly
	Transactions []*types.Transaction `json:"transactions"`
	PohHash      string               `json:"poh_hash"`
	PohCount     uint64               `json:"poh_count"`
}

// Genesis builds the index-0 block: zero previous hash, zero clock stamp,
// no transactions. Its hash is computed with the same scheme as every other
// block so full-chain verification recomputes uniformly from index 0.
func Genesis(ts time.Time) *Block {
	b := &Block{
		PrevHash:     poh.ZeroHash,
		Timestamp:    ts.UnixNano(),
		Transactions: nil,
		PohHash:      poh.ZeroHash,
		PohCount:     0,
	}
	b.Hash = b.ComputeHash()
	return b
}

// Assemble seals a new block over the drained transactions, the clock entry
// stamped for this block, and the predecessor's hash.
func Assemble(prevHash string, txs []*types.Transaction, entry poh.Entry, ts time.Time) *Block {
	b := &Block{
		PrevHash:     prevHash,
		Timestamp:    ts.UnixNano(),
		Transactions: txs,
		PohHash:      entry.Hash,
		PohCount:     entry.Count,
	}
	b.Hash = b.ComputeHash()
	return b
}

// ComputeHash derives the block hash from all fields except Hash itself.
// The canonical byte layout is fixed:
//
//	prev_hash, timestamp (uint64 BE), poh_hash, poh_count (uint64 BE),
//	then per transaction: Serialize() followed by the signature bytes.
//
// The same function runs at seal time and at verification time.
func (b *Block) ComputeHash() string {
	h := sha256.New()
	buf := make([]byte, 8)

	h.Write([]byte(b.PrevHash))
	binary.BigEndian.PutUint64(buf, uint64(b.Timestamp))
	h.Write(buf)
	h.Write([]byte(b.PohHash))
	binary.BigEndian.PutUint64(buf, b.PohCount)
	h.Write(buf)

	for _, tx := range b.Transactions {
		h.Write(tx.Serialize())
		h.Write([]byte(tx.Signature))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// PohEntry returns the clock stamp sealed into the block.
func (b *Block) PohEntry() poh.Entry {
	return poh.Entry{Hash: b.PohHash, Count: b.PohCount}
}

// TxIDs returns the identifiers of the sealed transactions in order.
func (b *Block) TxIDs() []string {
	ids := make([]string, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		ids = append(ids, tx.ID)
	}
	return ids
}
