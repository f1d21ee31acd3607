package pgstore

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"pohchain/block"
	"pohchain/poh"
	"pohchain/types"
	"pohchain/wallet"
)

// openTestStore connects to the database named by TEST_POSTGRES_DSN and
// starts from empty tables. Skipped when no database is available.
func openTestStore(t *testing.T) *PGStore {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	store, err := Open(dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if _, err := store.db.Exec(`TRUNCATE transactions, blocks, wallets`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return store
}

func testTxAt(ts uint64) *types.Transaction {
	return &types.Transaction{
		ID:        uuid.NewString(),
		Sender:    "sender",
		Recipient: "recipient",
		Amount:    uint256.NewInt(10),
		Timestamp: ts,
		Signature: "sig",
	}
}

func TestSaveBlockRestoresSealedOrder(t *testing.T) {
	store := openTestStore(t)

	// first-admitted tx carries the LATER wallet timestamp, so sealed
	// order and timestamp order disagree
	first := testTxAt(200)
	second := testTxAt(100)
	blk := block.Assemble(poh.ZeroHash, []*types.Transaction{first, second},
		poh.Entry{Hash: "stamp", Count: 1}, time.Now())

	if err := store.SaveBlock(blk); err != nil {
		t.Fatalf("save block: %v", err)
	}

	got, err := store.LatestBlock()
	if err != nil {
		t.Fatalf("latest block: %v", err)
	}
	if got == nil {
		t.Fatalf("expected a restored block")
	}
	if len(got.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got.Transactions))
	}
	if got.Transactions[0].ID != first.ID || got.Transactions[1].ID != second.ID {
		t.Fatalf("sealed order not preserved across restore")
	}
	if got.ComputeHash() != got.Hash {
		t.Fatalf("restored block hash does not recompute")
	}
}

func TestLatestBlockTracksHighestCount(t *testing.T) {
	store := openTestStore(t)

	b1 := block.Assemble(poh.ZeroHash, nil, poh.Entry{Hash: "s1", Count: 1}, time.Now())
	b2 := block.Assemble(b1.Hash, nil, poh.Entry{Hash: "s2", Count: 2}, time.Now())
	for _, b := range []*block.Block{b1, b2} {
		if err := store.SaveBlock(b); err != nil {
			t.Fatalf("save block: %v", err)
		}
	}

	got, err := store.LatestBlock()
	if err != nil {
		t.Fatalf("latest block: %v", err)
	}
	if got == nil || got.Hash != b2.Hash {
		t.Fatalf("expected latest to be the highest-count block")
	}
}

func TestWalletRoundTrip(t *testing.T) {
	store := openTestStore(t)

	w, err := wallet.NewWallet()
	if err != nil {
		t.Fatalf("wallet generation failed: %v", err)
	}
	if err := store.SaveWallet(w); err != nil {
		t.Fatalf("save wallet: %v", err)
	}

	got, err := store.GetWallet(w.Address)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if got == nil || got.ID != w.ID {
		t.Fatalf("wallet did not round-trip")
	}

	missing, err := store.GetWallet("missing")
	if err != nil {
		t.Fatalf("get missing wallet: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent wallet")
	}
}
