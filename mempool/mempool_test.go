package mempool

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/holiman/uint256"

	"pohchain/errors"
	"pohchain/types"
	"pohchain/wallet"
)

// ----------------- Helpers -----------------

var testWallet *wallet.Wallet

func init() {
	w, err := wallet.NewWallet()
	if err != nil {
		panic(err)
	}
	testWallet = w
}

func createTestTx(amount uint64) *types.Transaction {
	return testWallet.NewTransaction("recipient", uint256.NewInt(amount))
}

func newTestMempool(max int) *Mempool {
	return NewMempool(max, wallet.NewEd25519Verifier(), nil)
}

// ----------------- Tests -----------------

func TestNewMempoolIsEmpty(t *testing.T) {
	mp := newTestMempool(100)
	if mp == nil {
		t.Fatal("NewMempool returned nil")
	}
	if mp.Size() != 0 {
		t.Fatalf("expected empty mempool, got %d", mp.Size())
	}
}

func TestAddTxSuccess(t *testing.T) {
	mp := newTestMempool(10)
	tx := createTestTx(10)

	id, err := mp.AddTx(tx)
	if err != nil {
		t.Fatalf("expected add tx success, got err: %v", err)
	}
	if id != tx.ID {
		t.Fatalf("expected returned id %s, got %s", tx.ID, id)
	}
	if mp.Size() != 1 {
		t.Fatalf("expected size 1 after add, got %d", mp.Size())
	}
	if !mp.Contains(tx.ID) {
		t.Fatalf("expected pool to contain %s", tx.ID)
	}
}

func TestAddTxDuplicateRejected(t *testing.T) {
	mp := newTestMempool(10)
	tx := createTestTx(10)

	if _, err := mp.AddTx(tx); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	_, err := mp.AddTx(tx)
	if err == nil {
		t.Fatalf("expected duplicate add to fail")
	}
	if !errors.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if mp.Size() != 1 {
		t.Fatalf("expected only the first occurrence in pool, got %d", mp.Size())
	}
}

func TestAddTxZeroAmountRejected(t *testing.T) {
	mp := newTestMempool(10)
	tx := createTestTx(0)

	if _, err := mp.AddTx(tx); err == nil {
		t.Fatalf("expected zero amount to be rejected")
	}
	if mp.Size() != 0 {
		t.Fatalf("rejected tx must not enter the pool, size=%d", mp.Size())
	}
}

func TestAddTxNilAmountRejected(t *testing.T) {
	mp := newTestMempool(10)
	tx := createTestTx(5)
	tx.Amount = nil

	if _, err := mp.AddTx(tx); err == nil {
		t.Fatalf("expected nil amount to be rejected")
	}
}

func TestAddTxBadSignatureRejected(t *testing.T) {
	mp := newTestMempool(10)
	tx := createTestTx(10)
	// mutate a signed field: the signature no longer covers the bytes
	tx.Amount = uint256.NewInt(9999)

	_, err := mp.AddTx(tx)
	if err == nil {
		t.Fatalf("expected tampered tx to be rejected")
	}
	if mp.Size() != 0 {
		t.Fatalf("rejected tx must not enter the pool")
	}
}

func TestPullAllPreservesFIFOOrder(t *testing.T) {
	mp := newTestMempool(10)
	a := createTestTx(1)
	b := createTestTx(2)
	c := createTestTx(3)

	for _, tx := range []*types.Transaction{a, b, c} {
		if _, err := mp.AddTx(tx); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	out := mp.PullAll()
	if len(out) != 3 {
		t.Fatalf("expected 3 txs, got %d", len(out))
	}
	if out[0].ID != a.ID || out[1].ID != b.ID || out[2].ID != c.ID {
		t.Fatalf("drain order broken: %s %s %s", out[0].ID, out[1].ID, out[2].ID)
	}
	if mp.Size() != 0 {
		t.Fatalf("expected empty pool after drain, got %d", mp.Size())
	}
}

func TestPullAllEmptyPool(t *testing.T) {
	mp := newTestMempool(10)
	if out := mp.PullAll(); out != nil {
		t.Fatalf("expected nil drain from empty pool, got %d txs", len(out))
	}
}

func TestMarkIncludedBlocksResubmission(t *testing.T) {
	mp := newTestMempool(10)
	tx := createTestTx(10)

	if _, err := mp.AddTx(tx); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	drained := mp.PullAll()
	mp.MarkIncluded([]string{drained[0].ID})

	if _, err := mp.AddTx(tx); err == nil {
		t.Fatalf("expected sealed id to stay deduplicated")
	}
}

func TestAddTxFullMempool(t *testing.T) {
	mp := newTestMempool(1)

	if _, err := mp.AddTx(createTestTx(1)); err != nil {
		t.Fatalf("add tx1 failed: %v", err)
	}
	_, err := mp.AddTx(createTestTx(1))
	if err == nil {
		t.Fatalf("expected add tx2 to fail due mempool full")
	}
	// a full pool is retryable backpressure, not a terminal rejection
	if !stderrors.Is(err, errors.ErrMempoolFull) {
		t.Fatalf("expected ErrMempoolFull, got %v", err)
	}
	if errors.IsValidation(err) {
		t.Fatalf("full-pool rejection must not be a ValidationError")
	}
}

func TestConcurrentAdds(t *testing.T) {
	mp := newTestMempool(200)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			tx := createTestTx(uint64(1 + id))
			if _, err := mp.AddTx(tx); err != nil {
				t.Errorf("concurrent add %d failed: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	if mp.Size() != 20 {
		t.Fatalf("expected 20 tx in mempool after concurrent adds, got %d", mp.Size())
	}
}

func TestPendingSnapshot(t *testing.T) {
	mp := newTestMempool(10)
	var ids []string
	for i := 0; i < 3; i++ {
		tx := createTestTx(uint64(i + 1))
		ids = append(ids, tx.ID)
		if _, err := mp.AddTx(tx); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	snap := mp.Pending()
	if len(snap) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(snap))
	}
	for i, tx := range snap {
		if tx.ID != ids[i] {
			t.Fatalf("snapshot order broken at %d", i)
		}
	}
	// the snapshot must not drain
	if mp.Size() != 3 {
		t.Fatalf("Pending must not drain the pool, size=%d", mp.Size())
	}
}

func TestRejectionReasonCodes(t *testing.T) {
	mp := newTestMempool(10)

	cases := []struct {
		name string
		tx   *types.Transaction
		code errors.ErrorCode
	}{
		{"zero amount", createTestTx(0), errors.ErrCodeInvalidAmount},
		{"missing recipient", func() *types.Transaction {
			tx := createTestTx(5)
			tx.Recipient = ""
			return tx
		}(), errors.ErrCodeInvalidTransaction},
	}

	for _, tc := range cases {
		_, err := mp.AddTx(tc.tx)
		if err == nil {
			t.Fatalf("%s: expected rejection", tc.name)
		}
		ve, okCast := err.(*errors.ValidationError)
		if !okCast {
			t.Fatalf("%s: expected ValidationError, got %T", tc.name, err)
		}
		if ve.Code != tc.code {
			t.Fatalf("%s: expected code %s, got %s", tc.name, tc.code, ve.Code)
		}
	}
}
