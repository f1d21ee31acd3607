package chain

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"pohchain/block"
	"pohchain/errors"
	"pohchain/poh"
	"pohchain/types"
)

func testTx(id string) *types.Transaction {
	return &types.Transaction{
		ID:        id,
		Sender:    "sender",
		Recipient: "recipient",
		Amount:    uint256.NewInt(10),
		Timestamp: 1_700_000_000,
		Signature: "sig-" + id,
	}
}

// mineOnto ticks the clock once and appends a block holding txs.
func mineOnto(t *testing.T, c *Chain, clock *poh.Clock, txs []*types.Transaction) *block.Block {
	t.Helper()
	entry := clock.Tick()
	b := block.Assemble(c.Latest().Hash, txs, entry, time.Now())
	if err := c.Append(b); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	return b
}

func TestNewChainHoldsGenesis(t *testing.T) {
	c := NewChain()
	if c.Height() != 1 {
		t.Fatalf("expected height 1, got %d", c.Height())
	}
	g := c.Latest()
	if g.PrevHash != poh.ZeroHash || g.PohCount != 0 {
		t.Fatalf("unexpected genesis shape: %+v", g)
	}
}

func TestAppendExtendsTip(t *testing.T) {
	c := NewChain()
	clock := poh.NewClock()

	b1 := mineOnto(t, c, clock, []*types.Transaction{testTx("a")})
	b2 := mineOnto(t, c, clock, nil)

	if c.Height() != 3 {
		t.Fatalf("expected height 3, got %d", c.Height())
	}
	if c.Latest().Hash != b2.Hash {
		t.Fatalf("tip is not the last appended block")
	}
	if b2.PrevHash != b1.Hash {
		t.Fatalf("linkage broken between b1 and b2")
	}
}

func TestAppendRejectsBadLinkage(t *testing.T) {
	c := NewChain()
	clock := poh.NewClock()

	b := block.Assemble("not-the-tip", nil, clock.Tick(), time.Now())
	if err := c.Append(b); err == nil {
		t.Fatalf("expected append to reject block not linked to tip")
	}
	if c.Height() != 1 {
		t.Fatalf("rejected block must not extend the chain")
	}
}

func TestGetByHash(t *testing.T) {
	c := NewChain()
	clock := poh.NewClock()
	b := mineOnto(t, c, clock, []*types.Transaction{testTx("a")})

	got, ok := c.Get(b.Hash)
	if !ok || got.Hash != b.Hash {
		t.Fatalf("lookup by hash failed")
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss for unknown hash")
	}
}

func TestVerifyValidChain(t *testing.T) {
	c := NewChain()
	clock := poh.NewClock()
	for i := 0; i < 10; i++ {
		mineOnto(t, c, clock, []*types.Transaction{testTx(string(rune('a' + i)))})
	}

	if err := c.Verify(); err != nil {
		t.Fatalf("expected valid chain, got %v", err)
	}
}

func TestVerifyDetectsTamperedTransaction(t *testing.T) {
	c := NewChain()
	clock := poh.NewClock()
	for i := 0; i < 5; i++ {
		mineOnto(t, c, clock, []*types.Transaction{testTx(string(rune('a' + i)))})
	}

	// corrupt the amount of a transaction inside block 3
	c.Blocks()[3].Transactions[0].Amount = uint256.NewInt(1_000_000)

	err := c.Verify()
	if err == nil {
		t.Fatalf("expected corruption to be detected")
	}
	var ce *errors.CorruptionError
	if !stderrors.As(err, &ce) {
		t.Fatalf("expected CorruptionError, got %T", err)
	}
	if ce.Index != 3 {
		t.Fatalf("expected corruption at block 3, got %d", ce.Index)
	}
}

func TestVerifyDetectsTamperedClockStamp(t *testing.T) {
	c := NewChain()
	clock := poh.NewClock()
	for i := 0; i < 5; i++ {
		mineOnto(t, c, clock, nil)
	}

	// rewrite a clock stamp and reseal so the block hash still recomputes
	b := c.Blocks()[2]
	b.PohHash = poh.ZeroHash
	b.Hash = b.ComputeHash()
	// repair forward linkage so only the clock chain is broken
	c.Blocks()[3].PrevHash = b.Hash
	c.Blocks()[3].Hash = c.Blocks()[3].ComputeHash()
	c.Blocks()[4].PrevHash = c.Blocks()[3].Hash
	c.Blocks()[4].Hash = c.Blocks()[4].ComputeHash()

	err := c.Verify()
	if err == nil {
		t.Fatalf("expected clock chain breakage to be detected")
	}
	var ce *errors.CorruptionError
	if !stderrors.As(err, &ce) {
		t.Fatalf("expected CorruptionError, got %T", err)
	}
	if ce.Index != 2 {
		t.Fatalf("expected corruption at block 2, got %d", ce.Index)
	}
}

func TestNewChainFromRestoredTip(t *testing.T) {
	c := NewChain()
	clock := poh.NewClock()
	for i := 0; i < 3; i++ {
		mineOnto(t, c, clock, []*types.Transaction{testTx(string(rune('a' + i)))})
	}
	tip := c.Latest()

	restored := NewChainFrom(tip)
	resumed := poh.NewClockAt(tip.PohHash, tip.PohCount)
	if restored.Height() != 1 || restored.Latest().Hash != tip.Hash {
		t.Fatalf("restored chain must root at the persisted tip")
	}

	b := mineOnto(t, restored, resumed, []*types.Transaction{testTx("x")})
	if b.PohCount != tip.PohCount+1 {
		t.Fatalf("resumed clock must continue from the tip count, got %d", b.PohCount)
	}
	mineOnto(t, restored, resumed, nil)

	if err := restored.Verify(); err != nil {
		t.Fatalf("restored chain must verify from its root: %v", err)
	}
}

func TestVerifyDetectsBrokenLinkage(t *testing.T) {
	c := NewChain()
	clock := poh.NewClock()
	for i := 0; i < 4; i++ {
		mineOnto(t, c, clock, nil)
	}

	tampered := c.Blocks()[2]
	tampered.PrevHash = poh.ZeroHash
	tampered.Hash = tampered.ComputeHash()

	err := c.Verify()
	if err == nil {
		t.Fatalf("expected linkage breakage to be detected")
	}
	var ce *errors.CorruptionError
	if !stderrors.As(err, &ce) {
		t.Fatalf("expected CorruptionError, got %T", err)
	}
}
