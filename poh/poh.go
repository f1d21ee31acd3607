package poh

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
)

// ZeroHash is the 64-zero seed the clock and the genesis block start from.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// DefaultTickRate is the nominal hashes-per-second pacing hint. It is
// advisory only and never enforced.
const DefaultTickRate uint64 = 1_000_000

// Clock produces a verifiable, strictly ordered sequence of hashes standing
// in for elapsed time. Every tick consumes the current (hash, count) pair
// and yields the next one; ticks are never skipped, reordered, or replayed.
type Clock struct {
	mu       sync.Mutex
	hash     string
	count    uint64
	tickRate uint64
}

// NewClock returns a clock seeded at the zero hash with count 0.
func NewClock() *Clock {
	return &Clock{
		hash:     ZeroHash,
		count:    0,
		tickRate: DefaultTickRate,
	}
}

// NewClockAt returns a clock resumed at a known (hash, count) pair, e.g.
// after restoring the chain tip from a persistence collaborator.
func NewClockAt(hash string, count uint64) *Clock {
	return &Clock{
		hash:     hash,
		count:    count,
		tickRate: DefaultTickRate,
	}
}

// SetTickRate overrides the advisory pacing hint.
func (c *Clock) SetTickRate(rate uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rate > 0 {
		c.tickRate = rate
	}
}

// TickRate returns the advisory pacing hint.
func (c *Clock) TickRate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickRate
}

// Tick advances the clock by exactly one step and returns the new entry.
// The next hash is computed from the current hash and the current count;
// the call is atomic with respect to any other reader or writer.
func (c *Clock) Tick() Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hash = nextHash(c.hash, c.count)
	c.count++

	return Entry{Hash: c.hash, Count: c.count}
}

// Current returns the clock state without advancing it.
func (c *Clock) Current() Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Entry{Hash: c.hash, Count: c.count}
}

// nextHash hashes the concatenation of the current hex hash and the current
// count rendered as decimal text. This is the single place the tick
// function is defined; verification recomputes it byte for byte.
func nextHash(hash string, count uint64) string {
	sum := sha256.Sum256([]byte(hash + strconv.FormatUint(count, 10)))
	return hex.EncodeToString(sum[:])
}
