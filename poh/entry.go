package poh

// Entry is one recorded tick of the hash clock: the hash produced by the
// tick and the count after it. Entries embedded in blocks form a chain that
// can be independently recomputed.
type Entry struct {
	Hash  string `json:"hash"`
	Count uint64 `json:"count"`
}
