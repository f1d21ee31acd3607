package poh

import "fmt"

// MismatchError reports the first entry whose hash or count does not match
// the recomputed tick chain.
type MismatchError struct {
	Index    int
	Expected Entry
	Got      Entry
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("poh mismatch: entry=%d expected=(%s,%d) got=(%s,%d)",
		e.Index, e.Expected.Hash, e.Expected.Count, e.Got.Hash, e.Got.Count)
}

// VerifyEntries independently recomputes the tick chain starting from
// (startHash, startCount) and confirms each entry matches.
func VerifyEntries(entries []Entry, startHash string, startCount uint64) error {
	cur := startHash
	count := startCount

	for i, e := range entries {
		cur = nextHash(cur, count)
		count++

		if e.Count != count || e.Hash != cur {
			return &MismatchError{
				Index:    i,
				Expected: Entry{Hash: cur, Count: count},
				Got:      e,
			}
		}
	}

	return nil
}
