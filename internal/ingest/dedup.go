package ingest

import (
	"crypto/sha256"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Digest identifies a line by content.
type Digest [sha256.Size]byte

// Sum returns the digest of line.
func Sum(line []byte) Digest {
	return sha256.Sum256(line)
}

// Dedup finds repeated lines over two passes with bounded memory.
//
// The first pass feeds every digest to a bloom filter; digests the filter
// claims to have seen are kept exactly as suspects. The second pass admits
// the first occurrence of each suspect and every other line unchanged, so a
// false positive costs memory, never a line.
type Dedup struct {
	mu       sync.Mutex
	filter   *bloom.BloomFilter
	suspects map[Digest]bool // true once admitted in the second pass
}

// NewDedup sizes the filter for capacity lines at false positive rate fpr.
func NewDedup(capacity uint, fpr float64) *Dedup {
	return &Dedup{
		filter:   bloom.NewWithEstimates(capacity, fpr),
		suspects: make(map[Digest]bool),
	}
}

// Observe records a line during the first pass.
func (d *Dedup) Observe(dg Digest) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.filter.TestOrAdd(dg[:]) {
		d.suspects[dg] = false
	}
}

// Admit reports whether a line should be kept during the second pass.
func (d *Dedup) Admit(dg Digest) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	admitted, suspect := d.suspects[dg]
	if !suspect {
		return true
	}
	if admitted {
		return false
	}
	d.suspects[dg] = true
	return true
}

// Suspects returns the number of digests tracked exactly.
func (d *Dedup) Suspects() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.suspects)
}
