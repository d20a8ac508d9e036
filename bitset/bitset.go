// Package bitset implements the fixed-width bit vector used as a
// perceptual-hash representation, and the Hamming distance between
// two such vectors.
package bitset

import (
	"encoding/json"
	"fmt"
	"math/bits"
)

// ErrBitlenMismatch is returned when two BitHashes of different
// lengths are compared. It indicates a programmer error: every
// frame produced by a single FrameHasher configuration must share
// the same hash length.
var ErrBitlenMismatch = fmt.Errorf("bitset: bit length mismatch")

// BitHash is an immutable, fixed-length bit vector. It is cheap to
// share by reference: callers must not mutate the underlying words
// after construction.
type BitHash struct {
	bits   []uint64
	bitlen int
}

// New packs the given bits (one bool per bit, MSB-first within each
// word is not guaranteed or required — only self-consistency across
// bits produced by the same caller matters) into a BitHash.
func New(bitvals []bool) BitHash {
	n := len(bitvals)
	words := make([]uint64, (n+63)/64)
	for i, v := range bitvals {
		if v {
			words[i/64] |= 1 << uint(i%64)
		}
	}
	return BitHash{bits: words, bitlen: n}
}

// FromWords builds a BitHash directly from packed 64-bit words and an
// explicit bit length, trusting the caller that bitlen <= 64*len(words).
func FromWords(words []uint64, bitlen int) BitHash {
	cp := make([]uint64, len(words))
	copy(cp, words)
	return BitHash{bits: cp, bitlen: bitlen}
}

// Len returns the number of bits in the hash.
func (h BitHash) Len() int { return h.bitlen }

// Bit returns the value of bit i.
func (h BitHash) Bit(i int) bool {
	return h.bits[i/64]&(1<<uint(i%64)) != 0
}

// Words exposes the packed representation for callers (e.g. cache
// serialization) that need to persist a BitHash without going through
// individual bit access.
func (h BitHash) Words() []uint64 {
	cp := make([]uint64, len(h.bits))
	copy(cp, h.bits)
	return cp
}

// wireBitHash is BitHash's JSON wire shape, since Words/bitlen are
// unexported and the cache layer persists FileInfo (and therefore
// BitHash) as JSON (SPEC_FULL.md §4.11).
type wireBitHash struct {
	Words  []uint64 `json:"words"`
	Bitlen int      `json:"bitlen"`
}

func (h BitHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireBitHash{Words: h.bits, Bitlen: h.bitlen})
}

func (h *BitHash) UnmarshalJSON(data []byte) error {
	var w wireBitHash
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	h.bits = w.Words
	h.bitlen = w.Bitlen
	return nil
}

// Distance computes the Hamming distance between a and b: the number
// of bit positions at which they differ. It is defined only when both
// hashes share the same bit length; otherwise it returns
// ErrBitlenMismatch.
//
// Distance(a,a) == 0 and Distance(a,b) == Distance(b,a) for all
// equal-length a, b.
func Distance(a, b BitHash) (int, error) {
	if a.bitlen != b.bitlen {
		return 0, ErrBitlenMismatch
	}
	total := 0
	fullWords := a.bitlen / 64
	for i := 0; i < fullWords; i++ {
		total += bits.OnesCount64(a.bits[i] ^ b.bits[i])
	}
	// Trailing bits (bitlen not a multiple of 64) are masked to
	// bitlen and counted one bit at a time within the final partial
	// word.
	rem := a.bitlen % 64
	if rem > 0 {
		mask := uint64(1)<<uint(rem) - 1
		word := (a.bits[fullWords] ^ b.bits[fullWords]) & mask
		for word != 0 {
			total += int(word & 1)
			word >>= 1
		}
	}
	return total, nil
}

// MustDistance panics on a bit-length mismatch. Use only where the
// caller has already established both hashes share a length (e.g.
// inside FrameHasher, where the resolution is fixed for the run) —
// spec.md §7 classifies BitlenMismatch as a programmer error, fatal
// to the run.
func MustDistance(a, b BitHash) int {
	d, err := Distance(a, b)
	if err != nil {
		panic(err)
	}
	return d
}
