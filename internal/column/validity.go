// Package column implements the dtype-homogeneous value vector plus
// validity bitmap pair (Column) and its arithmetic/comparison/filter
// kernels.
package column

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// ValidityMask is a packed bit sequence of length n; bit i == 1 iff row i
// is valid (not missing). It is backed by a compressed roaring bitmap,
// which is cheap to build, cheap to AND/OR across alignment kernels, and
// dense-packs runs of all-valid data (the common case) far better than a
// flat []bool.
//
// ValidityMask is immutable after construction; every transformation
// (reindex, filter, concat) builds a new mask.
type ValidityMask struct {
	bits *roaring.Bitmap
	n    int
}

// NewValidityMask builds a mask of length len(valid) directly from a
// bool slice.
func NewValidityMask(valid []bool) ValidityMask {
	bm := roaring.New()
	for i, v := range valid {
		if v {
			bm.Add(uint32(i))
		}
	}
	return ValidityMask{bits: bm, n: len(valid)}
}

// AllValid builds a length-n mask with every bit set.
func AllValid(n int) ValidityMask {
	bm := roaring.New()
	if n > 0 {
		bm.AddRange(0, uint64(n))
	}
	return ValidityMask{bits: bm, n: n}
}

// AllInvalid builds a length-n mask with every bit clear.
func AllInvalid(n int) ValidityMask {
	return ValidityMask{bits: roaring.New(), n: n}
}

// Len reports the mask's bit-length, which must equal the owning
// Column's row count on every operation.
func (m ValidityMask) Len() int { return m.n }

// IsValid reports whether row i is valid. Panics on out-of-range i, the
// same discipline as a slice index.
func (m ValidityMask) IsValid(i int) bool {
	if i < 0 || i >= m.n {
		panic(fmt.Sprintf("column: validity index %d out of range [0,%d)", i, m.n))
	}
	if m.bits == nil {
		return false
	}
	return m.bits.Contains(uint32(i))
}

// CountValid returns the number of set bits.
func (m ValidityMask) CountValid() int64 {
	if m.bits == nil {
		return 0
	}
	return int64(m.bits.GetCardinality())
}

// CountInvalid returns the number of clear bits.
func (m ValidityMask) CountInvalid() int64 {
	return int64(m.n) - m.CountValid()
}

// ToBoolSlice materializes the mask as a []bool of length Len(). Used by
// kernels that need random-access validity alongside a plain value
// slice; prefer IsValid for single-bit checks on large masks.
func (m ValidityMask) ToBoolSlice() []bool {
	out := make([]bool, m.n)
	if m.bits == nil {
		return out
	}
	it := m.bits.Iterator()
	for it.HasNext() {
		out[it.Next()] = true
	}
	return out
}

// validityBuilder accumulates valid/invalid decisions row by row; used
// by kernels that produce a new Column and don't already have a []bool
// in hand.
type validityBuilder struct {
	bm  *roaring.Bitmap
	n   int
	pos uint32
}

func newValidityBuilder(capacity int) *validityBuilder {
	return &validityBuilder{bm: roaring.New()}
}

func (b *validityBuilder) push(valid bool) {
	if valid {
		b.bm.Add(b.pos)
	}
	b.pos++
	b.n++
}

func (b *validityBuilder) build() ValidityMask {
	return ValidityMask{bits: b.bm, n: b.n}
}
