package column

import (
	"math"

	"tabula/internal/typesys"
)

func mathIsNaN(f float64) bool { return math.IsNaN(f) }

// Column is a dtype-homogeneous value vector plus a validity bitmap of
// the same length. It is constructed once and never mutated afterward;
// every transformation in this package returns a new Column.
//
// Storage is dtype-specialized (bools/ints/floats/strs) rather than a
// generic []Scalar slice, which gives every homogeneous Float64/Int64
// Column a vectorizable fast path "for free" instead of as a bolted-on
// special case; Column.At still exposes the value through the uniform
// typesys.Scalar tagged union for callers (Index, Frame, Groupby, Join)
// that don't care about the storage specialization.
type Column struct {
	dtype    typesys.DType
	validity ValidityMask
	bools    []bool
	ints     []int64
	floats   []float64
	strs     []string

	// floatNullKinds records, per row, the NullKind of a missing Float64
	// cell (KindNaN vs. an explicit KindNull from the builder). nil for
	// every other dtype, where missing is always KindNull.
	floatNullKinds []typesys.NullKind
}

// Len returns the row count, i.e. the shared length of values and
// validity.
func (c Column) Len() int { return c.validity.Len() }

// DType reports the column's dtype.
func (c Column) DType() typesys.DType { return c.dtype }

// Validity exposes the column's validity mask.
func (c Column) Validity() ValidityMask { return c.validity }

// At materializes row i as a Scalar. Panics on out-of-range i.
func (c Column) At(i int) typesys.Scalar {
	if !c.validity.IsValid(i) {
		return typesys.NullScalar(c.dtype, c.nullKindAt(i))
	}
	switch c.dtype {
	case typesys.Bool:
		return typesys.BoolScalar(c.bools[i])
	case typesys.Int64:
		return typesys.Int64Scalar(c.ints[i])
	case typesys.Float64:
		return typesys.Float64Scalar(c.floats[i])
	case typesys.Utf8:
		return typesys.Utf8Scalar(c.strs[i])
	default:
		return typesys.NullScalar(typesys.Null, typesys.KindNull)
	}
}

// nullKindAt recovers the recorded NullKind for a missing Float64 cell
// (NaN-induced misses use KindNaN, explicit builder misses use
// KindNull); every other dtype's missing cells are always KindNull.
func (c Column) nullKindAt(i int) typesys.NullKind {
	if c.dtype != typesys.Float64 {
		return typesys.KindNull
	}
	if i < len(c.floatNullKinds) {
		return c.floatNullKinds[i]
	}
	if i < len(c.floats) && mathIsNaN(c.floats[i]) {
		return typesys.KindNaN
	}
	return typesys.KindNull
}

// Builder accumulates Scalars into a new Column. It is the canonical
// construction path: From infers dtype via typesys.InferDType and
// delegates to it.
type Builder struct {
	dtype    typesys.DType
	explicit bool
	bools    []bool
	ints     []int64
	floats   []float64
	strs     []string
	valid    *validityBuilder
	nullKind []typesys.NullKind
}

// NewBuilder starts a Builder for a known dtype. Use From when the
// dtype must be inferred from the data itself.
func NewBuilder(dtype typesys.DType, capacity int) *Builder {
	return &Builder{
		dtype:    dtype,
		explicit: true,
		valid:    newValidityBuilder(capacity),
	}
}

// Push appends s, casting it into the builder's dtype if needed.
// Returns an error if s cannot be cast.
func (b *Builder) Push(s typesys.Scalar) error {
	if s.IsMissing() {
		b.pushMissing(s.NullKind())
		return nil
	}
	cast, err := s.Cast(b.dtype)
	if err != nil {
		return &TypeMismatchError{Have: s.DType(), Want: b.dtype}
	}
	switch b.dtype {
	case typesys.Bool:
		v, _ := cast.Bool()
		b.bools = append(b.bools, v)
	case typesys.Int64:
		v, _ := cast.Int64()
		b.ints = append(b.ints, v)
	case typesys.Float64:
		v, _ := cast.Float64()
		b.floats = append(b.floats, v)
		b.nullKind = append(b.nullKind, typesys.KindNull)
	case typesys.Utf8:
		v, _ := cast.Utf8()
		b.strs = append(b.strs, v)
	}
	b.valid.push(true)
	return nil
}

func (b *Builder) pushMissing(kind typesys.NullKind) {
	switch b.dtype {
	case typesys.Bool:
		b.bools = append(b.bools, false)
	case typesys.Int64:
		b.ints = append(b.ints, 0)
	case typesys.Float64:
		b.floats = append(b.floats, 0)
		b.nullKind = append(b.nullKind, orNullKind(kind))
	case typesys.Utf8:
		b.strs = append(b.strs, "")
	}
	b.valid.push(false)
}

func orNullKind(k typesys.NullKind) typesys.NullKind {
	return k
}

// Build finalizes the Builder into an immutable Column.
func (b *Builder) Build() Column {
	c := Column{
		dtype:    b.dtype,
		validity: b.valid.build(),
		bools:    b.bools,
		ints:     b.ints,
		floats:   b.floats,
		strs:     b.strs,
	}
	c.floatNullKinds = b.nullKind
	return c
}

// From constructs a Column from a raw Scalar slice, inferring the dtype
// via typesys.InferDType (a fold of CommonDType), then casting every
// element into it.
func From(values []typesys.Scalar) (Column, error) {
	dtypes := make([]typesys.DType, len(values))
	for i, v := range values {
		dtypes[i] = v.DType()
	}
	dtype, err := typesys.InferDType(dtypes)
	if err != nil {
		return Column{}, err
	}
	b := NewBuilder(dtype, len(values))
	for _, v := range values {
		if err := b.Push(v); err != nil {
			return Column{}, err
		}
	}
	return b.Build(), nil
}

// FromInt64 builds a non-null Int64 Column directly from a slice,
// bypassing the Scalar round trip for the dense fast path producers
// (groupby/join emission).
func FromInt64(values []int64) Column {
	return Column{dtype: typesys.Int64, validity: AllValid(len(values)), ints: append([]int64(nil), values...)}
}

// FromFloat64 builds a Float64 Column directly from a slice plus an
// explicit validity mask (NaN entries are still treated as missing by
// every downstream kernel regardless of the mask, per typesys's
// IsMissing contract).
func FromFloat64(values []float64, valid ValidityMask) Column {
	n := valid.Len()
	vb := newValidityBuilder(n)
	for i := 0; i < n; i++ {
		vb.push(valid.IsValid(i) && !(i < len(values) && mathIsNaN(values[i])))
	}
	return Column{dtype: typesys.Float64, validity: vb.build(), floats: append([]float64(nil), values...)}
}

// FromUtf8 builds a non-null Utf8 Column directly from a slice.
func FromUtf8(values []string) Column {
	return Column{dtype: typesys.Utf8, validity: AllValid(len(values)), strs: append([]string(nil), values...)}
}

// FromBool builds a non-null Bool Column directly from a slice.
func FromBool(values []bool) Column {
	return Column{dtype: typesys.Bool, validity: AllValid(len(values)), bools: append([]bool(nil), values...)}
}

// Int64Values exposes the raw backing slice for the dense numeric fast
// path (groupby/join). Only valid when DType() == Int64; callers must
// consult Validity() for missingness.
func (c Column) Int64Values() []int64 { return c.ints }

// Float64Values exposes the raw backing slice for the dense numeric fast
// path. Only valid when DType() == Float64.
func (c Column) Float64Values() []float64 { return c.floats }

// Utf8Values exposes the raw backing slice. Only valid when DType() == Utf8.
func (c Column) Utf8Values() []string { return c.strs }

// BoolValues exposes the raw backing slice. Only valid when DType() == Bool.
func (c Column) BoolValues() []bool { return c.bools }
