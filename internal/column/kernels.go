package column

import (
	"golang.org/x/exp/constraints"

	"tabula/internal/typesys"
)

// ArithOp enumerates the binary numeric operations BinaryNumeric
// supports.
type ArithOp int

const (
	Add ArithOp = iota
	Sub
	Mul
	Div
)

// CompareOp enumerates the binary comparison operations
// BinaryComparison and CompareScalar support.
type CompareOp int

const (
	Gt CompareOp = iota
	Lt
	Eq
	Ne
	Ge
	Le
)

// BinaryNumeric computes l `op` r elementwise. Both columns must have
// equal length. Output dtype is CommonDType(l.DType(), r.DType()),
// except Div which always promotes to Float64. Missingness on either
// side propagates to a missing output cell; otherwise arithmetic uses
// Go's native wrapping signed-integer semantics.
//
// Int64/Int64 pairs, and Float64/Float64 pairs whose columns carry no
// per-row NullKind record (i.e. not built through Builder), take a
// vectorized fast path over the raw backing slices when the op is not
// Div; every other pairing falls back to the elementwise Scalar path,
// which is the semantic oracle the
// fast path is required to match bit-for-bit (modulo NaN bit patterns,
// which typesys already normalizes away via Scalar equality).
func BinaryNumeric(l, r Column, op ArithOp) (Column, error) {
	if l.Len() != r.Len() {
		return Column{}, &LengthMismatchError{Left: l.Len(), Right: r.Len()}
	}
	if !l.dtype.IsNumeric() && l.dtype != typesys.Null {
		return Column{}, &UnsupportedOpError{Op: arithOpName(op), DType: l.dtype}
	}
	if !r.dtype.IsNumeric() && r.dtype != typesys.Null {
		return Column{}, &UnsupportedOpError{Op: arithOpName(op), DType: r.dtype}
	}
	out, err := typesys.CommonDType(l.dtype, r.dtype)
	if err != nil {
		return Column{}, err
	}
	if op == Div {
		out = typesys.Float64
	}
	if out == typesys.Null {
		out = typesys.Int64
	}

	if op != Div && out == typesys.Int64 && canFastPathInt(l, r) {
		out64 := fastPathNumeric(l.ints, r.ints, l.validity, r.validity, op)
		return Column{dtype: typesys.Int64, validity: newValidityFromFast(l.validity, r.validity), ints: out64}, nil
	}
	if op != Div && out == typesys.Float64 && canFastPathFloat(l, r) {
		outv := newValidityFromFast(l.validity, r.validity)
		outf := fastPathNumeric(l.floats, r.floats, l.validity, r.validity, op)
		return Column{dtype: typesys.Float64, validity: outv, floats: outf, floatNullKinds: fastPathFloatNullKinds(outv)}, nil
	}
	return scalarArith(l, r, op, out), nil
}

func canFastPathInt(l, r Column) bool {
	return l.dtype == typesys.Int64 && r.dtype == typesys.Int64
}

func canFastPathFloat(l, r Column) bool {
	return l.dtype == typesys.Float64 && r.dtype == typesys.Float64 && l.floatNullKinds == nil && r.floatNullKinds == nil
}

// fastPathNumeric vectorizes Add/Sub/Mul over two equal-length raw
// backing slices of the same numeric type, matching the missing-cell
// semantics of scalarArith bit-for-bit on valid cells. Shared by the
// Int64 and Float64 fast paths in BinaryNumeric.
func fastPathNumeric[T constraints.Integer | constraints.Float](l, r []T, lv, rv ValidityMask, op ArithOp) []T {
	n := len(l)
	out := make([]T, n)
	for i := 0; i < n; i++ {
		if !lv.IsValid(i) || !rv.IsValid(i) {
			continue
		}
		a, b := l[i], r[i]
		switch op {
		case Add:
			out[i] = a + b
		case Sub:
			out[i] = a - b
		case Mul:
			out[i] = a * b
		}
	}
	return out
}

// fastPathFloatNullKinds mirrors missingKind's unconditional KindNaN
// rule for Float64 arithmetic output: every missing output cell, no
// matter which side or why it was missing, reports KindNaN. Without
// this the fast path's output would fall back to nullKindAt's
// NaN-sniffing default (KindNull, since the underlying float is a
// plain zero value, not an actual NaN bit pattern), diverging from
// scalarArith on the identical input.
func fastPathFloatNullKinds(v ValidityMask) []typesys.NullKind {
	n := v.Len()
	kinds := make([]typesys.NullKind, n)
	for i := 0; i < n; i++ {
		if !v.IsValid(i) {
			kinds[i] = typesys.KindNaN
		}
	}
	return kinds
}

func newValidityFromFast(l, r ValidityMask) ValidityMask {
	n := l.Len()
	vb := newValidityBuilder(n)
	for i := 0; i < n; i++ {
		vb.push(l.IsValid(i) && r.IsValid(i))
	}
	return vb.build()
}

func scalarArith(l, r Column, op ArithOp, out typesys.DType) Column {
	n := l.Len()
	b := NewBuilder(out, n)
	for i := 0; i < n; i++ {
		av, bv := l.At(i), r.At(i)
		if av.IsMissing() || bv.IsMissing() {
			_ = b.Push(typesys.NullScalar(out, missingKind(out, av, bv)))
			continue
		}
		res, ok := applyArith(av, bv, op, out)
		if !ok {
			_ = b.Push(typesys.NullScalar(out, typesys.KindNull))
			continue
		}
		_ = b.Push(res)
	}
	return b.Build()
}

func missingKind(out typesys.DType, av, bv typesys.Scalar) typesys.NullKind {
	if out == typesys.Float64 {
		return typesys.KindNaN
	}
	if av.IsMissing() {
		return av.NullKind()
	}
	return bv.NullKind()
}

func applyArith(av, bv typesys.Scalar, op ArithOp, out typesys.DType) (typesys.Scalar, bool) {
	if out == typesys.Float64 {
		af, aok := asFloat(av)
		bf, bok := asFloat(bv)
		if !aok || !bok {
			return typesys.Scalar{}, false
		}
		switch op {
		case Add:
			return typesys.Float64Scalar(af + bf), true
		case Sub:
			return typesys.Float64Scalar(af - bf), true
		case Mul:
			return typesys.Float64Scalar(af * bf), true
		case Div:
			return typesys.Float64Scalar(af / bf), true
		}
	}
	ai, aok := av.Int64()
	bi, bok := bv.Int64()
	if !aok || !bok {
		return typesys.Scalar{}, false
	}
	switch op {
	case Add:
		return typesys.Int64Scalar(ai + bi), true
	case Sub:
		return typesys.Int64Scalar(ai - bi), true
	case Mul:
		return typesys.Int64Scalar(ai * bi), true
	}
	return typesys.Scalar{}, false
}

func asFloat(s typesys.Scalar) (float64, bool) {
	if f, ok := s.Float64(); ok {
		return f, true
	}
	if i, ok := s.Int64(); ok {
		return float64(i), true
	}
	return 0, false
}

func arithOpName(op ArithOp) string {
	switch op {
	case Add:
		return "Add"
	case Sub:
		return "Sub"
	case Mul:
		return "Mul"
	case Div:
		return "Div"
	default:
		return "Arith"
	}
}

// BinaryComparison computes l `op` r elementwise, returning a Bool
// Column. See CompareScalar for the missing/NaN rules, which are shared.
func BinaryComparison(l, r Column, op CompareOp) (Column, error) {
	if l.Len() != r.Len() {
		return Column{}, &LengthMismatchError{Left: l.Len(), Right: r.Len()}
	}
	n := l.Len()
	values := make([]bool, n)
	vb := newValidityBuilder(n)
	for i := 0; i < n; i++ {
		res, valid := compareCells(l.At(i), r.At(i), op)
		values[i] = res
		vb.push(valid)
	}
	return Column{dtype: typesys.Bool, validity: vb.build(), bools: values}, nil
}

// CompareScalar compares every cell of c against scalar, returning a
// Bool Column with the same missing/NaN handling as BinaryComparison.
func CompareScalar(c Column, scalar typesys.Scalar, op CompareOp) Column {
	n := c.Len()
	values := make([]bool, n)
	vb := newValidityBuilder(n)
	for i := 0; i < n; i++ {
		res, valid := compareCells(c.At(i), scalar, op)
		values[i] = res
		vb.push(valid)
	}
	return Column{dtype: typesys.Bool, validity: vb.build(), bools: values}
}

// compareCells implements the shared missing/NaN comparison contract:
//
//  1. If either side is a Float64 NaN, the result is the valid boolean
//     false, for every op (NaN never satisfies an ordering or equality
//     test, but it is still a decided `false`, not a missing cell).
//  2. Else if both sides are missing, Eq/Ne resolve to a valid boolean
//     based on NullKind equality; Gt/Lt/Ge/Le still propagate to a
//     missing (invalid) cell.
//  3. Else if exactly one side is missing, the result is missing for
//     every op.
//  4. Else the two (non-missing, non-NaN) values are compared directly.
func compareCells(a, b typesys.Scalar, op CompareOp) (result bool, valid bool) {
	aNaN := a.DType() == typesys.Float64 && a.IsMissing() && a.NullKind() == typesys.KindNaN
	bNaN := b.DType() == typesys.Float64 && b.IsMissing() && b.NullKind() == typesys.KindNaN
	if aNaN || bNaN {
		return false, true
	}
	if a.IsMissing() && b.IsMissing() {
		switch op {
		case Eq:
			return a.NullKind() == b.NullKind(), true
		case Ne:
			return a.NullKind() != b.NullKind(), true
		default:
			return false, false
		}
	}
	if a.IsMissing() != b.IsMissing() {
		return false, false
	}
	return rawCompare(a, b, op), true
}

func rawCompare(a, b typesys.Scalar, op CompareOp) bool {
	if a.DType() == typesys.Utf8 || b.DType() == typesys.Utf8 {
		as, _ := a.Utf8()
		bs, _ := b.Utf8()
		switch op {
		case Gt:
			return as > bs
		case Lt:
			return as < bs
		case Eq:
			return as == bs
		case Ne:
			return as != bs
		case Ge:
			return as >= bs
		case Le:
			return as <= bs
		}
	}
	if a.DType() == typesys.Bool || b.DType() == typesys.Bool {
		ab, _ := a.Bool()
		bb, _ := b.Bool()
		switch op {
		case Eq:
			return ab == bb
		case Ne:
			return ab != bb
		case Gt:
			return ab && !bb
		case Lt:
			return !ab && bb
		case Ge:
			return ab || !bb
		case Le:
			return !ab || bb
		}
	}
	af, _ := asFloat(a)
	bf, _ := asFloat(b)
	switch op {
	case Gt:
		return af > bf
	case Lt:
		return af < bf
	case Eq:
		return af == bf
	case Ne:
		return af != bf
	case Ge:
		return af >= bf
	case Le:
		return af <= bf
	}
	return false
}
