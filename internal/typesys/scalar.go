package typesys

import (
	"math"
	"strconv"
)

// Scalar is a tagged union over {Null(NullKind), Bool, Int64, Float64,
// Utf8}. The zero value is Null(KindNull), the dtype-less missing value.
//
// Scalar is a value type: copy it freely, compare its fields directly
// when you already know both sides share a dtype, and prefer Equal/IsMissing
// for dtype-agnostic comparisons.
type Scalar struct {
	dtype    DType
	isNull   bool
	nullKind NullKind
	b        bool
	i        int64
	f        float64
	s        string
}

// NullScalar builds a Null(kind) scalar that otherwise carries dtype d.
// d only matters for re-typing a column slot; the missingness kind is
// kind regardless.
func NullScalar(d DType, kind NullKind) Scalar {
	return Scalar{dtype: d, isNull: true, nullKind: kind}
}

// BoolScalar builds a non-null Bool scalar.
func BoolScalar(v bool) Scalar { return Scalar{dtype: Bool, b: v} }

// Int64Scalar builds a non-null Int64 scalar.
func Int64Scalar(v int64) Scalar { return Scalar{dtype: Int64, i: v} }

// Float64Scalar builds a Float64 scalar. NaN inputs are normalized to
// Null(KindNaN), per IsMissing's contract that NaN is a missing value.
func Float64Scalar(v float64) Scalar {
	if math.IsNaN(v) {
		return Scalar{dtype: Float64, isNull: true, nullKind: KindNaN, f: v}
	}
	return Scalar{dtype: Float64, f: v}
}

// Utf8Scalar builds a non-null Utf8 scalar.
func Utf8Scalar(v string) Scalar { return Scalar{dtype: Utf8, s: v} }

// DType reports the scalar's dtype tag. A Null scalar still carries the
// dtype of the column slot it would occupy.
func (s Scalar) DType() DType { return s.dtype }

// IsMissing is true for every Null(_) variant and for Float64(NaN).
func (s Scalar) IsMissing() bool { return s.isNull }

// NullKind returns the missingness flavor; only meaningful when
// IsMissing() is true.
func (s Scalar) NullKind() NullKind { return s.nullKind }

// Bool returns the unwrapped value and whether the scalar was a
// non-missing Bool.
func (s Scalar) Bool() (bool, bool) {
	if s.dtype != Bool || s.isNull {
		return false, false
	}
	return s.b, true
}

// Int64 returns the unwrapped value and whether the scalar was a
// non-missing Int64.
func (s Scalar) Int64() (int64, bool) {
	if s.dtype != Int64 || s.isNull {
		return 0, false
	}
	return s.i, true
}

// Float64 returns the unwrapped value and whether the scalar was a
// non-missing, non-NaN Float64.
func (s Scalar) Float64() (float64, bool) {
	if s.dtype != Float64 || s.isNull {
		return 0, false
	}
	return s.f, true
}

// Utf8 returns the unwrapped value and whether the scalar was a
// non-missing Utf8.
func (s Scalar) Utf8() (string, bool) {
	if s.dtype != Utf8 || s.isNull {
		return "", false
	}
	return s.s, true
}

// Equal is kind-aware: two missing scalars are equal iff their NullKind
// matches; otherwise dtype and value must match exactly (float equality
// is plain ==, since NaN already routes through the missing branch).
func (s Scalar) Equal(o Scalar) bool {
	if s.isNull || o.isNull {
		return s.isNull && o.isNull && s.nullKind == o.nullKind
	}
	if s.dtype != o.dtype {
		return false
	}
	switch s.dtype {
	case Bool:
		return s.b == o.b
	case Int64:
		return s.i == o.i
	case Float64:
		return s.f == o.f
	case Utf8:
		return s.s == o.s
	default:
		return true
	}
}

// String renders the scalar for diagnostics and fixture round-tripping;
// it is not the wire encoding (see internal/ioadapter for that).
func (s Scalar) String() string {
	if s.isNull {
		return "null(" + s.nullKind.String() + ")"
	}
	switch s.dtype {
	case Bool:
		if s.b {
			return "true"
		}
		return "false"
	case Int64:
		return strconv.FormatInt(s.i, 10)
	case Float64:
		return strconv.FormatFloat(s.f, 'g', -1, 64)
	case Utf8:
		return s.s
	default:
		return "null(null)"
	}
}

// Cast converts s into dtype d, following the same numeric-widens-freely,
// nothing-narrows-silently rule CommonDType uses for columns. Null
// scalars cast to a Null of the target dtype without error.
func (s Scalar) Cast(d DType) (Scalar, error) {
	if s.isNull {
		return NullScalar(d, s.nullKind), nil
	}
	if s.dtype == d {
		return s, nil
	}
	switch {
	case d == Float64 && s.dtype == Int64:
		return Float64Scalar(float64(s.i)), nil
	case d == Int64 && s.dtype == Float64:
		return Int64Scalar(int64(s.f)), nil
	case d == Utf8:
		return Utf8Scalar(s.String()), nil
	default:
		return Scalar{}, &CastError{From: s.dtype, To: d}
	}
}
