// Package typesys implements the scalar tagged union and dtype algebra
// that every other package in tabula builds on: a closed dtype tag set,
// a null-kind trichotomy, coercion rules, and NA-safe reductions.
package typesys

import "fmt"

// DType identifies the runtime type carried by a Column or Scalar.
type DType uint8

const (
	// Null is the dtype of a value (or column) that carries no typed
	// payload at all, only missingness. It is the identity element of
	// CommonDType.
	Null DType = iota
	Bool
	Int64
	Float64
	Utf8
)

// String renders the dtype the way error messages and fixture wire
// encodings refer to it.
func (d DType) String() string {
	switch d {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Utf8:
		return "utf8"
	default:
		return fmt.Sprintf("dtype(%d)", uint8(d))
	}
}

// IsNumeric reports whether d participates in the numeric join (Int64,
// Float64).
func (d DType) IsNumeric() bool {
	return d == Int64 || d == Float64
}

// CommonDType computes the commutative, associative join used to decide
// the output dtype of a binary operation or a scalar-sequence inference
// fold.
//
//   - numeric ∪ numeric -> Float64 if either side is Float64, else Int64
//   - anything ∪ Null    -> the non-null side
//   - Bool ∪ Bool        -> Bool
//   - Utf8 ∪ Utf8        -> Utf8
//   - any other mix      -> CoercionError
func CommonDType(a, b DType) (DType, error) {
	if a == b {
		return a, nil
	}
	if a == Null {
		return b, nil
	}
	if b == Null {
		return a, nil
	}
	if a.IsNumeric() && b.IsNumeric() {
		if a == Float64 || b == Float64 {
			return Float64, nil
		}
		return Int64, nil
	}
	return Null, &CoercionError{Left: a, Right: b}
}

// InferDType folds CommonDType over a dtype sequence, as used when a
// Column is constructed from a raw slice of Scalars. An empty sequence
// infers Null.
func InferDType(dtypes []DType) (DType, error) {
	acc := Null
	for _, d := range dtypes {
		var err error
		acc, err = CommonDType(acc, d)
		if err != nil {
			return Null, &InferenceError{Cause: err}
		}
	}
	return acc, nil
}
