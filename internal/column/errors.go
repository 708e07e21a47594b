package column

import (
	"fmt"

	"tabula/internal/typesys"
)

// LengthMismatchError reports two columns (or a column and a mask) of
// differing length being passed to an operation that requires equality.
type LengthMismatchError struct {
	Left, Right int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("column: length mismatch: %d vs %d", e.Left, e.Right)
}

// TypeMismatchError reports a value that could not be cast into an
// expected dtype.
type TypeMismatchError struct {
	Have, Want typesys.DType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column: type mismatch: have %s, want %s", e.Have, e.Want)
}

// OutOfBoundsError reports an invalid position passed to
// reindex-by-position.
type OutOfBoundsError struct {
	Position, Len int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("column: position %d out of bounds for length %d", e.Position, e.Len)
}

// InvalidMaskError reports a filter mask that is not a Bool column.
type InvalidMaskError struct {
	MaskDType typesys.DType
}

func (e *InvalidMaskError) Error() string {
	return fmt.Sprintf("column: filter mask must be Bool, got %s", e.MaskDType)
}

// UnsupportedOpError reports an arithmetic or comparison op applied to
// an incompatible dtype pairing (e.g. Utf8 Add).
type UnsupportedOpError struct {
	Op    string
	DType typesys.DType
}

func (e *UnsupportedOpError) Error() string {
	return fmt.Sprintf("column: op %s is not supported on dtype %s", e.Op, e.DType)
}
