package typesys

import "fmt"

// CoercionError reports that two dtypes have no common numeric upper
// bound and cannot be joined by CommonDType.
type CoercionError struct {
	Left, Right DType
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("typesys: incompatible dtypes %s and %s have no common dtype", e.Left, e.Right)
}

// InferenceError wraps a CoercionError encountered while folding
// CommonDType over a scalar sequence during dtype inference.
type InferenceError struct {
	Cause error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("typesys: dtype inference failed: %v", e.Cause)
}

func (e *InferenceError) Unwrap() error { return e.Cause }

// CastError reports an unsupported Scalar.Cast conversion.
type CastError struct {
	From, To DType
}

func (e *CastError) Error() string {
	return fmt.Sprintf("typesys: cannot cast %s to %s", e.From, e.To)
}
