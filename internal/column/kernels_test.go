package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabula/internal/typesys"
)

func TestBinaryNumericFloatFastPathAdd(t *testing.T) {
	l := FromFloat64([]float64{1.5, 2.5, 3.5}, AllValid(3))
	r := FromFloat64([]float64{10, 20, 30}, AllValid(3))
	out, err := BinaryNumeric(l, r, Add)
	require.NoError(t, err)
	assert.Equal(t, typesys.Float64, out.DType())
	v, _ := out.At(1).Float64()
	assert.Equal(t, 22.5, v)
}

func TestBinaryNumericFloatFastPathMissingMatchesScalarPath(t *testing.T) {
	valid := NewValidityMask([]bool{true, false, true})
	l := FromFloat64([]float64{1, 0, 3}, valid)
	r := FromFloat64([]float64{1, 1, 1}, AllValid(3))

	fast, err := BinaryNumeric(l, r, Add)
	require.NoError(t, err)

	// Force the same inputs through the elementwise oracle by giving
	// one side a NullKind slice, which canFastPathFloat refuses.
	lb := NewBuilder(typesys.Float64, 3)
	_ = lb.Push(typesys.Float64Scalar(1))
	_ = lb.Push(typesys.NullScalar(typesys.Float64, typesys.KindNull))
	_ = lb.Push(typesys.Float64Scalar(3))
	scalarIn := lb.Build()
	scalarOut := scalarArith(scalarIn, r, Add, typesys.Float64)

	assert.False(t, fast.Validity().IsValid(1))
	assert.Equal(t, scalarOut.At(1).NullKind(), fast.At(1).NullKind())
	assert.Equal(t, typesys.KindNaN, fast.At(1).NullKind())
}

func TestBinaryNumericFloatFastPathSkippedWhenNullKindsPresent(t *testing.T) {
	b := NewBuilder(typesys.Float64, 2)
	_ = b.Push(typesys.Float64Scalar(1))
	_ = b.Push(typesys.NullScalar(typesys.Float64, typesys.KindNaN))
	l := b.Build()
	r := FromFloat64([]float64{1, 1}, AllValid(2))

	assert.False(t, canFastPathFloat(l, r))

	out, err := BinaryNumeric(l, r, Add)
	require.NoError(t, err)
	assert.Equal(t, typesys.KindNaN, out.At(1).NullKind())
}
