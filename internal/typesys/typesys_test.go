package typesys

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommonDType(t *testing.T) {
	cases := []struct {
		a, b DType
		want DType
	}{
		{Null, Null, Null},
		{Null, Int64, Int64},
		{Utf8, Null, Utf8},
		{Int64, Int64, Int64},
		{Int64, Float64, Float64},
		{Float64, Int64, Float64},
		{Bool, Bool, Bool},
	}
	for _, c := range cases {
		got, err := CommonDType(c.a, c.b)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "CommonDType(%s,%s)", c.a, c.b)
	}
}

func TestCommonDTypeIncompatible(t *testing.T) {
	_, err := CommonDType(Bool, Int64)
	require.Error(t, err)
	var coerceErr *CoercionError
	require.ErrorAs(t, err, &coerceErr)

	_, err = CommonDType(Utf8, Float64)
	require.Error(t, err)
}

func TestCommonDTypeCommutative(t *testing.T) {
	pairs := [][2]DType{{Int64, Float64}, {Null, Utf8}, {Bool, Bool}}
	for _, p := range pairs {
		a, errA := CommonDType(p[0], p[1])
		b, errB := CommonDType(p[1], p[0])
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, a, b)
	}
}

func TestScalarIsMissing(t *testing.T) {
	assert.True(t, NullScalar(Int64, KindNull).IsMissing())
	assert.True(t, Float64Scalar(math.NaN()).IsMissing())
	assert.Equal(t, KindNaN, Float64Scalar(math.NaN()).NullKind())
	assert.False(t, Float64Scalar(1.5).IsMissing())
	assert.False(t, Int64Scalar(0).IsMissing())
}

func TestScalarEqualKindAware(t *testing.T) {
	a := NullScalar(Int64, KindNull)
	b := NullScalar(Int64, KindNull)
	c := NullScalar(Int64, KindNaT)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	assert.True(t, Int64Scalar(3).Equal(Int64Scalar(3)))
	assert.False(t, Int64Scalar(3).Equal(Int64Scalar(4)))

	// Cross-dtype labels never compare equal even with matching text.
	assert.False(t, Utf8Scalar("3").Equal(Int64Scalar(3)))
}

func TestScalarCast(t *testing.T) {
	got, err := Int64Scalar(7).Cast(Float64)
	require.NoError(t, err)
	f, ok := got.Float64()
	require.True(t, ok)
	assert.Equal(t, 7.0, f)

	_, err = Utf8Scalar("x").Cast(Bool)
	require.Error(t, err)
	var castErr *CastError
	require.ErrorAs(t, err, &castErr)

	nullCast, err := NullScalar(Int64, KindNull).Cast(Utf8)
	require.NoError(t, err)
	assert.True(t, nullCast.IsMissing())
}

func TestNanReductionsAllMissing(t *testing.T) {
	valid := []bool{false, false, false}
	assert.True(t, NanSumInt64([]int64{1, 2, 3}, valid).IsMissing())
	assert.True(t, NanSumFloat64([]float64{1, 2, 3}, valid).IsMissing())
	assert.True(t, NanMean(0, 0).IsMissing())
	lo, hi := NanMinMaxFloat64([]float64{1, 2, 3}, valid)
	assert.True(t, lo.IsMissing())
	assert.True(t, hi.IsMissing())
	assert.True(t, NanVar([]float64{1, 2}, valid, 1).IsMissing())
	assert.True(t, NanMedian([]float64{1, 2, 3}, valid).IsMissing())
}

func TestNanVarSingleValueIsNull(t *testing.T) {
	got := NanVar([]float64{5}, []bool{true}, 1)
	assert.True(t, got.IsMissing())
}

func TestNanMedianEvenAverages(t *testing.T) {
	got := NanMedian([]float64{1, 2, 3, 4}, []bool{true, true, true, true})
	f, ok := got.Float64()
	require.True(t, ok)
	assert.Equal(t, 2.5, f)
}

func TestNanCount(t *testing.T) {
	assert.Equal(t, int64(2), NanCount([]bool{true, false, true}))
}
