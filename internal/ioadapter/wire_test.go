package ioadapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabula/internal/column"
	"tabula/internal/index"
	"tabula/internal/typesys"
)

func TestEncodeDecodeColumnRoundTrips(t *testing.T) {
	col := column.FromInt64([]int64{1, 2, 3})
	wire := EncodeColumn(col)
	assert.Equal(t, "int64", wire.DType)
	require.Len(t, wire.Values, 3)

	back, err := DecodeColumn(wire)
	require.NoError(t, err)
	require.Equal(t, 3, back.Len())
	for i := 0; i < 3; i++ {
		v, _ := back.At(i).Int64()
		assert.Equal(t, int64(i+1), v)
	}
}

func TestDecodeScalarNullVariants(t *testing.T) {
	s, err := DecodeScalar(WireScalar{Null: "null"}, typesys.Int64)
	require.NoError(t, err)
	assert.True(t, s.IsMissing())
	assert.Equal(t, typesys.KindNull, s.NullKind())

	s2, err := DecodeScalar(WireScalar{Null: "nan"}, typesys.Float64)
	require.NoError(t, err)
	assert.True(t, s2.IsMissing())
	assert.Equal(t, typesys.KindNaN, s2.NullKind())
}

func TestEncodeScalarRoundTripsMissing(t *testing.T) {
	missing := typesys.NullScalar(typesys.Int64, typesys.KindNull)
	w := EncodeScalar(missing)
	assert.Equal(t, "null", w.Null)

	back, err := DecodeScalar(w, typesys.Int64)
	require.NoError(t, err)
	assert.True(t, back.IsMissing())
}

func TestDecodeColumnUnrecognizedDType(t *testing.T) {
	_, err := DecodeColumn(WireColumn{DType: "decimal128"})
	require.Error(t, err)
}

func TestEncodeDecodeIndexRoundTrips(t *testing.T) {
	labels := []index.Label{index.NewInt64Label(1), index.NewInt64Label(2)}
	idx, err := index.New(labels)
	require.NoError(t, err)

	wire := EncodeIndex(idx)
	require.Len(t, wire, 2)
	assert.Equal(t, int64(1), *wire[0].Int64)

	back, err := DecodeIndex(wire)
	require.NoError(t, err)
	assert.Equal(t, 2, back.Len())
}

func TestDecodeIndexUtf8Labels(t *testing.T) {
	a, b := "x", "y"
	wire := []WireLabel{{Utf8: &a}, {Utf8: &b}}
	idx, err := DecodeIndex(wire)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
}

func TestDecodeIndexRejectsEmptyLabel(t *testing.T) {
	_, err := DecodeIndex([]WireLabel{{}})
	require.Error(t, err)
}
