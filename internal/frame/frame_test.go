package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabula/internal/column"
	"tabula/internal/index"
	"tabula/internal/policy"
)

func idx(vs ...int64) *index.Index {
	labels := make([]index.Label, len(vs))
	for i, v := range vs {
		labels[i] = index.NewInt64Label(v)
	}
	built, _ := index.New(labels)
	return built
}

func TestSeriesAddUnionAlignment(t *testing.T) {
	left, err := NewSeries("x", idx(1, 2, 3), column.FromInt64([]int64{10, 20, 30}))
	require.NoError(t, err)
	right, err := NewSeries("x", idx(2, 3, 4), column.FromInt64([]int64{1, 2, 3}))
	require.NoError(t, err)

	ledger := policy.NewEvidenceLedger()
	out, err := left.Arith(right, policy.NewStrict(), ledger, Add)
	require.NoError(t, err)

	assert.Equal(t, []index.Label{index.NewInt64Label(1), index.NewInt64Label(2), index.NewInt64Label(3), index.NewInt64Label(4)}, out.Index.Labels())
	assert.False(t, out.Col.Validity().IsValid(0))
	v1, _ := out.Col.At(1).Int64()
	assert.Equal(t, int64(21), v1)
	v2, _ := out.Col.At(2).Int64()
	assert.Equal(t, int64(32), v2)
	assert.False(t, out.Col.Validity().IsValid(3))
}

func TestSeriesArithDuplicateStrictRejects(t *testing.T) {
	left, _ := NewSeries("x", idx(1, 1, 2), column.FromInt64([]int64{10, 20, 30}))
	right, _ := NewSeries("x", idx(1, 2), column.FromInt64([]int64{1, 2}))

	ledger := policy.NewEvidenceLedger()
	_, err := left.Arith(right, policy.NewStrict(), ledger, Add)
	require.Error(t, err)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, DuplicateIndexUnsupported, fe.Kind)
}

func TestSeriesArithDuplicateHardenedRepairs(t *testing.T) {
	left, _ := NewSeries("x", idx(1, 1, 2), column.FromInt64([]int64{10, 20, 30}))
	right, _ := NewSeries("x", idx(1, 2), column.FromInt64([]int64{1, 2}))

	ledger := policy.NewEvidenceLedger()
	out, err := left.Arith(right, policy.NewHardened(nil), ledger, Add)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
	require.NotEmpty(t, ledger.Records())
}

func TestSeriesArithStrictModeRejectsOverCapUnion(t *testing.T) {
	left, _ := NewSeries("x", idx(1, 2, 3), column.FromInt64([]int64{10, 20, 30}))
	right, _ := NewSeries("x", idx(3, 4, 5), column.FromInt64([]int64{1, 2, 3}))

	rowCap := int64(2) // union of {1,2,3,4,5} has 5 labels, over cap
	strictWithCap := policy.RuntimePolicy{Mode: policy.Strict, FailClosedUnknownFeature: true, HardenedJoinRowCap: &rowCap}

	ledger := policy.NewEvidenceLedger()
	_, err := left.Arith(right, strictWithCap, ledger, Add)
	require.Error(t, err)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, CompatibilityRejected, fe.Kind)
}

func TestFromSeriesAndColumnOrder(t *testing.T) {
	a, _ := NewSeries("a", idx(1, 2), column.FromInt64([]int64{1, 2}))
	b, _ := NewSeries("b", idx(2, 3), column.FromInt64([]int64{20, 30}))

	df, err := FromSeries([]Series{a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, df.ColumnNames())
	assert.Equal(t, 3, df.Len())

	colA, _ := df.Column("a")
	assert.False(t, colA.Validity().IsValid(2))
}

func TestConcatDataFramesUnionColumnsNullFill(t *testing.T) {
	dfA := NewDataFrame(idx(1, 2))
	dfA, _ = dfA.WithColumn("a", column.FromInt64([]int64{1, 2}))

	dfB := NewDataFrame(idx(3, 4))
	dfB, _ = dfB.WithColumn("b", column.FromInt64([]int64{3, 4}))

	out, err := ConcatDataFrames(dfA, dfB)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Len())
	colA, ok := out.Column("a")
	require.True(t, ok)
	assert.False(t, colA.Validity().IsValid(2))
	assert.False(t, colA.Validity().IsValid(3))
}

func TestFilterRows(t *testing.T) {
	df := NewDataFrame(idx(1, 2, 3))
	df, _ = df.WithColumn("a", column.FromInt64([]int64{10, 20, 30}))

	maskCol := column.FromBool([]bool{true, false, true})
	maskSeries, _ := NewSeries("mask", idx(1, 2, 3), maskCol)

	out, err := df.FilterRows(maskSeries)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
	colA, _ := out.Column("a")
	v0, _ := colA.At(0).Int64()
	v1, _ := colA.At(1).Int64()
	assert.Equal(t, int64(10), v0)
	assert.Equal(t, int64(30), v1)
}

func TestHeadTailSaturating(t *testing.T) {
	df := NewDataFrame(idx(1, 2, 3, 4, 5))
	df, _ = df.WithColumn("a", column.FromInt64([]int64{1, 2, 3, 4, 5}))

	assert.Equal(t, 2, df.Head(2).Len())
	assert.Equal(t, 3, df.Head(-2).Len())
	assert.Equal(t, 0, df.Head(-100).Len())
	assert.Equal(t, 2, df.Tail(2).Len())
	assert.Equal(t, 3, df.Tail(-2).Len())
	assert.Equal(t, 5, df.Head(100).Len())
}
