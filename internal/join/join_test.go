package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabula/internal/column"
	"tabula/internal/frame"
	"tabula/internal/index"
	"tabula/internal/policy"
)

func labelIdx(vs ...int64) *index.Index {
	labels := make([]index.Label, len(vs))
	for i, v := range vs {
		labels[i] = index.NewInt64Label(v)
	}
	built, _ := index.New(labels)
	return built
}

func seriesOf(name string, labels []int64, values []int64) frame.Series {
	s, _ := frame.NewSeries(name, labelIdx(labels...), column.FromInt64(values))
	return s
}

func TestJoinSeriesInnerPreservesLeftOrder(t *testing.T) {
	left := seriesOf("l", []int64{1, 2, 3}, []int64{10, 20, 30})
	right := seriesOf("r", []int64{2, 2, 3}, []int64{200, 201, 300})

	lo, ro, err := JoinSeries(left, right, Inner, policy.NewStrict(), policy.NewEvidenceLedger())
	require.NoError(t, err)

	// left row for label 2 expands twice (right has two matches), in
	// right-insertion order, before left row for label 3.
	require.Equal(t, 3, lo.Len())
	l0, _ := lo.Col.At(0).Int64()
	l1, _ := lo.Col.At(1).Int64()
	l2, _ := lo.Col.At(2).Int64()
	assert.Equal(t, []int64{20, 20, 30}, []int64{l0, l1, l2})

	r0, _ := ro.Col.At(0).Int64()
	r1, _ := ro.Col.At(1).Int64()
	r2, _ := ro.Col.At(2).Int64()
	assert.Equal(t, []int64{200, 201, 300}, []int64{r0, r1, r2})
}

func TestJoinSeriesLeftKeepsUnmatched(t *testing.T) {
	left := seriesOf("l", []int64{1, 2}, []int64{10, 20})
	right := seriesOf("r", []int64{2}, []int64{200})

	lo, ro, err := JoinSeries(left, right, Left, policy.NewStrict(), policy.NewEvidenceLedger())
	require.NoError(t, err)
	require.Equal(t, 2, lo.Len())
	assert.True(t, ro.Col.At(0).IsMissing())
	assert.False(t, ro.Col.At(1).IsMissing())
}

func TestJoinSeriesRightKeepsUnmatched(t *testing.T) {
	left := seriesOf("l", []int64{1}, []int64{10})
	right := seriesOf("r", []int64{1, 9}, []int64{100, 900})

	lo, ro, err := JoinSeries(left, right, Right, policy.NewStrict(), policy.NewEvidenceLedger())
	require.NoError(t, err)
	require.Equal(t, 2, ro.Len())
	assert.False(t, lo.Col.At(0).IsMissing())
	assert.True(t, lo.Col.At(1).IsMissing())
}

func TestJoinSeriesOuterUnionsKeys(t *testing.T) {
	left := seriesOf("l", []int64{1, 2}, []int64{10, 20})
	right := seriesOf("r", []int64{2, 3}, []int64{200, 300})

	lo, ro, err := JoinSeries(left, right, Outer, policy.NewStrict(), policy.NewEvidenceLedger())
	require.NoError(t, err)
	require.Equal(t, 3, lo.Len())
	require.Equal(t, 3, ro.Len())
}

func TestJoinSeriesStrictRejectsOverCap(t *testing.T) {
	left := seriesOf("l", []int64{1, 1}, []int64{10, 11})
	right := seriesOf("r", []int64{1, 1}, []int64{100, 101})
	cap := int64(2)
	pol := policy.RuntimePolicy{Mode: policy.Strict, HardenedJoinRowCap: &cap}

	_, _, err := JoinSeries(left, right, Inner, pol, policy.NewEvidenceLedger())
	require.Error(t, err)
	jerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, CompatibilityRejected, jerr.Kind)
}

func TestJoinSeriesHardenedRepairsOverCap(t *testing.T) {
	left := seriesOf("l", []int64{1, 1}, []int64{10, 11})
	right := seriesOf("r", []int64{1, 1}, []int64{100, 101})
	cap := int64(2)
	pol := policy.RuntimePolicy{Mode: policy.Hardened, HardenedJoinRowCap: &cap}
	ledger := policy.NewEvidenceLedger()

	lo, ro, err := JoinSeries(left, right, Inner, pol, ledger)
	require.NoError(t, err)
	assert.Equal(t, 4, lo.Len())
	assert.Equal(t, 4, ro.Len())
	assert.NotEmpty(t, ledger.Records())
}

func TestMergeDataFramesSuffixesCollidingColumns(t *testing.T) {
	leftIdx := labelIdx(0, 1)
	left := frame.NewDataFrame(leftIdx)
	left, _ = left.WithColumn("id", column.FromInt64([]int64{1, 2}))
	left, _ = left.WithColumn("val", column.FromInt64([]int64{10, 20}))

	rightIdx := labelIdx(0, 1)
	right := frame.NewDataFrame(rightIdx)
	right, _ = right.WithColumn("id", column.FromInt64([]int64{1, 2}))
	right, _ = right.WithColumn("val", column.FromInt64([]int64{100, 200}))

	out, err := MergeDataFrames(left, right, "id", Inner, policy.NewStrict(), policy.NewEvidenceLedger())
	require.NoError(t, err)

	names := out.ColumnNames()
	assert.Contains(t, names, "id")
	assert.Contains(t, names, "val_x")
	assert.Contains(t, names, "val_y")
}

func TestMergeDataFramesMissingColumnErrors(t *testing.T) {
	left := frame.NewDataFrame(labelIdx(0))
	left, _ = left.WithColumn("id", column.FromInt64([]int64{1}))
	right := frame.NewDataFrame(labelIdx(0))
	right, _ = right.WithColumn("other", column.FromInt64([]int64{1}))

	_, err := MergeDataFrames(left, right, "id", Inner, policy.NewStrict(), policy.NewEvidenceLedger())
	require.Error(t, err)
}

func TestProbeUnknownJoinModeErrors(t *testing.T) {
	_, err := probe([]int{1}, []int{1}, JoinType(99))
	require.Error(t, err)
	jerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, UnknownJoinMode, jerr.Kind)
}
