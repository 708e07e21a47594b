package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabula/internal/column"
	"tabula/internal/frame"
	"tabula/internal/index"
	"tabula/internal/policy"
	"tabula/internal/typesys"
)

func idxOf(vs ...int64) *index.Index {
	labels := make([]index.Label, len(vs))
	for i, v := range vs {
		labels[i] = index.NewInt64Label(v)
	}
	built, _ := index.New(labels)
	return built
}

func seriesOf(name string, labels []int64, values []int64) frame.Series {
	s, _ := frame.NewSeries(name, idxOf(labels...), column.FromInt64(values))
	return s
}

func TestEvalSeriesRefArithAdd(t *testing.T) {
	ctx := NewEvalContext(map[string]frame.Series{
		"a": seriesOf("a", []int64{1, 2, 3}, []int64{10, 20, 30}),
		"b": seriesOf("b", []int64{1, 2, 3}, []int64{1, 2, 3}),
	})
	e := Arith(column.Add, SeriesRef("a"), SeriesRef("b"))
	out, err := Eval(e, ctx, policy.NewStrict(), policy.NewEvidenceLedger())
	require.NoError(t, err)
	v0, _ := out.Col.At(0).Int64()
	assert.Equal(t, int64(11), v0)
}

func TestEvalUnknownSeries(t *testing.T) {
	ctx := NewEvalContext(map[string]frame.Series{})
	_, err := Eval(SeriesRef("missing"), ctx, policy.NewStrict(), policy.NewEvidenceLedger())
	require.Error(t, err)
	eerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, UnknownSeries, eerr.Kind)
}

func TestEvalBareLiteralIsUnanchored(t *testing.T) {
	ctx := NewEvalContext(map[string]frame.Series{})
	_, err := Eval(Literal(typesys.Int64Scalar(5)), ctx, policy.NewStrict(), policy.NewEvidenceLedger())
	require.Error(t, err)
	eerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, UnanchoredLiteral, eerr.Kind)
}

func TestEvalLiteralBroadcastsOntoSeries(t *testing.T) {
	ctx := NewEvalContext(map[string]frame.Series{
		"a": seriesOf("a", []int64{1, 2}, []int64{10, 20}),
	})
	e := Arith(column.Mul, SeriesRef("a"), Literal(typesys.Int64Scalar(2)))
	out, err := Eval(e, ctx, policy.NewStrict(), policy.NewEvidenceLedger())
	require.NoError(t, err)
	v0, _ := out.Col.At(0).Int64()
	v1, _ := out.Col.At(1).Int64()
	assert.Equal(t, []int64{20, 40}, []int64{v0, v1})
}

func TestEvalCompareGt(t *testing.T) {
	ctx := NewEvalContext(map[string]frame.Series{
		"a": seriesOf("a", []int64{1, 2}, []int64{10, 20}),
	})
	e := Compare(Gt, SeriesRef("a"), Literal(typesys.Int64Scalar(15)))
	out, err := Eval(e, ctx, policy.NewStrict(), policy.NewEvidenceLedger())
	require.NoError(t, err)
	b0, _ := out.Col.At(0).Bool()
	b1, _ := out.Col.At(1).Bool()
	assert.False(t, b0)
	assert.True(t, b1)
}

func TestIsLinearAcceptsAddSubOfRefs(t *testing.T) {
	e := Arith(column.Sub, Arith(column.Add, SeriesRef("a"), SeriesRef("b")), SeriesRef("c"))
	assert.True(t, e.IsLinear())
}

func TestIsLinearRejectsMul(t *testing.T) {
	e := Arith(column.Mul, SeriesRef("a"), SeriesRef("b"))
	assert.False(t, e.IsLinear())
}

func TestEvalDeltaAppendsScaledRows(t *testing.T) {
	prior := seriesOf("sum", []int64{1, 2}, []int64{11, 22})
	e := Arith(column.Add, SeriesRef("a"), SeriesRef("b"))

	delta := Delta{
		SeriesRef: "a",
		NewLabels: []index.Label{index.NewInt64Label(3)},
		NewValues: column.FromInt64([]int64{100}),
	}
	out, err := EvalDelta(e, prior, delta, policy.NewStrict(), policy.NewEvidenceLedger())
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())
	v2, _ := out.Col.At(2).Int64()
	assert.Equal(t, int64(100), v2)
}

func TestEvalDeltaNegatesSubtractedSeries(t *testing.T) {
	prior := seriesOf("diff", []int64{1}, []int64{5})
	e := Arith(column.Sub, SeriesRef("a"), SeriesRef("b"))

	delta := Delta{
		SeriesRef: "b",
		NewLabels: []index.Label{index.NewInt64Label(2)},
		NewValues: column.FromInt64([]int64{7}),
	}
	out, err := EvalDelta(e, prior, delta, policy.NewStrict(), policy.NewEvidenceLedger())
	require.NoError(t, err)
	v1, _ := out.Col.At(1).Int64()
	assert.Equal(t, int64(-7), v1)
}

func TestEvalDeltaNonLinearRequiresFullReeval(t *testing.T) {
	prior := seriesOf("prod", []int64{1}, []int64{5})
	e := Arith(column.Mul, SeriesRef("a"), SeriesRef("b"))
	delta := Delta{SeriesRef: "a", NewLabels: []index.Label{index.NewInt64Label(2)}, NewValues: column.FromInt64([]int64{3})}

	_, err := EvalDelta(e, prior, delta, policy.NewStrict(), policy.NewEvidenceLedger())
	require.Error(t, err)
	eerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, NonLinearDelta, eerr.Kind)
}
