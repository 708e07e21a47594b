package groupby

import (
	"tabula/internal/column"
	"tabula/internal/frame"
	"tabula/internal/index"
	"tabula/internal/policy"
	"tabula/internal/typesys"
)

// AggFunc enumerates the supported aggregates, unified under GroupByAgg.
type AggFunc int

const (
	Sum AggFunc = iota
	Mean
	Count
	Min
	Max
	First
	Last
	Std
	Var
	Median
)

// Options carries groupby's knobs. DropNA defaults to true (exclude
// missing keys), matching spec §4.5.
type Options struct {
	DropNA          bool
	ArenaBudgetBytes int64
}

// DefaultOptions returns dropna=true with the spec-default arena budget.
func DefaultOptions() Options {
	return Options{DropNA: true, ArenaBudgetBytes: defaultArenaBudgetBytes}
}

// GroupByAgg is the unified entry point every groupby_<fn> free function
// delegates to.
func GroupByAgg(keys, values frame.Series, fn AggFunc, opts Options, pol policy.RuntimePolicy, ledger *policy.EvidenceLedger) (frame.Series, error) {
	alignedKeys, alignedValues, err := alignmentPrelude(keys, values, pol, ledger)
	if err != nil {
		return frame.Series{}, err
	}

	budget := opts.ArenaBudgetBytes
	if budget == 0 {
		budget = defaultArenaBudgetBytes
	}
	g := buildGroups(alignedKeys.Col, opts.DropNA, budget)

	outLabels := make([]index.Label, len(g.order))
	outCol, err := aggregate(g, alignedValues.Col, fn)
	if err != nil {
		return frame.Series{}, err
	}
	for i, key := range g.order {
		outLabels[i] = scalarToLabel(key)
	}
	outIdx, ierr := index.New(outLabels)
	if ierr != nil {
		return frame.Series{}, wrap(IndexFailure, ierr)
	}
	return frame.Series{Name: valuesResultName(values, fn), Index: outIdx, Col: outCol}, nil
}

func valuesResultName(values frame.Series, fn AggFunc) string { return values.Name }

// alignmentPrelude realizes spec step 1: if the two series' indexes
// differ, or either carries duplicates, align both via align_union and
// reindex.
func alignmentPrelude(keys, values frame.Series, pol policy.RuntimePolicy, ledger *policy.EvidenceLedger) (frame.Series, frame.Series, error) {
	if sameLabels(keys.Index, values.Index) && !keys.Index.HasDuplicates() && !values.Index.HasDuplicates() {
		return keys, values, nil
	}
	plan := index.AlignUnion(keys.Index, values.Index)
	keyCol, err := keys.Col.ReindexByOptionalPositions(plan.LeftPositions)
	if err != nil {
		return frame.Series{}, frame.Series{}, wrap(ColumnFailure, err)
	}
	valCol, err := values.Col.ReindexByOptionalPositions(plan.RightPositions)
	if err != nil {
		return frame.Series{}, frame.Series{}, wrap(ColumnFailure, err)
	}
	unionIdx, ierr := index.New(plan.UnionLabels)
	if ierr != nil {
		return frame.Series{}, frame.Series{}, wrap(IndexFailure, ierr)
	}
	return frame.Series{Name: keys.Name, Index: unionIdx, Col: keyCol},
		frame.Series{Name: values.Name, Index: unionIdx, Col: valCol}, nil
}

func sameLabels(a, b *index.Index) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !a.At(i).Equal(b.At(i)) {
			return false
		}
	}
	return true
}

func scalarToLabel(s typesys.Scalar) index.Label {
	if s.DType() == typesys.Int64 {
		v, _ := s.Int64()
		return index.NewInt64Label(v)
	}
	return index.NewUtf8Label(s.String())
}

// aggregate materializes one output cell per group, in g.order, for fn.
func aggregate(g groups, values column.Column, fn AggFunc) (column.Column, error) {
	switch fn {
	case Sum:
		return aggregateScalar(g, values, values.DType(), sumGroup)
	case Mean:
		return aggregateScalar(g, values, typesys.Float64, meanGroup)
	case Count:
		return aggregateCount(g, values)
	case Min:
		return aggregateScalar(g, values, values.DType(), minGroup)
	case Max:
		return aggregateScalar(g, values, values.DType(), maxGroup)
	case First:
		return aggregateScalar(g, values, values.DType(), firstGroup)
	case Last:
		return aggregateScalar(g, values, values.DType(), lastGroup)
	case Std:
		return aggregateScalar(g, values, typesys.Float64, stdGroup)
	case Var:
		return aggregateScalar(g, values, typesys.Float64, varGroup)
	case Median:
		return aggregateScalar(g, values, typesys.Float64, medianGroup)
	default:
		return column.Column{}, newError(UnsupportedAggregate, "unknown aggregate func %d", fn)
	}
}

type groupAggFn func(sub column.Column) typesys.Scalar

// aggregateScalar runs fn once per group, pushing results into a
// builder of outDType (which may differ from the input values' dtype,
// e.g. mean/std/var/median always promote to Float64).
func aggregateScalar(g groups, values column.Column, outDType typesys.DType, fn groupAggFn) (column.Column, error) {
	b := column.NewBuilder(outDType, len(g.order))
	for _, key := range g.order {
		sub := gather(values, g.positions[key])
		result := fn(sub)
		if err := b.Push(result); err != nil {
			return column.Column{}, wrap(ColumnFailure, err)
		}
	}
	return b.Build(), nil
}

func aggregateCount(g groups, values column.Column) (column.Column, error) {
	b := column.NewBuilder(typesys.Int64, len(g.order))
	for _, key := range g.order {
		sub := gather(values, g.positions[key])
		if err := b.Push(typesys.Int64Scalar(sub.NanCount())); err != nil {
			return column.Column{}, wrap(ColumnFailure, err)
		}
	}
	return b.Build(), nil
}

func gather(values column.Column, positions []int) column.Column {
	ptrs := make([]*int, len(positions))
	for i, p := range positions {
		v := p
		ptrs[i] = &v
	}
	return values.ReindexByPositions(ptrs)
}

// sumGroup: empty group => 0 of the promoted dtype; all-null group =>
// Null.
func sumGroup(sub column.Column) typesys.Scalar {
	if sub.Len() == 0 {
		return zeroOf(sub.DType())
	}
	s, err := sub.NanSum()
	if err != nil {
		return zeroOf(sub.DType())
	}
	return s
}

func zeroOf(d typesys.DType) typesys.Scalar {
	if d == typesys.Float64 {
		return typesys.Float64Scalar(0)
	}
	return typesys.Int64Scalar(0)
}

// meanGroup: null for empty/all-null; else sum/count, Float64.
func meanGroup(sub column.Column) typesys.Scalar {
	m, err := sub.NanMean()
	if err != nil {
		return typesys.NullScalar(typesys.Float64, typesys.KindNaN)
	}
	return m
}

// minGroup/maxGroup: null for empty/all-null, ties broken by first
// occurrence (NanMinMax* already scans in original order).
func minGroup(sub column.Column) typesys.Scalar {
	v, err := sub.NanMin()
	if err != nil {
		return typesys.NullScalar(sub.DType(), typesys.KindNull)
	}
	return v
}

func maxGroup(sub column.Column) typesys.Scalar {
	v, err := sub.NanMax()
	if err != nil {
		return typesys.NullScalar(sub.DType(), typesys.KindNull)
	}
	return v
}

func firstGroup(sub column.Column) typesys.Scalar { return sub.First() }
func lastGroup(sub column.Column) typesys.Scalar  { return sub.Last() }

// stdGroup/varGroup: ddof=1, null for group size <= 1, Float64 output.
func varGroup(sub column.Column) typesys.Scalar {
	v, err := sub.NanVar(1)
	if err != nil {
		return typesys.NullScalar(typesys.Float64, typesys.KindNaN)
	}
	return v
}

func stdGroup(sub column.Column) typesys.Scalar {
	v, err := sub.NanStd(1)
	if err != nil {
		return typesys.NullScalar(typesys.Float64, typesys.KindNaN)
	}
	return v
}

// medianGroup: Float64 output, even-length groups average the two
// middles (typesys.NanMedian already implements this).
func medianGroup(sub column.Column) typesys.Scalar {
	v, err := sub.NanMedian()
	if err != nil {
		return typesys.NullScalar(typesys.Float64, typesys.KindNaN)
	}
	return v
}
