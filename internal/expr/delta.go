package expr

import (
	"tabula/internal/column"
	"tabula/internal/frame"
	"tabula/internal/index"
	"tabula/internal/policy"
	"tabula/internal/typesys"
)

// Delta names new rows appended to one SeriesRef leaf: new labels and
// their values, not yet folded into any materialized expression
// result.
type Delta struct {
	SeriesRef string
	NewLabels []index.Label
	NewValues column.Column
}

// EvalDelta consumes a Delta against a prior materialized result
// without re-evaluating the whole expression, valid only when e is
// linear (spec §4.8). Non-linear expressions return NonLinearDelta;
// callers should fall back to Eval.
func EvalDelta(e *Expr, prior frame.Series, delta Delta, pol policy.RuntimePolicy, ledger *policy.EvidenceLedger) (frame.Series, error) {
	if !e.IsLinear() {
		return frame.Series{}, newError(NonLinearDelta, "expression is not linear; full re-evaluation required")
	}
	coef := coefficientOf(e, delta.SeriesRef)
	if coef == 0 {
		return prior, nil
	}

	scaled := scaleColumn(delta.NewValues, coef)
	mergedCol, err := column.Concat(prior.Col, scaled)
	if err != nil {
		return frame.Series{}, wrap(ColumnFailure, err)
	}
	labels := append(append([]index.Label{}, prior.Index.Labels()...), delta.NewLabels...)
	mergedIdx, ierr := index.New(labels)
	if ierr != nil {
		return frame.Series{}, wrap(IndexFailure, ierr)
	}
	out, serr := frame.NewSeries(prior.Name, mergedIdx, mergedCol)
	if serr != nil {
		return frame.Series{}, wrap(FrameFailure, serr)
	}
	return out, nil
}

// coefficientOf computes the linear coefficient of target within a
// linear (SeriesRef/Arith{Add,Sub}) expression tree: how many times,
// and with what sign, target's delta should be scaled before folding
// in. A series absent from the tree has coefficient 0.
func coefficientOf(e *Expr, target string) float64 {
	switch e.Kind {
	case KindSeriesRef:
		if e.Name == target {
			return 1
		}
		return 0
	case KindArith:
		lc := coefficientOf(e.Left, target)
		rc := coefficientOf(e.Right, target)
		if e.ArithOp == column.Sub {
			return lc - rc
		}
		return lc + rc
	default:
		return 0
	}
}

func scaleColumn(c column.Column, coef float64) column.Column {
	if coef == 1 {
		return c
	}
	b := column.NewBuilder(c.DType(), c.Len())
	for i := 0; i < c.Len(); i++ {
		v := c.At(i)
		if v.IsMissing() {
			_ = b.Push(v)
			continue
		}
		switch c.DType() {
		case typesys.Int64:
			iv, _ := v.Int64()
			_ = b.Push(typesys.Int64Scalar(int64(float64(iv) * coef)))
		case typesys.Float64:
			fv, _ := v.Float64()
			_ = b.Push(typesys.Float64Scalar(fv * coef))
		default:
			_ = b.Push(v)
		}
	}
	return b.Build()
}
