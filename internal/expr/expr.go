// Package expr implements the expression DAG evaluated over named
// Series: SeriesRef, Literal, Arith, Compare, Logical and Not nodes,
// generalized from internal/core's closed-enum-of-node-kinds shape
// (one Kind tag, one struct carrying whichever fields that kind uses)
// into an expression tree instead of a flat operation list.
package expr

import (
	"tabula/internal/column"
	"tabula/internal/frame"
	"tabula/internal/index"
	"tabula/internal/policy"
	"tabula/internal/typesys"
)

// Kind identifies an Expr node's shape, mirroring internal/core's
// OperationKind string-enum pattern.
type Kind string

const (
	KindSeriesRef Kind = "SeriesRef"
	KindLiteral   Kind = "Literal"
	KindArith     Kind = "Arith"
	KindCompare   Kind = "Compare"
	KindLogical   Kind = "Logical"
	KindNot       Kind = "Not"
)

// CompareOp mirrors column.CompareOp; re-exported so callers building
// expressions don't need to import internal/column directly.
type CompareOp = column.CompareOp

const (
	Gt = column.Gt
	Lt = column.Lt
	Eq = column.Eq
	Ne = column.Ne
	Ge = column.Ge
	Le = column.Le
)

// LogicalOp enumerates the supported boolean combinators.
type LogicalOp int

const (
	And LogicalOp = iota
	Or
)

// Expr is one node of the expression DAG. Only the fields relevant to
// Kind are populated; the others are zero.
type Expr struct {
	Kind Kind

	Name  string         // SeriesRef
	Value typesys.Scalar // Literal

	Left, Right *Expr // Arith, Compare, Logical
	Operand     *Expr // Not

	ArithOp   column.ArithOp
	CompareOp CompareOp
	LogicalOp LogicalOp
}

// SeriesRef builds a node resolving name against an EvalContext.
func SeriesRef(name string) *Expr { return &Expr{Kind: KindSeriesRef, Name: name} }

// Literal builds a scalar broadcast node. A Literal standing alone at
// the root, or paired with another Literal, has no series to broadcast
// onto and evaluation fails with UnanchoredLiteral.
func Literal(v typesys.Scalar) *Expr { return &Expr{Kind: KindLiteral, Value: v} }

// Arith builds a binary arithmetic node evaluated through Frame's
// policy-gated arithmetic kernels.
func Arith(op column.ArithOp, left, right *Expr) *Expr {
	return &Expr{Kind: KindArith, ArithOp: op, Left: left, Right: right}
}

// Compare builds a binary comparison node evaluated through Column's
// boolean comparison kernel.
func Compare(op CompareOp, left, right *Expr) *Expr {
	return &Expr{Kind: KindCompare, CompareOp: op, Left: left, Right: right}
}

// Logical builds a binary boolean-combinator node.
func Logical(op LogicalOp, left, right *Expr) *Expr {
	return &Expr{Kind: KindLogical, LogicalOp: op, Left: left, Right: right}
}

// Not builds a unary boolean negation node.
func Not(operand *Expr) *Expr { return &Expr{Kind: KindNot, Operand: operand} }

// IsLinear reports whether e consists solely of SeriesRef and
// Arith{Add, Sub} nodes, the subset eligible for incremental Delta
// evaluation (spec §4.8).
func (e *Expr) IsLinear() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindSeriesRef:
		return true
	case KindArith:
		if e.ArithOp != column.Add && e.ArithOp != column.Sub {
			return false
		}
		return e.Left.IsLinear() && e.Right.IsLinear()
	default:
		return false
	}
}

// EvalContext resolves SeriesRef names to concrete Series.
type EvalContext struct {
	series map[string]frame.Series
}

// NewEvalContext builds an EvalContext from a name->Series map.
func NewEvalContext(series map[string]frame.Series) *EvalContext {
	return &EvalContext{series: series}
}

// Resolve looks up name, reporting whether it was bound.
func (c *EvalContext) Resolve(name string) (frame.Series, bool) {
	s, ok := c.series[name]
	return s, ok
}

// Eval fully evaluates e against ctx, threading pol/ledger through
// every Arith node's Frame-level policy gating.
func Eval(e *Expr, ctx *EvalContext, pol policy.RuntimePolicy, ledger *policy.EvidenceLedger) (frame.Series, error) {
	s, lit, err := evalNode(e, ctx, pol, ledger)
	if err != nil {
		return frame.Series{}, err
	}
	if lit != nil {
		return frame.Series{}, newError(UnanchoredLiteral, "literal %s has no series anchor to broadcast onto", lit.String())
	}
	return s, nil
}

func evalNode(e *Expr, ctx *EvalContext, pol policy.RuntimePolicy, ledger *policy.EvidenceLedger) (frame.Series, *typesys.Scalar, error) {
	if e == nil {
		return frame.Series{}, nil, newError(UnsupportedExpr, "nil expression node")
	}
	switch e.Kind {
	case KindSeriesRef:
		s, ok := ctx.Resolve(e.Name)
		if !ok {
			return frame.Series{}, nil, newError(UnknownSeries, "unknown series %q", e.Name)
		}
		return s, nil, nil
	case KindLiteral:
		v := e.Value
		return frame.Series{}, &v, nil
	case KindArith:
		return evalArith(e, ctx, pol, ledger)
	case KindCompare:
		return evalCompare(e, ctx, pol, ledger)
	case KindLogical:
		return evalLogical(e, ctx, pol, ledger)
	case KindNot:
		return evalNot(e, ctx, pol, ledger)
	default:
		return frame.Series{}, nil, newError(UnsupportedExpr, "unknown expr kind %q", e.Kind)
	}
}

// resolveOperands evaluates both sides of a binary node, broadcasting
// whichever side is a bare literal onto the other side's index. Two
// bare literals (no series anchor on either side) is an error.
func resolveOperands(left, right *Expr, ctx *EvalContext, pol policy.RuntimePolicy, ledger *policy.EvidenceLedger) (frame.Series, frame.Series, error) {
	ls, llit, err := evalNode(left, ctx, pol, ledger)
	if err != nil {
		return frame.Series{}, frame.Series{}, err
	}
	rs, rlit, err := evalNode(right, ctx, pol, ledger)
	if err != nil {
		return frame.Series{}, frame.Series{}, err
	}
	if llit != nil && rlit != nil {
		return frame.Series{}, frame.Series{}, newError(UnanchoredLiteral, "binary expression has no series anchor on either side")
	}
	if llit != nil {
		ls = broadcastLiteral(*llit, rs.Index)
	}
	if rlit != nil {
		rs = broadcastLiteral(*rlit, ls.Index)
	}
	return ls, rs, nil
}

func broadcastLiteral(v typesys.Scalar, idx *index.Index) frame.Series {
	b := column.NewBuilder(v.DType(), idx.Len())
	for i := 0; i < idx.Len(); i++ {
		_ = b.Push(v)
	}
	s, _ := frame.NewSeries("", idx, b.Build())
	return s
}

func evalArith(e *Expr, ctx *EvalContext, pol policy.RuntimePolicy, ledger *policy.EvidenceLedger) (frame.Series, *typesys.Scalar, error) {
	ls, rs, err := resolveOperands(e.Left, e.Right, ctx, pol, ledger)
	if err != nil {
		return frame.Series{}, nil, err
	}
	out, err := ls.Arith(rs, pol, ledger, e.ArithOp)
	if err != nil {
		return frame.Series{}, nil, wrap(FrameFailure, err)
	}
	return out, nil, nil
}

// alignSeriesPair unions two series' indexes and reindexes both
// columns onto it, the plain alignment step Compare/Logical ride on
// without Frame arithmetic's duplicate-index policy gating (spec §4.8:
// "logical ops via Column boolean kernels" directly).
func alignSeriesPair(a, b frame.Series) (column.Column, column.Column, *index.Index, error) {
	if sameLabels(a.Index, b.Index) {
		return a.Col, b.Col, a.Index, nil
	}
	plan := index.AlignUnion(a.Index, b.Index)
	ac, err := a.Col.ReindexByOptionalPositions(plan.LeftPositions)
	if err != nil {
		return column.Column{}, column.Column{}, nil, wrap(ColumnFailure, err)
	}
	bc, err := b.Col.ReindexByOptionalPositions(plan.RightPositions)
	if err != nil {
		return column.Column{}, column.Column{}, nil, wrap(ColumnFailure, err)
	}
	unionIdx, ierr := index.New(plan.UnionLabels)
	if ierr != nil {
		return column.Column{}, column.Column{}, nil, wrap(IndexFailure, ierr)
	}
	return ac, bc, unionIdx, nil
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

func evalCompare(e *Expr, ctx *EvalContext, pol policy.RuntimePolicy, ledger *policy.EvidenceLedger) (frame.Series, *typesys.Scalar, error) {
	ls, rs, err := resolveOperands(e.Left, e.Right, ctx, pol, ledger)
	if err != nil {
		return frame.Series{}, nil, err
	}
	lc, rc, outIdx, err := alignSeriesPair(ls, rs)
	if err != nil {
		return frame.Series{}, nil, err
	}
	outCol, err := column.BinaryComparison(lc, rc, e.CompareOp)
	if err != nil {
		return frame.Series{}, nil, wrap(ColumnFailure, err)
	}
	s, _ := frame.NewSeries("", outIdx, outCol)
	return s, nil, nil
}

func evalLogical(e *Expr, ctx *EvalContext, pol policy.RuntimePolicy, ledger *policy.EvidenceLedger) (frame.Series, *typesys.Scalar, error) {
	ls, rs, err := resolveOperands(e.Left, e.Right, ctx, pol, ledger)
	if err != nil {
		return frame.Series{}, nil, err
	}
	lc, rc, outIdx, err := alignSeriesPair(ls, rs)
	if err != nil {
		return frame.Series{}, nil, err
	}
	b := column.NewBuilder(typesys.Bool, outIdx.Len())
	for i := 0; i < outIdx.Len(); i++ {
		av, rv := lc.At(i), rc.At(i)
		if av.IsMissing() || rv.IsMissing() {
			_ = b.Push(typesys.NullScalar(typesys.Bool, typesys.KindNull))
			continue
		}
		ab, _ := av.Bool()
		bb, _ := rv.Bool()
		var out bool
		switch e.LogicalOp {
		case And:
			out = ab && bb
		case Or:
			out = ab || bb
		}
		_ = b.Push(typesys.BoolScalar(out))
	}
	s, _ := frame.NewSeries("", outIdx, b.Build())
	return s, nil, nil
}

func evalNot(e *Expr, ctx *EvalContext, pol policy.RuntimePolicy, ledger *policy.EvidenceLedger) (frame.Series, *typesys.Scalar, error) {
	s, lit, err := evalNode(e.Operand, ctx, pol, ledger)
	if err != nil {
		return frame.Series{}, nil, err
	}
	if lit != nil {
		return frame.Series{}, nil, newError(UnanchoredLiteral, "not() operand has no series anchor")
	}
	b := column.NewBuilder(typesys.Bool, s.Len())
	for i := 0; i < s.Len(); i++ {
		v := s.Col.At(i)
		if v.IsMissing() {
			_ = b.Push(typesys.NullScalar(typesys.Bool, typesys.KindNull))
			continue
		}
		bv, _ := v.Bool()
		_ = b.Push(typesys.BoolScalar(!bv))
	}
	out, _ := frame.NewSeries("", s.Index, b.Build())
	return out, nil, nil
}
