// Package frame implements the Series and DataFrame containers: policy-
// gated alignment arithmetic, concatenation, row filtering and
// head/tail slicing built on top of internal/column and internal/index.
package frame

import (
	"tabula/internal/column"
	"tabula/internal/index"
	"tabula/internal/policy"
)

// Series pairs a name, an Index and a Column. Invariant: Index length
// == Column length, enforced at construction.
type Series struct {
	Name  string
	Index *index.Index
	Col   column.Column
}

// NewSeries builds a Series, checking the length invariant.
func NewSeries(name string, idx *index.Index, col column.Column) (Series, error) {
	if idx.Len() != col.Len() {
		return Series{}, newError(LengthMismatch, "index length %d != column length %d", idx.Len(), col.Len())
	}
	return Series{Name: name, Index: idx, Col: col}, nil
}

// Len returns the shared index/column length.
func (s Series) Len() int { return s.Col.Len() }

// ArithOp mirrors column.ArithOp at the Series level, so callers of
// this package don't need to import internal/column directly for the
// common case.
type ArithOp = column.ArithOp

const (
	Add = column.Add
	Sub = column.Sub
	Mul = column.Mul
	Div = column.Div
)

// Arith implements Series add/sub/mul/div with policy gating, per spec
// §4.4:
//
//  1. If either index has duplicates and mode is Strict, reject before
//     any computation.
//  2. plan = align_union(self.index, other.index).
//  3. Reindex both columns via plan.left_positions / plan.right_positions.
//  4. Consult RuntimePolicy for admission on the resulting cardinality.
//  5. Execute elementwise via the Column kernel.
//  6. Name the result (left name if both match, else blank).
func (s Series) Arith(other Series, pol policy.RuntimePolicy, ledger *policy.EvidenceLedger, op ArithOp) (Series, error) {
	hasDup := s.Index.HasDuplicates() || other.Index.HasDuplicates()
	if hasDup {
		if pol.Mode == policy.Strict {
			policy.Decide(pol, policy.Issue{Kind: policy.MalformedInput, Subject: "series-arith", Detail: "duplicate index under Strict mode", Prior: 0.01}, policy.DefaultLossMatrix(), ledger)
			return Series{}, newError(DuplicateIndexUnsupported, "duplicate labels are not supported under Strict mode")
		}
		// Hardened: log the decision and proceed using first-occurrence
		// semantics by deduplicating both indexes before alignment.
		policy.Decide(pol, policy.Issue{Kind: policy.MalformedInput, Subject: "series-arith", Detail: "duplicate index repaired under Hardened mode", Prior: 0.01}, policy.DefaultLossMatrix(), ledger)
		s = s.firstOccurrence()
		other = other.firstOccurrence()
	}

	plan := index.AlignUnion(s.Index, other.Index)

	unionLen := int64(len(plan.UnionLabels))
	if pol.HardenedJoinRowCap != nil && unionLen > *pol.HardenedJoinRowCap {
		rec := policy.Decide(pol, policy.Issue{Kind: policy.JoinCardinality, Subject: "series-arith", Detail: "union cardinality admission", Prior: 0.999, EstimatedRows: unionLen}, policy.JoinAdmissionLossMatrix(), ledger)
		if pol.Mode == policy.Strict {
			return Series{}, newError(CompatibilityRejected, "union cardinality %d exceeds cap %d under Strict mode", unionLen, *pol.HardenedJoinRowCap)
		}
		if rec.Action == policy.Reject {
			return Series{}, newError(CompatibilityRejected, "union cardinality %d rejected by policy", unionLen)
		}
	}

	leftCol, err := s.Col.ReindexByOptionalPositions(plan.LeftPositions)
	if err != nil {
		return Series{}, wrapColumnErr(err)
	}
	rightCol, err := other.Col.ReindexByOptionalPositions(plan.RightPositions)
	if err != nil {
		return Series{}, wrapColumnErr(err)
	}

	var outCol column.Column
	switch op {
	case Add, Sub, Mul, Div:
		outCol, err = column.BinaryNumeric(leftCol, rightCol, op)
	}
	if err != nil {
		return Series{}, wrapColumnErr(err)
	}

	unionIdx, idxErr := index.New(plan.UnionLabels)
	if idxErr != nil {
		return Series{}, wrapIndexErr(idxErr)
	}

	resultName := ""
	if s.Name == other.Name {
		resultName = s.Name
	}
	return Series{Name: resultName, Index: unionIdx, Col: outCol}, nil
}

// firstOccurrence drops every duplicate label's later occurrences,
// keeping first-seen order, for both the index and its column.
func (s Series) firstOccurrence() Series {
	deduped := s.Index.DropDuplicates(index.KeepFirst)
	positions := firstOccurrencePositions(s.Index)
	col := s.Col.ReindexByPositions(positions)
	idx, _ := index.New(deduped.Labels())
	return Series{Name: s.Name, Index: idx, Col: col}
}

func firstOccurrencePositions(idx *index.Index) []*int {
	seen := make(map[index.Label]struct{}, idx.Len())
	var positions []*int
	for i := 0; i < idx.Len(); i++ {
		lab := idx.At(i)
		if _, ok := seen[lab]; ok {
			continue
		}
		seen[lab] = struct{}{}
		p := i
		positions = append(positions, &p)
	}
	return positions
}
