package join

import (
	"tabula/internal/column"
	"tabula/internal/frame"
	"tabula/internal/index"
	"tabula/internal/policy"
	"tabula/internal/typesys"
)

// MergeDataFrames implements merge_dataframes: hash-join two frames on
// a shared "on" column, keyed by typesys.Scalar (a plain comparable
// struct, usable directly as the generic probe's key type exactly like
// groupby's group key). Non-key columns are propagated; names that
// collide across sides are disambiguated with "_x"/"_y" suffixes. The
// output carries a fresh range index.
func MergeDataFrames(left, right *frame.DataFrame, on string, how JoinType, pol policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.DataFrame, error) {
	leftKeyCol, ok := left.Column(on)
	if !ok {
		return nil, newError(ColumnFailure, "left frame has no column %q", on)
	}
	rightKeyCol, ok := right.Column(on)
	if !ok {
		return nil, newError(ColumnFailure, "right frame has no column %q", on)
	}

	leftKeys := scalarsOf(leftKeyCol)
	rightKeys := scalarsOf(rightKeyCol)

	pairs, err := probe(leftKeys, rightKeys, how)
	if err != nil {
		return nil, err
	}
	if rejectErr := admitJoinCardinality(pol, ledger, len(pairs)); rejectErr != nil {
		return nil, rejectErr
	}
	leftPos, rightPos := splitPairs(pairs)

	outLabels := make([]index.Label, len(pairs))
	for i := range pairs {
		outLabels[i] = index.NewInt64Label(int64(i))
	}
	outIdx, ierr := index.New(outLabels)
	if ierr != nil {
		return nil, wrap(IndexFailure, ierr)
	}

	keyB := column.NewBuilder(leftKeyCol.DType(), len(pairs))
	for i, p := range pairs {
		var s typesys.Scalar
		if p.left != nil {
			s = leftKeys[*p.left]
		} else {
			s = rightKeys[*p.right]
		}
		if err := keyB.Push(s); err != nil {
			return nil, wrap(ColumnFailure, err)
		}
	}

	out, err := frame.NewDataFrame(outIdx).WithColumn(on, keyB.Build())
	if err != nil {
		return nil, wrap(FrameFailure, err)
	}

	collisions := collidingNames(left.ColumnNames(), right.ColumnNames(), on)

	for _, name := range left.ColumnNames() {
		if name == on {
			continue
		}
		col, _ := left.Column(name)
		outName := name
		if collisions[name] {
			outName = name + "_x"
		}
		out, err = out.WithColumn(outName, col.ReindexByPositions(leftPos))
		if err != nil {
			return nil, wrap(FrameFailure, err)
		}
	}
	for _, name := range right.ColumnNames() {
		if name == on {
			continue
		}
		col, _ := right.Column(name)
		outName := name
		if collisions[name] {
			outName = name + "_y"
		}
		out, err = out.WithColumn(outName, col.ReindexByPositions(rightPos))
		if err != nil {
			return nil, wrap(FrameFailure, err)
		}
	}

	return out, nil
}

func scalarsOf(col column.Column) []typesys.Scalar {
	out := make([]typesys.Scalar, col.Len())
	for i := range out {
		out[i] = col.At(i)
	}
	return out
}

func collidingNames(leftNames, rightNames []string, on string) map[string]bool {
	rightSet := make(map[string]bool, len(rightNames))
	for _, n := range rightNames {
		if n != on {
			rightSet[n] = true
		}
	}
	out := make(map[string]bool)
	for _, n := range leftNames {
		if n != on && rightSet[n] {
			out[n] = true
		}
	}
	return out
}
