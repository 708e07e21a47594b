package join

import (
	"tabula/internal/frame"
	"tabula/internal/index"
	"tabula/internal/policy"
)

// JoinSeries implements join_series: hash-join left and right by their
// own Index labels, reindexing both columns into owned outputs under a
// freshly built (possibly duplicate-carrying) joined index.
//
// INV-JOIN-LEFT-ORDER: Inner/Left preserve left row order for matched
// rows; duplicate right keys expand in right-insertion order (both
// guaranteed by probeLeft/probeRight iterating their driving side in
// original order and their matched side via buildPositionMap's
// encounter-order slices).
func JoinSeries(left, right frame.Series, joinType JoinType, pol policy.RuntimePolicy, ledger *policy.EvidenceLedger) (frame.Series, frame.Series, error) {
	leftKeys := left.Index.Labels()
	rightKeys := right.Index.Labels()

	pairs, err := probe(leftKeys, rightKeys, joinType)
	if err != nil {
		return frame.Series{}, frame.Series{}, err
	}

	if rejectErr := admitJoinCardinality(pol, ledger, len(pairs)); rejectErr != nil {
		return frame.Series{}, frame.Series{}, rejectErr
	}

	leftPos, rightPos := splitPairs(pairs)
	outLabels := make([]index.Label, len(pairs))
	for i, p := range pairs {
		if p.left != nil {
			outLabels[i] = leftKeys[*p.left]
		} else {
			outLabels[i] = rightKeys[*p.right]
		}
	}
	outIdx, ierr := index.New(outLabels)
	if ierr != nil {
		return frame.Series{}, frame.Series{}, wrap(IndexFailure, ierr)
	}

	leftCol := left.Col.ReindexByPositions(leftPos)
	rightCol := right.Col.ReindexByPositions(rightPos)

	return frame.Series{Name: left.Name, Index: outIdx, Col: leftCol},
		frame.Series{Name: right.Name, Index: outIdx, Col: rightCol}, nil
}

// admitJoinCardinality consults RuntimePolicy on the estimated output
// row count, mirroring Frame arithmetic's admission step (spec §4.4
// step 4) applied to join: Hardened mode forces a logged Repair (join
// proceeds) when over hardened_join_row_cap; Strict mode surfaces a
// CompatibilityRejected error instead of silently growing past the cap.
func admitJoinCardinality(pol policy.RuntimePolicy, ledger *policy.EvidenceLedger, rowCount int) error {
	if pol.HardenedJoinRowCap == nil {
		return nil
	}
	rowCap := *pol.HardenedJoinRowCap
	if int64(rowCount) <= rowCap {
		return nil
	}
	_ = estimateOutputBytes(rowCount)
	issue := policy.Issue{Kind: policy.JoinCardinality, Subject: "join", Detail: "estimated output cardinality exceeds cap", Prior: 0.999, EstimatedRows: int64(rowCount)}
	rec := policy.Decide(pol, issue, policy.JoinAdmissionLossMatrix(), ledger)
	if pol.Mode == policy.Strict {
		return newError(CompatibilityRejected, "estimated join output %d rows exceeds cap %d under Strict mode", rowCount, rowCap)
	}
	if rec.Action == policy.Reject {
		return newError(CompatibilityRejected, "join rejected by policy at %d rows", rowCount)
	}
	return nil // Hardened + Repair: proceed, already logged to ledger
}
