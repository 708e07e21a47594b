package index

// AlignmentPlan is the sole protocol surface between Index and
// downstream columnar kernels: a union label sequence plus, for each
// side, one position per union label (nil meaning "absent on this
// side").
type AlignmentPlan struct {
	UnionLabels    []Label
	LeftPositions  []*int
	RightPositions []*int
}

// AlignUnion builds a plan whose union_labels are L's labels followed by
// R's labels that are not already in L, each side preserving its own
// native order (INV-ALIGN-LEFT-FIRST).
func AlignUnion(l, r *Index) AlignmentPlan {
	lPosOf := make(map[Label]int, l.Len())
	for i, lab := range l.labels {
		if _, exists := lPosOf[lab]; !exists {
			lPosOf[lab] = i
		}
	}
	rPosOf := make(map[Label]int, r.Len())
	for i, lab := range r.labels {
		if _, exists := rPosOf[lab]; !exists {
			rPosOf[lab] = i
		}
	}

	union := make([]Label, 0, l.Len()+r.Len())
	union = append(union, l.labels...)
	seen := make(map[Label]struct{}, l.Len())
	for _, lab := range l.labels {
		seen[lab] = struct{}{}
	}
	for _, lab := range r.labels {
		if _, ok := seen[lab]; !ok {
			union = append(union, lab)
			seen[lab] = struct{}{}
		}
	}

	left := make([]*int, len(union))
	right := make([]*int, len(union))
	for i, lab := range union {
		if p, ok := lPosOf[lab]; ok {
			v := p
			left[i] = &v
		}
		if p, ok := rPosOf[lab]; ok {
			v := p
			right[i] = &v
		}
	}
	return AlignmentPlan{UnionLabels: union, LeftPositions: left, RightPositions: right}
}

// AlignInner builds a plan whose union_labels are the labels of L that
// also appear in R, in L's order (INV-ALIGN-INNER-LEFT); every position
// is defined on both sides.
func AlignInner(l, r *Index) AlignmentPlan {
	rSet := make(map[Label]int, r.Len())
	for i, lab := range r.labels {
		if _, ok := rSet[lab]; !ok {
			rSet[lab] = i
		}
	}

	var union []Label
	var left, right []*int
	for i, lab := range l.labels {
		if rp, ok := rSet[lab]; ok {
			union = append(union, lab)
			lv := i
			rv := rp
			left = append(left, &lv)
			right = append(right, &rv)
		}
	}
	return AlignmentPlan{UnionLabels: union, LeftPositions: left, RightPositions: right}
}

// AlignLeft builds a plan whose union_labels are exactly L; right
// positions are nil wherever R has no matching label.
func AlignLeft(l, r *Index) AlignmentPlan {
	rPosOf := make(map[Label]int, r.Len())
	for i, lab := range r.labels {
		if _, ok := rPosOf[lab]; !ok {
			rPosOf[lab] = i
		}
	}
	union := append([]Label(nil), l.labels...)
	left := make([]*int, len(union))
	right := make([]*int, len(union))
	for i := range union {
		v := i
		left[i] = &v
		if p, ok := rPosOf[union[i]]; ok {
			rv := p
			right[i] = &rv
		}
	}
	return AlignmentPlan{UnionLabels: union, LeftPositions: left, RightPositions: right}
}

// ValidateAlignmentPlan asserts the invariants a plan must satisfy
// before any kernel is allowed to consume it: both position vectors
// have length equal to union_labels, and every non-absent position is
// in range for its side.
func ValidateAlignmentPlan(plan AlignmentPlan, leftLen, rightLen int) error {
	n := len(plan.UnionLabels)
	if len(plan.LeftPositions) != n || len(plan.RightPositions) != n {
		return newError(AlignmentViolation, "position vector length must equal union_labels length (%d)", n)
	}
	for _, p := range plan.LeftPositions {
		if p != nil && (*p < 0 || *p >= leftLen) {
			return newError(AlignmentViolation, "left position %d out of range for length %d", *p, leftLen)
		}
	}
	for _, p := range plan.RightPositions {
		if p != nil && (*p < 0 || *p >= rightLen) {
			return newError(AlignmentViolation, "right position %d out of range for length %d", *p, rightLen)
		}
	}
	return nil
}
