package index

// Intersection returns the labels of l that also appear in r, in l's
// native order, deduplicated.
func Intersection(l, r *Index) *Index {
	rSet := make(map[Label]struct{}, r.Len())
	for _, lab := range r.labels {
		rSet[lab] = struct{}{}
	}
	var out []Label
	seen := make(map[Label]struct{}, l.Len())
	for _, lab := range l.labels {
		if _, ok := seen[lab]; ok {
			continue
		}
		if _, ok := rSet[lab]; ok {
			out = append(out, lab)
			seen[lab] = struct{}{}
		}
	}
	built, _ := New(out)
	return built
}

// UnionWith returns the deduplicated labels of l followed by the labels
// of r not already present, mirroring AlignUnion's left-first ordering.
func UnionWith(l, r *Index) *Index {
	seen := make(map[Label]struct{}, l.Len()+r.Len())
	out := make([]Label, 0, l.Len()+r.Len())
	for _, lab := range l.labels {
		if _, ok := seen[lab]; !ok {
			out = append(out, lab)
			seen[lab] = struct{}{}
		}
	}
	for _, lab := range r.labels {
		if _, ok := seen[lab]; !ok {
			out = append(out, lab)
			seen[lab] = struct{}{}
		}
	}
	built, _ := New(out)
	return built
}

// Difference returns the deduplicated labels of l that do not appear in
// r, in l's order.
func Difference(l, r *Index) *Index {
	rSet := make(map[Label]struct{}, r.Len())
	for _, lab := range r.labels {
		rSet[lab] = struct{}{}
	}
	var out []Label
	seen := make(map[Label]struct{}, l.Len())
	for _, lab := range l.labels {
		if _, ok := seen[lab]; ok {
			continue
		}
		if _, ok := rSet[lab]; !ok {
			out = append(out, lab)
			seen[lab] = struct{}{}
		}
	}
	built, _ := New(out)
	return built
}

// SymmetricDifference returns labels present in exactly one of l, r:
// l's exclusive labels (in l order) followed by r's exclusive labels
// (in r order).
func SymmetricDifference(l, r *Index) *Index {
	left := Difference(l, r)
	right := Difference(r, l)
	out := append(append([]Label(nil), left.labels...), right.labels...)
	built, _ := New(out)
	return built
}

// IsIn reports, for each label in idx, whether it appears in target.
func (idx *Index) IsIn(target *Index) []bool {
	set := make(map[Label]struct{}, target.Len())
	for _, lab := range target.labels {
		set[lab] = struct{}{}
	}
	out := make([]bool, idx.Len())
	for i, lab := range idx.labels {
		_, out[i] = set[lab]
	}
	return out
}

// Unique returns the first-seen-order deduplication of idx.
func (idx *Index) Unique() *Index {
	seen := make(map[Label]struct{}, idx.Len())
	var out []Label
	for _, lab := range idx.labels {
		if _, ok := seen[lab]; !ok {
			out = append(out, lab)
			seen[lab] = struct{}{}
		}
	}
	built, _ := New(out)
	return built
}

// KeepMode selects which occurrence of a duplicate group Duplicated
// and DropDuplicates treat as the non-duplicate representative.
type KeepMode uint8

const (
	KeepFirst KeepMode = iota
	KeepLast
	KeepNone
)

// Duplicated reports, per position, whether that occurrence is a
// duplicate under the given keep policy.
func (idx *Index) Duplicated(keep KeepMode) []bool {
	positions := idx.ensurePosMap()
	out := make([]bool, idx.Len())
	switch keep {
	case KeepFirst:
		for _, ps := range positions {
			for _, p := range ps[1:] {
				out[p] = true
			}
		}
	case KeepLast:
		for _, ps := range positions {
			for _, p := range ps[:len(ps)-1] {
				out[p] = true
			}
		}
	case KeepNone:
		for _, ps := range positions {
			if len(ps) > 1 {
				for _, p := range ps {
					out[p] = true
				}
			}
		}
	}
	return out
}

// DropDuplicates returns the sub-Index retaining only the positions
// Duplicated(keep) marks as non-duplicate, in original order.
func (idx *Index) DropDuplicates(keep KeepMode) *Index {
	dup := idx.Duplicated(keep)
	var positions []int
	for i, d := range dup {
		if !d {
			positions = append(positions, i)
		}
	}
	return idx.Take(positions)
}

// SortValues returns a new Index with labels sorted ascending, plus the
// permutation (original positions in their new order) that produced it.
func (idx *Index) SortValues() (*Index, []int) {
	perm := idx.Argsort()
	return idx.Take(perm), perm
}

// Argsort returns the permutation of positions that would sort idx's
// labels ascending; ties resolve by original position (stable).
func (idx *Index) Argsort() []int {
	perm := make([]int, idx.Len())
	for i := range perm {
		perm[i] = i
	}
	sortInts(perm, func(a, b int) bool {
		return idx.labels[a].Less(idx.labels[b])
	})
	return perm
}

// sortInts is a small stable insertion sort wrapper kept local so
// this package does not need to import "sort" with a closure-based
// sort.Slice (whose stability is not guaranteed) for argsort, where
// stability matters.
func sortInts(a []int, less func(i, j int) bool) {
	// insertion sort: stable, fine for the label-cardinalities this
	// in-memory model targets.
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && less(a[j], a[j-1]); j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}
