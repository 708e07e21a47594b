package index

import "container/heap"

// MultiAlignmentPlan generalizes AlignmentPlan to k indexes: one union
// label sequence plus, per input index, one position vector.
type MultiAlignmentPlan struct {
	UnionLabels []Label
	Positions   [][]*int
}

// heapItem is one index's current cursor in the leapfrog merge.
type heapItem struct {
	label  Label
	srcIdx int // which input index this cursor belongs to
	cursor int // position within that index's label slice
}

type labelHeap struct {
	items []heapItem
	less  func(a, b Label) bool
}

func (h labelHeap) Len() int { return len(h.items) }
func (h labelHeap) Less(i, j int) bool {
	if h.items[i].label.Equal(h.items[j].label) {
		return h.items[i].srcIdx < h.items[j].srcIdx
	}
	return h.less(h.items[i].label, h.items[j].label)
}
func (h labelHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *labelHeap) Push(x any)   { h.items = append(h.items, x.(heapItem)) }
func (h *labelHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// leapfrogMerge drives a k-way min-heap merge over already-sorted
// indexes, invoking emit(label, cursorPerSource) once per distinct
// label encountered across all sources in ascending order.
// cursorPerSource[i] is the position of label in indexes[i], or -1 if
// indexes[i] has no such label.
func leapfrogMerge(indexes []*Index, emit func(label Label, cursors []int)) {
	if len(indexes) == 0 {
		return
	}
	less := func(a, b Label) bool { return a.Less(b) }

	h := &labelHeap{less: less}
	heap.Init(h)
	for si, idx := range indexes {
		if idx.Len() > 0 {
			heap.Push(h, heapItem{label: idx.At(0), srcIdx: si, cursor: 0})
		}
	}

	for h.Len() > 0 {
		top := h.items[0].label
		cursors := make([]int, len(indexes))
		for i := range cursors {
			cursors[i] = -1
		}
		for h.Len() > 0 && h.items[0].label.Equal(top) {
			item := heap.Pop(h).(heapItem)
			cursors[item.srcIdx] = item.cursor
			next := item.cursor + 1
			if next < indexes[item.srcIdx].Len() {
				heap.Push(h, heapItem{label: indexes[item.srcIdx].At(next), srcIdx: item.srcIdx, cursor: next})
			}
		}
		emit(top, cursors)
	}
}

// LeapfrogUnion k-way merges sorted indexes into one MultiAlignmentPlan
// covering every distinct label in ascending order.
func LeapfrogUnion(indexes []*Index) MultiAlignmentPlan {
	var union []Label
	positions := make([][]*int, len(indexes))
	leapfrogMerge(indexes, func(label Label, cursors []int) {
		union = append(union, label)
		for i, c := range cursors {
			if c >= 0 {
				v := c
				positions[i] = append(positions[i], &v)
			} else {
				positions[i] = append(positions[i], nil)
			}
		}
	})
	return MultiAlignmentPlan{UnionLabels: union, Positions: positions}
}

// LeapfrogIntersection k-way merges sorted indexes, keeping only labels
// present in every input index.
func LeapfrogIntersection(indexes []*Index) MultiAlignmentPlan {
	var union []Label
	positions := make([][]*int, len(indexes))
	leapfrogMerge(indexes, func(label Label, cursors []int) {
		for _, c := range cursors {
			if c < 0 {
				return
			}
		}
		union = append(union, label)
		for i, c := range cursors {
			v := c
			positions[i] = append(positions[i], &v)
		}
	})
	return MultiAlignmentPlan{UnionLabels: union, Positions: positions}
}

// MultiAlign dispatches to LeapfrogUnion/LeapfrogIntersection when every
// input is sorted, and falls back to a generic (non-leapfrog) merge
// otherwise: the leapfrog kernel's sortedness precondition is part of
// its contract, not something it can assume silently.
func MultiAlign(indexes []*Index, intersect bool) MultiAlignmentPlan {
	allSorted := true
	for _, idx := range indexes {
		if idx.SortOrderCache() == Unsorted && idx.Len() > 1 {
			allSorted = false
			break
		}
	}
	if allSorted {
		if intersect {
			return LeapfrogIntersection(indexes)
		}
		return LeapfrogUnion(indexes)
	}
	return genericMultiAlign(indexes, intersect)
}

// genericMultiAlign is the hash-based fallback for unsorted inputs: a
// map pass instead of a merge, followed by an insertion sort of the
// union (quadratic in the union size), same semantics.
func genericMultiAlign(indexes []*Index, intersect bool) MultiAlignmentPlan {
	counts := make(map[Label]int)
	order := make([]Label, 0)
	firstSeen := make(map[Label]struct{})
	for _, idx := range indexes {
		for _, lab := range idx.labels {
			if _, ok := firstSeen[lab]; !ok {
				firstSeen[lab] = struct{}{}
				order = append(order, lab)
			}
			counts[lab]++
		}
	}

	var union []Label
	for _, lab := range order {
		if intersect && counts[lab] != len(indexes) {
			continue
		}
		union = append(union, lab)
	}

	positions := make([][]*int, len(indexes))
	for i, idx := range indexes {
		positions[i] = make([]*int, len(union))
		for j, lab := range union {
			if p := idx.Position(lab); p != nil {
				v := *p
				positions[i][j] = &v
			}
		}
	}

	// The union must come out sorted regardless of input order, so
	// this fallback still owes a sorted union; reorder positions by
	// the same permutation so each row still lines up with its label.
	perm := make([]int, len(union))
	for i := range perm {
		perm[i] = i
	}
	sortInts(perm, func(a, b int) bool {
		return union[a].Less(union[b])
	})

	sortedUnion := make([]Label, len(union))
	for j, p := range perm {
		sortedUnion[j] = union[p]
	}
	sortedPositions := make([][]*int, len(indexes))
	for i := range indexes {
		sortedPositions[i] = make([]*int, len(union))
		for j, p := range perm {
			sortedPositions[i][j] = positions[i][p]
		}
	}

	return MultiAlignmentPlan{UnionLabels: sortedUnion, Positions: sortedPositions}
}
