package index

import (
	"sort"
	"sync"
)

// SortOrder is the memoized sort_order_cache value.
type SortOrder uint8

const (
	Unsorted SortOrder = iota
	AscendingInt64
	AscendingUtf8
)

// Index is an ordered sequence of Labels plus two lazily-initialized,
// never-invalidated caches (has-duplicate status and sort order). Index
// is immutable after construction: caches are pure functions of the
// label vector and are safe to compute more than once from more than
// one goroutine, so they're guarded with sync.Once rather than a
// read/write mutex the way the teacher's dialect registry guards its
// mutable map — there's nothing here to ever invalidate.
type Index struct {
	labels []Label

	dupOnce sync.Once
	dupVal  bool

	sortOnce sync.Once
	sortVal  SortOrder

	posOnce sync.Once
	posMap  map[Label][]int
}

// New builds an Index from a label sequence. Mixing Int64 and Utf8
// labels in one Index is forbidden (spec's open question on mixed-type
// union semantics is resolved by disallowing construction entirely).
func New(labels []Label) (*Index, error) {
	if len(labels) > 1 {
		kind := labels[0].Kind
		for _, l := range labels[1:] {
			if l.Kind != kind {
				return nil, newError(AlignmentViolation, "mixed-kind labels are not permitted in one Index")
			}
		}
	}
	return &Index{labels: append([]Label(nil), labels...)}, nil
}

// Labels returns the backing label slice. Callers must not mutate it.
func (idx *Index) Labels() []Label { return idx.labels }

// Len reports the number of labels.
func (idx *Index) Len() int { return len(idx.labels) }

// At returns the label at position i.
func (idx *Index) At(i int) Label { return idx.labels[i] }

// HasDuplicates is memoized: first write wins, recomputed after
// deserialization (i.e. whenever a fresh Index value is built from
// scratch, which is always the case in this in-memory model).
func (idx *Index) HasDuplicates() bool {
	idx.dupOnce.Do(func() {
		seen := make(map[Label]struct{}, len(idx.labels))
		for _, l := range idx.labels {
			if _, ok := seen[l]; ok {
				idx.dupVal = true
				return
			}
			seen[l] = struct{}{}
		}
	})
	return idx.dupVal
}

// SortOrderCache reports the memoized sort classification used by
// Position to pick binary search vs. hash/linear lookup.
func (idx *Index) SortOrderCache() SortOrder {
	idx.sortOnce.Do(func() {
		idx.sortVal = classifySortOrder(idx.labels)
	})
	return idx.sortVal
}

func classifySortOrder(labels []Label) SortOrder {
	if len(labels) == 0 {
		return Unsorted
	}
	kind := labels[0].Kind
	for i := 1; i < len(labels); i++ {
		if labels[i].Kind != kind || labels[i].Less(labels[i-1]) {
			return Unsorted
		}
	}
	if kind == Int64Kind {
		return AscendingInt64
	}
	return AscendingUtf8
}

func (idx *Index) ensurePosMap() map[Label][]int {
	idx.posOnce.Do(func() {
		m := make(map[Label][]int, len(idx.labels))
		for i, l := range idx.labels {
			m[l] = append(m[l], i)
		}
		idx.posMap = m
	})
	return idx.posMap
}

// Position returns the first position of label, or nil if absent.
// Adaptive: binary search when SortOrderCache reports a sorted index,
// otherwise a hash map built on demand (amortized O(1) across repeated
// calls, O(n) worst case on the very first call).
func (idx *Index) Position(label Label) *int {
	switch idx.SortOrderCache() {
	case AscendingInt64, AscendingUtf8:
		i, found := sort.Find(len(idx.labels), func(i int) int {
			if idx.labels[i].Equal(label) {
				return 0
			}
			if idx.labels[i].Less(label) {
				return 1
			}
			return -1
		})
		if found {
			return &i
		}
		return nil
	default:
		positions := idx.ensurePosMap()[label]
		if len(positions) == 0 {
			return nil
		}
		p := positions[0]
		return &p
	}
}

// PositionsOf returns every position of label (plural for duplicate
// labels); nil if absent.
func (idx *Index) PositionsOf(label Label) []int {
	return idx.ensurePosMap()[label]
}

// GetIndexer returns, for each label in target, the first position of
// that label in idx or nil if absent.
func (idx *Index) GetIndexer(target []Label) []*int {
	out := make([]*int, len(target))
	for i, l := range target {
		out[i] = idx.Position(l)
	}
	return out
}

// Take gathers the labels at the given positions into a new Index.
func (idx *Index) Take(positions []int) *Index {
	out := make([]Label, len(positions))
	for i, p := range positions {
		out[i] = idx.labels[p]
	}
	built, _ := New(out) // positions are drawn from idx, so kind is uniform
	return built
}

// Slice returns the [start,end) sub-sequence as a new Index.
func (idx *Index) Slice(start, end int) *Index {
	built, _ := New(idx.labels[start:end])
	return built
}
