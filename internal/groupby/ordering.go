// Package groupby implements split-apply-combine aggregation over a
// keys Series and a values Series: alignment prelude, an arena-vs-heap
// allocation budget check, a dense-int fast path for small-range Int64
// keys, and a generic hash path for everything else, emitting results
// in first-seen key order (INV-GROUPBY-FIRST-SEEN).
package groupby

import (
	"tabula/internal/column"
	"tabula/internal/typesys"
)

// defaultArenaBudgetBytes is the spec §4.5 default arena allocation
// budget (256 MiB) below which grouping uses a size-preallocated
// ("arena", bump-pointer-style) accumulator instead of a growable
// general-allocator one. Both paths produce byte-identical results;
// the budget only decides how the backing storage is allocated.
const defaultArenaBudgetBytes = 256 * 1024 * 1024

// denseRangeLimit is the spec's dense integer fast-path cardinality
// cap: (max_key - min_key + 1) <= this uses a direct-indexed bucket
// array instead of a hash map.
const denseRangeLimit = 65536

// allocationStrategy reports which backing-storage strategy
// estimateBytes(n) fits under the arena budget.
type allocationStrategy int

const (
	arenaStrategy allocationStrategy = iota
	heapStrategy
)

// estimateBytes approximates the intermediate accumulator footprint for
// n input rows: one key slot, one accumulator slot and one ordinal
// slot, each assumed machine-word sized.
func estimateBytes(n int) int64 {
	const wordsPerRow = 3 // key, accumulator, ordinal
	return int64(n) * wordsPerRow * 8
}

func chooseAllocationStrategy(n int, budgetBytes int64) allocationStrategy {
	if estimateBytes(n) <= budgetBytes {
		return arenaStrategy
	}
	return heapStrategy
}

// groupKey is the accumulation key: a typesys.Scalar is a plain
// comparable struct (dtype + one value field per variant), so it is
// directly usable as a map key without a separate hashing scheme.
type groupKey = typesys.Scalar

// groups holds, in first-seen order, the row positions belonging to
// each distinct (non-missing, if dropna) key value.
type groups struct {
	order     []groupKey
	positions map[groupKey][]int
}

// buildGroups scans keys once, classifying non-missing key values into
// first-seen-ordered buckets of row positions. dropna excludes missing
// keys entirely (the spec default).
func buildGroups(keys column.Column, dropna bool, budgetBytes int64) groups {
	strategy := chooseAllocationStrategy(keys.Len(), budgetBytes)
	if keys.DType() == typesys.Int64 && canUseDenseFastPath(keys) {
		return buildGroupsDenseInt(keys, dropna, strategy)
	}
	return buildGroupsGeneric(keys, dropna, strategy)
}

func canUseDenseFastPath(keys column.Column) bool {
	values := keys.Int64Values()
	valid := keys.Validity()
	var min, max int64
	seen := false
	for i, v := range values {
		if !valid.IsValid(i) {
			continue
		}
		if !seen {
			min, max = v, v
			seen = true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if !seen {
		return true // no non-missing keys; range check is moot
	}
	return max-min+1 <= denseRangeLimit
}

// buildGroupsDenseInt implements the spec's step 3: allocate bucket
// arrays sized to the key range, scan once, and record first-touch
// order.
func buildGroupsDenseInt(keys column.Column, dropna bool, strategy allocationStrategy) groups {
	values := keys.Int64Values()
	valid := keys.Validity()

	var min, max int64
	seen := false
	for i, v := range values {
		if !valid.IsValid(i) {
			continue
		}
		if !seen {
			min, max = v, v
			seen = true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if !seen {
		// No non-missing keys at all. Still owes a missing-key group to
		// buildGroupsGeneric's contract when dropna=false, rather than
		// returning zero groups for what may be a non-empty column.
		return denseMissingOnlyGroups(keys, dropna)
	}
	rangeSize := int(max - min + 1)

	touched := make([]bool, rangeSize)
	var order []groupKey
	positions := make(map[groupKey][]int, rangeSize)

	_ = strategy // both strategies use the same dense array shape here

	missingTouched := false
	for i, v := range values {
		if !valid.IsValid(i) {
			if dropna {
				continue
			}
			// Bit-equivalent to buildGroupsGeneric: missing keys form
			// their own group instead of vanishing, keyed the same way
			// keys.At(i) would report it.
			key := keys.At(i)
			if !missingTouched {
				missingTouched = true
				order = append(order, key)
			}
			positions[key] = append(positions[key], i)
			continue
		}
		bucket := int(v - min)
		key := typesys.Int64Scalar(v)
		if !touched[bucket] {
			touched[bucket] = true
			order = append(order, key)
		}
		positions[key] = append(positions[key], i)
	}
	return groups{order: order, positions: positions}
}

// denseMissingOnlyGroups handles an Int64 key column with no non-missing
// values: dropna drops every row, otherwise every row collapses into
// one missing-key group.
func denseMissingOnlyGroups(keys column.Column, dropna bool) groups {
	if dropna {
		return groups{positions: make(map[groupKey][]int)}
	}
	positions := make(map[groupKey][]int)
	var order []groupKey
	touched := false
	for i := 0; i < keys.Len(); i++ {
		key := keys.At(i)
		if !touched {
			touched = true
			order = append(order, key)
		}
		positions[key] = append(positions[key], i)
	}
	return groups{order: order, positions: positions}
}

// buildGroupsGeneric implements the spec's step 4: a hash map keyed by
// the scalar value itself, first-seen ordinal tracked via the order
// slice.
func buildGroupsGeneric(keys column.Column, dropna bool, strategy allocationStrategy) groups {
	n := keys.Len()
	var order []groupKey
	positions := make(map[groupKey][]int)
	if strategy == arenaStrategy {
		order = make([]groupKey, 0, n)
	}

	for i := 0; i < n; i++ {
		s := keys.At(i)
		if s.IsMissing() && dropna {
			continue
		}
		if _, exists := positions[s]; !exists {
			order = append(order, s)
		}
		positions[s] = append(positions[s], i)
	}
	return groups{order: order, positions: positions}
}
