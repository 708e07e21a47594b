// Package join implements the hash-join probe (Inner/Left/Right/Outer)
// shared by join_series and merge_dataframes: build a position map from
// one side, probe from the other, emit position pairs that
// reindex_by_positions gathers into owned outputs.
package join

// JoinType enumerates the supported join modes.
type JoinType int

const (
	Inner JoinType = iota
	Left
	Right
	Outer
)

func (t JoinType) String() string {
	switch t {
	case Inner:
		return "Inner"
	case Left:
		return "Left"
	case Right:
		return "Right"
	case Outer:
		return "Outer"
	default:
		return "Unknown"
	}
}

// buildPositionMap groups each key's row positions in encounter order,
// the shared build phase for every join type.
func buildPositionMap[K comparable](keys []K) map[K][]int {
	m := make(map[K][]int, len(keys))
	for i, k := range keys {
		m[k] = append(m[k], i)
	}
	return m
}

// pair is one emitted (leftPos, rightPos) row of the join output;
// either side may be absent (nil).
type pair struct {
	left  *int
	right *int
}

func idx(i int) *int { v := i; return &v }

// probeLeft drives the scan from leftKeys, looking up matches in
// rightKeys via rightMap. includeUnmatched controls Inner (false) vs
// Left (true) behavior.
func probeLeft[K comparable](leftKeys []K, rightMap map[K][]int, includeUnmatched bool) []pair {
	var out []pair
	for li, k := range leftKeys {
		matches := rightMap[k]
		if len(matches) == 0 {
			if includeUnmatched {
				out = append(out, pair{left: idx(li)})
			}
			continue
		}
		for _, ri := range matches {
			out = append(out, pair{left: idx(li), right: idx(ri)})
		}
	}
	return out
}

// probeRight is probeLeft's mirror, driven by rightKeys against
// leftMap; Right join always includes unmatched right rows.
func probeRight[K comparable](rightKeys []K, leftMap map[K][]int) []pair {
	var out []pair
	for ri, k := range rightKeys {
		matches := leftMap[k]
		if len(matches) == 0 {
			out = append(out, pair{right: idx(ri)})
			continue
		}
		for _, li := range matches {
			out = append(out, pair{left: idx(li), right: idx(ri)})
		}
	}
	return out
}

// probeOuter runs the Left traversal first (matched pairs plus
// left-only rows), then appends right rows whose key has no match at
// all on the left side.
func probeOuter[K comparable](leftKeys, rightKeys []K, leftMap, rightMap map[K][]int) []pair {
	out := probeLeft(leftKeys, rightMap, true)
	for ri, k := range rightKeys {
		if _, matched := leftMap[k]; !matched {
			out = append(out, pair{right: idx(ri)})
		}
	}
	return out
}

// probe runs the requested join type's probe phase over two key
// sequences, returning the emitted position pairs.
func probe[K comparable](leftKeys, rightKeys []K, joinType JoinType) ([]pair, error) {
	rightMap := buildPositionMap(rightKeys)
	switch joinType {
	case Inner:
		return probeLeft(leftKeys, rightMap, false), nil
	case Left:
		return probeLeft(leftKeys, rightMap, true), nil
	case Right:
		leftMap := buildPositionMap(leftKeys)
		return probeRight(rightKeys, leftMap), nil
	case Outer:
		leftMap := buildPositionMap(leftKeys)
		return probeOuter(leftKeys, rightKeys, leftMap, rightMap), nil
	default:
		return nil, newError(UnknownJoinMode, "unknown join mode %v", joinType)
	}
}

func splitPairs(pairs []pair) (leftPos, rightPos []*int) {
	leftPos = make([]*int, len(pairs))
	rightPos = make([]*int, len(pairs))
	for i, p := range pairs {
		leftPos[i] = p.left
		rightPos[i] = p.right
	}
	return leftPos, rightPos
}

// estimateOutputBytes approximates the intermediate position-pair
// footprint for an output of rowCount rows, mirroring groupby's
// arena-vs-heap budget check (spec §4.6 step 2: "identically to
// groupby").
func estimateOutputBytes(rowCount int) int64 {
	const wordsPerRow = 2 // left position, right position
	return int64(rowCount) * wordsPerRow * 8
}
