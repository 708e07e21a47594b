package typesys

import "math"

// Reductions operate over a raw (values, validity) pair rather than over
// internal/column.Column, so internal/column can depend on typesys
// without creating an import cycle; Column methods are thin wrappers
// around these.

// NanCount counts non-missing entries. It never returns a null result.
func NanCount(valid []bool) int64 {
	var n int64
	for _, v := range valid {
		if v {
			n++
		}
	}
	return n
}

// NanSumInt64 sums the valid entries of an Int64 column. An all-missing
// (or empty) input returns Null(KindNull); integer overflow wraps, per
// the column arithmetic kernel's wrapping-integer contract.
func NanSumInt64(values []int64, valid []bool) Scalar {
	var sum int64
	var n int64
	for i, v := range valid {
		if v {
			sum += values[i]
			n++
		}
	}
	if n == 0 {
		return NullScalar(Int64, KindNull)
	}
	return Int64Scalar(sum)
}

// NanSumFloat64 sums the valid entries of a Float64 column. An
// all-missing (or empty) input returns Null(KindNaN).
func NanSumFloat64(values []float64, valid []bool) Scalar {
	var sum float64
	var n int64
	for i, v := range valid {
		if v {
			sum += values[i]
			n++
		}
	}
	if n == 0 {
		return NullScalar(Float64, KindNaN)
	}
	return Float64Scalar(sum)
}

// NanMean computes the mean of the valid entries, always promoting to
// Float64 (matching the spec's "nanmean over integers promotes to
// Float64" contract). Null(KindNaN) for an empty or all-missing input.
func NanMean(sum float64, count int64) Scalar {
	if count == 0 {
		return NullScalar(Float64, KindNaN)
	}
	return Float64Scalar(sum / float64(count))
}

// NanMinMaxFloat64 returns (min, max) over the valid entries, ties
// broken by first occurrence (irrelevant for min/max values themselves,
// relevant to callers that also need the winning position). Null(KindNaN)
// twice over for an empty or all-missing input.
func NanMinMaxFloat64(values []float64, valid []bool) (min, max Scalar) {
	first := true
	var lo, hi float64
	for i, v := range valid {
		if !v {
			continue
		}
		x := values[i]
		if first {
			lo, hi = x, x
			first = false
			continue
		}
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if first {
		return NullScalar(Float64, KindNaN), NullScalar(Float64, KindNaN)
	}
	return Float64Scalar(lo), Float64Scalar(hi)
}

// NanMinMaxInt64 is the Int64 analog of NanMinMaxFloat64, returning
// Null(KindNull) for an empty or all-missing input.
func NanMinMaxInt64(values []int64, valid []bool) (min, max Scalar) {
	first := true
	var lo, hi int64
	for i, v := range valid {
		if !v {
			continue
		}
		x := values[i]
		if first {
			lo, hi = x, x
			first = false
			continue
		}
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if first {
		return NullScalar(Int64, KindNull), NullScalar(Int64, KindNull)
	}
	return Int64Scalar(lo), Int64Scalar(hi)
}

// NanVar computes the sample variance (ddof denominator) of the valid
// entries. Returns Null(KindNaN) when the valid count is <= ddof (the
// spec's ddof=1 case: n <= 1).
func NanVar(values []float64, valid []bool, ddof int) Scalar {
	var sum float64
	var n int64
	for i, v := range valid {
		if v {
			sum += values[i]
			n++
		}
	}
	if n <= int64(ddof) {
		return NullScalar(Float64, KindNaN)
	}
	mean := sum / float64(n)
	var ss float64
	for i, v := range valid {
		if v {
			d := values[i] - mean
			ss += d * d
		}
	}
	return Float64Scalar(ss / float64(n-int64(ddof)))
}

// NanStd is NanVar followed by sqrt, propagating its nullness.
func NanStd(values []float64, valid []bool, ddof int) Scalar {
	v := NanVar(values, valid, ddof)
	f, ok := v.Float64()
	if !ok {
		return v
	}
	return Float64Scalar(math.Sqrt(f))
}

// NanMedian computes the median of the valid entries, averaging the two
// middle values on an even count. It does not mutate values; callers
// that already hold a private copy may pass it directly.
func NanMedian(values []float64, valid []bool) Scalar {
	xs := make([]float64, 0, len(values))
	for i, v := range valid {
		if v {
			xs = append(xs, values[i])
		}
	}
	if len(xs) == 0 {
		return NullScalar(Float64, KindNaN)
	}
	sortFloat64s(xs)
	mid := len(xs) / 2
	if len(xs)%2 == 1 {
		return Float64Scalar(xs[mid])
	}
	return Float64Scalar((xs[mid-1] + xs[mid]) / 2)
}

func sortFloat64s(xs []float64) {
	// Insertion sort is adequate here: NanMedian operates per-group in
	// groupby, and groups are typically small; a dedicated sort avoids
	// pulling in sort.Float64s's NaN-unaware comparator for a slice that
	// is already NaN-free (NaNs were filtered out as missing upstream).
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
