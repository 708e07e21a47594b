package policy

import (
	"math"
	"sort"
)

// ConformalGuard maintains a rolling window of non-conformity scores and
// reports whether new observations fall within a calibrated prediction
// set, tracking empirical coverage along the way.
type ConformalGuard struct {
	scores      []float64
	windowSize  int
	evaluations int64
	inSetCount  int64
}

// NewConformalGuard builds a guard with the given rolling window
// capacity (oldest scores are evicted once the window is full).
func NewConformalGuard(windowSize int) *ConformalGuard {
	if windowSize <= 0 {
		windowSize = 1
	}
	return &ConformalGuard{windowSize: windowSize}
}

// Observe records a new non-conformity score.
func (g *ConformalGuard) Observe(score float64) {
	g.scores = append(g.scores, score)
	if len(g.scores) > g.windowSize {
		g.scores = g.scores[len(g.scores)-g.windowSize:]
	}
}

// clampAlpha restricts a significance level to [0.01, 0.5].
func clampAlpha(alpha float64) float64 {
	if alpha < 0.01 {
		return 0.01
	}
	if alpha > 0.5 {
		return 0.5
	}
	return alpha
}

// Threshold returns the calibrated non-conformity threshold for
// significance level alpha. Below the calibration floor (fewer than 2
// scores), the threshold is +Inf, admitting every candidate.
func (g *ConformalGuard) Threshold(alpha float64) float64 {
	if len(g.scores) < 2 {
		return math.Inf(1)
	}
	alpha = clampAlpha(alpha)
	sorted := append([]float64(nil), g.scores...)
	sort.Float64s(sorted)
	// empirical (1-alpha) quantile, matching the conformal prediction
	// convention of ceil((n+1)(1-alpha))/n with an index clamp.
	n := len(sorted)
	rank := int(math.Ceil(float64(n+1) * (1 - alpha)))
	if rank > n {
		rank = n
	}
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// Evaluate reports whether candidateScore is in-set at significance
// level alpha, and updates the running coverage counters.
func (g *ConformalGuard) Evaluate(candidateScore, alpha float64) (inSet bool) {
	threshold := g.Threshold(alpha)
	inSet = candidateScore <= threshold
	g.evaluations++
	if inSet {
		g.inSetCount++
	}
	return inSet
}

// Coverage returns the empirical coverage rate across every Evaluate
// call so far (0 if none yet).
func (g *ConformalGuard) Coverage() float64 {
	if g.evaluations == 0 {
		return 0
	}
	return float64(g.inSetCount) / float64(g.evaluations)
}

// CoverageAlert reports whether a coverage alert should fire: only
// possible once at least 100 evaluations have happened, and only if
// empirical coverage has dropped below 1-alpha.
func (g *ConformalGuard) CoverageAlert(alpha float64) bool {
	if g.evaluations < 100 {
		return false
	}
	return g.Coverage() < 1-clampAlpha(alpha)
}

// CoverageAlertSink is an append-only log of fired coverage alerts,
// drained by the harness at end-of-run and folded into packet gate
// reasons (spec §4.7's "coverage alert fires" given a concrete shape).
type CoverageAlertSink struct {
	alerts []CoverageAlertEntry
}

// CoverageAlertEntry records one fired alert.
type CoverageAlertEntry struct {
	Alpha       float64
	Coverage    float64
	Evaluations int64
}

// NewCoverageAlertSink returns an empty sink.
func NewCoverageAlertSink() *CoverageAlertSink { return &CoverageAlertSink{} }

// Record appends an alert if the guard currently reports one for alpha.
func (s *CoverageAlertSink) Record(g *ConformalGuard, alpha float64) {
	if g.CoverageAlert(alpha) {
		s.alerts = append(s.alerts, CoverageAlertEntry{Alpha: alpha, Coverage: g.Coverage(), Evaluations: g.evaluations})
	}
}

// Alerts returns every recorded alert so far.
func (s *CoverageAlertSink) Alerts() []CoverageAlertEntry { return s.alerts }
