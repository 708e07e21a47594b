// Package harness implements the differential-parity enforcement
// surface for scoped packets of fixtures: execute, classify against an
// oracle, gate, and persist per-packet artifacts plus a cross-run
// drift ledger.
package harness

import (
	"fmt"
	"strings"

	"tabula/internal/config"
)

// FixtureOutcome is one fixture's executed-and-classified result,
// adapted from internal/migration.Migration's per-operation Kind/Risk
// record shape into "operation ran, here's what diverged".
type FixtureOutcome struct {
	CaseID       string     `json:"case_id"`
	Operation    Operation  `json:"operation"`
	Mode         Mode       `json:"mode"`
	Passed       bool       `json:"passed"`
	Mismatches   []Mismatch `json:"mismatches,omitempty"`
	ErrorMessage string     `json:"error,omitempty"`
}

// ParityReport is one packet's aggregated fixture outcomes, adapted
// from internal/migration.Migration's Plan()-then-filtered-accessors
// shape (BreakingNotes/UnresolvedNotes/InfoNotes generalized into
// Passed/Failed/CriticalStrictFailures).
type ParityReport struct {
	PacketID string           `json:"packet_id"`
	Outcomes []FixtureOutcome `json:"outcomes"`
}

// Passed returns every fixture outcome that matched its oracle.
func (r *ParityReport) Passed() []FixtureOutcome { return r.filter(func(o FixtureOutcome) bool { return o.Passed }) }

// Failed returns every fixture outcome that diverged.
func (r *ParityReport) Failed() []FixtureOutcome {
	return r.filter(func(o FixtureOutcome) bool { return !o.Passed })
}

func (r *ParityReport) filter(pred func(FixtureOutcome) bool) []FixtureOutcome {
	var out []FixtureOutcome
	for _, o := range r.Outcomes {
		if pred(o) {
			out = append(out, o)
		}
	}
	return out
}

func (r *ParityReport) byModeFailures(mode Mode) []FixtureOutcome {
	return r.filter(func(o FixtureOutcome) bool { return !o.Passed && o.Mode == mode })
}

func (r *ParityReport) byMode(mode Mode) []FixtureOutcome {
	return r.filter(func(o FixtureOutcome) bool { return o.Mode == mode })
}

// CriticalStrictFailures returns Strict-mode outcomes that failed with
// at least one Critical mismatch (an execution error with no
// mismatches recorded also counts as Critical).
func (r *ParityReport) CriticalStrictFailures() []FixtureOutcome {
	var out []FixtureOutcome
	for _, o := range r.byModeFailures(ModeStrict) {
		if o.ErrorMessage != "" || hasLevel(o.Mismatches, LevelCritical) {
			out = append(out, o)
		}
	}
	return out
}

// NonCriticalStrictFailures returns Strict-mode outcomes that failed
// with only NonCritical/Informational mismatches.
func (r *ParityReport) NonCriticalStrictFailures() []FixtureOutcome {
	var out []FixtureOutcome
	for _, o := range r.byModeFailures(ModeStrict) {
		if o.ErrorMessage == "" && !hasLevel(o.Mismatches, LevelCritical) {
			out = append(out, o)
		}
	}
	return out
}

func hasLevel(mismatches []Mismatch, level Level) bool {
	for _, m := range mismatches {
		if m.Level == level {
			return true
		}
	}
	return false
}

// StrictNonCriticalRatio is non-critical Strict failures over total
// Strict fixtures in this packet.
func (r *ParityReport) StrictNonCriticalRatio() float64 {
	total := len(r.byMode(ModeStrict))
	if total == 0 {
		return 0
	}
	return float64(len(r.NonCriticalStrictFailures())) / float64(total)
}

// HardenedFailureRatio is failed Hardened fixtures over total
// Hardened fixtures in this packet.
func (r *ParityReport) HardenedFailureRatio() float64 {
	total := len(r.byMode(ModeHardened))
	if total == 0 {
		return 0
	}
	return float64(len(r.byModeFailures(ModeHardened))) / float64(total)
}

// HardenedFailureCategories returns the set of mismatch categories
// present in failed Hardened-mode outcomes.
func (r *ParityReport) HardenedFailureCategories() map[Category]bool {
	cats := make(map[Category]bool)
	for _, o := range r.byModeFailures(ModeHardened) {
		for _, m := range o.Mismatches {
			cats[m.Category] = true
		}
	}
	return cats
}

func (r *ParityReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Parity Report: %s\n", r.PacketID)
	fmt.Fprintf(&sb, "  fixtures: %d, passed: %d, failed: %d\n", len(r.Outcomes), len(r.Passed()), len(r.Failed()))
	for _, o := range r.Failed() {
		if o.ErrorMessage != "" {
			fmt.Fprintf(&sb, "  - %s (%s/%s): error: %s\n", o.CaseID, o.Operation, o.Mode, o.ErrorMessage)
			continue
		}
		fmt.Fprintf(&sb, "  - %s (%s/%s): %d mismatch(es)\n", o.CaseID, o.Operation, o.Mode, len(o.Mismatches))
	}
	return sb.String()
}

// PacketGateResult is evaluate_parity_gate's verdict for one packet.
type PacketGateResult struct {
	PacketID     string   `json:"packet_id"`
	Pass         bool     `json:"pass"`
	Reasons      []string `json:"reasons,omitempty"`
	FixtureCount int      `json:"fixture_count"`
	Passed       int      `json:"passed"`
	Failed       int      `json:"failed"`
}

// EvaluateParityGate implements spec §4.9's gate predicate:
//
//	strict_failures_critical == 0
//	strict_failures_noncritical_ratio <= strict budget
//	hardened_failures ratio <= hardened budget, and only in allowlisted categories
func EvaluateParityGate(report *ParityReport, gc config.GateConfig) PacketGateResult {
	result := PacketGateResult{
		PacketID:     report.PacketID,
		Pass:         true,
		FixtureCount: len(report.Outcomes),
		Passed:       len(report.Passed()),
		Failed:       len(report.Failed()),
	}

	if critical := len(report.CriticalStrictFailures()); critical > gc.StrictBudgetCritical {
		result.Pass = false
		result.Reasons = append(result.Reasons, fmt.Sprintf("strict critical failures %d exceeds budget %d", critical, gc.StrictBudgetCritical))
	}

	if ratio := report.StrictNonCriticalRatio(); ratio > gc.StrictBudgetNoncriticalRatio {
		result.Pass = false
		result.Reasons = append(result.Reasons, fmt.Sprintf("strict non-critical ratio %.4f exceeds budget %.4f", ratio, gc.StrictBudgetNoncriticalRatio))
	}

	if ratio := report.HardenedFailureRatio(); ratio > 0 {
		allow := make(map[string]bool, len(gc.HardenedAllowlistCategories))
		for _, c := range gc.HardenedAllowlistCategories {
			allow[c] = true
		}
		for cat := range report.HardenedFailureCategories() {
			if !allow[string(cat)] {
				result.Pass = false
				result.Reasons = append(result.Reasons, fmt.Sprintf("hardened failure category %q is not allowlisted", cat))
			}
		}
		if ratio > gc.HardenedBudgetRatio {
			result.Pass = false
			result.Reasons = append(result.Reasons, fmt.Sprintf("hardened failure ratio %.4f exceeds budget %.4f", ratio, gc.HardenedBudgetRatio))
		}
	}

	return result
}

// EnforcePacketGates returns a fail-closed GateViolated error
// summarizing every failing packet, or nil if all passed.
func EnforcePacketGates(results []PacketGateResult) error {
	var failing []string
	for _, r := range results {
		if !r.Pass {
			failing = append(failing, fmt.Sprintf("%s: %s", r.PacketID, strings.Join(r.Reasons, "; ")))
		}
	}
	if len(failing) == 0 {
		return nil
	}
	return newError(GateViolated, "packet gate(s) failed: %s", strings.Join(failing, " | "))
}
