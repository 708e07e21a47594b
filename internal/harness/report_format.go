package harness

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format is the set of report/gate rendering formats this package
// supports, adapted from internal/output.Format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatHuman   Format = "human"
	FormatSummary Format = "summary"
)

// Formatter renders a ParityReport and a PacketGateResult for display
// or persistence.
type Formatter interface {
	FormatReport(*ParityReport) (string, error)
	FormatGateResult(PacketGateResult) (string, error)
}

// NewFormatter builds a Formatter for name, defaulting to human format
// when name is empty.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatHuman:
		return humanFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("harness: unsupported format %q; use 'json', 'human', or 'summary'", name)
	}
}

type humanFormatter struct{}

func (humanFormatter) FormatReport(r *ParityReport) (string, error) {
	if r == nil {
		return "", nil
	}
	return r.String(), nil
}

func (humanFormatter) FormatGateResult(g PacketGateResult) (string, error) {
	var sb strings.Builder
	status := "PASS"
	if !g.Pass {
		status = "FAIL"
	}
	fmt.Fprintf(&sb, "Gate %s: %s (%d/%d fixtures passed)\n", g.PacketID, status, g.Passed, g.FixtureCount)
	for _, reason := range g.Reasons {
		fmt.Fprintf(&sb, "  - %s\n", reason)
	}
	return sb.String(), nil
}

type jsonFormatter struct{}

func (jsonFormatter) FormatReport(r *ParityReport) (string, error) {
	return marshalJSON(r)
}

func (jsonFormatter) FormatGateResult(g PacketGateResult) (string, error) {
	return marshalJSON(g)
}

func marshalJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

type summaryFormatter struct{}

func (summaryFormatter) FormatReport(r *ParityReport) (string, error) {
	if r == nil {
		return "No report.\n", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-24s fixtures=%-4d passed=%-4d failed=%-4d strict_noncrit_ratio=%.4f hardened_fail_ratio=%.4f\n",
		r.PacketID, len(r.Outcomes), len(r.Passed()), len(r.Failed()), r.StrictNonCriticalRatio(), r.HardenedFailureRatio())
	return sb.String(), nil
}

func (summaryFormatter) FormatGateResult(g PacketGateResult) (string, error) {
	status := "PASS"
	if !g.Pass {
		status = "FAIL"
	}
	return fmt.Sprintf("%-24s %s (%d/%d)\n", g.PacketID, status, g.Passed, g.FixtureCount), nil
}
