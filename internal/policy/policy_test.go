package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideAllowsHighPrior(t *testing.T) {
	ledger := NewEvidenceLedger()
	rec := Decide(NewStrict(), Issue{Kind: MalformedInput, Prior: 0.99}, DefaultLossMatrix(), ledger)
	assert.Equal(t, Allow, rec.Action)
	require.Len(t, ledger.Records(), 1)
}

func TestDecideRejectsLowPrior(t *testing.T) {
	ledger := NewEvidenceLedger()
	rec := Decide(NewStrict(), Issue{Kind: MalformedInput, Prior: 0.01}, DefaultLossMatrix(), ledger)
	assert.Equal(t, Reject, rec.Action)
}

func TestStrictForcesRejectOnUnknownFeature(t *testing.T) {
	ledger := NewEvidenceLedger()
	rec := Decide(NewStrict(), Issue{Kind: UnknownFeature, Prior: 0.999}, DefaultLossMatrix(), ledger)
	assert.Equal(t, Reject, rec.Action)
	assert.True(t, rec.Overridden)
}

func TestHardenedForcesRepairOverJoinCap(t *testing.T) {
	cap := int64(1000)
	p := NewHardened(&cap)
	ledger := NewEvidenceLedger()
	rec := Decide(p, Issue{Kind: JoinCardinality, Prior: 0.999, EstimatedRows: 5000}, JoinAdmissionLossMatrix(), ledger)
	assert.Equal(t, Repair, rec.Action)
	assert.True(t, rec.Overridden)
}

func TestHardenedAllowsJoinUnderCap(t *testing.T) {
	cap := int64(1000)
	p := NewHardened(&cap)
	ledger := NewEvidenceLedger()
	rec := Decide(p, Issue{Kind: JoinCardinality, Prior: 0.999, EstimatedRows: 10}, JoinAdmissionLossMatrix(), ledger)
	assert.False(t, rec.Overridden)
}

func TestLedgerAppendOnly(t *testing.T) {
	ledger := NewEvidenceLedger()
	Decide(NewStrict(), Issue{Kind: MalformedInput, Prior: 0.9}, DefaultLossMatrix(), ledger)
	Decide(NewStrict(), Issue{Kind: MalformedInput, Prior: 0.9}, DefaultLossMatrix(), ledger)
	assert.Len(t, ledger.Records(), 2)
}

func TestConformalGuardCalibrationFloor(t *testing.T) {
	g := NewConformalGuard(50)
	g.Observe(0.1)
	assert.True(t, g.Evaluate(1000.0, 0.05))
}

func TestConformalGuardThresholdAndCoverage(t *testing.T) {
	g := NewConformalGuard(100)
	for i := 0; i < 50; i++ {
		g.Observe(float64(i))
	}
	for i := 0; i < 150; i++ {
		g.Evaluate(float64(i%60), 0.1)
	}
	assert.True(t, g.Coverage() >= 0 && g.Coverage() <= 1)
}

func TestConformalGuardAlphaClamp(t *testing.T) {
	g := NewConformalGuard(10)
	g.Observe(1)
	g.Observe(2)
	g.Observe(3)
	lowAlpha := g.Threshold(0.0001)
	highAlpha := g.Threshold(0.99)
	assert.True(t, lowAlpha >= highAlpha)
}

func TestCoverageAlertRequiresHundredEvaluations(t *testing.T) {
	g := NewConformalGuard(10)
	g.Observe(1)
	g.Observe(2)
	for i := 0; i < 50; i++ {
		g.Evaluate(100, 0.5)
	}
	assert.False(t, g.CoverageAlert(0.5))
}

func TestSidecarPlaceholder(t *testing.T) {
	s := NewPlaceholderSidecar(ParityReportArtifact)
	assert.True(t, s.IsPlaceholder())

	real := NewSidecar(ParityReportArtifact, "abcd1234", EncoderMetadata{Scheme: "reed-solomon", DataShards: 4, ParityShards: 2})
	assert.False(t, real.IsPlaceholder())
}

func TestNewEncoderMetadataComputesOverheadRatio(t *testing.T) {
	m := NewEncoderMetadata("raptorq", 4, 2, []string{"h1", "h2"})
	assert.Equal(t, 0.5, m.OverheadRatio)
	assert.Equal(t, []string{"h1", "h2"}, m.SymbolHashes)

	zero := NewEncoderMetadata("raptorq", 0, 0, nil)
	assert.Equal(t, 0.0, zero.OverheadRatio)
}
