// Package policy implements RuntimePolicy's admission decision engine: a
// small Bayesian classifier over a fixed LossMatrix, an append-only
// EvidenceLedger, a conformal-prediction coverage guard, and the
// erasure-sidecar envelope wrapper durable artifacts travel in.
//
// The decision engine's shape (an Options-like config struct consulted
// before a risky action proceeds, producing a structured record of what
// was decided and why) follows the teacher's own
// Options/PreflightResult/Warning split in internal/apply/apply.go:
// RuntimePolicy plays the Options role, DecisionRecord plays the
// Warning role, and the EvidenceLedger plays the PreflightResult role
// of an accumulated, inspectable trail.
package policy

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Mode selects how aggressively the engine is allowed to let
// questionable operations through.
type Mode uint8

const (
	Strict Mode = iota
	Hardened
)

func (m Mode) String() string {
	if m == Hardened {
		return "Hardened"
	}
	return "Strict"
}

// RuntimePolicy governs admission decisions across Frame arithmetic,
// Groupby and Join.
type RuntimePolicy struct {
	Mode                     Mode
	FailClosedUnknownFeature bool
	HardenedJoinRowCap       *int64
}

// NewStrict returns the spec default policy.
func NewStrict() RuntimePolicy {
	return RuntimePolicy{Mode: Strict, FailClosedUnknownFeature: true}
}

// NewHardened returns a Hardened policy with the given join row cap (nil
// for uncapped).
func NewHardened(joinRowCap *int64) RuntimePolicy {
	return RuntimePolicy{Mode: Hardened, FailClosedUnknownFeature: true, HardenedJoinRowCap: joinRowCap}
}

// IssueKind enumerates what triggered a decision request.
type IssueKind uint8

const (
	UnknownFeature IssueKind = iota
	MalformedInput
	JoinCardinality
	PolicyOverride
)

func (k IssueKind) String() string {
	switch k {
	case UnknownFeature:
		return "UnknownFeature"
	case MalformedInput:
		return "MalformedInput"
	case JoinCardinality:
		return "JoinCardinality"
	case PolicyOverride:
		return "PolicyOverride"
	default:
		return "Unknown"
	}
}

// Action is the decision engine's verdict.
type Action uint8

const (
	Allow Action = iota
	Reject
	Repair
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "Allow"
	case Reject:
		return "Reject"
	case Repair:
		return "Repair"
	default:
		return "Unknown"
	}
}

// Evidence is one log-likelihood-ratio term feeding the posterior.
type Evidence struct {
	LogLikCompatible   float64
	LogLikIncompatible float64
}

// Issue describes the situation a decision is being requested for.
type Issue struct {
	Kind            IssueKind
	Subject         string
	Detail          string
	Prior           float64 // P(compatible) in (0,1)
	Evidence        []Evidence
	EstimatedRows   int64 // only meaningful for JoinCardinality
}

// LossMatrix gives the six (action x truth) costs the decision engine
// minimizes expected loss over.
type LossMatrix struct {
	AllowIfCompatible   float64
	AllowIfIncompatible float64
	RejectIfCompatible  float64
	RejectIfIncompatible float64
	RepairIfCompatible  float64
	RepairIfIncompatible float64
}

// DefaultLossMatrix is the spec's §4.7 default table.
func DefaultLossMatrix() LossMatrix {
	return LossMatrix{
		AllowIfCompatible:    0.0,
		AllowIfIncompatible:  100.0,
		RejectIfCompatible:   6.0,
		RejectIfIncompatible: 0.5,
		RepairIfCompatible:   2.0,
		RepairIfIncompatible: 3.0,
	}
}

// JoinAdmissionLossMatrix is the stricter table join admission uses,
// biasing Hardened mode toward Repair over Allow.
func JoinAdmissionLossMatrix() LossMatrix {
	m := DefaultLossMatrix()
	m.AllowIfIncompatible = 130.0
	m.RepairIfCompatible = 1.5
	return m
}

// DecisionRecord is the immutable, ledger-appended outcome of one
// Decide call.
type DecisionRecord struct {
	ID        uuid.UUID
	Timestamp int64 // unix nanos; 0 is the silent clock-skew sentinel
	Issue     Issue
	Posterior float64
	Action    Action
	Overridden bool
	OverrideReason string
}

// EvidenceLedger is an append-only log of every decision made under a
// policy instance. There is no deletion or update operation by design.
type EvidenceLedger struct {
	records []DecisionRecord
}

// NewEvidenceLedger returns an empty ledger.
func NewEvidenceLedger() *EvidenceLedger { return &EvidenceLedger{} }

// Records returns every recorded decision, in append order. Callers
// must not mutate the returned slice.
func (l *EvidenceLedger) Records() []DecisionRecord { return l.records }

func (l *EvidenceLedger) append(r DecisionRecord) { l.records = append(l.records, r) }

// nowFunc is indirected so tests can pin the clock; production code
// never overrides it.
var nowFunc = func() (time.Time, error) { return time.Now(), nil }

// Decide runs the Bayesian admission engine for issue under policy,
// appends the resulting DecisionRecord to ledger, and returns it.
func Decide(policy RuntimePolicy, issue Issue, matrix LossMatrix, ledger *EvidenceLedger) DecisionRecord {
	posterior := posteriorProbability(issue.Prior, issue.Evidence)
	action := argminExpectedLoss(posterior, matrix)

	overridden := false
	reason := ""
	if policy.Mode == Strict && issue.Kind == UnknownFeature {
		action = Reject
		overridden = true
		reason = "Strict mode forces Reject on UnknownFeature"
	}
	if policy.Mode == Hardened && issue.Kind == JoinCardinality &&
		policy.HardenedJoinRowCap != nil && issue.EstimatedRows > *policy.HardenedJoinRowCap {
		action = Repair
		overridden = true
		reason = "Hardened mode forces Repair when estimated join rows exceed the cap"
	}

	ts, err := nowFunc()
	var stamp int64
	if err == nil {
		stamp = ts.UnixNano()
	}

	rec := DecisionRecord{
		ID:             uuid.New(),
		Timestamp:      stamp,
		Issue:          issue,
		Posterior:      posterior,
		Action:         action,
		Overridden:     overridden,
		OverrideReason: reason,
	}
	if ledger != nil {
		ledger.append(rec)
	}
	return rec
}

// posteriorProbability combines prior-log-odds with the sum of evidence
// log-likelihood-ratios, collapsed via the logistic function.
func posteriorProbability(prior float64, evidence []Evidence) float64 {
	logOdds := math.Log(prior / (1 - prior))
	for _, e := range evidence {
		logOdds += e.LogLikCompatible - e.LogLikIncompatible
	}
	return 1 / (1 + math.Exp(-logOdds))
}

// argminExpectedLoss picks the action minimizing expected loss under
// posterior = P(compatible).
func argminExpectedLoss(posterior float64, m LossMatrix) Action {
	pIncompatible := 1 - posterior
	allowLoss := posterior*m.AllowIfCompatible + pIncompatible*m.AllowIfIncompatible
	rejectLoss := posterior*m.RejectIfCompatible + pIncompatible*m.RejectIfIncompatible
	repairLoss := posterior*m.RepairIfCompatible + pIncompatible*m.RepairIfIncompatible

	best := Allow
	bestLoss := allowLoss
	if rejectLoss < bestLoss {
		best = Reject
		bestLoss = rejectLoss
	}
	if repairLoss < bestLoss {
		best = Repair
		bestLoss = repairLoss
	}
	return best
}
