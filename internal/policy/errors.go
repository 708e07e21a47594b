package policy

import "fmt"

// CompatibilityRejectedError reports that a Strict-mode decision forced
// a Reject, or an over-cap join was rejected rather than repaired.
type CompatibilityRejectedError struct {
	Issue  IssueKind
	Detail string
}

func (e *CompatibilityRejectedError) Error() string {
	return fmt.Sprintf("policy: rejected (%s): %s", e.Issue, e.Detail)
}
