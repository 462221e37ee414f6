package model

import "errors"

// Sentinel errors for the guardrail/policy/approval control-flow paths.
// These replace the source's use of exceptions for control flow: guardrail
// and policy functions return (value, error) and callers branch with
// errors.Is/errors.As instead of catching a thrown type.
var (
	ErrGuardrailViolation  = errors.New("guardrail violation")
	ErrBudgetExceeded      = errors.New("budget exceeded")
	ErrPolicyDenied        = errors.New("policy denied")
	ErrApprovalRejected    = errors.New("approval rejected")
	ErrApprovalExpired     = errors.New("approval expired")
	ErrTimeout             = errors.New("timeout")
	ErrProtectedPartition  = errors.New("protected memory partition")
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	ErrCorruptState        = errors.New("corrupt on-disk state")
)

// GuardrailViolation carries the specific violation reasons alongside the
// sentinel ErrGuardrailViolation so callers can unwrap for detail while
// still matching with errors.Is(err, ErrGuardrailViolation).
type GuardrailViolation struct {
	Reason     string
	Violations []string
}

func (e *GuardrailViolation) Error() string { return "guardrail violation: " + e.Reason }
func (e *GuardrailViolation) Unwrap() error { return ErrGuardrailViolation }

// PolicyDenied carries the specific deny reason.
type PolicyDenied struct {
	Tool   string
	Reason string
}

func (e *PolicyDenied) Error() string { return "policy denied " + e.Tool + ": " + e.Reason }
func (e *PolicyDenied) Unwrap() error { return ErrPolicyDenied }

// BudgetExceeded carries the list of caps that were violated.
type BudgetExceeded struct {
	Violations []string
}

func (e *BudgetExceeded) Error() string {
	msg := "budget exceeded"
	for _, v := range e.Violations {
		msg += ": " + v
	}
	return msg
}
func (e *BudgetExceeded) Unwrap() error { return ErrBudgetExceeded }

// AnomalyDetected is emitted as an event (see internal/guardrail.Detector's
// channel) rather than thrown; it is still a named type so recovery code
// can reason about which rule fired.
type AnomalyDetected struct {
	Event AnomalyEvent
}

func (e *AnomalyDetected) Error() string { return "anomaly detected: " + string(e.Event.Type) }
