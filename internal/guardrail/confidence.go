// Package guardrail implements the Guardrail Engine (C4): confidence
// gating, budget checking/tracking, anomaly detection, and the safe-mode
// lifecycle, all coordinated through one façade (Engine).
//
// The sequential-check, early-return shape of Engine.EvaluateDecision generalizes
// the teacher's Action Sheet Engine (internal/engine/engine.go) from its
// tier/autonomy/cooldown checks onto the spec's confidence/budget checks;
// GuardrailViolation/BudgetExceeded are returned as typed errors rather
// than thrown, per the spec's §9 re-architecture note.
package guardrail

import (
	"fmt"

	"github.com/cerebric/cerebric/pkg/model"
)

// ConfidenceOutcome is the result of the confidence gate.
type ConfidenceOutcome int

const (
	AllowAuto ConfidenceOutcome = iota
	RequireApproval
)

// ConfidenceThresholds configures the confidence gate. MinAutoExecute must
// be greater than MinApprovalExecute.
type ConfidenceThresholds struct {
	MinAutoExecute     float64
	MinApprovalExecute float64
}

// GateConfidence implements the confidence gating sub-capability:
//   - AllowAuto if confidence >= MinAutoExecute (inclusive).
//   - RequireApproval if MinApprovalExecute <= confidence < MinAutoExecute.
//   - error wrapping model.ErrGuardrailViolation if confidence < MinApprovalExecute.
func GateConfidence(confidence float64, thresholds ConfidenceThresholds) (ConfidenceOutcome, error) {
	if confidence >= thresholds.MinAutoExecute {
		return AllowAuto, nil
	}
	if confidence >= thresholds.MinApprovalExecute {
		return RequireApproval, nil
	}
	return RequireApproval, &model.GuardrailViolation{
		Reason:     fmt.Sprintf("confidence %.2f below approval threshold %.2f", confidence, thresholds.MinApprovalExecute),
		Violations: []string{"confidence_below_threshold"},
	}
}
