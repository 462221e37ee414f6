package guardrail

import "github.com/cerebric/cerebric/pkg/model"

// Engine is the single façade coordinating the four guardrail
// sub-capabilities, mirroring the teacher's Action Sheet Engine shape
// (one Evaluate-style entry point backed by several small checks).
type Engine struct {
	Thresholds ConfidenceThresholds
	Caps       model.BudgetCaps
	Detector   *Detector
	SafeMode   *SafeMode
}

// NewEngine builds an Engine from its already-constructed collaborators.
func NewEngine(thresholds ConfidenceThresholds, caps model.BudgetCaps, detector *Detector, safeMode *SafeMode) *Engine {
	return &Engine{Thresholds: thresholds, Caps: caps, Detector: detector, SafeMode: safeMode}
}

// EvaluateDecision runs the confidence gate against a freshly produced
// Decision and mutates RequiresApproval when the gate's outcome demands
// it, per P2.
func (e *Engine) EvaluateDecision(d model.Decision) (model.Decision, error) {
	outcome, err := GateConfidence(d.Confidence, e.Thresholds)
	if err != nil {
		return d, err
	}
	if outcome == RequireApproval {
		d.RequiresApproval = true
		if d.ApprovalReason == "" {
			d.ApprovalReason = "confidence below auto-execute threshold"
		}
	}
	if d.Risk == model.RiskHigh {
		d.RequiresApproval = true
	}
	return d, nil
}

// CheckEstimatedBudget runs the pre-execution budget check (C4b).
func (e *Engine) CheckEstimatedBudget(estimate map[string]float64) error {
	return CheckBudget(estimate, e.Caps)
}
