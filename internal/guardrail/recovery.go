package guardrail

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/cerebric/cerebric/pkg/model"
)

// Alerter delivers a recovery alert to the dashboard/notification surface.
// internal/notify.Router satisfies this.
type Alerter interface {
	Notify(ctx context.Context, severity model.Severity, title, body string) []error
}

// RollbackLastAction consults the last applied action's rollback
// strategy. The decision loop supplies this, since only it knows which
// action most recently executed and what its simulation's rollback
// strategy was.
type RollbackLastAction func(ctx context.Context) (string, error)

// Recoverer executes the configured recovery actions in order on a
// critical anomaly: alert_user, rollback_last_action, pause_autonomy.
// Grounded on the teacher's internal/notify.Router severity-cascade for
// alert_user, and on internal/guardrail.SafeMode for pause_autonomy.
type Recoverer struct {
	log      logr.Logger
	alerter  Alerter
	safeMode *SafeMode
	rollback RollbackLastAction
}

// NewRecoverer wires a Recoverer. alerter and rollback may be nil if those
// collaborators are unavailable; the corresponding action is then recorded
// as a failure rather than attempted.
func NewRecoverer(log logr.Logger, alerter Alerter, safeMode *SafeMode, rollback RollbackLastAction) *Recoverer {
	return &Recoverer{log: log, alerter: alerter, safeMode: safeMode, rollback: rollback}
}

// Recover runs every configured action for ev, in order, and returns one
// RecoveryRecord per action.
func (r *Recoverer) Recover(ctx context.Context, ev model.AnomalyEvent, actions []model.RecoveryActionKind) []model.RecoveryRecord {
	var out []model.RecoveryRecord
	for _, a := range actions {
		switch a {
		case model.RecoveryAlertUser:
			out = append(out, r.alertUser(ctx, ev))
		case model.RecoveryRollbackLastAction:
			out = append(out, r.rollbackLastAction(ctx))
		case model.RecoveryPauseAutonomy:
			out = append(out, r.pauseAutonomy(ev))
		default:
			out = append(out, model.RecoveryRecord{Action: a, Success: false, Message: "unknown recovery action"})
		}
	}
	return out
}

func (r *Recoverer) alertUser(ctx context.Context, ev model.AnomalyEvent) model.RecoveryRecord {
	r.log.Error(nil, "critical anomaly detected", "type", ev.Type, "description", ev.Description)
	if r.alerter == nil {
		return model.RecoveryRecord{Action: model.RecoveryAlertUser, Success: false, Message: "no alerter configured"}
	}
	errs := r.alerter.Notify(ctx, ev.Severity, fmt.Sprintf("anomaly: %s", ev.Type), ev.Description)
	if len(errs) > 0 {
		return model.RecoveryRecord{Action: model.RecoveryAlertUser, Success: false, Message: errs[0].Error()}
	}
	return model.RecoveryRecord{Action: model.RecoveryAlertUser, Success: true, Message: "alert delivered"}
}

func (r *Recoverer) rollbackLastAction(ctx context.Context) model.RecoveryRecord {
	if r.rollback == nil {
		return model.RecoveryRecord{Action: model.RecoveryRollbackLastAction, Success: false, Message: "no rollback strategy available"}
	}
	strategy, err := r.rollback(ctx)
	if err != nil {
		return model.RecoveryRecord{Action: model.RecoveryRollbackLastAction, Success: false, Message: err.Error()}
	}
	return model.RecoveryRecord{Action: model.RecoveryRollbackLastAction, Success: true, Message: "rolled back: " + strategy}
}

func (r *Recoverer) pauseAutonomy(ev model.AnomalyEvent) model.RecoveryRecord {
	if r.safeMode == nil {
		return model.RecoveryRecord{Action: model.RecoveryPauseAutonomy, Success: false, Message: "no safe mode controller available"}
	}
	reason := fmt.Sprintf("Anomaly detected: %s — %s", ev.Type, ev.Description)
	if err := r.safeMode.Enter(reason); err != nil {
		return model.RecoveryRecord{Action: model.RecoveryPauseAutonomy, Success: false, Message: err.Error()}
	}
	return model.RecoveryRecord{Action: model.RecoveryPauseAutonomy, Success: true, Message: "entered safe mode"}
}
