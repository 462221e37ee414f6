package capability

import (
	"errors"
	"testing"

	"github.com/cerebric/cerebric/pkg/model"
)

type fakeAlerter struct{ notified []string }

func (f *fakeAlerter) Alert(msg string) { f.notified = append(f.notified, msg) }

type alerterIface interface {
	Alert(msg string)
}

func TestRegisterAndGetRoundTrip(t *testing.T) {
	r := NewRegistry()
	alerter := &fakeAlerter{}
	r.Register(Alerter, alerter)

	got, err := Get[alerterIface](r, Alerter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got.Alert("hello")
	if len(alerter.notified) != 1 || alerter.notified[0] != "hello" {
		t.Fatalf("unexpected notified: %+v", alerter.notified)
	}
}

func TestGetMissingNameReturnsCapabilityUnavailable(t *testing.T) {
	r := NewRegistry()
	_, err := Get[alerterIface](r, Alerter)
	if !errors.Is(err, model.ErrCapabilityUnavailable) {
		t.Fatalf("expected ErrCapabilityUnavailable, got %v", err)
	}
}

func TestGetTypeMismatchReturnsCapabilityUnavailable(t *testing.T) {
	r := NewRegistry()
	r.Register(Alerter, "not an alerter")

	_, err := Get[alerterIface](r, Alerter)
	if !errors.Is(err, model.ErrCapabilityUnavailable) {
		t.Fatalf("expected ErrCapabilityUnavailable on type mismatch, got %v", err)
	}
}

func TestNamesListsRegisteredCapabilities(t *testing.T) {
	r := NewRegistry()
	r.Register(Alerter, &fakeAlerter{})
	r.Register(Retriever, "stub")

	names := r.Names()
	if len(names) != 2 {
		t.Fatalf("expected 2 registered names, got %+v", names)
	}
}

func TestRegisterIsChainable(t *testing.T) {
	r := NewRegistry().Register(Alerter, &fakeAlerter{}).Register(Retriever, "stub")
	if len(r.Names()) != 2 {
		t.Fatalf("expected chained registrations to both land, got %+v", r.Names())
	}
}
