package policy

import (
	"testing"
	"time"

	"github.com/cerebric/cerebric/pkg/model"
)

func allowBool(b bool) *bool { return &b }

func TestReadOnlyBypassesPolicy(t *testing.T) {
	doc := model.PolicyDocument{DefaultAllow: false}
	v := Decide(doc, "anything", false, Context{})
	if !v.Allow {
		t.Fatal("expected read-only path to bypass policy")
	}
}

func TestDefaultDenyWhenToolNotAllowed(t *testing.T) {
	doc := model.PolicyDocument{DefaultAllow: false}
	v := Decide(doc, "write_config", true, Context{})
	if v.Allow {
		t.Fatal("expected deny when default_allow is false and no tool entry")
	}
}

func TestGlobPathDeny(t *testing.T) {
	doc := model.PolicyDocument{
		DefaultAllow: true,
		Tools: map[string]model.ToolPolicy{
			"write_config": {
				Allow: allowBool(true),
				Conditions: model.Conditions{
					PathsAllow: []string{"/etc/cerebric/*"},
				},
			},
		},
	}
	v := Decide(doc, "write_config", true, Context{Inputs: map[string]any{"path": "/etc/passwd"}})
	if v.Allow {
		t.Fatal("expected deny on disallowed path")
	}
}

func TestGlobPathAllow(t *testing.T) {
	doc := model.PolicyDocument{
		DefaultAllow: true,
		Tools: map[string]model.ToolPolicy{
			"write_config": {
				Allow: allowBool(true),
				Conditions: model.Conditions{
					PathsAllow: []string{"/etc/cerebric/*"},
				},
			},
		},
	}
	v := Decide(doc, "write_config", true, Context{Inputs: map[string]any{"path": "/etc/cerebric/app.yaml"}})
	if !v.Allow {
		t.Fatalf("expected allow, got reason=%q", v.Reason)
	}
}

func TestMissingInputFieldIsNotApplicable(t *testing.T) {
	doc := model.PolicyDocument{
		DefaultAllow: true,
		Tools: map[string]model.ToolPolicy{
			"write_config": {
				Allow: allowBool(true),
				Conditions: model.Conditions{
					PathsAllow: []string{"/etc/cerebric/*"},
				},
			},
		},
	}
	v := Decide(doc, "write_config", true, Context{Inputs: map[string]any{}})
	if !v.Allow {
		t.Fatal("expected absent path field to be not-applicable, not a deny")
	}
}

func TestHourRangeWrapsMidnightInclusiveAtBothEnds(t *testing.T) {
	at := func(hh, mm int) time.Time {
		return time.Date(2024, 1, 1, hh, mm, 0, 0, time.UTC)
	}
	if !inAnyHourRange([]string{"22:00-06:00"}, at(23, 0)) {
		t.Fatal("expected 23:00 to be in range")
	}
	if !inAnyHourRange([]string{"22:00-06:00"}, at(5, 0)) {
		t.Fatal("expected 05:00 to be in range")
	}
	if inAnyHourRange([]string{"22:00-06:00"}, at(12, 0)) {
		t.Fatal("expected noon to be outside range")
	}
	if !inAnyHourRange([]string{"22:00-06:00"}, at(22, 0)) {
		t.Fatal("expected 22:00 (range start) to be in range")
	}
	if !inAnyHourRange([]string{"22:00-06:00"}, at(6, 0)) {
		t.Fatal("expected 06:00 (range end) to be in range")
	}
}

func TestUsersCondition(t *testing.T) {
	doc := model.PolicyDocument{
		DefaultAllow: true,
		Tools: map[string]model.ToolPolicy{
			"reboot": {Allow: allowBool(true), Conditions: model.Conditions{Users: []string{"alice"}}},
		},
	}
	if v := Decide(doc, "reboot", true, Context{User: "bob"}); v.Allow {
		t.Fatal("expected deny for user not in allow list")
	}
	if v := Decide(doc, "reboot", true, Context{User: "alice"}); !v.Allow {
		t.Fatal("expected allow for user in allow list")
	}
}

func TestPolicyMonotonicityRemovingDenyConditionCanOnlyAllowMore(t *testing.T) {
	withCondition := model.PolicyDocument{
		DefaultAllow: true,
		Tools: map[string]model.ToolPolicy{
			"svc": {Allow: allowBool(true), Conditions: model.Conditions{Users: []string{"alice"}}},
		},
	}
	withoutCondition := model.PolicyDocument{
		DefaultAllow: true,
		Tools: map[string]model.ToolPolicy{
			"svc": {Allow: allowBool(true)},
		},
	}
	ctx := Context{User: "bob"}
	before := Decide(withCondition, "svc", true, ctx)
	after := Decide(withoutCondition, "svc", true, ctx)
	if before.Allow {
		t.Fatal("expected deny with the condition present")
	}
	if !after.Allow {
		t.Fatal("expected allow once the deny-condition is removed")
	}
}

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		pattern, s string
		want       bool
	}{
		{"*", "anything", true},
		{"/etc/*", "/etc/passwd", true},
		{"/etc/*", "/var/passwd", false},
		{"*.conf", "app.conf", true},
		{"*.conf", "app.yaml", false},
		{"host-*-prod", "host-web-prod", true},
		{"host-*-prod", "host-web-dev", false},
		{"exact", "exact", true},
		{"exact", "exactly", false},
	}
	for _, tc := range cases {
		if got := matchGlob(tc.pattern, tc.s); got != tc.want {
			t.Errorf("matchGlob(%q, %q) = %v, want %v", tc.pattern, tc.s, got, tc.want)
		}
	}
}
