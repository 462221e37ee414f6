// Package policy implements the Policy Engine (C5): declarative allow/deny
// evaluation of a tool invocation against a PolicyDocument.
//
// The glob matcher and the "first condition to fail denies" evaluation
// order generalize the teacher's Action Sheet Engine (matchGlob /
// checkDenyList / checkAllowList in internal/engine/engine.go) from its
// tier/autonomy/cooldown condition set onto the spec's users/hosts/hours/
// paths/names condition set.
package policy

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
	"time"

	"github.com/cerebric/cerebric/pkg/model"
)

func currentUser() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// Context is the runtime context a policy decision is evaluated against.
type Context struct {
	User     string
	Host     string
	Now      time.Time
	Inputs   map[string]any
}

// CurrentContext fills in the ambient user/host/now, leaving Inputs for
// the caller.
func CurrentContext(inputs map[string]any) Context {
	c := Context{Now: time.Now(), Inputs: inputs}
	if u, err := currentUser(); err == nil {
		c.User = u
	}
	if h, err := os.Hostname(); err == nil {
		c.Host = h
	}
	return c
}

// Decide evaluates tool against doc for the given context.
//
// Evaluation order (first rule to deny wins; else allow):
//  1. If !isApply, allow (read-only paths bypass policy).
//  2. If the tool's allow (or default_allow) is false, deny.
//  3. For each condition type present, evaluate in order — first failure
//     denies: users, hosts, hours_allow, paths_allow/paths_deny, names_allow.
//  4. Return allow with simulation_required/rollback_required/approvals_needed.
func Decide(doc model.PolicyDocument, tool string, isApply bool, ctx Context) model.PolicyVerdict {
	if !isApply {
		return model.PolicyVerdict{Allow: true, Reason: "read-only"}
	}

	entry, hasEntry := doc.Tools[tool]

	allowed := doc.DefaultAllow
	if hasEntry && entry.Allow != nil {
		allowed = *entry.Allow
	}
	if !allowed {
		return model.PolicyVerdict{Allow: false, Reason: "tool not allowed"}
	}

	if hasEntry {
		if reason, ok := denyCondition(entry.Conditions, ctx); !ok {
			return model.PolicyVerdict{Allow: false, Reason: reason}
		}
	}

	v := model.PolicyVerdict{Allow: true, Reason: "allowed"}
	if hasEntry {
		v.SimulationRequired = entry.SimulationRequired
		v.RollbackRequired = entry.RollbackRequired
		v.ApprovalsNeeded = entry.Approvals
	}
	return v
}

// denyCondition returns (reason, false) for the first failing condition,
// or ("", true) if every applicable condition passes. An absent input
// field makes the corresponding condition not applicable — it never
// denies.
func denyCondition(c model.Conditions, ctx Context) (string, bool) {
	if len(c.Users) > 0 {
		if !contains(c.Users, ctx.User) {
			return fmt.Sprintf("user %q not allowed", ctx.User), false
		}
	}
	if len(c.Hosts) > 0 {
		if !matchesAny(c.Hosts, ctx.Host) {
			return fmt.Sprintf("host %q not allowed", ctx.Host), false
		}
	}
	if len(c.HoursAllow) > 0 {
		if !inAnyHourRange(c.HoursAllow, ctx.Now) {
			return "current time outside allowed hours", false
		}
	}
	if len(c.PathsAllow) > 0 || len(c.PathsDeny) > 0 {
		if path, ok := stringInput(ctx.Inputs, "path"); ok {
			if len(c.PathsDeny) > 0 && matchesAny(c.PathsDeny, path) {
				return "path not allowed", false
			}
			if len(c.PathsAllow) > 0 && !matchesAny(c.PathsAllow, path) {
				return "path not allowed", false
			}
		}
	}
	if len(c.NamesAllow) > 0 {
		if name, ok := stringInput(ctx.Inputs, "name"); ok {
			if !contains(c.NamesAllow, name) {
				return fmt.Sprintf("name %q not allowed", name), false
			}
		}
	}
	return "", true
}

func stringInput(inputs map[string]any, key string) (string, bool) {
	if inputs == nil {
		return "", false
	}
	v, ok := inputs[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, s string) bool {
	for _, p := range patterns {
		if matchGlob(p, s) {
			return true
		}
	}
	return false
}

// matchGlob implements shell-style "*" wildcard matching, case-sensitive
// (Unix paths). Only "*" is special; all other characters match literally.
func matchGlob(pattern, s string) bool {
	if pattern == "" {
		return s == ""
	}
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == s
	}

	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]

	for i := 1; i < len(parts)-1; i++ {
		part := parts[i]
		if part == "" {
			continue
		}
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}

	last := parts[len(parts)-1]
	return strings.HasSuffix(s, last)
}

// inAnyHourRange reports whether now's local hour:minute falls within at
// least one "HH:MM-HH:MM" range; ranges may wrap midnight (e.g.
// "22:00-06:00" matches hours >=22 or <=6).
func inAnyHourRange(ranges []string, now time.Time) bool {
	cur := now.Hour()*60 + now.Minute()
	for _, r := range ranges {
		start, end, err := parseHourRange(r)
		if err != nil {
			continue
		}
		if start <= end {
			if cur >= start && cur <= end {
				return true
			}
		} else { // wraps midnight
			if cur >= start || cur <= end {
				return true
			}
		}
	}
	return false
}

func parseHourRange(r string) (start, end int, err error) {
	parts := strings.SplitN(r, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid hour range %q", r)
	}
	start, err = parseHHMM(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err = parseHHMM(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseHHMM(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid HH:MM %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}
