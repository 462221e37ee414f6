package model

// PolicyDocument is a declarative allow/deny tree evaluated by the Policy
// Engine. Decoded from YAML (see internal/policy).
type PolicyDocument struct {
	DefaultAllow bool                  `yaml:"default_allow" json:"default_allow"`
	Tools        map[string]ToolPolicy `yaml:"tools" json:"tools"`
}

// ToolPolicy is the per-tool policy entry.
type ToolPolicy struct {
	Allow               *bool      `yaml:"allow,omitempty" json:"allow,omitempty"`
	SimulationRequired  bool       `yaml:"simulation_required" json:"simulation_required"`
	RollbackRequired    bool       `yaml:"rollback_required" json:"rollback_required"`
	Approvals           []string   `yaml:"approvals,omitempty" json:"approvals,omitempty"`
	Conditions          Conditions `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

// Conditions gate a tool invocation on the runtime context.
type Conditions struct {
	Users      []string `yaml:"users,omitempty" json:"users,omitempty"`
	Hosts      []string `yaml:"hosts,omitempty" json:"hosts,omitempty"`
	HoursAllow []string `yaml:"hours_allow,omitempty" json:"hours_allow,omitempty"`
	PathsAllow []string `yaml:"paths_allow,omitempty" json:"paths_allow,omitempty"`
	PathsDeny  []string `yaml:"paths_deny,omitempty" json:"paths_deny,omitempty"`
	NamesAllow []string `yaml:"names_allow,omitempty" json:"names_allow,omitempty"`
}

// PolicyVerdict is the result of evaluating a tool invocation against a
// PolicyDocument.
type PolicyVerdict struct {
	Allow              bool
	Reason             string
	SimulationRequired bool
	RollbackRequired   bool
	ApprovalsNeeded    []string
}
