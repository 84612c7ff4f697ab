package core

import "context"

// ThermostatAPI defines the vendor data endpoints used by the orchestrator
type ThermostatAPI interface {
	ThermostatSummary(ctx context.Context, auth Authorization) (map[string]Signature, error)
	Thermostat(ctx context.Context, auth Authorization, thermostatID string) (*Snapshot, error)
	UpdateThermostat(ctx context.Context, auth Authorization, thermostatID string, body map[string]any) error
}

// Authenticator provides a valid credential for data requests
type Authenticator interface {
	EnsureValid(ctx context.Context) bool
	Authorization() (Authorization, bool)
}

// RevisionTracker holds the last committed signature per thermostat
type RevisionTracker interface {
	Diff(incoming map[string]Signature) []string
	Unknown(incoming map[string]Signature) []string
	Commit(sig Signature)
	Reset(all map[string]Signature)
}

// NodeModel is the hub's device model
type NodeModel interface {
	Has(address string) bool
	Register(spec NodeSpec) error
	Apply(sig Signature, snapshot *Snapshot) error
}

// Notifier displays notices to the hub operator
type Notifier interface {
	AddNotice(ctx context.Context, key, message string) error
	RemoveNotices(ctx context.Context) error
}
