package core

import (
	"errors"
	"fmt"
	"time"
)

// Signature is the compact per-thermostat revision record returned by the
// summary endpoint. Revision fields are opaque strings compared for equality.
// Connected is true only for the literal "true"; any other value reads as
// disconnected.
type Signature struct {
	ThermostatID  string `json:"thermostat_id"`
	Name          string `json:"name"`
	Connected     bool   `json:"connected"`
	ThermostatRev string `json:"thermostat_rev"`
	AlertsRev     string `json:"alerts_rev"`
	RuntimeRev    string `json:"runtime_rev"`
	IntervalRev   string `json:"interval_rev"`
}

// RevisionsDiffer reports whether any of the four revision fields differ.
// Name and connection state are not revisions and are ignored.
func (s Signature) RevisionsDiffer(other Signature) bool {
	return s.ThermostatRev != other.ThermostatRev ||
		s.AlertsRev != other.AlertsRev ||
		s.RuntimeRev != other.RuntimeRev ||
		s.IntervalRev != other.IntervalRev
}

// RemoteSensor is a sensor attached to a thermostat
type RemoteSensor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Snapshot is the full payload of a single thermostat. Only the fields
// needed for discovery are decoded; Raw carries the whole object for the
// node model.
type Snapshot struct {
	Identifier string
	Name       string
	UseCelsius bool
	Sensors    []RemoteSensor
	HasWeather bool
	Raw        []byte
	FetchedAt  time.Time
}

// Authorization is the credential attached to data requests
type Authorization struct {
	TokenType   string
	AccessToken string
}

// Header returns the value of the Authorization header
func (a Authorization) Header() string {
	return fmt.Sprintf("%s %s", a.TokenType, a.AccessToken)
}

// NodeKind identifies what a node represents
type NodeKind string

const (
	NodeKindThermostat NodeKind = "thermostat"
	NodeKindSensor     NodeKind = "sensor"
	NodeKindWeather    NodeKind = "weather"
	NodeKindForecast   NodeKind = "forecast"
)

// NodeSpec describes a node to be registered with the node model
type NodeSpec struct {
	Address    string
	Parent     string // thermostat address; equal to Address for thermostats
	Name       string
	Kind       NodeKind
	SensorID   string // vendor sensor id, sensors only
	UseCelsius bool
}

// PollResult summarizes one poll cycle
type PollResult struct {
	CycleID string   `json:"cycle_id"`
	Changed []string `json:"changed"`
	Updated []string `json:"updated"`
	Failed  []string `json:"failed"`
	Skipped []string `json:"skipped"`
	New     []string `json:"new"`
}

// DiscoveryResult summarizes one discovery run
type DiscoveryResult struct {
	Busy        bool     `json:"busy"`
	Thermostats int      `json:"thermostats"`
	Registered  []string `json:"registered"`
	Failed      []string `json:"failed"`
}

var (
	ErrNotAuthorized     = errors.New("not authorized with the ecobee API")
	ErrThermostatUnknown = errors.New("thermostat not registered")
	ErrInvalidCommand    = errors.New("invalid thermostat command")
)
