package ecobee

import (
	"strings"

	"ecobeehub/internal/core"
)

const revisionFields = 7

// ParseRevision decodes a summary revision string of the form
// id:name:connected:thermostatRev:alertsRev:runtimeRev:intervalRev.
// Names containing ':' are rejoined from the middle fields.
func ParseRevision(s string) (core.Signature, error) {
	parts := strings.Split(s, ":")
	if len(parts) < revisionFields || parts[0] == "" {
		return core.Signature{}, malformedError(nil, "parse revision "+s)
	}

	n := len(parts)
	return core.Signature{
		ThermostatID:  parts[0],
		Name:          strings.Join(parts[1:n-5], ":"),
		Connected:     parts[n-5] == "true",
		ThermostatRev: parts[n-4],
		AlertsRev:     parts[n-3],
		RuntimeRev:    parts[n-2],
		IntervalRev:   parts[n-1],
	}, nil
}
