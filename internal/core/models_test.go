package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignature_RevisionsDiffer(t *testing.T) {
	base := Signature{
		ThermostatID:  "123456789012",
		Name:          "Living Room",
		Connected:     true,
		ThermostatRev: "10",
		AlertsRev:     "5",
		RuntimeRev:    "20",
		IntervalRev:   "3",
	}

	tests := []struct {
		name   string
		modify func(s *Signature)
		want   bool
	}{
		{name: "identical", modify: func(s *Signature) {}, want: false},
		{name: "thermostat revision", modify: func(s *Signature) { s.ThermostatRev = "11" }, want: true},
		{name: "alerts revision", modify: func(s *Signature) { s.AlertsRev = "6" }, want: true},
		{name: "runtime revision", modify: func(s *Signature) { s.RuntimeRev = "21" }, want: true},
		{name: "interval revision", modify: func(s *Signature) { s.IntervalRev = "4" }, want: true},
		{name: "name only", modify: func(s *Signature) { s.Name = "Den" }, want: false},
		{name: "connection only", modify: func(s *Signature) { s.Connected = false }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			tt.modify(&other)
			assert.Equal(t, tt.want, base.RevisionsDiffer(other))
			assert.Equal(t, tt.want, other.RevisionsDiffer(base))
		})
	}
}

func TestAuthorization_Header(t *testing.T) {
	auth := Authorization{TokenType: "Bearer", AccessToken: "abc"}
	assert.Equal(t, "Bearer abc", auth.Header())
}
