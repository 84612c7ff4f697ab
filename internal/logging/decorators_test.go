package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecobeehub/internal/core"
)

// stubAPI is a mock implementation of core.ThermostatAPI
type stubAPI struct {
	summary  map[string]core.Signature
	snapshot *core.Snapshot
	err      error
	updated  []string
}

func (s *stubAPI) ThermostatSummary(ctx context.Context, auth core.Authorization) (map[string]core.Signature, error) {
	return s.summary, s.err
}

func (s *stubAPI) Thermostat(ctx context.Context, auth core.Authorization, thermostatID string) (*core.Snapshot, error) {
	return s.snapshot, s.err
}

func (s *stubAPI) UpdateThermostat(ctx context.Context, auth core.Authorization, thermostatID string, body map[string]any) error {
	s.updated = append(s.updated, thermostatID)
	return s.err
}

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return NewLogger(LoggerConfig{Format: "text", Level: slog.LevelDebug, Output: buf})
}

func TestThermostatAPILogger_PassesThrough(t *testing.T) {
	var buf bytes.Buffer
	stub := &stubAPI{
		summary:  map[string]core.Signature{"1": {ThermostatID: "1"}},
		snapshot: &core.Snapshot{Identifier: "1", Name: "Den", Raw: []byte(`{}`)},
	}
	api := NewThermostatAPILogger(stub, newBufferLogger(&buf))
	ctx := context.Background()

	sigs, err := api.ThermostatSummary(ctx, core.Authorization{})
	require.NoError(t, err)
	assert.Len(t, sigs, 1)

	snapshot, err := api.Thermostat(ctx, core.Authorization{}, "1")
	require.NoError(t, err)
	assert.Equal(t, "Den", snapshot.Name)

	require.NoError(t, api.UpdateThermostat(ctx, core.Authorization{}, "1", map[string]any{"functions": []any{}}))
	assert.Equal(t, []string{"1"}, stub.updated)

	out := buf.String()
	assert.Contains(t, out, "ThermostatSummary completed")
	assert.Contains(t, out, "thermostats=1")
	assert.Contains(t, out, "Thermostat completed")
	assert.Contains(t, out, "name=Den")
	assert.Contains(t, out, "UpdateThermostat completed")
	assert.Contains(t, out, "interface=ThermostatAPI")
	assert.NotContains(t, out, "failed")
}

func TestThermostatAPILogger_Failures(t *testing.T) {
	var buf bytes.Buffer
	upstream := errors.New("connection reset")
	api := NewThermostatAPILogger(&stubAPI{err: upstream}, newBufferLogger(&buf))
	ctx := context.Background()

	_, err := api.ThermostatSummary(ctx, core.Authorization{})
	assert.ErrorIs(t, err, upstream)

	snapshot, err := api.Thermostat(ctx, core.Authorization{}, "42")
	assert.ErrorIs(t, err, upstream)
	assert.Nil(t, snapshot)

	assert.ErrorIs(t, api.UpdateThermostat(ctx, core.Authorization{}, "42", nil), upstream)

	out := buf.String()
	assert.Contains(t, out, "ThermostatSummary failed")
	assert.Contains(t, out, "Thermostat failed")
	assert.Contains(t, out, "UpdateThermostat failed")
	assert.Contains(t, out, "thermostat_id=42")
	assert.Contains(t, out, `error="connection reset"`)
}
