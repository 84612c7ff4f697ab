package logging

import (
	"context"
	"log/slog"
	"time"

	"ecobeehub/internal/core"
)

// ThermostatAPILogger wraps a ThermostatAPI and logs all method calls
type ThermostatAPILogger struct {
	api    core.ThermostatAPI
	logger *slog.Logger
}

// NewThermostatAPILogger creates a new logging decorator for ThermostatAPI
func NewThermostatAPILogger(api core.ThermostatAPI, logger *slog.Logger) core.ThermostatAPI {
	return &ThermostatAPILogger{
		api:    api,
		logger: logger.With("interface", "ThermostatAPI"),
	}
}

func (l *ThermostatAPILogger) ThermostatSummary(ctx context.Context, auth core.Authorization) (map[string]core.Signature, error) {
	start := time.Now()
	l.logger.Debug("ThermostatSummary called")

	sigs, err := l.api.ThermostatSummary(ctx, auth)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("ThermostatSummary failed",
			"duration", duration,
			"error", err)
		return nil, err
	}

	l.logger.Debug("ThermostatSummary completed",
		"thermostats", len(sigs),
		"duration", duration)

	return sigs, nil
}

func (l *ThermostatAPILogger) Thermostat(ctx context.Context, auth core.Authorization, thermostatID string) (*core.Snapshot, error) {
	start := time.Now()
	l.logger.Info("Thermostat called",
		"thermostat_id", thermostatID)

	snapshot, err := l.api.Thermostat(ctx, auth, thermostatID)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("Thermostat failed",
			"thermostat_id", thermostatID,
			"duration", duration,
			"error", err)
		return nil, err
	}

	l.logger.Info("Thermostat completed",
		"thermostat_id", thermostatID,
		"name", snapshot.Name,
		"sensors", len(snapshot.Sensors),
		"bytes", len(snapshot.Raw),
		"duration", duration)

	return snapshot, nil
}

func (l *ThermostatAPILogger) UpdateThermostat(ctx context.Context, auth core.Authorization, thermostatID string, body map[string]any) error {
	start := time.Now()
	l.logger.Info("UpdateThermostat called",
		"thermostat_id", thermostatID)

	err := l.api.UpdateThermostat(ctx, auth, thermostatID, body)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("UpdateThermostat failed",
			"thermostat_id", thermostatID,
			"duration", duration,
			"error", err)
		return err
	}

	l.logger.Info("UpdateThermostat completed",
		"thermostat_id", thermostatID,
		"duration", duration)

	return nil
}
