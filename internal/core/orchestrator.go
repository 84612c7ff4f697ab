package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ecobeehub/internal/idgen"
	"ecobeehub/internal/metrics"
)

// OrchestratorConfig wires the orchestrator's collaborators
type OrchestratorConfig struct {
	API     ThermostatAPI
	Auth    Authenticator
	Tracker RevisionTracker
	Model   NodeModel
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Orchestrator runs poll cycles and discovery against the vendor API.
// Poll cycles are serialized; discovery is guarded by a busy flag so a
// concurrent request returns immediately.
type Orchestrator struct {
	api     ThermostatAPI
	auth    Authenticator
	tracker RevisionTracker
	model   NodeModel
	logger  *slog.Logger
	metrics *metrics.Metrics

	pollMu      sync.Mutex
	discovering atomic.Bool
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(config OrchestratorConfig) *Orchestrator {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		api:     config.API,
		auth:    config.Auth,
		tracker: config.Tracker,
		model:   config.Model,
		logger:  logger.With("component", "orchestrator"),
		metrics: config.Metrics,
	}
}

// Poll runs one cycle: summary fetch, revision diff, then a sequential full
// fetch of every changed thermostat. A signature is committed only after
// its full fetch succeeded and the node model accepted it, so a failed
// fetch is retried on the next cycle.
func (o *Orchestrator) Poll(ctx context.Context) (*PollResult, error) {
	o.pollMu.Lock()
	defer o.pollMu.Unlock()

	start := time.Now()
	result := &PollResult{
		CycleID: idgen.NewPoll(),
		Changed: []string{},
		Updated: []string{},
		Failed:  []string{},
		Skipped: []string{},
		New:     []string{},
	}
	logger := o.logger.With("cycle_id", result.CycleID)

	if !o.auth.EnsureValid(ctx) {
		logger.Warn("poll skipped, not authorized")
		o.metrics.ObservePoll(metrics.ResultSkipped, time.Since(start))
		return result, ErrNotAuthorized
	}
	auth, ok := o.auth.Authorization()
	if !ok {
		logger.Warn("poll skipped, token dropped")
		o.metrics.ObservePoll(metrics.ResultSkipped, time.Since(start))
		return result, ErrNotAuthorized
	}

	summary, err := o.api.ThermostatSummary(ctx, auth)
	if err != nil {
		logger.Error("summary fetch failed, cycle aborted", "error", err)
		o.metrics.ObservePoll(metrics.ResultFailed, time.Since(start))
		return result, fmt.Errorf("failed to fetch thermostat summary: %w", err)
	}

	result.New = o.tracker.Unknown(summary)
	if len(result.New) > 0 {
		logger.Info("new thermostats found, run discovery to add them", "thermostat_ids", result.New)
	}

	result.Changed = o.tracker.Diff(summary)
	o.metrics.AddChanged(len(result.Changed))
	if len(result.Changed) == 0 {
		logger.Debug("no thermostat update detected", "thermostats", len(summary))
		o.metrics.ObservePoll(metrics.ResultOK, time.Since(start))
		return result, nil
	}

	for _, id := range result.Changed {
		sig := summary[id]
		if !o.model.Has(id) {
			logger.Warn("changed thermostat has no node, skipping", "thermostat_id", id, "name", sig.Name)
			result.Skipped = append(result.Skipped, id)
			continue
		}

		logger.Info("update detected, fetching full thermostat", "thermostat_id", id, "name", sig.Name)
		if err := o.update(ctx, auth, sig); err != nil {
			logger.Error("failed to update thermostat", "thermostat_id", id, "name", sig.Name, "error", err)
			result.Failed = append(result.Failed, id)
			continue
		}
		result.Updated = append(result.Updated, id)
	}

	logger.Info("poll cycle completed",
		"changed", len(result.Changed),
		"updated", len(result.Updated),
		"failed", len(result.Failed),
		"duration", time.Since(start))
	o.metrics.ObservePoll(metrics.ResultOK, time.Since(start))

	return result, nil
}

func (o *Orchestrator) update(ctx context.Context, auth Authorization, sig Signature) error {
	snapshot, err := o.api.Thermostat(ctx, auth, sig.ThermostatID)
	if err != nil {
		o.metrics.ObserveFetch(metrics.ResultFailed)
		return err
	}
	o.metrics.ObserveFetch(metrics.ResultOK)

	if err := o.model.Apply(sig, snapshot); err != nil {
		return fmt.Errorf("failed to apply snapshot: %w", err)
	}
	o.tracker.Commit(sig)
	return nil
}

// UpdateThermostat submits a command body to a registered thermostat
func (o *Orchestrator) UpdateThermostat(ctx context.Context, thermostatID string, body map[string]any) error {
	if thermostatID == "" {
		return fmt.Errorf("%w: thermostat id is required", ErrInvalidCommand)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty command body", ErrInvalidCommand)
	}
	if !o.model.Has(thermostatID) {
		return fmt.Errorf("%w: %s", ErrThermostatUnknown, thermostatID)
	}
	if !o.auth.EnsureValid(ctx) {
		return ErrNotAuthorized
	}
	auth, ok := o.auth.Authorization()
	if !ok {
		return ErrNotAuthorized
	}

	if err := o.api.UpdateThermostat(ctx, auth, thermostatID, body); err != nil {
		return fmt.Errorf("failed to update thermostat %s: %w", thermostatID, err)
	}
	return nil
}
