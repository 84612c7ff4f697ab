package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ecobeehub/internal/metrics"
)

const sensorAddressLength = 12

// SensorAddress derives a node address from a vendor sensor id: colons
// removed, lower-cased, at most 12 characters.
func SensorAddress(sensorID string) string {
	address := strings.ToLower(strings.ReplaceAll(sensorID, ":", ""))
	if len(address) > sensorAddressLength {
		address = address[:sensorAddressLength]
	}
	return address
}

// WeatherAddress is the address of a thermostat's current-weather node
func WeatherAddress(thermostatID string) string {
	return "w" + thermostatID
}

// ForecastAddress is the address of a thermostat's forecast node
func ForecastAddress(thermostatID string) string {
	return "f" + thermostatID
}

// NodeSpecs builds the nodes for one thermostat: the thermostat itself,
// every remote sensor that has an id and a name, and the two weather
// pseudo-devices when the payload carries weather.
func NodeSpecs(sig Signature, snapshot *Snapshot) []NodeSpec {
	address := sig.ThermostatID
	name := sig.Name

	specs := []NodeSpec{{
		Address:    address,
		Parent:     address,
		Name:       "Ecobee - " + name,
		Kind:       NodeKindThermostat,
		UseCelsius: snapshot.UseCelsius,
	}}

	for _, sensor := range snapshot.Sensors {
		if sensor.ID == "" || sensor.Name == "" {
			continue
		}
		specs = append(specs, NodeSpec{
			Address:    SensorAddress(sensor.ID),
			Parent:     address,
			Name:       fmt.Sprintf("%s Sensor - %s", name, sensor.Name),
			Kind:       NodeKindSensor,
			SensorID:   sensor.ID,
			UseCelsius: snapshot.UseCelsius,
		})
	}

	if snapshot.HasWeather {
		specs = append(specs,
			NodeSpec{
				Address:    WeatherAddress(address),
				Parent:     address,
				Name:       name + " - Current Weather",
				Kind:       NodeKindWeather,
				UseCelsius: snapshot.UseCelsius,
			},
			NodeSpec{
				Address:    ForecastAddress(address),
				Parent:     address,
				Name:       name + " - Forecast",
				Kind:       NodeKindForecast,
				UseCelsius: snapshot.UseCelsius,
			},
		)
	}

	return specs
}

// Discover enumerates thermostats, resets the revision baseline and
// registers nodes for every thermostat not yet known to the model. A call
// made while another discovery runs returns immediately with Busy set.
func (o *Orchestrator) Discover(ctx context.Context) (*DiscoveryResult, error) {
	if !o.discovering.CompareAndSwap(false, true) {
		o.logger.Info("discovery already running")
		return &DiscoveryResult{Busy: true}, nil
	}
	defer o.discovering.Store(false)

	o.logger.Info("discovering ecobee thermostats")
	result := &DiscoveryResult{
		Registered: []string{},
		Failed:     []string{},
	}

	if !o.auth.EnsureValid(ctx) {
		o.metrics.ObserveDiscovery(metrics.ResultSkipped)
		return result, ErrNotAuthorized
	}
	auth, ok := o.auth.Authorization()
	if !ok {
		o.metrics.ObserveDiscovery(metrics.ResultSkipped)
		return result, ErrNotAuthorized
	}

	summary, err := o.api.ThermostatSummary(ctx, auth)
	if err != nil {
		o.metrics.ObserveDiscovery(metrics.ResultFailed)
		return result, fmt.Errorf("failed to fetch thermostat summary: %w", err)
	}
	result.Thermostats = len(summary)
	o.tracker.Reset(summary)

	ids := make([]string, 0, len(summary))
	for id := range summary {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if o.model.Has(id) {
			continue
		}
		sig := summary[id]

		snapshot, err := o.api.Thermostat(ctx, auth, id)
		if err != nil {
			o.metrics.ObserveFetch(metrics.ResultFailed)
			o.logger.Error("failed to fetch thermostat for discovery", "thermostat_id", id, "error", err)
			result.Failed = append(result.Failed, id)
			continue
		}
		o.metrics.ObserveFetch(metrics.ResultOK)

		for _, spec := range NodeSpecs(sig, snapshot) {
			if o.model.Has(spec.Address) {
				continue
			}
			if err := o.model.Register(spec); err != nil {
				o.logger.Error("failed to register node", "address", spec.Address, "error", err)
				continue
			}
			o.logger.Info("node added", "address", spec.Address, "name", spec.Name, "kind", spec.Kind)
			result.Registered = append(result.Registered, spec.Address)
		}

		if err := o.model.Apply(sig, snapshot); err != nil {
			o.logger.Warn("failed to apply initial snapshot", "thermostat_id", id, "error", err)
		}
	}

	o.logger.Info("discovery completed",
		"thermostats", result.Thermostats,
		"registered", len(result.Registered),
		"failed", len(result.Failed))
	o.metrics.ObserveDiscovery(metrics.ResultOK)

	return result, nil
}
