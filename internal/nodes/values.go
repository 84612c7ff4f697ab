package nodes

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"

	"ecobeehub/internal/core"
)

// Value keys reported by nodes
const (
	KeyTemperature     = "temperature"
	KeyHumidity        = "humidity"
	KeyHeatSetpoint    = "heat_setpoint"
	KeyCoolSetpoint    = "cool_setpoint"
	KeyHVACMode        = "hvac_mode"
	KeyFanMode         = "fan_mode"
	KeyClimate         = "climate"
	KeyEquipment       = "equipment_status"
	KeyConnected       = "connected"
	KeyOccupied        = "occupied"
	KeyWeatherSymbol   = "weather_symbol"
	KeyCondition       = "condition"
	KeyWindSpeed       = "wind_speed"
	KeyTemperatureHigh = "temperature_high"
	KeyTemperatureLow  = "temperature_low"
)

// convertTemperature converts tenths of a degree Fahrenheit into the node's
// display unit, rounded to one decimal.
func convertTemperature(tenthsF float64, useCelsius bool) float64 {
	f := tenthsF / 10
	if useCelsius {
		return math.Round((f-32)*5/9*10) / 10
	}
	return math.Round(f*10) / 10
}

func setTemperature(values map[string]any, key string, result gjson.Result, useCelsius bool) {
	if !result.Exists() {
		return
	}
	// Sensor capabilities carry numbers as strings, "unknown" when offline
	if result.Type == gjson.String {
		tenths, err := strconv.ParseFloat(result.String(), 64)
		if err != nil {
			return
		}
		values[key] = convertTemperature(tenths, useCelsius)
		return
	}
	values[key] = convertTemperature(result.Float(), useCelsius)
}

func thermostatValues(sig core.Signature, raw []byte, useCelsius bool) map[string]any {
	doc := gjson.ParseBytes(raw)
	values := map[string]any{
		KeyConnected: sig.Connected,
	}

	setTemperature(values, KeyTemperature, doc.Get("runtime.actualTemperature"), useCelsius)
	setTemperature(values, KeyHeatSetpoint, doc.Get("runtime.desiredHeat"), useCelsius)
	setTemperature(values, KeyCoolSetpoint, doc.Get("runtime.desiredCool"), useCelsius)

	if humidity := doc.Get("runtime.actualHumidity"); humidity.Exists() {
		values[KeyHumidity] = humidity.Int()
	}
	if mode := doc.Get("settings.hvacMode"); mode.Exists() {
		values[KeyHVACMode] = mode.String()
	}
	if fan := doc.Get("runtime.desiredFanMode"); fan.Exists() {
		values[KeyFanMode] = fan.String()
	}
	if climate := doc.Get("program.currentClimateRef"); climate.Exists() {
		values[KeyClimate] = climate.String()
	}
	if equipment := doc.Get("equipmentStatus"); equipment.Exists() {
		values[KeyEquipment] = equipment.String()
	}

	return values
}

func sensorValues(raw []byte, sensorID string, useCelsius bool) map[string]any {
	sensor := gjson.GetBytes(raw, fmt.Sprintf(`remoteSensors.#(id==%q)`, sensorID))
	if !sensor.Exists() {
		return nil
	}

	values := make(map[string]any)
	setTemperature(values, KeyTemperature, sensor.Get(`capability.#(type=="temperature").value`), useCelsius)

	if occupancy := sensor.Get(`capability.#(type=="occupancy").value`); occupancy.Exists() {
		values[KeyOccupied] = occupancy.String() == "true"
	}
	if humidity := sensor.Get(`capability.#(type=="humidity").value`); humidity.Exists() {
		if h, err := strconv.Atoi(humidity.String()); err == nil {
			values[KeyHumidity] = h
		}
	}

	return values
}

func weatherValues(raw []byte, useCelsius bool) map[string]any {
	current := gjson.GetBytes(raw, "weather.forecasts.0")
	if !current.Exists() {
		return nil
	}

	values := make(map[string]any)
	setTemperature(values, KeyTemperature, current.Get("temperature"), useCelsius)
	if humidity := current.Get("relativeHumidity"); humidity.Exists() {
		values[KeyHumidity] = humidity.Int()
	}
	if symbol := current.Get("weatherSymbol"); symbol.Exists() {
		values[KeyWeatherSymbol] = symbol.Int()
	}
	if condition := current.Get("condition"); condition.Exists() {
		values[KeyCondition] = condition.String()
	}
	if wind := current.Get("windSpeed"); wind.Exists() {
		values[KeyWindSpeed] = wind.Int()
	}

	return values
}

func forecastValues(raw []byte, useCelsius bool) map[string]any {
	forecast := gjson.GetBytes(raw, "weather.forecasts.1")
	if !forecast.Exists() {
		return nil
	}

	values := make(map[string]any)
	setTemperature(values, KeyTemperatureHigh, forecast.Get("tempHigh"), useCelsius)
	setTemperature(values, KeyTemperatureLow, forecast.Get("tempLow"), useCelsius)
	if humidity := forecast.Get("relativeHumidity"); humidity.Exists() {
		values[KeyHumidity] = humidity.Int()
	}
	if symbol := forecast.Get("weatherSymbol"); symbol.Exists() {
		values[KeyWeatherSymbol] = symbol.Int()
	}
	if condition := forecast.Get("condition"); condition.Exists() {
		values[KeyCondition] = condition.String()
	}

	return values
}
