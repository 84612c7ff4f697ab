package ecobee

import jsoniter "github.com/json-iterator/go"

// PinResponse is returned by the authorize endpoint
type PinResponse struct {
	EcobeePin string `json:"ecobeePin"`
	Code      string `json:"code"`
	Scope     string `json:"scope"`
	ExpiresIn int    `json:"expires_in"` // minutes
	Interval  int    `json:"interval"`   // seconds
}

// TokenResponse is returned by the token endpoint for both grant types
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds
	Scope        string `json:"scope"`
}

// Status is the status block carried by every data endpoint response
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// envelope captures the error-bearing fields shared by all endpoints
type envelope struct {
	Error            string  `json:"error"`
	ErrorDescription string  `json:"error_description"`
	Status           *Status `json:"status"`
}

type summaryResponse struct {
	ThermostatCount int       `json:"thermostatCount"`
	RevisionList    *[]string `json:"revisionList"`
	StatusList      []string  `json:"statusList"`
}

type thermostatResponse struct {
	ThermostatList []jsoniter.RawMessage `json:"thermostatList"`
}

// thermostatFields is the typed subset of a thermostat object
type thermostatFields struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Settings   *struct {
		UseCelsius bool `json:"useCelsius"`
	} `json:"settings"`
	RemoteSensors []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"remoteSensors"`
	Weather *struct {
		Forecasts []jsoniter.RawMessage `json:"forecasts"`
	} `json:"weather"`
}

// Selection picks the thermostats a request applies to
type Selection struct {
	SelectionType          string `json:"selectionType"`
	SelectionMatch         string `json:"selectionMatch"`
	IncludeEvents          bool   `json:"includeEvents,omitempty"`
	IncludeProgram         bool   `json:"includeProgram,omitempty"`
	IncludeSettings        bool   `json:"includeSettings,omitempty"`
	IncludeRuntime         bool   `json:"includeRuntime,omitempty"`
	IncludeExtendedRuntime bool   `json:"includeExtendedRuntime,omitempty"`
	IncludeLocation        bool   `json:"includeLocation,omitempty"`
	IncludeEquipmentStatus bool   `json:"includeEquipmentStatus,omitempty"`
	IncludeVersion         bool   `json:"includeVersion,omitempty"`
	IncludeUtility         bool   `json:"includeUtility,omitempty"`
	IncludeAlerts          bool   `json:"includeAlerts,omitempty"`
	IncludeWeather         bool   `json:"includeWeather,omitempty"`
	IncludeSensors         bool   `json:"includeSensors,omitempty"`
}

// SummarySelection selects every thermostat registered to the account
func SummarySelection() Selection {
	return Selection{
		SelectionType:          "registered",
		SelectionMatch:         "",
		IncludeEquipmentStatus: true,
	}
}

// FullSelection selects one thermostat with every data block included
func FullSelection(thermostatID string) Selection {
	return Selection{
		SelectionType:          "thermostats",
		SelectionMatch:         thermostatID,
		IncludeEvents:          true,
		IncludeProgram:         true,
		IncludeSettings:        true,
		IncludeRuntime:         true,
		IncludeExtendedRuntime: true,
		IncludeLocation:        true,
		IncludeEquipmentStatus: true,
		IncludeVersion:         true,
		IncludeUtility:         true,
		IncludeAlerts:          true,
		IncludeWeather:         true,
		IncludeSensors:         true,
	}
}

// commandSelection targets a single thermostat for an update
func commandSelection(thermostatID string) Selection {
	return Selection{
		SelectionType:  "thermostats",
		SelectionMatch: thermostatID,
	}
}
