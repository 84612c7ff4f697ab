package ecobee

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"ecobeehub/internal/core"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	DefaultBaseURL = "https://api.ecobee.com"
	DefaultTimeout = 30 * time.Second
)

// Config contains ecobee API client settings
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a thin wrapper over the ecobee REST API. It holds no token
// state; callers pass the credential on every data request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new ecobee API client
func NewClient(config Config) *Client {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Authorize requests a new PIN and authorization code
func (c *Client) Authorize(ctx context.Context, clientID, scope string) (*PinResponse, error) {
	query := url.Values{
		"response_type": {"ecobeePin"},
		"client_id":     {clientID},
		"scope":         {scope},
	}

	var resp PinResponse
	if err := c.do(ctx, "authorize", http.MethodGet, "/authorize", query, nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.EcobeePin == "" {
		return nil, missingField("authorize", "ecobeePin")
	}
	if resp.Code == "" {
		return nil, missingField("authorize", "code")
	}

	return &resp, nil
}

// Token calls the token endpoint. The form carries grant_type and the
// grant-specific parameters.
func (c *Client) Token(ctx context.Context, form url.Values) (*TokenResponse, error) {
	op := "token " + form.Get("grant_type")

	var resp TokenResponse
	if err := c.do(ctx, op, http.MethodPost, "/token", form, nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, missingField(op, "access_token")
	}
	if resp.TokenType == "" {
		return nil, missingField(op, "token_type")
	}
	if resp.ExpiresIn <= 0 {
		return nil, missingField(op, "expires_in")
	}

	return &resp, nil
}

// ThermostatSummary returns the revision signature of every registered
// thermostat, keyed by thermostat id.
func (c *Client) ThermostatSummary(ctx context.Context, auth core.Authorization) (map[string]core.Signature, error) {
	query, err := selectionQuery(SummarySelection())
	if err != nil {
		return nil, err
	}

	var resp summaryResponse
	if err := c.do(ctx, "thermostat summary", http.MethodGet, "/1/thermostatSummary", query, &auth, nil, &resp); err != nil {
		return nil, err
	}
	if resp.RevisionList == nil {
		return nil, missingField("thermostat summary", "revisionList")
	}

	signatures := make(map[string]core.Signature, len(*resp.RevisionList))
	for _, rev := range *resp.RevisionList {
		sig, err := ParseRevision(rev)
		if err != nil {
			return nil, err
		}
		signatures[sig.ThermostatID] = sig
	}

	return signatures, nil
}

// Thermostat fetches the full payload of one thermostat
func (c *Client) Thermostat(ctx context.Context, auth core.Authorization, thermostatID string) (*core.Snapshot, error) {
	op := "thermostat " + thermostatID

	query, err := selectionQuery(FullSelection(thermostatID))
	if err != nil {
		return nil, err
	}

	var resp thermostatResponse
	if err := c.do(ctx, op, http.MethodGet, "/1/thermostat", query, &auth, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.ThermostatList) == 0 {
		return nil, missingField(op, "thermostatList")
	}

	raw := []byte(resp.ThermostatList[0])
	var fields thermostatFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, malformedError(err, op)
	}
	if fields.Identifier == "" {
		return nil, missingField(op, "identifier")
	}
	if fields.Settings == nil {
		return nil, missingField(op, "settings")
	}

	snapshot := &core.Snapshot{
		Identifier: fields.Identifier,
		Name:       fields.Name,
		UseCelsius: fields.Settings.UseCelsius,
		HasWeather: fields.Weather != nil,
		Raw:        raw,
		FetchedAt:  time.Now(),
	}
	for _, sensor := range fields.RemoteSensors {
		snapshot.Sensors = append(snapshot.Sensors, core.RemoteSensor{
			ID:   sensor.ID,
			Name: sensor.Name,
			Type: sensor.Type,
		})
	}

	return snapshot, nil
}

// UpdateThermostat posts a command body to one thermostat. The selection
// is set by the client and overrides any selection in body.
func (c *Client) UpdateThermostat(ctx context.Context, auth core.Authorization, thermostatID string, body map[string]any) error {
	payload := make(map[string]any, len(body)+1)
	for k, v := range body {
		payload[k] = v
	}
	payload["selection"] = commandSelection(thermostatID)

	query := url.Values{"json": {"true"}}
	return c.do(ctx, "update thermostat "+thermostatID, http.MethodPost, "/1/thermostat", query, &auth, payload, nil)
}

func selectionQuery(selection Selection) (url.Values, error) {
	data, err := json.Marshal(map[string]Selection{"selection": selection})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal selection: %w", err)
	}
	return url.Values{"json": {string(data)}}, nil
}

// do performs a request and classifies failures into transport, vendor and
// malformed errors. out may be nil when only the status matters.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, auth *core.Authorization, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if auth != nil {
		httpReq.Header.Set("Authorization", auth.Header())
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return transportError(err, op)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err, op)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if retryableStatus(resp.StatusCode) {
			return transportError(fmt.Errorf("http %d", resp.StatusCode), op)
		}
		return malformedError(err, op)
	}

	if env.Error != "" {
		return &VendorError{Code: env.Error, Description: env.ErrorDescription, HTTPStatus: resp.StatusCode}
	}
	if env.Status != nil && env.Status.Code != 0 {
		return &VendorError{Code: strconv.Itoa(env.Status.Code), Description: env.Status.Message, HTTPStatus: resp.StatusCode}
	}

	// Only an error field or a status code is a vendor verdict
	if retryableStatus(resp.StatusCode) {
		return transportError(fmt.Errorf("http %d", resp.StatusCode), op)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return malformedError(fmt.Errorf("http %d without error details", resp.StatusCode), op)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return malformedError(err, op)
	}
	return nil
}

// retryableStatus reports whether an HTTP status without a vendor error
// body means the service is unavailable rather than that it refused us.
func retryableStatus(code int) bool {
	return code >= http.StatusInternalServerError ||
		code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests
}
