package auth

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"ecobeehub/internal/ecobee"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ExpiresLayout is the layout of the persisted expiry timestamp (UTC)
const ExpiresLayout = "2006-01-02T15:04:05"

// TokenData is the current OAuth credential set. It is replaced wholesale
// on every exchange or refresh.
type TokenData struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	ExpiresIn    int       // seconds, as returned by the vendor
	Expires      time.Time // capture time + ExpiresIn
}

// NewTokenData builds a token set from a token response. Expires is always
// derived from capturedAt, never copied from an older record.
func NewTokenData(resp *ecobee.TokenResponse, capturedAt time.Time) *TokenData {
	return &TokenData{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		Expires:      capturedAt.Add(time.Duration(resp.ExpiresIn) * time.Second).UTC().Truncate(time.Second),
	}
}

// ValidAt reports whether the access token may still be used at now
func (t *TokenData) ValidAt(now time.Time) bool {
	return t != nil && t.AccessToken != "" && !now.After(t.Expires)
}

type tokenDataJSON struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Expires      string `json:"expires"`
}

func (t TokenData) MarshalJSON() ([]byte, error) {
	return json.Marshal(tokenDataJSON{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    t.ExpiresIn,
		Expires:      t.Expires.UTC().Format(ExpiresLayout),
	})
}

func (t *TokenData) UnmarshalJSON(data []byte) error {
	var raw tokenDataJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	expires, err := time.ParseInLocation(ExpiresLayout, raw.Expires, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid expires %q: %w", raw.Expires, err)
	}

	*t = TokenData{
		AccessToken:  raw.AccessToken,
		TokenType:    raw.TokenType,
		RefreshToken: raw.RefreshToken,
		ExpiresIn:    raw.ExpiresIn,
		Expires:      expires,
	}
	return nil
}

type persistedState struct {
	TokenData *TokenData `json:"tokenData"`
}

// MarshalState encodes tokens in the persisted custom data shape
// {"tokenData": {...}}.
func MarshalState(tokens *TokenData) ([]byte, error) {
	return json.Marshal(persistedState{TokenData: tokens})
}

// UnmarshalState decodes the persisted custom data shape. A document
// without tokenData yields nil.
func UnmarshalState(data []byte) (*TokenData, error) {
	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse token state: %w", err)
	}
	return state.TokenData, nil
}

// TokenStore persists the token set across restarts
type TokenStore interface {
	// LoadTokens returns nil, nil when nothing is stored
	LoadTokens(ctx context.Context) (*TokenData, error)
	SaveTokens(ctx context.Context, tokens *TokenData) error
	ClearTokens(ctx context.Context) error
}
