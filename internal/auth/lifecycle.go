package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"ecobeehub/internal/core"
	"ecobeehub/internal/ecobee"
	"ecobeehub/internal/idgen"
	"ecobeehub/internal/metrics"
)

var (
	ErrAuthorizationPending = errors.New("authorization pending: PIN not yet approved")
	ErrPinExpired           = errors.New("PIN approval window elapsed")
	ErrNoCredentials        = errors.New("client credentials not available")
)

// Defaults for the PIN flow
const (
	DefaultScope           = "smartWrite"
	DefaultPinPollInterval = 60 * time.Second
	DefaultPinWindow       = 10 * time.Minute
)

// Notice keys
const (
	NoticePin             = "ecobee_pin"
	NoticeReauthorization = "ecobee_reauthorize"
)

const refreshKey = "refresh"

// TokenClient is the subset of the vendor API used for authorization
type TokenClient interface {
	Authorize(ctx context.Context, clientID, scope string) (*ecobee.PinResponse, error)
	Token(ctx context.Context, form url.Values) (*ecobee.TokenResponse, error)
}

// CredentialSource returns the application client id. It is consulted on
// every authorization operation so rotated credentials take effect.
type CredentialSource interface {
	ClientID() (string, error)
}

// AuthorizationRequest is an outstanding PIN request awaiting user approval
type AuthorizationRequest struct {
	ID        string        `json:"id"`
	PIN       string        `json:"pin"`
	Code      string        `json:"-"`
	Scope     string        `json:"scope"`
	IssuedAt  time.Time     `json:"issued_at"`
	ExpiresIn time.Duration `json:"expires_in"`
	Interval  time.Duration `json:"interval"`
}

// Status is a point-in-time view of the authorization state
type Status struct {
	Authorized bool                  `json:"authorized"`
	Valid      bool                  `json:"valid"`
	TokenType  string                `json:"token_type,omitempty"`
	Expires    *time.Time            `json:"expires,omitempty"`
	Refreshing bool                  `json:"refreshing"`
	Pending    *AuthorizationRequest `json:"pending,omitempty"`
}

// Options configures a Lifecycle
type Options struct {
	Client          TokenClient
	Store           TokenStore
	Notifier        core.Notifier
	Credentials     CredentialSource
	Scope           string
	PinPollInterval time.Duration
	PinWindow       time.Duration
	Clock           clockwork.Clock
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
}

// Lifecycle owns the token set: PIN authorization, validity checks and
// refresh. Refreshes are coalesced so only one is ever in flight.
type Lifecycle struct {
	client          TokenClient
	store           TokenStore
	notifier        core.Notifier
	credentials     CredentialSource
	scope           string
	pinPollInterval time.Duration
	pinWindow       time.Duration
	clock           clockwork.Clock
	logger          *slog.Logger
	metrics         *metrics.Metrics

	mu            sync.RWMutex // protects token, pending and onInvalidated
	token         *TokenData
	pending       *AuthorizationRequest
	onInvalidated func(ctx context.Context)

	flight     singleflight.Group
	refreshing atomic.Bool
}

// NewLifecycle creates a new auth lifecycle
func NewLifecycle(opts Options) (*Lifecycle, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("token client is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if opts.Credentials == nil {
		return nil, fmt.Errorf("credential source is required")
	}

	l := &Lifecycle{
		client:          opts.Client,
		store:           opts.Store,
		notifier:        opts.Notifier,
		credentials:     opts.Credentials,
		scope:           opts.Scope,
		pinPollInterval: opts.PinPollInterval,
		pinWindow:       opts.PinWindow,
		clock:           opts.Clock,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
	}
	if l.scope == "" {
		l.scope = DefaultScope
	}
	if l.pinPollInterval <= 0 {
		l.pinPollInterval = DefaultPinPollInterval
	}
	if l.pinWindow <= 0 {
		l.pinWindow = DefaultPinWindow
	}
	if l.clock == nil {
		l.clock = clockwork.NewRealClock()
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger = l.logger.With("component", "auth")

	return l, nil
}

// Load reads the persisted token set into memory. It reports whether a
// token set was found.
func (l *Lifecycle) Load(ctx context.Context) (bool, error) {
	tokens, err := l.store.LoadTokens(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load tokens: %w", err)
	}

	l.mu.Lock()
	l.token = tokens
	l.mu.Unlock()

	if tokens == nil {
		l.logger.Info("no stored tokens, authorization required")
		l.metrics.SetTokenExpiry(time.Time{})
		return false, nil
	}

	l.logger.Info("loaded stored tokens", "expires", tokens.Expires)
	l.metrics.SetTokenExpiry(tokens.Expires)
	return true, nil
}

// HasToken reports whether a token set is held, valid or not
func (l *Lifecycle) HasToken() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.token != nil
}

// Authorization returns the credential for data requests
func (l *Lifecycle) Authorization() (core.Authorization, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.token == nil || l.token.AccessToken == "" {
		return core.Authorization{}, false
	}
	return core.Authorization{TokenType: l.token.TokenType, AccessToken: l.token.AccessToken}, true
}

// Status returns the current authorization state
func (l *Lifecycle) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()

	status := Status{
		Authorized: l.token != nil,
		Refreshing: l.refreshing.Load(),
	}
	if l.token != nil {
		expires := l.token.Expires
		status.Expires = &expires
		status.TokenType = l.token.TokenType
		status.Valid = l.token.ValidAt(l.clock.Now())
	}
	if l.pending != nil {
		pending := *l.pending
		status.Pending = &pending
	}
	return status
}

// EnsureValid reports whether a usable access token is held, refreshing
// an expired one. It never starts a PIN flow.
func (l *Lifecycle) EnsureValid(ctx context.Context) bool {
	l.mu.RLock()
	token := l.token
	l.mu.RUnlock()

	if token == nil {
		l.logger.Debug("no token held")
		return false
	}
	if token.ValidAt(l.clock.Now()) {
		return true
	}

	l.logger.Info("access token expired, refreshing", "expires", token.Expires)
	return l.Refresh(ctx)
}

// Refresh exchanges the refresh token for a new token set. Concurrent
// callers share one network call; a caller arriving after a completed
// refresh sees the fresh token and makes no call.
func (l *Lifecycle) Refresh(ctx context.Context) bool {
	// The shared call must not die with the first caller's context
	flightCtx := context.WithoutCancel(ctx)
	ch := l.flight.DoChan(refreshKey, func() (interface{}, error) {
		return l.refresh(flightCtx), nil
	})

	select {
	case res := <-ch:
		return res.Val.(bool)
	case <-ctx.Done():
		return false
	}
}

func (l *Lifecycle) refresh(ctx context.Context) bool {
	l.mu.RLock()
	token := l.token
	l.mu.RUnlock()

	if token == nil || token.RefreshToken == "" {
		l.logger.Warn("no refresh token held")
		return false
	}
	if token.ValidAt(l.clock.Now()) {
		return true
	}

	clientID, err := l.credentials.ClientID()
	if err != nil {
		l.logger.Error("failed to read client credentials", "error", err)
		l.metrics.ObserveRefresh(metrics.ResultFailed)
		return false
	}

	l.refreshing.Store(true)
	defer l.refreshing.Store(false)

	resp, err := l.client.Token(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {clientID},
		"refresh_token": {token.RefreshToken},
	})
	if err != nil {
		if vendorErr, ok := ecobee.AsVendorError(err); ok {
			l.logger.Error("token refresh rejected, re-authorization required",
				"code", vendorErr.Code,
				"description", vendorErr.Description)
			l.metrics.ObserveRefresh(metrics.ResultRejected)
			l.invalidate(ctx)
			return false
		}
		l.logger.Warn("token refresh failed, keeping current token", "error", err)
		l.metrics.ObserveRefresh(metrics.ResultFailed)
		return false
	}

	l.metrics.ObserveRefresh(metrics.ResultOK)
	l.save(ctx, NewTokenData(resp, l.clock.Now()))
	l.logger.Info("tokens refreshed")
	return true
}

// invalidate drops the token set after the vendor rejected it
func (l *Lifecycle) invalidate(ctx context.Context) {
	l.mu.Lock()
	l.token = nil
	l.mu.Unlock()
	l.metrics.SetTokenExpiry(time.Time{})

	if err := l.store.ClearTokens(ctx); err != nil {
		l.logger.Error("failed to clear stored tokens", "error", err)
	}
	l.notify(ctx, NoticeReauthorization,
		"ecobee authorization was revoked or expired. Start a new PIN authorization to reconnect.")

	l.mu.RLock()
	hook := l.onInvalidated
	l.mu.RUnlock()
	if hook != nil {
		hook(ctx)
	}
}

// OnInvalidated registers fn to run after the vendor rejected the token set
// and it was dropped. fn runs on the refreshing goroutine.
func (l *Lifecycle) OnInvalidated(fn func(ctx context.Context)) {
	l.mu.Lock()
	l.onInvalidated = fn
	l.mu.Unlock()
}

// save installs a new token set in memory, then persists it. A failed
// write is logged; the in-memory token stays usable.
func (l *Lifecycle) save(ctx context.Context, tokens *TokenData) {
	l.mu.Lock()
	l.token = tokens
	l.pending = nil
	l.mu.Unlock()
	l.metrics.SetTokenExpiry(tokens.Expires)

	if err := l.store.SaveTokens(ctx, tokens); err != nil {
		l.logger.Error("failed to persist tokens", "error", err)
	}
	if l.notifier != nil {
		if err := l.notifier.RemoveNotices(ctx); err != nil {
			l.logger.Warn("failed to remove notices", "error", err)
		}
	}
}

func (l *Lifecycle) notify(ctx context.Context, key, message string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.AddNotice(ctx, key, message); err != nil {
		l.logger.Warn("failed to add notice", "key", key, "error", err)
	}
}

// RequestPin obtains a PIN and authorization code and raises a notice
// telling the user where to enter the PIN.
func (l *Lifecycle) RequestPin(ctx context.Context) (*AuthorizationRequest, error) {
	clientID, err := l.clientID()
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Authorize(ctx, clientID, l.scope)
	if err != nil {
		return nil, fmt.Errorf("failed to request PIN: %w", err)
	}

	req := &AuthorizationRequest{
		ID:        idgen.NewPinSession(),
		PIN:       resp.EcobeePin,
		Code:      resp.Code,
		Scope:     resp.Scope,
		IssuedAt:  l.clock.Now(),
		ExpiresIn: time.Duration(resp.ExpiresIn) * time.Minute,
		Interval:  time.Duration(resp.Interval) * time.Second,
	}
	if req.ExpiresIn <= 0 {
		req.ExpiresIn = l.pinWindow
	}

	l.mu.Lock()
	l.pending = req
	l.mu.Unlock()

	l.logger.Info("PIN issued",
		"pin_session", req.ID,
		"pin", req.PIN,
		"expires_in", req.ExpiresIn)

	// A new PIN supersedes earlier PIN and re-authorization notices
	if l.notifier != nil {
		if err := l.notifier.RemoveNotices(ctx); err != nil {
			l.logger.Warn("failed to remove notices", "error", err)
		}
	}
	l.notify(ctx, NoticePin, fmt.Sprintf(
		"Log in at https://www.ecobee.com, open Profile > My Apps > Add Application and enter PIN: %s. "+
			"You have %d minutes to complete this. Approval is checked every %d seconds.",
		req.PIN, int(req.ExpiresIn.Minutes()), int(l.pinPollInterval.Seconds())))

	return req, nil
}

// ExchangePin trades an approved authorization code for tokens. It returns
// ErrAuthorizationPending while the user has not yet approved the PIN.
func (l *Lifecycle) ExchangePin(ctx context.Context, req *AuthorizationRequest) (*TokenData, error) {
	clientID, err := l.clientID()
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Token(ctx, url.Values{
		"grant_type": {"ecobeePin"},
		"client_id":  {clientID},
		"code":       {req.Code},
	})
	if err != nil {
		if vendorErr, ok := ecobee.AsVendorError(err); ok && vendorErr.Pending() {
			return nil, ErrAuthorizationPending
		}
		return nil, fmt.Errorf("failed to exchange PIN: %w", err)
	}

	tokens := NewTokenData(resp, l.clock.Now())
	l.save(ctx, tokens)
	l.logger.Info("PIN approved, tokens saved", "pin_session", req.ID, "expires", tokens.Expires)
	return tokens, nil
}

// WaitForApproval polls ExchangePin until the user approves the PIN. The
// number of attempts is bounded by the approval window divided by the poll
// interval. Pending and transport failures keep polling; a vendor
// rejection ends the wait.
func (l *Lifecycle) WaitForApproval(ctx context.Context, req *AuthorizationRequest) (*TokenData, error) {
	window := req.ExpiresIn
	if window <= 0 {
		window = l.pinWindow
	}
	attempts := int((window + l.pinPollInterval - 1) / l.pinPollInterval)
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-l.clock.After(l.pinPollInterval):
		}

		tokens, err := l.ExchangePin(ctx, req)
		if err == nil {
			return tokens, nil
		}

		switch {
		case errors.Is(err, ErrAuthorizationPending):
			l.logger.Debug("PIN not yet approved", "pin_session", req.ID, "attempt", attempt, "attempts", attempts)
		case ecobee.IsTransport(err), ecobee.IsMalformed(err):
			l.logger.Warn("PIN exchange failed, will retry", "pin_session", req.ID, "attempt", attempt, "error", err)
		default:
			l.clearPending(req)
			return nil, err
		}
	}

	l.clearPending(req)
	l.logger.Warn("PIN approval window elapsed", "pin_session", req.ID)
	return nil, ErrPinExpired
}

// Authorize runs the whole PIN flow: request, notify, wait for approval
func (l *Lifecycle) Authorize(ctx context.Context) (*TokenData, error) {
	req, err := l.RequestPin(ctx)
	if err != nil {
		return nil, err
	}
	return l.WaitForApproval(ctx, req)
}

func (l *Lifecycle) clearPending(req *AuthorizationRequest) {
	l.mu.Lock()
	if l.pending != nil && l.pending.ID == req.ID {
		l.pending = nil
	}
	l.mu.Unlock()
}

func (l *Lifecycle) clientID() (string, error) {
	clientID, err := l.credentials.ClientID()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	if clientID == "" {
		return "", ErrNoCredentials
	}
	return clientID, nil
}
