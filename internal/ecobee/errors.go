package ecobee

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error classes. Check them with IsTransport and IsMalformed; the marks are
// only visible through github.com/cockroachdb/errors.
var (
	ErrTransport = errors.New("ecobee transport failure")
	ErrMalformed = errors.New("ecobee malformed response")
)

// Vendor error codes returned by the token endpoint
const (
	CodeAuthorizationPending = "authorization_pending"
	CodeSlowDown             = "slow_down"
	CodeInvalidGrant         = "invalid_grant"
)

// VendorError is an authoritative error reported by the API, either as an
// OAuth error body or as a non-zero status code on a data endpoint.
type VendorError struct {
	Code        string
	Description string
	HTTPStatus  int
}

func (e *VendorError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("ecobee error %s (http %d)", e.Code, e.HTTPStatus)
	}
	return fmt.Sprintf("ecobee error %s: %s (http %d)", e.Code, e.Description, e.HTTPStatus)
}

// Pending reports whether the vendor is still waiting for the user to
// approve a PIN.
func (e *VendorError) Pending() bool {
	return e.Code == CodeAuthorizationPending || e.Code == CodeSlowDown
}

func transportError(err error, op string) error {
	return errors.Mark(errors.Wrapf(err, "%s", op), ErrTransport)
}

func malformedError(err error, op string) error {
	if err == nil {
		return errors.Mark(errors.Newf("%s: malformed response", op), ErrMalformed)
	}
	return errors.Mark(errors.Wrapf(err, "%s: malformed response", op), ErrMalformed)
}

func missingField(op, field string) error {
	return errors.Mark(errors.Newf("%s: response missing %q", op, field), ErrMalformed)
}

// IsTransport reports whether err is a connection-level failure
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsMalformed reports whether err is an unparsable or incomplete response
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}

// AsVendorError extracts the vendor error from err, if any
func AsVendorError(err error) (*VendorError, bool) {
	var vendorErr *VendorError
	if errors.As(err, &vendorErr) {
		return vendorErr, true
	}
	return nil, false
}
