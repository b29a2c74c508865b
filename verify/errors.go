package verify

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConfiguration means a handler or the SMS gateway is not set up.
	ErrConfiguration = errors.New("verification is not configured")
	// ErrInvalidCredentials covers wrong codes and passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrExpired means the submitted code matched after its deadline.
	ErrExpired = errors.New("credentials expired")
	// ErrRequiresSetup means a required rule has no usable handler for the user.
	ErrRequiresSetup = errors.New("verification setup required")
	// ErrSecurityCheckFailed means a proof token was missing, invalid or expired.
	ErrSecurityCheckFailed = errors.New("security check failed")
	// ErrRateLimited means the throttle ledger reported a wait.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidRequest means required input was missing or malformed.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDelivery means the SMS gateway rejected a message.
	ErrDelivery = errors.New("sms delivery failed")

	ErrHandlerNotFound  = errors.New("verification handler not found")
	ErrDuplicateHandler = errors.New("verification handler already registered")
	ErrNotSwitchable    = errors.New("verification handler cannot be switched")
)

// Error is a taxonomy error carrying the text shown to the end user.
type Error struct {
	Kind    error
	Message string
	// Wait is set for rate limited outcomes.
	Wait time.Duration
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

// Fail returns an [Error] of kind with a user facing message.
func Fail(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Blocked returns a rate limited [Error] reporting wait.
func Blocked(format string, wait time.Duration) *Error {
	return &Error{
		Kind:    ErrRateLimited,
		Message: fmt.Sprintf(format, HumanDuration(wait)),
		Wait:    wait,
	}
}

// Message returns the user facing text of err and whether err belongs to
// the taxonomy. Backend failures report false.
func Message(err error) (string, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Error(), true
	}
	for _, kind := range []error{
		ErrConfiguration,
		ErrInvalidCredentials,
		ErrExpired,
		ErrRequiresSetup,
		ErrSecurityCheckFailed,
		ErrRateLimited,
		ErrInvalidRequest,
		ErrDelivery,
		ErrHandlerNotFound,
		ErrNotSwitchable,
	} {
		if errors.Is(err, kind) {
			return err.Error(), true
		}
	}
	return "", false
}

// HumanDuration formats d the way wait notices show it, e.g. "2 mins".
func HumanDuration(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	switch {
	case secs < 60:
		if secs <= 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	case secs < 3600:
		return plural((secs+30)/60, "min")
	default:
		return plural((secs+1800)/3600, "hour")
	}
}

func plural(n int64, unit string) string {
	if n <= 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
