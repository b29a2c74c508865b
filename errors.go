package goStepUp

import (
	"errors"

	"github.com/MrEthical07/goStepUp/verify"
)

// Verification outcomes. Engine methods fold these into [Response] values;
// they surface as Go errors only from the lower level helpers.
var (
	ErrConfiguration       = verify.ErrConfiguration
	ErrInvalidCredentials  = verify.ErrInvalidCredentials
	ErrExpired             = verify.ErrExpired
	ErrRequiresSetup       = verify.ErrRequiresSetup
	ErrSecurityCheckFailed = verify.ErrSecurityCheckFailed
	ErrRateLimited         = verify.ErrRateLimited
	ErrInvalidRequest      = verify.ErrInvalidRequest
	ErrHandlerNotFound     = verify.ErrHandlerNotFound
)

var (
	// ErrRuleNotFound is returned by rule stores for unknown ids.
	ErrRuleNotFound = errors.New("access rule not found")
	// ErrUserNotFound is returned by user stores for unknown ids.
	ErrUserNotFound = errors.New("user not found")
	// ErrEngineNotReady is returned when a required collaborator is missing.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Messages shown to end users.
const (
	msgLoginRequired       = "Please log in"
	msgUnknownAction       = "Unknown action"
	msgSecurityCheckFailed = "Security check failed."
	msgInvalidRequest      = "Invalid request. Please reload the page and try again."
	msgGatewayMissing      = "SMS gateway is not configured. SMS messages won't be sent."
	msgConfirmNumberFirst  = "Please confirm your number first"
	msgInvalidPhone        = "Please enter valid phone number"
	msgUserNotFound        = "User not found"
	msgInvalidNumber       = "Invalid phone number"
)
