package goStepUp

import (
	"context"
	"errors"

	internalaudit "github.com/MrEthical07/goStepUp/internal/audit"
	"github.com/MrEthical07/goStepUp/internal/rate"
	"github.com/MrEthical07/goStepUp/internal/stores"
	"github.com/MrEthical07/goStepUp/internal/throttle"
	"github.com/MrEthical07/goStepUp/session"
	"github.com/MrEthical07/goStepUp/verify"
)

const (
	auditEventChallengeIssued   = "challenge_issued"
	auditEventVerifySuccess     = "verify_success"
	auditEventVerifyFailure     = "verify_failure"
	auditEventTokenRejected     = "token_rejected"
	auditEventSMSSent           = "sms_sent"
	auditEventSMSFailed         = "sms_failed"
	auditEventSMSBlocked        = "sms_blocked"
	auditEventRateLimited       = "rate_limited"
	auditEventNumberConfirmed   = "number_confirmed"
	auditEventHandlerActivated  = "handler_activated"
	auditEventHandlerDisabled   = "handler_deactivated"
	auditEventLoginVerified     = "login_verified"
	auditEventRuleStatusChanged = "rule_status_changed"
	auditEventBypassChanged     = "verification_bypass_changed"
)

// auditClass sets how each event fares when the audit buffer is full.
func auditClass(eventType string) internalaudit.Class {
	switch eventType {
	case auditEventRateLimited, auditEventSMSBlocked:
		return internalaudit.ClassNoisy
	case auditEventVerifyFailure, auditEventVerifySuccess, auditEventTokenRejected,
		auditEventLoginVerified, auditEventNumberConfirmed, auditEventHandlerActivated,
		auditEventHandlerDisabled, auditEventRuleStatusChanged, auditEventBypassChanged:
		return internalaudit.ClassSecurity
	default:
		return internalaudit.ClassRoutine
	}
}

// AuditErrorCode is the machine-readable failure reason on audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrExpired            AuditErrorCode = "expired"
	auditErrRequiresSetup      AuditErrorCode = "requires_setup"
	auditErrSecurityCheck      AuditErrorCode = "security_check_failed"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrInvalidRequest     AuditErrorCode = "invalid_request"
	auditErrConfiguration      AuditErrorCode = "configuration"
	auditErrDelivery           AuditErrorCode = "delivery_failed"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	ruleID int64,
	handler string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: session.IDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		RuleID:    ruleID,
		Handler:   handler,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}
	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope, userID string, err error) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimited, false, userID, 0, "", err, func() map[string]string {
		return map[string]string{"scope": scope}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, verify.ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, verify.ErrExpired):
		return auditErrExpired
	case errors.Is(err, verify.ErrRequiresSetup):
		return auditErrRequiresSetup
	case errors.Is(err, verify.ErrSecurityCheckFailed):
		return auditErrSecurityCheck
	case errors.Is(err, verify.ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, verify.ErrInvalidRequest):
		return auditErrInvalidRequest
	case errors.Is(err, verify.ErrConfiguration):
		return auditErrConfiguration
	case errors.Is(err, verify.ErrDelivery):
		return auditErrDelivery
	case errors.Is(err, stores.ErrProofTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, stores.ErrProofTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, stores.ErrProofTokenBackend),
		errors.Is(err, session.ErrRedisUnavailable),
		errors.Is(err, throttle.ErrRedisUnavailable),
		errors.Is(err, rate.ErrRedisUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
