package goStepUp

import (
	"context"
)

const totpHandlerID = "gau"

// TOTPSetup is a freshly provisioned authenticator secret.
type TOTPSetup struct {
	SecretBase32 string `json:"secret"`
	// QRCodeURL is the otpauth:// key URI.
	QRCodeURL string `json:"qr_url"`
}

// ProvisionTOTP stores a new authenticator secret for p, replacing any
// previous one, and returns it with the activation prompt. The handler stays
// off until [Engine.ActivateTOTP] succeeds.
func (e *Engine) ProvisionTOTP(ctx context.Context, p Principal) (*Response, error) {
	if p.guest() {
		return &Response{Error: msgLoginRequired}, nil
	}
	prompt, err := e.totp.ActivatePrompt(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	e.emitAudit(ctx, auditEventChallengeIssued, true, p.UserID, 0, totpHandlerID, nil, func() map[string]string {
		return map[string]string{"step": "provision"}
	})
	return &Response{
		Popup:   prompt,
		Content: prompt.Body,
		Data: TOTPSetup{
			SecretBase32: prompt.Data["secret"],
			QRCodeURL:    prompt.Data["qr_url"],
		},
	}, nil
}

// ActivateTOTP checks code against the provisioned secret and switches
// authenticator verification on.
func (e *Engine) ActivateTOTP(ctx context.Context, p Principal, code string) (*Response, error) {
	if p.guest() {
		return &Response{Error: msgLoginRequired}, nil
	}
	prompt, err := e.totp.Activate(ctx, p.UserID, map[string]string{"code": code})
	if err != nil {
		return e.activationFailed(ctx, p.UserID, totpHandlerID, err)
	}
	e.metricInc(MetricHandlerActivated)
	e.emitAudit(ctx, auditEventHandlerActivated, true, p.UserID, 0, totpHandlerID, nil, nil)
	return &Response{Success: true, Popup: prompt, Content: prompt.Body}, nil
}

// DeactivateTOTP switches authenticator verification off and forgets the
// secret.
func (e *Engine) DeactivateTOTP(ctx context.Context, p Principal) (*Response, error) {
	return e.DeactivateHandler(ctx, p, totpHandlerID)
}
