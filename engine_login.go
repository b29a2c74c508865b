package goStepUp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goStepUp/internal/stores"
	"github.com/MrEthical07/goStepUp/rule"
	"github.com/MrEthical07/goStepUp/session"
	"github.com/MrEthical07/goStepUp/verify"
	"github.com/sirupsen/logrus"
)

const (
	msgEnterLogin        = "Enter login and password"
	msgBadLogin          = "Invalid login or password"
	msgLoginMisconfigure = "Configuration error. Please contact administrator"
	loginIntro           = "Please confirm login"
	msgLoginBlocked      = "Too many failed logins. Please wait %s"
)

// authenticate resolves a login form to a user id. A non-nil response
// carries the message for the caller. Wrong passwords count against the
// login name and client IP.
func (e *Engine) authenticate(ctx context.Context, login, password string) (string, *Response, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return "", &Response{Error: msgEnterLogin}, nil
	}
	ip := clientIPFromContext(ctx)
	wait, err := e.logins.Check(ctx, login, ip)
	if err != nil {
		return "", nil, err
	}
	if wait > 0 {
		return e.loginBlocked(ctx, wait)
	}

	userID, err := e.users.Authenticate(ctx, login, password)
	switch {
	case errors.Is(err, verify.ErrInvalidCredentials):
		wait, ferr := e.logins.Fail(ctx, login, ip)
		if ferr != nil {
			return "", nil, ferr
		}
		if wait > 0 {
			return e.loginBlocked(ctx, wait)
		}
		if msg, ok := verify.Message(err); ok && msg != verify.ErrInvalidCredentials.Error() {
			return "", &Response{Error: msg}, nil
		}
		return "", &Response{Error: msgBadLogin}, nil
	case err != nil:
		return "", nil, err
	case userID == "":
		return "", &Response{Error: msgEnterLogin}, nil
	}
	e.softFail(e.logins.Reset(ctx, login), "resetting login failures failed", logrus.Fields{"user_id": userID})
	return userID, nil, nil
}

func (e *Engine) loginBlocked(ctx context.Context, wait time.Duration) (string, *Response, error) {
	err := verify.Blocked(msgLoginBlocked, wait)
	e.emitRateLimit(ctx, "login", "", err)
	resp, ferr := failure(err)
	return "", resp, ferr
}

// loginHandler picks the handler confirming userID's logins: the stored
// choice when it is still usable, else the first usable handler. Password
// never counts as a second factor, and "no verification" is refused when
// login verification is required. A nil handler means the user has none.
func (e *Engine) loginHandler(ctx context.Context, userID string) (verify.Handler, error) {
	invalid := map[string]bool{passwordHandlerID: true}
	if e.config.Login.Required {
		invalid[noneHandlerID] = true
	}

	stored, err := e.users.Attribute(ctx, userID, verify.AttrLoginMethod)
	if err != nil {
		return nil, err
	}
	handlers, err := e.registry.UserHandlers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stored != "" && !invalid[stored] {
		for _, h := range handlers {
			if h.ID() == stored {
				return h, nil
			}
		}
	}
	for _, h := range handlers {
		if !invalid[h.ID()] {
			return h, nil
		}
	}
	return nil, nil
}

func skipsLogin(h verify.Handler) bool {
	return h == nil || h.ID() == noneHandlerID
}

// LoginPrompt checks a login form and returns the second factor challenge.
// Skip is set when the user logs in without one. When login verification
// is required and the user has no handler, Content holds the setup popup.
func (e *Engine) LoginPrompt(ctx context.Context, req Request, login, password string) (*Response, error) {
	ctx = requestContext(ctx, req)
	userID, resp, err := e.authenticate(ctx, login, password)
	if resp != nil || err != nil {
		return resp, err
	}

	h, err := e.loginHandler(ctx, userID)
	if err != nil {
		return nil, err
	}
	if skipsLogin(h) {
		if h == nil && e.config.Login.Required {
			e.metricInc(MetricEvaluateSetupRequired)
			return &Response{Content: e.loginSetupPopup()}, nil
		}
		return &Response{Skip: true}, nil
	}

	prompt, err := h.Prompt(ctx, userID, map[string]string{
		"intro":      loginIntro,
		"type_id":    h.ID(),
		"type_title": h.Name(),
		"mode":       "login",
		"log":        strings.TrimSpace(login),
	})
	if err != nil {
		return failure(err)
	}
	e.metricInc(MetricEvaluateChallenge)
	e.emitAudit(ctx, auditEventChallengeIssued, true, userID, 0, h.ID(), nil, func() map[string]string {
		return map[string]string{"flow": "login"}
	})
	return &Response{Content: prompt.Body, Popup: prompt, Timeout: promptTimeout(prompt)}, nil
}

func (e *Engine) loginSetupPopup() string {
	return rule.Render(rule.DefaultTemplate(rule.Template2FA), map[string]string{
		"action_title": "login",
		"settings_url": e.config.Rules.SettingsURL,
	})
}

// LoginConfirm verifies the second factor of a login and issues the login
// token the login form must carry.
func (e *Engine) LoginConfirm(ctx context.Context, req Request, login, password string, in verify.Input) (*Response, error) {
	ctx = requestContext(ctx, req)
	if req.SessionID == "" {
		return nil, session.ErrNoSession
	}
	userID, resp, err := e.authenticate(ctx, login, password)
	if resp != nil || err != nil {
		return resp, err
	}

	h, err := e.loginHandler(ctx, userID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return &Response{Error: msgLoginMisconfigure}, nil
	}
	if err := h.Verify(ctx, userID, in); err != nil {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerifyFailure, false, userID, 0, h.ID(), err, func() map[string]string {
			return map[string]string{"flow": "login"}
		})
		return failure(err)
	}

	token, err := e.tokens.Issue(ctx, req.SessionID, LoginTokenType, e.config.Login.TokenTTL)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricProofTokenIssued)
	e.metricInc(MetricLoginVerified)
	e.emitAudit(ctx, auditEventLoginVerified, true, userID, 0, h.ID(), nil, nil)
	return &Response{Success: true, Token: token}, nil
}

// CheckLogin runs after the password check of a login form. It returns nil
// when userID needs no second factor or the form carries a valid login
// token. It returns ErrRequiresSetup when login verification is required
// and userID has no usable handler, and ErrSecurityCheckFailed otherwise.
func (e *Engine) CheckLogin(ctx context.Context, req Request, userID string) error {
	ctx = requestContext(ctx, req)
	h, err := e.loginHandler(ctx, userID)
	if err != nil {
		return err
	}
	if h == nil && e.config.Login.Required {
		e.metricInc(MetricEvaluateSetupRequired)
		e.emitAudit(ctx, auditEventTokenRejected, false, userID, 0, "", verify.ErrRequiresSetup, func() map[string]string {
			return map[string]string{"flow": "login"}
		})
		return verify.Fail(ErrRequiresSetup, msgLoginMisconfigure)
	}
	if skipsLogin(h) {
		return nil
	}

	token := req.Form.Get(LoginTokenKey)
	if token == "" {
		e.metricInc(MetricProofTokenRejected)
		return verify.Fail(ErrSecurityCheckFailed, msgSecurityCheckFailed)
	}
	err = e.tokens.Check(ctx, req.SessionID, token, LoginTokenType)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stores.ErrProofTokenBackend):
		return err
	}
	e.metricInc(MetricProofTokenRejected)
	e.emitAudit(ctx, auditEventTokenRejected, false, userID, 0, h.ID(), err, func() map[string]string {
		return map[string]string{"flow": "login"}
	})
	return verify.Fail(ErrSecurityCheckFailed, msgSecurityCheckFailed)
}

// LoginMethod returns the id of the handler confirming p's logins, or "".
func (e *Engine) LoginMethod(ctx context.Context, p Principal) (string, error) {
	if p.guest() {
		return "", nil
	}
	h, err := e.loginHandler(ctx, p.UserID)
	if err != nil || h == nil {
		return "", err
	}
	return h.ID(), nil
}

// SetLoginMethod stores the handler p confirms logins with.
func (e *Engine) SetLoginMethod(ctx context.Context, p Principal, handlerID string) (*Response, error) {
	if p.guest() {
		return &Response{Error: msgLoginRequired}, nil
	}
	if !handlerIDPattern.MatchString(handlerID) {
		return &Response{Error: "Invalid handler ID"}, nil
	}
	if handlerID == passwordHandlerID ||
		(e.config.Login.Required && handlerID == noneHandlerID) {
		return &Response{Error: "This verification method cannot be used for login"}, nil
	}
	ok, err := e.registry.Enabled(ctx, p.UserID, handlerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Response{Error: "Verification method is not available"}, nil
	}
	if err := e.users.SetAttribute(ctx, p.UserID, verify.AttrLoginMethod, handlerID); err != nil {
		return nil, err
	}
	return &Response{Success: true}, nil
}
