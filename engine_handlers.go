package goStepUp

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"

	"github.com/MrEthical07/goStepUp/rule"
	"github.com/MrEthical07/goStepUp/verify"
)

const (
	noneHandlerID     = "non"
	passwordHandlerID = "pwd"
)

var handlerIDPattern = regexp.MustCompile(`^\w+$`)

// HandlerPopup returns the activation popup of handlerID, or its
// deactivation popup when enable is false.
func (e *Engine) HandlerPopup(ctx context.Context, p Principal, handlerID string, enable bool) (*Response, error) {
	if p.guest() {
		return &Response{Error: msgLoginRequired}, nil
	}
	h, resp := e.switchableHandler(handlerID)
	if resp != nil {
		return resp, nil
	}
	enabled, err := e.registry.Enabled(ctx, p.UserID, h.ID())
	if err != nil {
		return nil, err
	}

	var prompt *verify.Prompt
	if enable {
		if enabled {
			return &Response{Error: "Already activated"}, nil
		}
		act, ok := h.(verify.Activator)
		if !ok {
			return failure(verify.ErrNotSwitchable)
		}
		prompt, err = act.ActivatePrompt(ctx, p.UserID)
	} else {
		if !enabled {
			return &Response{Error: "Already deactivated"}, nil
		}
		deact, ok := h.(verify.Deactivator)
		if !ok {
			return failure(verify.ErrNotSwitchable)
		}
		prompt, err = deact.DeactivatePrompt(ctx, p.UserID)
	}
	if err != nil {
		return failure(err)
	}
	return &Response{Content: prompt.Body, Popup: prompt, Timeout: promptTimeout(prompt)}, nil
}

// ActivateHandler submits the activation form of any switchable handler.
func (e *Engine) ActivateHandler(ctx context.Context, req Request, p Principal, handlerID string, in verify.Input) (*Response, error) {
	ctx = requestContext(ctx, req)
	if p.guest() {
		return &Response{Error: msgLoginRequired}, nil
	}
	h, resp := e.switchableHandler(handlerID)
	if resp != nil {
		return resp, nil
	}
	act, ok := h.(verify.Activator)
	if !ok {
		return failure(verify.ErrNotSwitchable)
	}
	prompt, err := act.Activate(ctx, p.UserID, in)
	if err != nil {
		return e.activationFailed(ctx, p.UserID, h.ID(), err)
	}
	e.metricInc(MetricHandlerActivated)
	e.emitAudit(ctx, auditEventHandlerActivated, true, p.UserID, 0, h.ID(), nil, nil)
	return &Response{Success: true, Popup: prompt, Content: prompt.Body}, nil
}

// DeactivateHandler switches handlerID off for p.
func (e *Engine) DeactivateHandler(ctx context.Context, p Principal, handlerID string) (*Response, error) {
	if p.guest() {
		return &Response{Error: msgLoginRequired}, nil
	}
	h, resp := e.switchableHandler(handlerID)
	if resp != nil {
		return resp, nil
	}
	deact, ok := h.(verify.Deactivator)
	if !ok {
		return failure(verify.ErrNotSwitchable)
	}
	if err := deact.Deactivate(ctx, p.UserID); err != nil {
		return failure(err)
	}
	e.metricInc(MetricHandlerDeactivated)
	e.emitAudit(ctx, auditEventHandlerDisabled, true, p.UserID, 0, h.ID(), nil, nil)
	return &Response{Success: true}, nil
}

func (e *Engine) switchableHandler(id string) (verify.Handler, *Response) {
	if !handlerIDPattern.MatchString(id) {
		return nil, &Response{Error: "Invalid handler ID"}
	}
	h, err := e.registry.Get(id)
	if err != nil {
		return nil, &Response{Error: "Verification handler not initialized"}
	}
	if !h.Switchable() {
		return nil, &Response{Error: verify.ErrNotSwitchable.Error()}
	}
	return h, nil
}

func (e *Engine) activationFailed(ctx context.Context, userID, handlerID string, err error) (*Response, error) {
	e.metricInc(MetricVerifyFailure)
	if errors.Is(err, verify.ErrRateLimited) {
		e.emitRateLimit(ctx, "user_attempt", userID, err)
	} else {
		e.emitAudit(ctx, auditEventVerifyFailure, false, userID, 0, handlerID, err, nil)
	}
	return failure(err)
}

// UserHandlers lists every registered handler with whether p can verify
// with it.
func (e *Engine) UserHandlers(ctx context.Context, p Principal) ([]HandlerInfo, error) {
	if p.guest() {
		return nil, nil
	}
	usable, err := e.registry.UserHandlers(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	on := make(map[string]bool, len(usable))
	for _, h := range usable {
		on[h.ID()] = true
	}

	all := e.registry.List()
	out := make([]HandlerInfo, 0, len(all))
	for _, h := range all {
		out = append(out, HandlerInfo{
			ID:         h.ID(),
			Name:       h.Name(),
			Switchable: h.Switchable(),
			Enabled:    on[h.ID()],
		})
	}
	return out, nil
}

// UserSettingsAllowed reports whether users may pick handlers per rule:
// the option is on and at least one active rule is editable.
func (e *Engine) UserSettingsAllowed(ctx context.Context) (bool, error) {
	if !e.config.Rules.AllowUserSettings {
		return false, nil
	}
	rules, err := e.listRules(ctx, rule.Filter{Status: rule.StatusActive, EditableOnly: true})
	if err != nil {
		return false, err
	}
	return len(rules) > 0, nil
}

// SetRulePreference stores handlerID as p's choice for editable rule ruleID.
func (e *Engine) SetRulePreference(ctx context.Context, p Principal, ruleID int64, handlerID string) (*Response, error) {
	if p.guest() {
		return &Response{Error: msgLoginRequired}, nil
	}
	allowed, err := e.UserSettingsAllowed(ctx)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return &Response{Error: "User settings are disabled"}, nil
	}
	r, ok, err := e.activeRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if !ok || !r.IsEditable {
		return &Response{Error: msgUnknownAction}, nil
	}

	usable, err := e.registry.UserHandlers(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, h := range usable {
		if h.ID() == handlerID && r.AllowsHandler(handlerID) {
			found = true
			break
		}
	}
	if !found {
		return &Response{Error: "Verification method is not available for this action"}, nil
	}

	prefs, err := e.rulePreferences(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	prefs[strconv.FormatInt(r.ID, 10)] = handlerID
	raw, err := json.Marshal(prefs)
	if err != nil {
		return nil, err
	}
	if err := e.users.SetAttribute(ctx, p.UserID, verify.AttrRuleSettings, string(raw)); err != nil {
		return nil, err
	}
	return &Response{Success: true}, nil
}

// SetVerificationBypass turns the administrator bypass flag on or off for
// userID. Flagged users pass every rule without verification.
func (e *Engine) SetVerificationBypass(ctx context.Context, userID string, on bool) error {
	value := "0"
	if on {
		value = "1"
	}
	if err := e.users.SetAttribute(ctx, userID, verify.AttrDisableVerify, value); err != nil {
		return err
	}
	e.emitAudit(ctx, auditEventBypassChanged, true, userID, 0, "", nil, func() map[string]string {
		return map[string]string{"bypass": value}
	})
	return nil
}
