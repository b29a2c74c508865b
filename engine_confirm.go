package goStepUp

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/MrEthical07/goStepUp/rule"
	"github.com/MrEthical07/goStepUp/session"
	"github.com/MrEthical07/goStepUp/verify"
)

// RedirectKey is the form field carrying the page to return to after a
// non-AJAX confirmation.
const RedirectKey = "tfa_redirect"

// Prompt returns the verification popup for rule ruleID. The response has
// Skip set when the user's handler needs no input, and Content holding the
// setup popup when a required rule has no usable handler.
func (e *Engine) Prompt(ctx context.Context, req Request, p Principal, ruleID int64) (*Response, error) {
	ctx = requestContext(ctx, req)
	r, ok, err := e.activeRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Response{Error: msgUnknownAction}, nil
	}
	if p.guest() {
		return &Response{Error: msgLoginRequired}, nil
	}

	h, err := e.ResolveHandler(ctx, r, p.UserID)
	if errors.Is(err, ErrRequiresSetup) {
		e.metricInc(MetricEvaluateSetupRequired)
		return &Response{Content: r.VerificationRequiredPopup(e.config.Rules.SettingsURL)}, nil
	}
	if err != nil {
		return nil, err
	}
	if h == nil || h.ID() == noneHandlerID {
		return &Response{Skip: true}, nil
	}

	data := e.promptData(r)
	if redirect := req.Value(RedirectKey); redirect != "" {
		data["redirect"] = redirect
	}
	prompt, err := h.Prompt(ctx, p.UserID, data)
	if err != nil {
		return failure(err)
	}
	e.metricInc(MetricEvaluateChallenge)
	e.emitAudit(ctx, auditEventChallengeIssued, true, p.UserID, r.ID, h.ID(), nil, nil)
	return &Response{Content: prompt.Body, Popup: prompt, Timeout: promptTimeout(prompt)}, nil
}

// Confirm verifies in with the user's handler for rule ruleID and, on
// success, issues a proof token. AJAX callers receive the token and the
// rule's optional "ok" popup; other callers receive a cookie and a redirect.
func (e *Engine) Confirm(ctx context.Context, req Request, p Principal, ruleID int64, in verify.Input) (*Response, error) {
	ctx = requestContext(ctx, req)
	r, ok, err := e.activeRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Response{Error: msgUnknownAction}, nil
	}
	if p.guest() {
		return &Response{Error: msgLoginRequired}, nil
	}
	if req.SessionID == "" {
		return nil, session.ErrNoSession
	}

	h, err := e.ResolveHandler(ctx, r, p.UserID)
	if err != nil {
		return failure(err)
	}
	if h == nil {
		return &Response{Skip: true}, nil
	}

	if err := h.Verify(ctx, p.UserID, in); err != nil {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerifyFailure, false, p.UserID, r.ID, h.ID(), err, nil)
		resp, ferr := failure(err)
		if ferr != nil {
			return nil, ferr
		}
		if !req.AJAX {
			data := e.promptData(r)
			data["redirect"] = req.Value(RedirectKey)
			if prompt, perr := h.Prompt(ctx, p.UserID, data); perr == nil {
				resp.Popup = prompt
				resp.Content = verificationPage(prompt.Body, resp.Error)
			}
		}
		return resp, nil
	}

	e.metricInc(MetricVerifySuccess)
	e.emitAudit(ctx, auditEventVerifySuccess, true, p.UserID, r.ID, h.ID(), nil, nil)
	return e.verificationSuccess(ctx, req, r)
}

func (e *Engine) verificationSuccess(ctx context.Context, req Request, r *rule.AccessRule) (*Response, error) {
	ttl := r.TokenTTL()
	token, err := e.tokens.Issue(ctx, req.SessionID, r.TokenType(), ttl)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricProofTokenIssued)

	resp := &Response{Success: true, Token: token}
	if req.AJAX {
		if tpl := r.Template(rule.TemplateOK); tpl != "" {
			resp.Popup = &verify.Prompt{
				Template: rule.TemplateOK,
				Body:     rule.Render(tpl, ruleValues(r)),
			}
		}
		return resp, nil
	}

	resp.Cookie = &Cookie{
		Name:    TokenKey + strconv.FormatInt(r.ID, 10),
		Value:   token,
		Path:    e.config.Rules.CookiePath,
		Expires: e.now().Add(ttl),
	}
	resp.Redirect = successRedirect(req, r)
	return resp, nil
}

// successRedirect picks the rule's success URL, then the submitted
// tfa_redirect, then the referer, then "/". Only same-site targets are
// accepted.
func successRedirect(req Request, r *rule.AccessRule) string {
	for _, target := range []string{r.Config.SuccessURL, req.Value(RedirectKey)} {
		if local := localRedirect(target); local != "" {
			return local
		}
	}
	if req.Referer != "" {
		if u, err := url.Parse(req.Referer); err == nil && u.Path != "" {
			if local := localRedirect(u.RequestURI()); local != "" {
				return local
			}
		}
	}
	return "/"
}

func localRedirect(target string) string {
	target = strings.TrimSpace(target)
	if target == "" || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return ""
	}
	return target
}

// failure folds a verification failure into a response. Errors outside the
// verification taxonomy are returned unchanged.
func failure(err error) (*Response, error) {
	msg, ok := verify.Message(err)
	if !ok {
		return nil, err
	}
	resp := &Response{Error: msg}
	var verr *verify.Error
	if errors.As(err, &verr) && verr.Wait > 0 {
		resp.Timeout = waitSeconds(verr.Wait)
	}
	return resp, nil
}

func promptTimeout(p *verify.Prompt) int64 {
	if p == nil {
		return 0
	}
	n, _ := strconv.ParseInt(p.Data["timeout"], 10, 64)
	return n
}
