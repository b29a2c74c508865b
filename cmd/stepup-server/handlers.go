package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	goStepUp "github.com/MrEthical07/goStepUp"
	"github.com/MrEthical07/goStepUp/middleware"
	"github.com/MrEthical07/goStepUp/rule"
	"github.com/MrEthical07/goStepUp/session"
	"github.com/MrEthical07/goStepUp/verify"
)

const (
	msgUnavailable   = "Service temporarily unavailable"
	msgTooMany       = "Too many requests. Please try again later"
	msgBadLogin      = "Invalid login or password"
	msgCheckFailed   = "Security check failed"
	msgSetupRequired = "Second factor setup is required"
	msgNoSession     = "Session is required"
	msgInvalidInput  = "Invalid request"
)

func principal(c *gin.Context) goStepUp.Principal {
	return middleware.PrincipalFromContext(c.Request.Context())
}

func ruleParam(c *gin.Context) int64 {
	id, err := strconv.ParseInt(c.Param("rule"), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// formInput collects single-valued form fields for a handler.
func formInput(req goStepUp.Request) verify.Input {
	in := make(verify.Input, len(req.Form))
	for key := range req.Form {
		in[key] = req.Form.Get(key)
	}
	return in
}

// request converts the gin request, answering 400 when its form cannot be
// read.
func (a *app) request(c *gin.Context) (goStepUp.Request, bool) {
	req, err := middleware.Request(c.Request)
	if err != nil {
		a.log.WithError(err).WithField("path", c.Request.URL.Path).Debug("unreadable form")
		c.JSON(http.StatusBadRequest, goStepUp.Response{Error: msgInvalidInput})
		return goStepUp.Request{}, false
	}
	return req, true
}

// respond writes an engine response. Page requests follow redirects and get
// rendered content, AJAX requests always get JSON.
func (a *app) respond(c *gin.Context, req goStepUp.Request, resp *goStepUp.Response, err error) {
	if err != nil {
		a.fail(c, err)
		return
	}
	if resp.Cookie != nil {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     resp.Cookie.Name,
			Value:    resp.Cookie.Value,
			Path:     resp.Cookie.Path,
			Expires:  resp.Cookie.Expires,
			HttpOnly: true,
			Secure:   c.Request.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}
	if !req.AJAX && resp.Redirect != "" {
		c.Redirect(http.StatusFound, resp.Redirect)
		return
	}
	if !req.AJAX && resp.Content != "" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(resp.Content))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a *app) fail(c *gin.Context, err error) {
	if errors.Is(err, session.ErrNoSession) {
		c.JSON(http.StatusBadRequest, goStepUp.Response{Error: msgNoSession})
		return
	}
	a.log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	c.JSON(http.StatusServiceUnavailable, goStepUp.Response{Error: msgUnavailable})
}

func (a *app) login(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	if !a.logins.Allow(req.ClientIP) {
		c.JSON(http.StatusTooManyRequests, goStepUp.Response{Error: msgTooMany})
		return
	}
	ctx := c.Request.Context()
	login := req.Form.Get("login")

	uid, err := a.store.Authenticate(ctx, login, req.Form.Get("pwd"))
	if errors.Is(err, verify.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, goStepUp.Response{Error: msgBadLogin})
		return
	}
	if err != nil {
		a.fail(c, err)
		return
	}

	if err := a.engine.CheckLogin(ctx, req, uid); err != nil {
		if errors.Is(err, goStepUp.ErrSecurityCheckFailed) {
			c.JSON(http.StatusForbidden, goStepUp.Response{Error: msgCheckFailed})
			return
		}
		if errors.Is(err, goStepUp.ErrRequiresSetup) {
			c.JSON(http.StatusForbidden, goStepUp.Response{Error: msgSetupRequired})
			return
		}
		a.fail(c, err)
		return
	}

	token, err := a.identity.Issue(uid, req.SessionID, login)
	if err != nil {
		a.fail(c, err)
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.AuthCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	c.JSON(http.StatusOK, goStepUp.Response{Success: true, Token: token})
}

func (a *app) logout(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{Name: middleware.AuthCookie, Path: "/", MaxAge: -1})
	c.JSON(http.StatusOK, goStepUp.Response{Success: true})
}

func (a *app) frontendRules(c *gin.Context) {
	cfg, err := a.engine.FrontendRules(c.Request.Context(), principal(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (a *app) prompt(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.Prompt(c.Request.Context(), req, principal(c), ruleParam(c))
	a.respond(c, req, resp, err)
}

func (a *app) confirm(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.Confirm(c.Request.Context(), req, principal(c), ruleParam(c), formInput(req))
	a.respond(c, req, resp, err)
}

func (a *app) sendCode(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	if !a.sends.Allow(req.ClientIP) {
		c.JSON(http.StatusTooManyRequests, goStepUp.Response{Error: msgTooMany})
		return
	}
	actionID, _ := strconv.ParseInt(req.Form.Get("action_id"), 10, 64)
	resp, err := a.engine.SendCode(c.Request.Context(), req, principal(c), goStepUp.SendRequest{
		Tel:      req.Form.Get("tel"),
		Mode:     goStepUp.SendMode(req.Form.Get("mode")),
		ActionID: actionID,
		Login:    req.Form.Get("login"),
		Password: req.Form.Get("pwd"),
	})
	a.respond(c, req, resp, err)
}

func (a *app) confirmNumber(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.ConfirmNumber(c.Request.Context(), req, req.Form.Get("tel"), req.Form.Get("code"))
	a.respond(c, req, resp, err)
}

func (a *app) activateSMS(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.ActivateSMS(c.Request.Context(), req, principal(c), req.Form.Get("tel"), req.Form.Get("code"))
	a.respond(c, req, resp, err)
}

func (a *app) deactivateSMS(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.DeactivateSMS(c.Request.Context(), principal(c))
	a.respond(c, req, resp, err)
}

func (a *app) provisionTOTP(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.ProvisionTOTP(c.Request.Context(), principal(c))
	a.respond(c, req, resp, err)
}

func (a *app) activateTOTP(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.ActivateTOTP(c.Request.Context(), principal(c), req.Form.Get("code"))
	a.respond(c, req, resp, err)
}

func (a *app) deactivateTOTP(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.DeactivateTOTP(c.Request.Context(), principal(c))
	a.respond(c, req, resp, err)
}

func (a *app) userHandlers(c *gin.Context) {
	infos, err := a.engine.UserHandlers(c.Request.Context(), principal(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, infos)
}

func (a *app) handlerPopup(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	enable := c.DefaultQuery("enable", "1") != "0"
	resp, err := a.engine.HandlerPopup(c.Request.Context(), principal(c), c.Param("id"), enable)
	a.respond(c, req, resp, err)
}

func (a *app) activateHandler(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.ActivateHandler(c.Request.Context(), req, principal(c), c.Param("id"), formInput(req))
	a.respond(c, req, resp, err)
}

func (a *app) deactivateHandler(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.DeactivateHandler(c.Request.Context(), principal(c), c.Param("id"))
	a.respond(c, req, resp, err)
}

func (a *app) setRulePreference(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.SetRulePreference(c.Request.Context(), principal(c), ruleParam(c), req.Form.Get("handler"))
	a.respond(c, req, resp, err)
}

func (a *app) loginPrompt(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.LoginPrompt(c.Request.Context(), req, req.Form.Get("login"), req.Form.Get("pwd"))
	a.respond(c, req, resp, err)
}

func (a *app) loginConfirm(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.LoginConfirm(c.Request.Context(), req, req.Form.Get("login"), req.Form.Get("pwd"), formInput(req))
	a.respond(c, req, resp, err)
}

func (a *app) loginMethod(c *gin.Context) {
	method, err := a.engine.LoginMethod(c.Request.Context(), principal(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"method": method})
}

func (a *app) setLoginMethod(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	resp, err := a.engine.SetLoginMethod(c.Request.Context(), principal(c), req.Form.Get("handler"))
	a.respond(c, req, resp, err)
}

func (a *app) setRuleStatus(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	var status rule.Status
	switch req.Form.Get("status") {
	case "active":
		status = rule.StatusActive
	case "disabled":
		status = rule.StatusDisabled
	default:
		c.JSON(http.StatusBadRequest, goStepUp.Response{Error: msgInvalidInput})
		return
	}
	ids := make([]int64, 0, len(req.Form["id"]))
	for _, raw := range req.Form["id"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, goStepUp.Response{Error: msgInvalidInput})
			return
		}
		ids = append(ids, id)
	}
	if err := a.engine.SetRuleStatus(c.Request.Context(), ids, status); err != nil {
		a.adminFail(c, err)
		return
	}
	c.JSON(http.StatusOK, goStepUp.Response{Success: true})
}

func (a *app) assignNumber(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	if err := a.engine.AssignNumber(c.Request.Context(), c.Param("id"), req.Form.Get("number")); err != nil {
		a.adminFail(c, err)
		return
	}
	c.JSON(http.StatusOK, goStepUp.Response{Success: true})
}

func (a *app) setBypass(c *gin.Context) {
	req, ok := a.request(c)
	if !ok {
		return
	}
	on, err := strconv.ParseBool(req.Form.Get("enabled"))
	if err != nil {
		c.JSON(http.StatusBadRequest, goStepUp.Response{Error: msgInvalidInput})
		return
	}
	if err := a.engine.SetVerificationBypass(c.Request.Context(), c.Param("id"), on); err != nil {
		a.adminFail(c, err)
		return
	}
	c.JSON(http.StatusOK, goStepUp.Response{Success: true})
}

func (a *app) adminFail(c *gin.Context, err error) {
	if errors.Is(err, goStepUp.ErrInvalidRequest) || errors.Is(err, goStepUp.ErrRuleNotFound) ||
		errors.Is(err, goStepUp.ErrUserNotFound) {
		c.JSON(http.StatusBadRequest, goStepUp.Response{Error: err.Error()})
		return
	}
	a.fail(c, err)
}
