package goStepUp

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goStepUp/verify"
)

func TestLoginPromptChoosesHandler(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(), nil)
	ctx := context.Background()
	req := postRequest("/login", "sid-g", nil)
	env.users.addUser("u1", "alice", "s3cret")

	resp, err := env.engine.LoginPrompt(ctx, req, "", "")
	requireNoErr(t, err, "LoginPrompt")
	if resp.Error != "Enter login and password" {
		t.Fatalf("unexpected response %+v", resp)
	}

	// Without a second factor the user falls through to "no verification".
	resp, err = env.engine.LoginPrompt(ctx, req, "alice", "s3cret")
	requireNoErr(t, err, "LoginPrompt")
	if !resp.Skip {
		t.Fatalf("expected skip, got %+v", resp)
	}

	env.smsUser(t, "u1", "15551234567")
	resp, err = env.engine.LoginPrompt(ctx, req, "alice", "s3cret")
	requireNoErr(t, err, "LoginPrompt")
	if resp.Popup == nil || resp.Popup.Handler != "sms" || resp.Popup.Data["intro"] != "Please confirm login" {
		t.Fatalf("expected sms login prompt, got %+v", resp)
	}
	if _, leaked := resp.Popup.Data["pwd"]; leaked {
		t.Fatal("password must not be echoed into the prompt")
	}
}

func TestLoginPromptRequiredWithoutHandlerShowsSetup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Login.Required = true
	env := newTestEnv(t, cfg, nil)
	env.users.addUser("u1", "alice", "s3cret")

	resp, err := env.engine.LoginPrompt(context.Background(), postRequest("/login", "sid-g", nil), "alice", "s3cret")
	requireNoErr(t, err, "LoginPrompt")
	if resp.Skip || !strings.Contains(resp.Content, "Verification Required") {
		t.Fatalf("expected setup popup, got %+v", resp)
	}

	resp, err = env.engine.LoginConfirm(context.Background(), postRequest("/login", "sid-g", nil), "alice", "s3cret", nil)
	requireNoErr(t, err, "LoginConfirm")
	if resp.Error != "Configuration error. Please contact administrator" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestLoginConfirmAndCheck(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(), nil)
	ctx := context.Background()
	req := postRequest("/login", "sid-g", nil)
	env.users.addUser("u1", "alice", "s3cret")
	env.smsUser(t, "u1", "15551234567")

	err := env.engine.CheckLogin(ctx, req, "u1")
	if !errors.Is(err, ErrSecurityCheckFailed) {
		t.Fatalf("expected ErrSecurityCheckFailed without token, got %v", err)
	}

	_, err = env.engine.SendCode(ctx, req, Principal{}, SendRequest{Mode: SendLogin, Login: "alice", Password: "s3cret"})
	requireNoErr(t, err, "SendCode")

	resp, err := env.engine.LoginConfirm(ctx, req, "alice", "s3cret", verify.Input{"code": "000000"})
	requireNoErr(t, err, "LoginConfirm")
	if resp.Error != "Entered code is incorrect" {
		t.Fatalf("unexpected response %+v", resp)
	}

	resp, err = env.engine.LoginConfirm(ctx, req, "alice", "s3cret", verify.Input{"code": env.gateway.lastCode(t)})
	requireNoErr(t, err, "LoginConfirm")
	if !resp.Success || resp.Token == "" {
		t.Fatalf("expected login token, got %+v", resp)
	}

	login := postRequest("/login", "sid-g", url.Values{LoginTokenKey: {resp.Token}})
	requireNoErr(t, env.engine.CheckLogin(ctx, login, "u1"), "CheckLogin")

	other := postRequest("/login", "sid-other", url.Values{LoginTokenKey: {resp.Token}})
	if err := env.engine.CheckLogin(ctx, other, "u1"); !errors.Is(err, ErrSecurityCheckFailed) {
		t.Fatalf("token must be bound to its session, got %v", err)
	}
	if env.engine.MetricsSnapshot().Counters[MetricLoginVerified] != 1 {
		t.Fatal("expected login counter")
	}
}

func TestCheckLoginSkipsUsersWithoutSecondFactor(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(), nil)
	requireNoErr(t, env.engine.CheckLogin(context.Background(), postRequest("/login", "sid-g", nil), "u1"), "CheckLogin")
}

func TestSetLoginMethod(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(), nil)
	ctx := context.Background()
	p := env.smsUser(t, "u1", "15551234567")

	resp, err := env.engine.SetLoginMethod(ctx, p, "pwd")
	requireNoErr(t, err, "SetLoginMethod")
	if resp.Success {
		t.Fatal("password must not be accepted as a login factor")
	}

	resp, err = env.engine.SetLoginMethod(ctx, p, "gau")
	requireNoErr(t, err, "SetLoginMethod")
	if resp.Error != "Verification method is not available" {
		t.Fatalf("unexpected response %+v", resp)
	}

	resp, err = env.engine.SetLoginMethod(ctx, p, "non")
	requireNoErr(t, err, "SetLoginMethod")
	if !resp.Success {
		t.Fatalf("unexpected response %+v", resp)
	}
	method, err := env.engine.LoginMethod(ctx, p)
	requireNoErr(t, err, "LoginMethod")
	if method != "non" {
		t.Fatalf("login method = %q", method)
	}
	requireNoErr(t, env.engine.CheckLogin(ctx, postRequest("/login", "sid-g", nil), "u1"), "CheckLogin")

	env.engine.config.Login.Required = true
	method, err = env.engine.LoginMethod(ctx, p)
	requireNoErr(t, err, "LoginMethod")
	if method != "sms" {
		t.Fatalf("stored no-verification choice must fall back to a usable handler when required, got %q", method)
	}
}

func TestCheckLoginRequiredBlocksWithoutSecondFactor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Login.Required = true
	env := newTestEnv(t, cfg, nil)
	ctx := context.Background()
	req := postRequest("/login", "sid-g", nil)

	if err := env.engine.CheckLogin(ctx, req, "u1"); !errors.Is(err, ErrRequiresSetup) {
		t.Fatalf("expected ErrRequiresSetup for user without a factor, got %v", err)
	}

	p := env.smsUser(t, "u2", "15551234567")
	requireNoErr(t, env.users.SetAttribute(ctx, p.UserID, verify.AttrLoginMethod, "non"), "SetAttribute")
	if err := env.engine.CheckLogin(ctx, req, p.UserID); !errors.Is(err, ErrSecurityCheckFailed) {
		t.Fatalf("stale no-verification choice must fall back to sms, got %v", err)
	}
	method, err := env.engine.LoginMethod(ctx, p)
	requireNoErr(t, err, "LoginMethod")
	if method != "sms" {
		t.Fatalf("login method = %q, want sms", method)
	}
}

func TestLoginBlocksAfterRepeatedBadPasswords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Login.MaxFailedAttempts = 3
	cfg.Login.FailureCooldown = 10 * time.Minute
	env := newTestEnv(t, cfg, nil)
	ctx := context.Background()
	req := postRequest("/login", "sid-g", nil)
	env.users.addUser("u1", "alice", "s3cret")

	for i := 0; i < 2; i++ {
		resp, err := env.engine.LoginPrompt(ctx, req, "alice", "wrong")
		requireNoErr(t, err, "LoginPrompt")
		if resp.Error != "Invalid login or password" {
			t.Fatalf("attempt %d: unexpected response %+v", i+1, resp)
		}
	}
	resp, err := env.engine.LoginPrompt(ctx, req, "alice", "wrong")
	requireNoErr(t, err, "LoginPrompt")
	if resp.Error != "Too many failed logins. Please wait 10 mins" || resp.Timeout != 600 {
		t.Fatalf("expected block, got %+v", resp)
	}

	// The right password does not lift the block early.
	resp, err = env.engine.LoginPrompt(ctx, req, "alice", "s3cret")
	requireNoErr(t, err, "LoginPrompt")
	if resp.Skip || resp.Timeout == 0 {
		t.Fatalf("expected block to hold, got %+v", resp)
	}

	env.redis.FastForward(10 * time.Minute)
	resp, err = env.engine.LoginPrompt(ctx, req, "alice", "s3cret")
	requireNoErr(t, err, "LoginPrompt")
	if !resp.Skip {
		t.Fatalf("expected login after cooldown, got %+v", resp)
	}
}
