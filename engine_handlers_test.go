package goStepUp

import (
	"context"
	"strings"
	"testing"

	"github.com/MrEthical07/goStepUp/rule"
	"github.com/MrEthical07/goStepUp/verify"
	"github.com/pquerna/otp/totp"
)

func TestHandlerPopupGuards(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(), nil)
	ctx := context.Background()
	p := Principal{UserID: "u1", Authenticated: true}

	cases := []struct {
		id     string
		enable bool
		want   string
	}{
		{id: "bad-id", enable: true, want: "Invalid handler ID"},
		{id: "nope", enable: true, want: "Verification handler not initialized"},
		{id: "pwd", enable: true, want: "verification handler cannot be switched"},
		{id: "sms", enable: false, want: "Already deactivated"},
	}
	for _, tc := range cases {
		resp, err := env.engine.HandlerPopup(ctx, p, tc.id, tc.enable)
		requireNoErr(t, err, "HandlerPopup")
		if resp.Error != tc.want {
			t.Fatalf("HandlerPopup(%q, %v) error = %q, want %q", tc.id, tc.enable, resp.Error, tc.want)
		}
	}

	resp, err := env.engine.HandlerPopup(ctx, Principal{}, "sms", true)
	requireNoErr(t, err, "HandlerPopup")
	if resp.Error != "Please log in" {
		t.Fatalf("expected login required, got %+v", resp)
	}
}

func TestHandlerPopupSwitchesBetweenActivateAndDeactivate(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(), nil)
	ctx := context.Background()
	p := Principal{UserID: "u1", Authenticated: true}
	requireNoErr(t, env.users.SetAttribute(ctx, "u1", verify.AttrLastSentNumber, "15551234567"), "SetAttribute")

	resp, err := env.engine.HandlerPopup(ctx, p, "sms", true)
	requireNoErr(t, err, "HandlerPopup")
	if !strings.Contains(resp.Content, "Verify your phone number") || !strings.Contains(resp.Content, "+15551234567") {
		t.Fatalf("unexpected activate popup %q", resp.Content)
	}

	env.smsUser(t, "u1", "15551234567")
	resp, err = env.engine.HandlerPopup(ctx, p, "sms", true)
	requireNoErr(t, err, "HandlerPopup")
	if resp.Error != "Already activated" {
		t.Fatalf("expected already activated, got %+v", resp)
	}

	resp, err = env.engine.HandlerPopup(ctx, p, "sms", false)
	requireNoErr(t, err, "HandlerPopup")
	if !strings.Contains(resp.Content, "Disable 2FA with SMS") {
		t.Fatalf("unexpected deactivate popup %q", resp.Content)
	}
}

func TestTOTPLifecycle(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(), nil)
	ctx := context.Background()
	p := Principal{UserID: "u1", Authenticated: true}

	resp, err := env.engine.ProvisionTOTP(ctx, p)
	requireNoErr(t, err, "ProvisionTOTP")
	setup, ok := resp.Data.(TOTPSetup)
	if !ok || setup.SecretBase32 == "" || !strings.HasPrefix(setup.QRCodeURL, "otpauth://totp/") {
		t.Fatalf("unexpected setup %+v", resp.Data)
	}
	if !strings.Contains(setup.QRCodeURL, "issuer=True") {
		t.Fatalf("expected app name as issuer, got %s", setup.QRCodeURL)
	}

	resp, err = env.engine.ActivateTOTP(ctx, p, "12345")
	requireNoErr(t, err, "ActivateTOTP")
	if resp.Error != "Invalid Authenticator code" {
		t.Fatalf("unexpected response %+v", resp)
	}

	code, err := totp.GenerateCode(setup.SecretBase32, env.clock.Now())
	requireNoErr(t, err, "GenerateCode")
	resp, err = env.engine.ActivateTOTP(ctx, p, code)
	requireNoErr(t, err, "ActivateTOTP")
	if !resp.Success {
		t.Fatalf("unexpected response %+v", resp)
	}

	infos, err := env.engine.UserHandlers(ctx, p)
	requireNoErr(t, err, "UserHandlers")
	enabled := map[string]bool{}
	for _, info := range infos {
		enabled[info.ID] = info.Enabled
	}
	if !enabled["gau"] || enabled["sms"] || !enabled["pwd"] {
		t.Fatalf("unexpected handler states %+v", infos)
	}

	resp, err = env.engine.DeactivateTOTP(ctx, p)
	requireNoErr(t, err, "DeactivateTOTP")
	if !resp.Success || env.users.get("u1", verify.AttrTOTPSecret) != "" {
		t.Fatalf("expected secret removed, got %+v", resp)
	}
	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricHandlerActivated] != 1 || snap.Counters[MetricHandlerDeactivated] != 1 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}
}

func TestSetRulePreference(t *testing.T) {
	cfg := DefaultConfig()
	env := newTestEnv(t, cfg, []*rule.AccessRule{profileRule(), checkoutRule()})
	ctx := context.Background()
	p := env.smsUser(t, "u1", "15551234567")

	resp, err := env.engine.SetRulePreference(ctx, p, 3, "pwd")
	requireNoErr(t, err, "SetRulePreference")
	if resp.Error != "User settings are disabled" {
		t.Fatalf("expected settings disabled, got %+v", resp)
	}

	env.engine.config.Rules.AllowUserSettings = true
	resp, err = env.engine.SetRulePreference(ctx, p, 7, "sms")
	requireNoErr(t, err, "SetRulePreference")
	if resp.Error != "Unknown action" {
		t.Fatalf("non-editable rules take no preference, got %+v", resp)
	}

	resp, err = env.engine.SetRulePreference(ctx, p, 3, "gau")
	requireNoErr(t, err, "SetRulePreference")
	if !strings.HasPrefix(resp.Error, "Verification method is not available") {
		t.Fatalf("expected unavailable handler, got %+v", resp)
	}

	resp, err = env.engine.SetRulePreference(ctx, p, 3, "pwd")
	requireNoErr(t, err, "SetRulePreference")
	if !resp.Success {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got := env.users.get("u1", verify.AttrRuleSettings); got != `{"3":"pwd"}` {
		t.Fatalf("stored preferences = %s", got)
	}
	h, err := env.engine.ResolveHandler(ctx, profileRule(), "u1")
	requireNoErr(t, err, "ResolveHandler")
	if h.ID() != "pwd" {
		t.Fatalf("expected pwd, got %s", h.ID())
	}
}
