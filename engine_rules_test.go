package goStepUp

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goStepUp/rule"
)

func TestFrontendRules(t *testing.T) {
	shortcode := profileRule()
	shortcode.ID = 4
	shortcode.Shortcode = "download_button"
	noSelector := checkoutRule()
	optionalTOTP := &rule.AccessRule{ID: 8, Status: rule.StatusActive, Method: rule.MethodPost, URL: "/x", ButtonSelector: ".x"}
	optionalTOTP.SetHandler("gau", true)
	required := checkoutRule()
	required.ID = 9
	required.ButtonSelector = "#pay"
	required.Config.PreCallback = "beforePay"

	env := newTestEnv(t, DefaultConfig(), []*rule.AccessRule{profileRule(), shortcode, noSelector, optionalTOTP, required})
	p := env.smsUser(t, "u1", "15551234567")

	cfg, err := env.engine.FrontendRules(context.Background(), p)
	requireNoErr(t, err, "FrontendRules")
	if cfg.TokenKey != "tfa_token" {
		t.Fatalf("token key = %q", cfg.TokenKey)
	}
	if len(cfg.Rules) != 2 || cfg.Rules[0].ID != 3 || cfg.Rules[1].ID != 9 {
		t.Fatalf("unexpected rules %+v", cfg.Rules)
	}
	if cfg.Rules[1].PreCallback != "beforePay" || cfg.Rules[1].ButtonSelector != "#pay" {
		t.Fatalf("unexpected rule %+v", cfg.Rules[1])
	}

	// Users without a handler still get required rules so the setup popup shows.
	cfg, err = env.engine.FrontendRules(context.Background(), Principal{UserID: "u2", Authenticated: true})
	requireNoErr(t, err, "FrontendRules")
	if len(cfg.Rules) != 2 || cfg.Rules[0].ID != 3 || cfg.Rules[1].ID != 9 {
		t.Fatalf("unexpected rules %+v", cfg.Rules)
	}
}

func TestSetRuleStatus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	sink := NewChannelSink(8)
	env := newTestEnv(t, cfg, []*rule.AccessRule{checkoutRule(), profileRule()}, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	ctx := context.Background()

	requireNoErr(t, env.engine.SetRuleStatus(ctx, []int64{3, 7}, rule.StatusDisabled), "SetRuleStatus")
	out, err := env.engine.Evaluate(ctx, postRequest("/checkout", "sid-1", nil), Principal{UserID: "u1", Authenticated: true})
	requireNoErr(t, err, "Evaluate")
	if out.Decision != DecisionAllow {
		t.Fatalf("disabled rule must not apply, got %s", out.Decision)
	}

	env.engine.Close()
	var changed int
	for len(sink.Events()) > 0 {
		ev := <-sink.Events()
		if ev.EventType == "rule_status_changed" && ev.Metadata["status"] == "disabled" {
			changed++
		}
	}
	if changed != 2 {
		t.Fatalf("expected 2 audit events, got %d", changed)
	}

	if err := env.engine.SetRuleStatus(ctx, []int64{3}, rule.Status(5)); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestWrapShortcode(t *testing.T) {
	r := profileRule()
	r.Shortcode = "download_button"
	env := newTestEnv(t, DefaultConfig(), []*rule.AccessRule{r})
	ctx := context.Background()

	got, err := env.engine.WrapShortcode(ctx, "download_button", "<a>Download</a>")
	requireNoErr(t, err, "WrapShortcode")
	if want := `<div class="tfa-shortcode-action" data-action-id="3"><a>Download</a></div>`; got != want {
		t.Fatalf("WrapShortcode = %s, want %s", got, want)
	}

	got, err = env.engine.WrapShortcode(ctx, "other", "<a>Other</a>")
	requireNoErr(t, err, "WrapShortcode")
	if got != "<a>Other</a>" {
		t.Fatalf("unbound shortcode changed: %s", got)
	}
}
