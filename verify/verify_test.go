package verify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goStepUp/otp"
)

type stubHandler struct {
	None
	id         string
	position   int
	switchable bool
}

func (s stubHandler) ID() string       { return s.id }
func (s stubHandler) Position() int    { return s.position }
func (s stubHandler) Switchable() bool { return s.switchable }

func TestRegistryOrderAndDuplicates(t *testing.T) {
	r := NewRegistry(newMemUsers())
	for _, h := range []Handler{
		stubHandler{id: "a", position: 0},
		stubHandler{id: "b", position: -10},
		stubHandler{id: "c", position: 0},
		stubHandler{id: "d", position: -9},
	} {
		if err := r.Register(h); err != nil {
			t.Fatalf("Register(%s) failed: %v", h.ID(), err)
		}
	}
	if err := r.Register(stubHandler{id: "a"}); !errors.Is(err, ErrDuplicateHandler) {
		t.Fatalf("expected ErrDuplicateHandler, got %v", err)
	}

	var ids []string
	for _, h := range r.List() {
		ids = append(ids, h.ID())
	}
	if got := strings.Join(ids, ","); got != "b,d,a,c" {
		t.Fatalf("List order = %s", got)
	}
	if _, err := r.Get("zz"); !errors.Is(err, ErrHandlerNotFound) {
		t.Fatalf("expected ErrHandlerNotFound, got %v", err)
	}
}

func TestUserHandlersRequireEnableAndConfiguration(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	r := NewRegistry(users)
	totp := NewTOTP(users, TOTPConfig{})
	for _, h := range []Handler{None{}, NewPassword(users, nil), totp} {
		if err := r.Register(h); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	ids := func() string {
		hs, err := r.UserHandlers(ctx, "u1")
		if err != nil {
			t.Fatalf("UserHandlers failed: %v", err)
		}
		var out []string
		for _, h := range hs {
			out = append(out, h.ID())
		}
		return strings.Join(out, ",")
	}

	if got := ids(); got != "non,pwd" {
		t.Fatalf("UserHandlers = %s", got)
	}
	// Enabled but without a secret it is not configured.
	_ = users.SetAttribute(ctx, "u1", EnabledAttr("gau"), "1")
	if got := ids(); got != "non,pwd" {
		t.Fatalf("UserHandlers = %s", got)
	}
	_ = users.SetAttribute(ctx, "u1", AttrTOTPSecret, "JBSWY3DPEHPK3PXP")
	if got := ids(); got != "gau,non,pwd" {
		t.Fatalf("UserHandlers = %s", got)
	}
	_ = users.SetAttribute(ctx, "u1", EnabledAttr("gau"), "0")
	if got := ids(); got != "non,pwd" {
		t.Fatalf("UserHandlers = %s", got)
	}
}

func TestPasswordHandler(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	users.passwords["u1"] = "correct horse"
	h := NewPassword(users, nil)

	if err := h.Verify(ctx, "u1", Input{"password": "correct horse"}); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	err := h.Verify(ctx, "u1", Input{"password": "nope"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if msg, ok := Message(err); !ok || msg != "Invalid password" {
		t.Fatalf("Message = %q %v", msg, ok)
	}

	p, err := h.Prompt(ctx, "u1", map[string]string{"intro": "Confirm <b>Pay</b>", "action_id": "5"})
	if err != nil {
		t.Fatalf("Prompt failed: %v", err)
	}
	if !strings.Contains(p.Body, "Confirm <b>Pay</b>") || !strings.Contains(p.Body, `value="5"`) {
		t.Fatalf("unexpected prompt body: %s", p.Body)
	}
}

func TestNoneHandlerSkips(t *testing.T) {
	p, err := None{}.Prompt(context.Background(), "u1", nil)
	if err != nil || !p.Skip {
		t.Fatalf("expected skip prompt, got %+v err=%v", p, err)
	}
}

func TestTOTPHandlerLifecycle(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	now := time.Unix(1700000000, 0)
	h := NewTOTP(users, TOTPConfig{Now: func() time.Time { return now }})

	p, err := h.ActivatePrompt(ctx, "u1")
	if err != nil {
		t.Fatalf("ActivatePrompt failed: %v", err)
	}
	secret := p.Data["secret"]
	if len(secret) != 16 {
		t.Fatalf("expected 16 char secret, got %q", secret)
	}
	if !strings.HasPrefix(p.Data["qr_url"], "otpauth://totp/") || !strings.Contains(p.Data["qr_url"], "secret="+secret) {
		t.Fatalf("unexpected key uri %q", p.Data["qr_url"])
	}
	if stored, _ := users.Attribute(ctx, "u1", AttrTOTPSecret); stored != secret {
		t.Fatalf("secret not stored")
	}

	raw, err := otp.DecodeSecret(secret)
	if err != nil {
		t.Fatalf("DecodeSecret failed: %v", err)
	}
	code := otp.TOTPCode(raw, otp.TimeStep(now))

	if _, err := h.Activate(ctx, "u1", Input{"code": "12345"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected malformed code rejected, got %v", err)
	}
	if _, err := h.Activate(ctx, "u1", Input{"code": code}); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if v, _ := users.Attribute(ctx, "u1", EnabledAttr("gau")); v != "1" {
		t.Fatalf("expected gau enabled, got %q", v)
	}
	if err := h.Verify(ctx, "u1", Input{"code": code}); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if err := h.Deactivate(ctx, "u1"); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if ok, _ := h.Configured(ctx, "u1"); ok {
		t.Fatalf("expected secret removed")
	}
	if err := h.Verify(ctx, "u1", Input{"code": code}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration after deactivate, got %v", err)
	}
}

func TestTOTPDiscrepancyZeroIsStrict(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	raw := []byte("12345678901234567890")
	secret := otp.EncodeSecret(raw)
	previous := otp.TOTPCode(raw, otp.TimeStep(now)-1)

	users := newMemUsers()
	_ = users.SetAttribute(ctx, "u1", AttrTOTPSecret, secret)

	zero := 0
	strict := NewTOTP(users, TOTPConfig{Discrepancy: &zero, Now: func() time.Time { return now }})
	if err := strict.Verify(ctx, "u1", Input{"code": previous}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected previous step rejected, got %v", err)
	}
	if err := strict.Verify(ctx, "u1", Input{"code": otp.TOTPCode(raw, otp.TimeStep(now))}); err != nil {
		t.Fatalf("current step rejected: %v", err)
	}

	lenient := NewTOTP(users, TOTPConfig{Now: func() time.Time { return now }})
	if err := lenient.Verify(ctx, "u1", Input{"code": previous}); err != nil {
		t.Fatalf("default window rejected previous step: %v", err)
	}
}

func TestTOTPBypassCode(t *testing.T) {
	users := newMemUsers()
	h := NewTOTP(users, TOTPConfig{BypassCode: "424242"})
	if err := h.Verify(context.Background(), "nobody", Input{"code": "424242"}); err != nil {
		t.Fatalf("bypass rejected: %v", err)
	}
}

func TestSMSActivateConfirmsNumberAndClearsOtherOwner(t *testing.T) {
	f := newSMSFixture(t)
	_ = f.users.SetAttribute(f.ctx, "other", AttrConfirmedTel, "15551234567")

	if err := f.sms.Send(f.ctx, "15551234567"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got := f.gateway.sent[0].message; !strings.HasSuffix(got, " is your OTP") {
		t.Fatalf("unexpected message %q", got)
	}

	p, err := f.sms.Activate(f.ctx, "u1", Input{"tel": "+1 (555) 123-4567", "code": f.lastCode()})
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if p.Template != TplSMSActivated {
		t.Fatalf("unexpected prompt %s", p.Template)
	}
	if ok, _ := f.sms.Configured(f.ctx, "u1"); !ok {
		t.Fatalf("expected sms configured")
	}
	if v, _ := f.users.Attribute(f.ctx, "other", AttrConfirmedTel); v != "" {
		t.Fatalf("other owner kept the number")
	}
}

func TestSMSActivateFailureRecordsAttempt(t *testing.T) {
	f := newSMSFixture(t)
	for i := 0; i < 3; i++ {
		if _, err := f.sms.Activate(f.ctx, "u1", Input{"tel": "15551234567", "code": "999999"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	}
	_, err := f.sms.Activate(f.ctx, "u1", Input{"tel": "15551234567", "code": "999999"})
	var ve *Error
	if !errors.As(err, &ve) || !errors.Is(err, ErrRateLimited) || ve.Wait != time.Hour {
		t.Fatalf("expected rate limit of 1h, got %v", err)
	}
	if !strings.HasPrefix(ve.Message, "Too many attempts. Please wait ") {
		t.Fatalf("unexpected message %q", ve.Message)
	}
}

func TestSMSVerifyWrongCodeCountsAttempt(t *testing.T) {
	f := newSMSFixture(t)
	_ = f.users.SetAttribute(f.ctx, "u1", AttrTel, "15551234567")
	_ = f.users.SetAttribute(f.ctx, "u1", AttrConfirmedTel, "15551234567")

	blocked := 0
	f.sms.cfg.OnBlocked = func(context.Context, string) { blocked++ }

	err := f.sms.Verify(f.ctx, "u1", Input{"code": "000000"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	events, err := f.ledger.Events(f.ctx, "sms_attempt", "u1")
	if err != nil || len(events) != 1 {
		t.Fatalf("expected one attempt, got %d err=%v", len(events), err)
	}

	_ = f.sms.Verify(f.ctx, "u1", Input{"code": "000000"})
	_ = f.sms.Verify(f.ctx, "u1", Input{"code": "000000"})
	if blocked != 1 {
		t.Fatalf("expected blocked callback once, got %d", blocked)
	}
	if err := f.sms.Verify(f.ctx, "u1", Input{"code": "000000"}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestSMSVerifySuccessClearsLedger(t *testing.T) {
	f := newSMSFixture(t)
	_ = f.users.SetAttribute(f.ctx, "u1", AttrTel, "15551234567")
	_ = f.users.SetAttribute(f.ctx, "u1", AttrConfirmedTel, "15551234567")

	_ = f.sms.Verify(f.ctx, "u1", Input{"code": "111111"})
	if err := f.sms.Send(f.ctx, "15551234567"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := f.sms.Verify(f.ctx, "u1", Input{"code": f.lastCode()}); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if wait, _ := f.ledger.UserRetryWait(f.ctx, "u1"); wait != 0 {
		t.Fatalf("expected cleared attempts, got wait %v", wait)
	}
	if err := f.sms.Verify(f.ctx, "u1", Input{"code": "000000"}); err == nil {
		t.Fatalf("expected consumed code to fail")
	}
}

func TestSMSExpiredCode(t *testing.T) {
	f := newSMSFixture(t)
	if err := f.sms.Send(f.ctx, "15551234567"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	f.clock.t = f.clock.t.Add(11 * time.Minute)
	err := f.sms.Check(f.ctx, "15551234567", f.lastCode())
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestSMSWithoutGateway(t *testing.T) {
	f := newSMSFixture(t)
	f.sms.gateway = nil
	if err := f.sms.Send(f.ctx, "15551234567"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestSMSGatewayFailure(t *testing.T) {
	f := newSMSFixture(t)
	f.gateway.err = errors.New("upstream 500")
	err := f.sms.Send(f.ctx, "15551234567")
	if !errors.Is(err, ErrDelivery) || err.Error() != "upstream 500" {
		t.Fatalf("expected delivery error, got %v", err)
	}
}

func TestSMSPromptRequiresConfirmedNumber(t *testing.T) {
	f := newSMSFixture(t)
	if _, err := f.sms.Prompt(f.ctx, "u1", nil); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	_ = f.users.SetAttribute(f.ctx, "u1", AttrConfirmedTel, "15551234567")
	p, err := f.sms.Prompt(f.ctx, "u1", map[string]string{"intro": "hi"})
	if err != nil {
		t.Fatalf("Prompt failed: %v", err)
	}
	if p.Data["timeout"] != "0" || p.Handler != "sms" {
		t.Fatalf("unexpected prompt %+v", p)
	}
}

func TestHumanDuration(t *testing.T) {
	for d, want := range map[time.Duration]string{
		time.Second:      "1 second",
		45 * time.Second: "45 seconds",
		90 * time.Second: "2 mins",
		time.Minute:      "1 min",
		time.Hour:        "1 hour",
		5 * time.Hour:    "5 hours",
	} {
		if got := HumanDuration(d); got != want {
			t.Fatalf("HumanDuration(%v) = %q, want %q", d, got, want)
		}
	}
}
