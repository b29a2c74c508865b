package verify

import (
	"context"
	"crypto/subtle"
	"net/url"
	"regexp"
	"time"

	"github.com/MrEthical07/goStepUp/otp"
	potp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const defaultAppName = "True Factor"

var totpCodePattern = regexp.MustCompile(`^\d{6}$`)

type TOTPConfig struct {
	// AppName is the issuer shown in authenticator apps.
	AppName string
	// Discrepancy is the number of steps accepted on either side of now;
	// nil means otp.DefaultDiscrepancy and 0 accepts the current step only.
	Discrepancy *int
	// BypassCode, when non-empty, is accepted for every user.
	BypassCode string
	Templates  Templates
	Now        func() time.Time
}

// TOTP verifies with authenticator app codes.
type TOTP struct {
	users  Users
	cfg    TOTPConfig
	window int
}

func NewTOTP(users Users, cfg TOTPConfig) *TOTP {
	if cfg.AppName == "" {
		cfg.AppName = defaultAppName
	}
	window := otp.DefaultDiscrepancy
	if cfg.Discrepancy != nil {
		window = max(*cfg.Discrepancy, 0)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TOTP{users: users, cfg: cfg, window: window}
}

func (*TOTP) ID() string       { return "gau" }
func (*TOTP) Name() string     { return "Authenticator" }
func (*TOTP) Position() int    { return -9 }
func (*TOTP) Switchable() bool { return true }
func (*TOTP) Optional() bool   { return true }

func (t *TOTP) Configured(ctx context.Context, userID string) (bool, error) {
	secret, err := t.users.Attribute(ctx, userID, AttrTOTPSecret)
	return secret != "", err
}

func (t *TOTP) Verify(ctx context.Context, userID string, in Input) error {
	code := in.Get("code")
	if !totpCodePattern.MatchString(code) {
		return Fail(ErrInvalidCredentials, "Invalid verification code")
	}
	if t.cfg.BypassCode != "" && subtle.ConstantTimeCompare([]byte(t.cfg.BypassCode), []byte(code)) == 1 {
		return nil
	}
	ok, err := t.check(ctx, userID, code)
	if err != nil {
		return err
	}
	if !ok {
		return Fail(ErrInvalidCredentials, "Invalid code")
	}
	return nil
}

func (t *TOTP) check(ctx context.Context, userID, code string) (bool, error) {
	secret, err := t.users.Attribute(ctx, userID, AttrTOTPSecret)
	if err != nil {
		return false, err
	}
	if secret == "" {
		return false, Fail(ErrConfiguration, "User did not configure security settings")
	}
	ok, err := otp.VerifyTOTPSecret(code, secret, t.window, t.cfg.Now())
	if err != nil {
		return false, Fail(ErrConfiguration, "Stored authenticator secret is invalid")
	}
	return ok, nil
}

func (t *TOTP) Prompt(_ context.Context, _ string, data map[string]string) (*Prompt, error) {
	return t.cfg.Templates.render(t.ID(), TplTOTPVerify, copyData(data)), nil
}

// Provision generates and stores a fresh secret for userID. account labels
// the entry in the authenticator app.
func (t *TOTP) Provision(ctx context.Context, userID, account string) (*potp.Key, error) {
	if account == "" {
		account = userID
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.cfg.AppName,
		AccountName: account,
		Period:      uint(otp.TOTPPeriod / time.Second),
		SecretSize:  10,
		Digits:      potp.DigitsSix,
		Algorithm:   potp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}
	if err := t.users.SetAttribute(ctx, userID, AttrTOTPSecret, key.Secret()); err != nil {
		return nil, err
	}
	return key, nil
}

// ActivatePrompt provisions a new secret and shows it with its key URI.
func (t *TOTP) ActivatePrompt(ctx context.Context, userID string) (*Prompt, error) {
	key, err := t.Provision(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	return t.cfg.Templates.render(t.ID(), TplTOTPActivate, map[string]string{
		"secret":         key.Secret(),
		"qr_url":         key.URL(),
		"qr_url_encoded": url.QueryEscape(key.URL()),
	}), nil
}

func (t *TOTP) Activate(ctx context.Context, userID string, in Input) (*Prompt, error) {
	code := in.Get("code")
	if !totpCodePattern.MatchString(code) {
		return nil, Fail(ErrInvalidCredentials, "Invalid Authenticator code")
	}
	ok, err := t.check(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, Fail(ErrInvalidCredentials, "Invalid Authenticator code")
	}
	if err := t.users.SetAttribute(ctx, userID, EnabledAttr(t.ID()), "1"); err != nil {
		return nil, err
	}
	return t.cfg.Templates.render(t.ID(), TplTOTPActivated, nil), nil
}

func (t *TOTP) DeactivatePrompt(context.Context, string) (*Prompt, error) {
	return t.cfg.Templates.render(t.ID(), TplTOTPDeactivate, nil), nil
}

// Deactivate disables the handler and forgets the secret.
func (t *TOTP) Deactivate(ctx context.Context, userID string) error {
	if err := t.users.SetAttribute(ctx, userID, EnabledAttr(t.ID()), "0"); err != nil {
		return err
	}
	return t.users.DeleteAttribute(ctx, userID, AttrTOTPSecret)
}
