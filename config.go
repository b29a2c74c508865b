package goStepUp

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Config is the full engine configuration. Start from [DefaultConfig] and
// override fields; [Builder.Build] validates the result.
type Config struct {
	Rules    RulesConfig
	SMS      SMSConfig
	Throttle ThrottleConfig
	TOTP     TOTPConfig
	Session  SessionConfig
	Login    LoginConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	// Templates overrides handler prompt templates by id, see the verify
	// package Tpl constants.
	Templates map[string]string
}

/*
====================================
RULES CONFIG
====================================
*/

// RulesConfig controls rule evaluation and the confirmation endpoints.
type RulesConfig struct {
	// SettingsURL is linked from the verification-required prompt.
	SettingsURL string
	// AllowUserSettings lets users pick a handler per editable rule.
	AllowUserSettings bool
	// CookiePath scopes proof token cookies.
	CookiePath string
}

/*
====================================
SMS CONFIG
====================================
*/

// SMSConfig controls code delivery.
type SMSConfig struct {
	// Message is the SMS body; {{code}} is replaced by the code.
	Message string
	// AutoActivate enables the SMS handler whenever a number is confirmed.
	AutoActivate bool
	// CodeTTL is the lifetime of a sent code.
	CodeTTL time.Duration
	// BypassCode is accepted for every number. Keep empty in production.
	BypassCode string
	// NotifyMissingGateway sends an admin notice when a send fails for lack
	// of a gateway.
	NotifyMissingGateway bool
}

/*
====================================
THROTTLE CONFIG
====================================
*/

// ThrottleConfig holds the send and attempt quotas. Zero limits disable
// the check they control.
type ThrottleConfig struct {
	RedisPrefix    string
	BlockPeriod    time.Duration
	SendLimit      int
	AttemptLimit   int
	ResendInterval time.Duration
	IPSendLimit    int
}

/*
====================================
TOTP CONFIG
====================================
*/

// TOTPConfig controls authenticator app codes.
type TOTPConfig struct {
	AppName     string
	Discrepancy int
	BypassCode  string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls where pending codes and proof tokens live.
type SessionConfig struct {
	RedisPrefix string
	Lifetime    time.Duration
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig controls two-factor login.
type LoginConfig struct {
	// Required refuses logins for users without a usable handler.
	Required bool
	TokenTTL time.Duration
	// MaxFailedAttempts blocks a login name and client IP after that many
	// wrong passwords within FailureCooldown. Zero disables the check.
	MaxFailedAttempts int
	FailureCooldown   time.Duration
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops challenge and send events on a full buffer. Failed
	// checks, rejected tokens and admin changes wait up to SecurityWait.
	DropIfFull   bool
	SecurityWait time.Duration
	// CoalesceWindow folds repeated rate-limit and SMS block events from the
	// same source. Zero delivers every one.
	CoalesceWindow time.Duration
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the defaults used by [New].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Rules: RulesConfig{
			CookiePath: "/",
		},
		SMS: SMSConfig{
			Message:              "{{code}} is your OTP",
			CodeTTL:              600 * time.Second,
			NotifyMissingGateway: true,
		},
		Throttle: ThrottleConfig{
			RedisPrefix:    "tfa",
			BlockPeriod:    60 * time.Minute,
			SendLimit:      3,
			ResendInterval: 120 * time.Second,
		},
		TOTP: TOTPConfig{
			AppName:     "True Factor",
			Discrepancy: 3,
		},
		Session: SessionConfig{
			RedisPrefix: "tfa:sess:",
			Lifetime:    24 * time.Hour,
		},
		Login: LoginConfig{
			TokenTTL:          5 * time.Minute,
			MaxFailedAttempts: 5,
			FailureCooldown:   15 * time.Minute,
		},
		Audit: AuditConfig{
			BufferSize:     1024,
			DropIfFull:     true,
			SecurityWait:   50 * time.Millisecond,
			CoalesceWindow: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Templates != nil {
		out.Templates = make(map[string]string, len(cfg.Templates))
		for k, v := range cfg.Templates {
			out.Templates[k] = v
		}
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

var (
	smsBypassPattern  = regexp.MustCompile(`^\w{4,}$`)
	totpBypassPattern = regexp.MustCompile(`^\d{6}$`)
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// SMS
	if !strings.Contains(c.SMS.Message, "{{code}}") {
		return errors.New("SMS Message must contain {{code}}")
	}
	if c.SMS.CodeTTL <= 0 {
		return errors.New("SMS CodeTTL must be > 0")
	}
	if c.SMS.BypassCode != "" && !smsBypassPattern.MatchString(c.SMS.BypassCode) {
		return errors.New("SMS BypassCode must be at least 4 word characters")
	}

	// Throttle
	if c.Throttle.BlockPeriod < time.Second {
		return errors.New("Throttle BlockPeriod must be >= 1s")
	}
	if c.Throttle.SendLimit < 0 || c.Throttle.AttemptLimit < 0 || c.Throttle.IPSendLimit < 0 {
		return errors.New("Throttle limits must be >= 0")
	}
	if c.Throttle.ResendInterval < 0 {
		return errors.New("Throttle ResendInterval must be >= 0")
	}
	if c.Throttle.ResendInterval > c.Throttle.BlockPeriod {
		return errors.New("Throttle ResendInterval must not exceed BlockPeriod")
	}

	// TOTP
	if c.TOTP.Discrepancy < 0 || c.TOTP.Discrepancy > 10 {
		return errors.New("TOTP Discrepancy must be between 0 and 10")
	}
	if strings.TrimSpace(c.TOTP.AppName) == "" {
		return errors.New("TOTP AppName must not be empty")
	}
	if c.TOTP.BypassCode != "" && !totpBypassPattern.MatchString(c.TOTP.BypassCode) {
		return errors.New("TOTP BypassCode must be six digits")
	}

	// Session
	if c.Session.Lifetime <= 0 {
		return errors.New("Session Lifetime must be > 0")
	}
	if c.Session.Lifetime < c.SMS.CodeTTL {
		return errors.New("Session Lifetime must be >= SMS CodeTTL")
	}

	// Login
	if c.Login.TokenTTL <= 0 {
		return errors.New("Login TokenTTL must be > 0")
	}
	if c.Login.MaxFailedAttempts < 0 {
		return errors.New("Login MaxFailedAttempts must be >= 0")
	}
	if c.Login.MaxFailedAttempts > 0 && c.Login.FailureCooldown < time.Second {
		return errors.New("Login FailureCooldown must be >= 1s when failures are limited")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}
	if c.Audit.SecurityWait < 0 || c.Audit.CoalesceWindow < 0 {
		return errors.New("Audit SecurityWait and CoalesceWindow must be >= 0")
	}
	return nil
}
