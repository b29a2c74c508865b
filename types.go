package goStepUp

import (
	"context"
	"io"
	"net/url"
	"time"

	internalaudit "github.com/MrEthical07/goStepUp/internal/audit"
	"github.com/MrEthical07/goStepUp/rule"
	"github.com/MrEthical07/goStepUp/verify"
	"github.com/sirupsen/logrus"
)

// TokenKey prefixes the POST field or cookie carrying a rule's proof token.
// The full name is TokenKey followed by the rule id.
const TokenKey = "tfa_token"

// LoginTokenKey is the POST field carrying the two-factor login proof.
const LoginTokenKey = "tfa_login_token"

// LoginTokenType is the proof token type issued by [Engine.LoginConfirm].
const LoginTokenType = "login"

// Request is the part of an inbound HTTP request the engine inspects.
type Request struct {
	Method  string
	URI     string
	Query   url.Values
	Form    url.Values
	Cookies map[string]string
	// SessionID keys session scoped state: pending codes and proof tokens.
	SessionID string
	ClientIP  string
	Referer   string
	// AJAX marks requests expecting JSON instead of a rendered page.
	AJAX bool
}

// Params merges query and form values, form values winning.
func (r Request) Params() url.Values {
	out := make(url.Values, len(r.Query)+len(r.Form))
	for k, v := range r.Query {
		out[k] = v
	}
	for k, v := range r.Form {
		out[k] = v
	}
	return out
}

// Value returns the named form value, falling back to the query.
func (r Request) Value(name string) string {
	if v := r.Form.Get(name); v != "" {
		return v
	}
	return r.Query.Get(name)
}

func (r Request) matcher() rule.Request {
	return rule.Request{Method: r.Method, URI: r.URI, Params: r.Params()}
}

// Principal is the current user. A zero Principal is a guest.
type Principal struct {
	UserID        string
	Authenticated bool
}

func (p Principal) guest() bool {
	return !p.Authenticated || p.UserID == ""
}

// Decision is the verdict of [Engine.Evaluate].
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionLoginRequired
	DecisionSetupRequired
	DecisionChallenge
	DecisionCheckFailed
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionLoginRequired:
		return "login_required"
	case DecisionSetupRequired:
		return "setup_required"
	case DecisionChallenge:
		return "challenge"
	case DecisionCheckFailed:
		return "check_failed"
	default:
		return "unknown"
	}
}

// Outcome describes what the host must do with a request.
type Outcome struct {
	Decision Decision
	// Rule is the applicable rule, nil for DecisionAllow without a match.
	Rule    *rule.AccessRule
	Handler string
	// Prompt is the challenge or setup prompt.
	Prompt *verify.Prompt
	// Page is a rendered full-page template for non-AJAX flows.
	Page string
	// Notice is a message to show above the prompt.
	Notice string
}

// Cookie is a cookie the host should set on the response.
type Cookie struct {
	Name    string
	Value   string
	Path    string
	Expires time.Time
}

// Response is the JSON document returned by the interactive endpoints.
type Response struct {
	Error        string         `json:"error,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Message      string         `json:"message,omitempty"`
	Success      bool           `json:"success,omitempty"`
	Token        string         `json:"token,omitempty"`
	Popup        *verify.Prompt `json:"popup,omitempty"`
	Content      string         `json:"content,omitempty"`
	Timeout      int64          `json:"timeout,omitempty"`
	Skip         bool           `json:"skip,omitempty"`
	Redirect     string         `json:"redirect,omitempty"`
	Data         any            `json:"data,omitempty"`
	// Cookie is set by the transport, never serialized.
	Cookie *Cookie `json:"-"`
}

// SendMode selects how a guest's destination number is resolved.
type SendMode string

const (
	// SendAny sends to the submitted number.
	SendAny SendMode = ""
	// SendLogin sends to the confirmed number of the user matching Login and Password.
	SendLogin SendMode = "login"
	// SendUser sends to the submitted number only if a user owns it.
	SendUser SendMode = "user"
)

// SendRequest is the input of [Engine.SendCode].
type SendRequest struct {
	Tel      string
	Mode     SendMode
	ActionID int64
	Login    string
	Password string
}

// FrontendRule is what the browser script needs to hook a rule.
type FrontendRule struct {
	ID             int64  `json:"id"`
	ButtonSelector string `json:"button_selector"`
	PreCallback    string `json:"pre_callback,omitempty"`
}

// FrontendConfig lists the hooked rules and the proof token key.
type FrontendConfig struct {
	TokenKey string         `json:"token_key"`
	Rules    []FrontendRule `json:"rules"`
}

// HandlerInfo describes a handler on the user settings page.
type HandlerInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Switchable bool   `json:"switchable"`
	Enabled    bool   `json:"enabled"`
}

// RuleStore persists access rules.
type RuleStore interface {
	ListRules(ctx context.Context, filter rule.Filter) ([]*rule.AccessRule, error)
	GetRule(ctx context.Context, id int64) (*rule.AccessRule, error)
	SetRuleStatus(ctx context.Context, ids []int64, status rule.Status) error
}

// UserStore is the user directory.
type UserStore = verify.Users

// Gateway delivers SMS messages.
type Gateway = verify.Gateway

// Notifier delivers administrator notices, such as a missing SMS gateway.
type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

// AuditEvent is an alias for the internal audit event type.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes audit events as JSON lines.
type JSONWriterSink = internalaudit.JSONWriterSink

// LogSink writes audit events as structured log entries.
type LogSink = internalaudit.LogSink

// AuditStats reports audit events that did not reach the sink as emitted.
type AuditStats = internalaudit.Stats

func NewLogSink(log logrus.FieldLogger) *LogSink {
	return internalaudit.NewLogSink(log)
}

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
