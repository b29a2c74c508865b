// Package rule defines access rules: declarative request matchers that name
// the verification handlers allowed to confirm a guarded action.
package rule

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle state of a rule.
type Status int

const (
	StatusActive   Status = 1
	StatusDisabled Status = 10
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Method is the HTTP method a rule guards.
type Method int

const (
	MethodGet  Method = 0
	MethodPost Method = 1
)

func (m Method) String() string {
	if m == MethodPost {
		return "POST"
	}
	return "GET"
}

// ParseMethod maps an HTTP method name to a [Method].
func ParseMethod(s string) (Method, bool) {
	switch strings.ToUpper(s) {
	case "GET":
		return MethodGet, true
	case "POST":
		return MethodPost, true
	default:
		return 0, false
	}
}

// Template kinds overridable per rule.
const (
	TemplateCheckFailed    = "check_failed"
	TemplateCheckFailedGet = "check_failed_get"
	Template2FA            = "2fa"
	TemplateOK             = "ok"
)

const (
	defaultTokenTTL          = 60 * time.Second
	defaultPopupIntro        = "Please confirm the following action: {{action_title}}"
	defaultVerificationIntro = "To perform this action you need to set up a verification method."
)

// HandlerSetting toggles one handler for a rule.
type HandlerSetting struct {
	On bool `json:"on"`
}

// Config is the free-form part of a rule. Expires is the proof token
// lifetime in seconds.
type Config struct {
	Handler                 map[string]HandlerSetting `json:"handler,omitempty"`
	Tpl                     map[string]string         `json:"tpl,omitempty"`
	VerificationRequiredTpl string                    `json:"verification_required_tpl,omitempty"`
	PopupIntro              string                    `json:"popup_intro,omitempty"`
	VerificationIntro       string                    `json:"verification_intro,omitempty"`
	PreCallback             string                    `json:"pre_callback,omitempty"`
	Expires                 int                       `json:"expires,omitempty"`
	SuccessURL              string                    `json:"success_url,omitempty"`
}

// AccessRule guards one action.
type AccessRule struct {
	ID             int64
	Status         Status
	Title          string
	Method         Method
	URL            string
	Params         string
	ButtonSelector string
	Shortcode      string
	IsRequired     bool
	IsEditable     bool
	Config         Config
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Active reports whether the rule is enabled.
func (r *AccessRule) Active() bool {
	return r.Status == StatusActive
}

// Handlers returns the sorted ids of handlers enabled for the rule.
func (r *AccessRule) Handlers() []string {
	ids := make([]string, 0, len(r.Config.Handler))
	for id, h := range r.Config.Handler {
		if h.On {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// AllowsHandler reports whether handler id is enabled for the rule.
func (r *AccessRule) AllowsHandler(id string) bool {
	return r.Config.Handler[id].On
}

// SetHandler enables or disables handler id.
func (r *AccessRule) SetHandler(id string, on bool) {
	if r.Config.Handler == nil {
		r.Config.Handler = map[string]HandlerSetting{}
	}
	r.Config.Handler[id] = HandlerSetting{On: on}
}

// Template returns the override for kind, or "" for the default.
func (r *AccessRule) Template(kind string) string {
	return r.Config.Tpl[kind]
}

// PopupIntro is the text shown above the handler prompt.
func (r *AccessRule) PopupIntro() string {
	if r.Config.PopupIntro != "" {
		return r.Config.PopupIntro
	}
	return defaultPopupIntro
}

// VerificationIntro is the text shown when the user must set up a handler.
func (r *AccessRule) VerificationIntro() string {
	if r.Config.VerificationIntro != "" {
		return r.Config.VerificationIntro
	}
	return defaultVerificationIntro
}

// TokenTTL is the lifetime of proof tokens issued for the rule.
func (r *AccessRule) TokenTTL() time.Duration {
	if r.Config.Expires > 0 {
		return time.Duration(r.Config.Expires) * time.Second
	}
	return defaultTokenTTL
}

// TokenType is the proof token type bound to the rule.
func (r *AccessRule) TokenType() string {
	return strconv.FormatInt(r.ID, 10)
}

// Filter narrows rule listings.
type Filter struct {
	Status       Status
	RequiredOnly bool
	EditableOnly bool
	WithSelector bool
}

// Matches reports whether r passes the filter. A zero Status matches all.
func (f Filter) Matches(r *AccessRule) bool {
	if f.Status != 0 && r.Status != f.Status {
		return false
	}
	if f.RequiredOnly && !r.IsRequired {
		return false
	}
	if f.EditableOnly && !r.IsEditable {
		return false
	}
	if f.WithSelector && r.ButtonSelector == "" {
		return false
	}
	return true
}
