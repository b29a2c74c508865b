package verify

import (
	"context"
	"strings"

	"github.com/MrEthical07/goStepUp/rule"
)

// User attribute keys shared by handlers and the engine.
const (
	AttrTel            = "_tfa_tel"
	AttrConfirmedTel   = "_tfa_confirmed_tel"
	AttrLastSentNumber = "_tfa_phone_number"
	AttrTOTPSecret     = "_tfa_gau_secret"
	AttrRuleSettings   = "_tfa_settings"
	AttrLoginMethod    = "tfa_login_verification_method"
	AttrDisableVerify  = "tfa_disable_verification"
	attrEnabledPrefix  = "_tfa_enabled_"
)

// EnabledAttr is the attribute recording whether the user switched handler id on.
func EnabledAttr(id string) string {
	return attrEnabledPrefix + id
}

// Truthy reports whether a stored attribute value counts as set.
func Truthy(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "0", "false":
		return false
	default:
		return true
	}
}

// Users is the user directory the handlers and the engine read and write.
// Attribute returns "" for unset keys.
type Users interface {
	Attribute(ctx context.Context, userID, key string) (string, error)
	SetAttribute(ctx context.Context, userID, key, value string) error
	DeleteAttribute(ctx context.Context, userID, key string) error
	// FindByAttribute lists the users whose key equals value.
	FindByAttribute(ctx context.Context, key, value string) ([]string, error)
	CheckPassword(ctx context.Context, userID, password string) (bool, error)
	// Authenticate resolves login and password to a user id. Unknown users
	// and wrong passwords both return ErrInvalidCredentials.
	Authenticate(ctx context.Context, login, password string) (string, error)
}

// Input is the submitted form of a verify or activate call.
type Input map[string]string

func (in Input) Get(key string) string {
	if in == nil {
		return ""
	}
	return in[key]
}

// Prompt is a renderable challenge. Body is Template rendered with Data.
type Prompt struct {
	Handler  string            `json:"handler,omitempty"`
	Template string            `json:"template,omitempty"`
	Body     string            `json:"body,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
	Skip     bool              `json:"skip,omitempty"`
}

// Handler is one verification method.
type Handler interface {
	ID() string
	Name() string
	Position() int
	Switchable() bool
	Optional() bool
	Configured(ctx context.Context, userID string) (bool, error)
	Verify(ctx context.Context, userID string, in Input) error
	// Prompt builds the verify challenge. data carries intro, action_id and
	// action_title from the caller.
	Prompt(ctx context.Context, userID string, data map[string]string) (*Prompt, error)
}

// Activator is implemented by handlers the user turns on themselves.
type Activator interface {
	ActivatePrompt(ctx context.Context, userID string) (*Prompt, error)
	Activate(ctx context.Context, userID string, in Input) (*Prompt, error)
}

// Deactivator is implemented by handlers the user may turn off.
type Deactivator interface {
	DeactivatePrompt(ctx context.Context, userID string) (*Prompt, error)
	Deactivate(ctx context.Context, userID string) error
}

// Templates overrides prompt templates by id. Missing ids use the built-in
// template.
type Templates map[string]string

func (t Templates) render(handlerID, id string, data map[string]string) *Prompt {
	tpl := t[id]
	if tpl == "" {
		tpl = defaultTemplates[id]
	}
	return &Prompt{
		Handler:  handlerID,
		Template: id,
		Body:     rule.Render(tpl, data),
		Data:     data,
	}
}

func copyData(data map[string]string, extra ...string) map[string]string {
	out := make(map[string]string, len(data)+len(extra)/2)
	for k, v := range data {
		out[k] = v
	}
	for i := 0; i+1 < len(extra); i += 2 {
		out[extra[i]] = extra[i+1]
	}
	return out
}
