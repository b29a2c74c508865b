package rule

import (
	"strconv"
	"sync"

	"github.com/cbroglie/mustache"
)

var defaultTemplates = map[string]string{
	TemplateCheckFailed: `<h1>Security Check Failed</h1>
<p>Sorry, your request can not be processed because it requires verification.</p>
<p>Please return to the previous page, reload it and try to repeat the request.</p>
<p>If this won't work, please contact support.</p>
<div><a href="javascript:history.back()" class="button">Go Back</a></div>`,
	TemplateCheckFailedGet: `<h1>Security Check Required</h1>
<p>In order to access this page, you need to pass security check.</p>
<p>Please click the button below to proceed with check.</p>
<div><a href="{{check_url}}" class="button">Proceed with security check</a></div>`,
	Template2FA: `<div class="tfa-popup-title">Verification Required</div>
<p>Please activate at least one verification method in order to perform {{action_title}}</p>
<div class="tfa-popup-footer">
{{#settings_url}}
<a href="{{{settings_url}}}" target="_blank"><button type="button">Go to Settings</button></a>
{{/settings_url}}
<button type="button" class="tfa-popup-close">Ok</button>
</div>`,
	TemplateOK: `<div class="tfa-popup-title">Thank you</div>
<p>{{action_title}} had been confirmed.</p>
<div class="tfa-popup-footer">
<button type="button" onclick="true_factor_auth_popup_callback()">Ok</button>
</div>`,
}

// DefaultTemplate returns the built-in template for kind.
func DefaultTemplate(kind string) string {
	return defaultTemplates[kind]
}

// PopupTemplate returns the rule override for kind, falling back to the
// built-in template.
func (r *AccessRule) PopupTemplate(kind string) string {
	if tpl := r.Template(kind); tpl != "" {
		return tpl
	}
	return DefaultTemplate(kind)
}

// VerificationRequiredPopup renders the popup shown when the user has no
// handler that can confirm the rule.
func (r *AccessRule) VerificationRequiredPopup(settingsURL string) string {
	tpl := r.Config.VerificationRequiredTpl
	if tpl == "" {
		tpl = r.PopupTemplate(Template2FA)
	}
	return Render(tpl, map[string]string{
		"action_id":    strconv.FormatInt(r.ID, 10),
		"action_title": r.Title,
		"settings_url": settingsURL,
	})
}

// templates caches parsed templates by source. A nil entry marks a source
// that failed to parse.
var templates sync.Map

// partials lets admin templates include the built-in ones, as in {{> ok}}.
// Unknown names render as "" and nothing is read from disk.
var partials = &mustache.StaticProvider{Partials: defaultTemplates}

// Render expands a mustache template against values. Missing names render
// as "" and empty values are falsy in sections. A template that does not
// parse is returned unchanged.
func Render(tpl string, values map[string]string) string {
	t := parseTemplate(tpl)
	if t == nil {
		return tpl
	}
	out, err := t.Render(values)
	if err != nil {
		return tpl
	}
	return out
}

func parseTemplate(tpl string) *mustache.Template {
	if cached, ok := templates.Load(tpl); ok {
		t, _ := cached.(*mustache.Template)
		return t
	}
	t, err := mustache.ParseStringPartials(tpl, partials)
	if err != nil {
		t = nil
	}
	templates.Store(tpl, t)
	return t
}
