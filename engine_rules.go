package goStepUp

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"

	"github.com/MrEthical07/goStepUp/rule"
	"github.com/sirupsen/logrus"
)

// FrontendRules lists the button-guarded rules the browser script should
// intercept for p. Rules bound to a shortcode are wrapped server side and
// left out, as are rules p has no handler for.
func (e *Engine) FrontendRules(ctx context.Context, p Principal) (*FrontendConfig, error) {
	rules, err := e.listRules(ctx, rule.Filter{Status: rule.StatusActive, WithSelector: true})
	if err != nil {
		return nil, err
	}

	out := &FrontendConfig{TokenKey: TokenKey, Rules: []FrontendRule{}}
	for _, r := range rules {
		if r.Shortcode != "" {
			continue
		}
		if !p.guest() {
			h, err := e.ResolveHandler(ctx, r, p.UserID)
			switch {
			case errors.Is(err, ErrRequiresSetup):
				// Still intercepted so the setup popup shows.
			case err != nil:
				return nil, err
			case h == nil:
				continue
			}
		}
		out.Rules = append(out.Rules, FrontendRule{
			ID:             r.ID,
			ButtonSelector: r.ButtonSelector,
			PreCallback:    r.Config.PreCallback,
		})
	}
	return out, nil
}

// SetRuleStatus moves the rules in ids to status.
func (e *Engine) SetRuleStatus(ctx context.Context, ids []int64, status rule.Status) error {
	if status != rule.StatusActive && status != rule.StatusDisabled {
		return fmt.Errorf("%w: unknown rule status %d", ErrInvalidRequest, status)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := e.rules.SetRuleStatus(ctx, ids, status); err != nil {
		return err
	}
	for _, id := range ids {
		e.emitAudit(ctx, auditEventRuleStatusChanged, true, "", id, "", nil, func() map[string]string {
			return map[string]string{"status": status.String()}
		})
	}
	e.log.WithFields(logrus.Fields{"rules": len(ids), "status": status.String()}).Info("rule status changed")
	return nil
}

// WrapShortcode marks the output of shortcode name with the id of the active
// rule bound to it, so the browser script can guard it. Output of unbound
// shortcodes is returned unchanged.
func (e *Engine) WrapShortcode(ctx context.Context, name, output string) (string, error) {
	if name == "" {
		return output, nil
	}
	rules, err := e.listRules(ctx, rule.Filter{Status: rule.StatusActive})
	if err != nil {
		return "", err
	}
	for _, r := range rules {
		if r.Shortcode == name {
			return `<div class="tfa-shortcode-action" data-action-id="` +
				html.EscapeString(strconv.FormatInt(r.ID, 10)) + `">` + output + `</div>`, nil
		}
	}
	return output, nil
}
