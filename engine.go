package goStepUp

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	internalaudit "github.com/MrEthical07/goStepUp/internal/audit"
	"github.com/MrEthical07/goStepUp/internal/rate"
	"github.com/MrEthical07/goStepUp/internal/stores"
	"github.com/MrEthical07/goStepUp/internal/throttle"
	"github.com/MrEthical07/goStepUp/rule"
	"github.com/MrEthical07/goStepUp/verify"
	"github.com/sirupsen/logrus"
)

// Engine evaluates access rules and runs the verification endpoints. It is
// safe for concurrent use once built.
type Engine struct {
	config   Config
	rules    RuleStore
	users    UserStore
	notifier Notifier

	registry *verify.Registry
	book     *verify.PhoneBook
	sms      *verify.SMS
	totp     *verify.TOTP
	tokens   *stores.ProofTokens
	ledger   *throttle.Ledger
	logins   *rate.Limiter

	audit   *internalaudit.Dispatcher
	metrics *Metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditStats returns audit drops by class and the number of folded
// rate-limit repeats.
func (e *Engine) AuditStats() AuditStats {
	var d *internalaudit.Dispatcher
	if e != nil {
		d = e.audit
	}
	return d.Stats()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Handlers lists the registered handlers in display order.
func (e *Engine) Handlers() []verify.Handler {
	return e.registry.List()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Evaluate decides whether req may proceed for p. Rules are tried in id
// order and the first applicable rule with a real handler decides. Guests
// only see required rules, and a match sends them to log in. Only store and
// session backend failures are returned as errors.
func (e *Engine) Evaluate(ctx context.Context, req Request, p Principal) (*Outcome, error) {
	if e == nil || e.registry == nil {
		return nil, ErrEngineNotReady
	}
	start := e.now()
	defer func() { e.metrics.Observe(MetricEvaluateLatency, e.now().Sub(start)) }()
	ctx = requestContext(ctx, req)

	if !p.guest() {
		bypass, err := e.users.Attribute(ctx, p.UserID, verify.AttrDisableVerify)
		if err != nil {
			return nil, err
		}
		if verify.Truthy(bypass) {
			e.metricInc(MetricEvaluateAllow)
			return &Outcome{Decision: DecisionAllow}, nil
		}
	}

	rules, err := e.listRules(ctx, rule.Filter{Status: rule.StatusActive, RequiredOnly: p.guest()})
	if err != nil {
		return nil, err
	}

	match := req.matcher()
	for _, r := range rules {
		if !r.IsApplicable(match) {
			continue
		}
		if p.guest() {
			e.metricInc(MetricEvaluateLoginRequired)
			return &Outcome{Decision: DecisionLoginRequired, Rule: r, Notice: msgLoginRequired}, nil
		}

		h, err := e.ResolveHandler(ctx, r, p.UserID)
		if errors.Is(err, ErrRequiresSetup) {
			e.metricInc(MetricEvaluateSetupRequired)
			body := r.VerificationRequiredPopup(e.config.Rules.SettingsURL)
			return &Outcome{
				Decision: DecisionSetupRequired,
				Rule:     r,
				Prompt:   &verify.Prompt{Template: rule.Template2FA, Body: body},
				Page:     verificationPage(body, ""),
			}, nil
		}
		if err != nil {
			return nil, err
		}
		if h == nil || h.ID() == noneHandlerID {
			continue
		}

		var notice string
		if token := e.presentedToken(req, r); token != "" {
			err := e.tokens.Check(ctx, req.SessionID, token, r.TokenType())
			switch {
			case err == nil:
				e.metricInc(MetricEvaluateAllow)
				return &Outcome{Decision: DecisionAllow, Rule: r, Handler: h.ID()}, nil
			case errors.Is(err, stores.ErrProofTokenBackend):
				return nil, err
			}
			notice = msgSecurityCheckFailed
			e.metricInc(MetricProofTokenRejected)
			e.emitAudit(ctx, auditEventTokenRejected, false, p.UserID, r.ID, h.ID(), err, nil)
		}

		if isPost(req.Method) {
			e.metricInc(MetricEvaluateCheckFailed)
			return &Outcome{
				Decision: DecisionCheckFailed,
				Rule:     r,
				Handler:  h.ID(),
				Page:     rule.Render(r.PopupTemplate(rule.TemplateCheckFailed), ruleValues(r)),
				Notice:   notice,
			}, nil
		}
		return e.challenge(ctx, req, p, r, h, notice)
	}

	e.metricInc(MetricEvaluateAllow)
	return &Outcome{Decision: DecisionAllow}, nil
}

// challenge builds the verification page answering a guarded GET request.
func (e *Engine) challenge(ctx context.Context, req Request, p Principal, r *rule.AccessRule, h verify.Handler, notice string) (*Outcome, error) {
	out := &Outcome{Decision: DecisionChallenge, Rule: r, Handler: h.ID(), Notice: notice}
	data := e.promptData(r)
	data["redirect"] = req.URI

	prompt, err := h.Prompt(ctx, p.UserID, data)
	if err != nil {
		msg, ok := verify.Message(err)
		if !ok {
			return nil, err
		}
		// The handler cannot challenge right now; fall back to a page that
		// sends the user back through the check.
		values := ruleValues(r)
		values["check_url"] = req.URI
		out.Notice = joinNotice(notice, msg)
		out.Page = rule.Render(r.PopupTemplate(rule.TemplateCheckFailedGet), values)
		e.metricInc(MetricEvaluateChallenge)
		return out, nil
	}

	out.Prompt = prompt
	out.Page = verificationPage(prompt.Body, out.Notice)
	e.metricInc(MetricEvaluateChallenge)
	e.emitAudit(ctx, auditEventChallengeIssued, true, p.UserID, r.ID, h.ID(), nil, nil)
	return out, nil
}

// ResolveHandler picks the handler userID confirms r with. Handlers must be
// both allowed by the rule and usable by the user. On editable rules a
// stored user preference wins; otherwise the first handler in display order
// is used. A required rule without any usable handler yields
// ErrRequiresSetup, an optional one yields (nil, nil).
func (e *Engine) ResolveHandler(ctx context.Context, r *rule.AccessRule, userID string) (verify.Handler, error) {
	handlers, err := e.registry.UserHandlers(ctx, userID)
	if err != nil {
		return nil, err
	}

	applicable := make([]verify.Handler, 0, len(handlers))
	for _, h := range handlers {
		if r.AllowsHandler(h.ID()) {
			applicable = append(applicable, h)
		}
	}

	if len(applicable) > 0 && r.IsEditable {
		prefs, err := e.rulePreferences(ctx, userID)
		if err != nil {
			return nil, err
		}
		if want := prefs[strconv.FormatInt(r.ID, 10)]; want != "" {
			for _, h := range applicable {
				if h.ID() == want {
					return h, nil
				}
			}
		}
	}

	if len(applicable) > 0 {
		return applicable[0], nil
	}
	if r.IsRequired {
		return nil, verify.Fail(ErrRequiresSetup, "%s", r.VerificationIntro())
	}
	return nil, nil
}

func (e *Engine) rulePreferences(ctx context.Context, userID string) (map[string]string, error) {
	raw, err := e.users.Attribute(ctx, userID, verify.AttrRuleSettings)
	if err != nil {
		return nil, err
	}
	prefs := map[string]string{}
	if raw == "" {
		return prefs, nil
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		e.log.WithError(err).WithField("user_id", userID).Warn("ignoring malformed rule preferences")
		return map[string]string{}, nil
	}
	return prefs, nil
}

func (e *Engine) listRules(ctx context.Context, filter rule.Filter) ([]*rule.AccessRule, error) {
	rules, err := e.rules.ListRules(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := rules[:0:0]
	for _, r := range rules {
		if r != nil && filter.Matches(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// activeRule loads an active rule or reports it as unknown.
func (e *Engine) activeRule(ctx context.Context, id int64) (*rule.AccessRule, bool, error) {
	if id <= 0 {
		return nil, false, nil
	}
	r, err := e.rules.GetRule(ctx, id)
	if errors.Is(err, ErrRuleNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if r == nil || !r.Active() {
		return nil, false, nil
	}
	return r, true, nil
}

// presentedToken reads the proof token for r: from the form for POST rules,
// from the cookie otherwise.
func (e *Engine) presentedToken(req Request, r *rule.AccessRule) string {
	name := TokenKey + strconv.FormatInt(r.ID, 10)
	if r.Method == rule.MethodPost {
		return req.Form.Get(name)
	}
	return req.Cookies[name]
}

func (e *Engine) promptData(r *rule.AccessRule) map[string]string {
	values := ruleValues(r)
	values["intro"] = rule.Render(r.PopupIntro(), values)
	return values
}

func ruleValues(r *rule.AccessRule) map[string]string {
	return map[string]string{
		"action_id":    strconv.FormatInt(r.ID, 10),
		"action_title": r.Title,
	}
}

func isPost(method string) bool {
	m, ok := rule.ParseMethod(method)
	return ok && m == rule.MethodPost
}

const verificationPageTpl = `{{#notice}}<div class="tfa-notice">{{notice}}</div>
{{/notice}}<div class="tfa-popup-wrapper tfa-modal">
<div class="tfa-popup">{{{popup}}}</div>
</div>`

func verificationPage(popup, notice string) string {
	return rule.Render(verificationPageTpl, map[string]string{"popup": popup, "notice": notice})
}

func joinNotice(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// softFail logs a failure that must not reach the end user.
func (e *Engine) softFail(err error, msg string, fields logrus.Fields) {
	if err == nil {
		return
	}
	e.log.WithFields(fields).WithError(err).Warn(msg)
}
