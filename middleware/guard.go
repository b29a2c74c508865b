package middleware

import (
	"encoding/json"
	"net/http"
	"net/url"

	goStepUp "github.com/MrEthical07/goStepUp"
	"github.com/sirupsen/logrus"
)

// GuardOptions tune how [Guard] answers stopped requests.
type GuardOptions struct {
	// LoginURL receives guests hitting a required rule, with the original
	// URI in the redirect_to query parameter. Empty answers 401.
	LoginURL string
	Log      logrus.FieldLogger
}

// Guard runs engine.Evaluate for every request and only lets allowed ones
// reach next. Run it after [Identify].
func Guard(engine *goStepUp.Engine, opts GuardOptions) func(http.Handler) http.Handler {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			req, err := Request(r)
			if err != nil {
				log.WithError(err).WithField("uri", r.URL.RequestURI()).Debug("unreadable request form")
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			out, err := engine.Evaluate(r.Context(), req, PrincipalFromContext(r.Context()))
			if err != nil {
				log.WithError(err).WithField("uri", req.URI).Error("step-up evaluation failed")
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			switch out.Decision {
			case goStepUp.DecisionAllow:
				next.ServeHTTP(w, r)
			case goStepUp.DecisionLoginRequired:
				if !req.AJAX && opts.LoginURL != "" {
					target := opts.LoginURL + "?redirect_to=" + url.QueryEscape(req.URI)
					http.Redirect(w, r, target, http.StatusFound)
					return
				}
				writeOutcome(w, req.AJAX, http.StatusUnauthorized, out)
			default:
				writeOutcome(w, req.AJAX, http.StatusForbidden, out)
			}
		})
	}
}

type outcomeBody struct {
	Decision string `json:"decision"`
	RuleID   int64  `json:"rule_id,omitempty"`
	Handler  string `json:"handler,omitempty"`
	Error    string `json:"error,omitempty"`
	Content  string `json:"content,omitempty"`
}

func writeOutcome(w http.ResponseWriter, ajax bool, status int, out *goStepUp.Outcome) {
	if !ajax && out.Page != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(out.Page))
		return
	}

	body := outcomeBody{Decision: out.Decision.String(), Handler: out.Handler, Error: out.Notice}
	if out.Rule != nil {
		body.RuleID = out.Rule.ID
	}
	if out.Prompt != nil {
		body.Content = out.Prompt.Body
	} else {
		body.Content = out.Page
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
