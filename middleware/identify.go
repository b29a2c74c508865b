package middleware

import (
	"net/http"
	"regexp"
	"strings"

	goStepUp "github.com/MrEthical07/goStepUp"
	"github.com/MrEthical07/goStepUp/identity"
	secure "github.com/soulteary/secure-kit"
)

const (
	// SessionCookie carries the guest session id.
	SessionCookie = "tfa_sid"
	// AuthCookie carries the principal token for browser clients.
	AuthCookie = "tfa_auth"
)

var sessionIDPattern = regexp.MustCompile(`^[0-9a-f]{16,64}$`)

// Identify resolves the caller. A valid principal token, from the
// Authorization header or [AuthCookie], makes the request authenticated and
// supplies the session id. Otherwise the request is a guest whose session
// id comes from [SessionCookie], minted on first use.
func Identify(m *identity.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := principalToken(r); token != "" && m != nil {
				if claims, err := m.Parse(token); err == nil {
					p := goStepUp.Principal{UserID: claims.UID, Authenticated: true}
					next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), p, claims.SID)))
					return
				}
			}

			sid := ""
			if c, err := r.Cookie(SessionCookie); err == nil && sessionIDPattern.MatchString(c.Value) {
				sid = c.Value
			}
			if sid == "" {
				var err error
				if sid, err = NewSessionID(); err != nil {
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), goStepUp.Principal{}, sid)))
		})
	}
}

// NewSessionID returns a random hex session id.
func NewSessionID() (string, error) {
	return secure.RandomHex(16)
}

func principalToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	if c, err := r.Cookie(AuthCookie); err == nil {
		return c.Value
	}
	return ""
}
