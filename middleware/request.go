package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"

	goStepUp "github.com/MrEthical07/goStepUp"
)

type principalContextKey struct{}
type sessionContextKey struct{}

// PrincipalFromContext returns the caller set by [Identify]. Guests get a
// zero Principal.
func PrincipalFromContext(ctx context.Context) goStepUp.Principal {
	p, _ := ctx.Value(principalContextKey{}).(goStepUp.Principal)
	return p
}

// SessionIDFromContext returns the session id set by [Identify].
func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionContextKey{}).(string)
	return sid
}

// WithIdentity attaches p and sid to ctx.
func WithIdentity(ctx context.Context, p goStepUp.Principal, sid string) context.Context {
	ctx = context.WithValue(ctx, principalContextKey{}, p)
	return context.WithValue(ctx, sessionContextKey{}, sid)
}

// MaxFormBytes bounds the request body [Request] buffers to read a form.
const MaxFormBytes = 10 << 20

// ErrFormTooLarge is returned by [Request] for form bodies above MaxFormBytes.
var ErrFormTooLarge = errors.New("form body too large")

// Request converts r for the engine. Url-encoded and multipart bodies are
// parsed from a copy; r.Body is left readable for the next handler.
func Request(r *http.Request) (goStepUp.Request, error) {
	form, err := readForm(r)
	if err != nil {
		return goStepUp.Request{}, err
	}
	cookies := make(map[string]string, len(r.Cookies()))
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}
	return goStepUp.Request{
		Method:    r.Method,
		URI:       r.URL.RequestURI(),
		Query:     r.URL.Query(),
		Form:      form,
		Cookies:   cookies,
		SessionID: SessionIDFromContext(r.Context()),
		ClientIP:  ClientIP(r),
		Referer:   r.Referer(),
		AJAX:      IsAJAX(r),
	}, nil
}

func readForm(r *http.Request) (url.Values, error) {
	form := url.Values{}
	if r.Body == nil || r.Body == http.NoBody {
		return form, nil
	}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "application/x-www-form-urlencoded" && ct != "multipart/form-data" {
		return form, nil
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, MaxFormBytes+1))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("read form body: %w", err)
	}
	if len(buf) > MaxFormBytes {
		return nil, ErrFormTooLarge
	}

	cp := r.Clone(r.Context())
	cp.Body = io.NopCloser(bytes.NewReader(buf))
	cp.Form, cp.PostForm, cp.MultipartForm = nil, nil, nil
	if ct == "multipart/form-data" {
		err = cp.ParseMultipartForm(MaxFormBytes)
		if cp.MultipartForm != nil {
			_ = cp.MultipartForm.RemoveAll()
		}
	} else {
		err = cp.ParseForm()
	}
	if err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	for key, values := range cp.PostForm {
		form[key] = values
	}
	return form, nil
}

// ClientIP returns the host part of r.RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// IsAJAX reports whether r expects a JSON answer.
func IsAJAX(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
