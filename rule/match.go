package rule

import (
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// Request is the part of an HTTP request the matcher looks at. Params holds
// query and form values merged, form values taking precedence.
type Request struct {
	Method string
	URI    string
	Params url.Values
}

// patterns caches compiled expressions by their source. A nil entry marks an
// expression that failed to compile.
var patterns sync.Map

// IsApplicable reports whether req is an occurrence of the guarded action.
func (r *AccessRule) IsApplicable(req Request) bool {
	if strings.ToUpper(req.Method) != r.Method.String() {
		return false
	}
	if r.URL == "" && strings.TrimSpace(r.Params) == "" {
		return false
	}

	if r.URL != "" {
		if strings.HasPrefix(r.URL, "~") {
			if !matchPattern(r.URL, req.URI) {
				return false
			}
		} else if !strings.Contains(req.URI, r.URL) {
			return false
		}
	}

	for _, line := range strings.Split(r.Params, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, want, hasValue := strings.Cut(line, "=")
		values, ok := req.Params[name]
		if !ok || len(values) == 0 {
			return false
		}
		if !hasValue {
			continue
		}
		got := values[0]
		if strings.HasPrefix(want, "~") {
			if !matchPattern(want, got) {
				return false
			}
		} else if got != want {
			return false
		}
	}
	return true
}

// ValidPattern reports whether a `~expr~flags` pattern compiles. Admin
// tooling uses it to reject bad rules before they are saved.
func ValidPattern(pattern string) bool {
	return compilePattern(pattern) != nil
}

func matchPattern(pattern, subject string) bool {
	re := compilePattern(pattern)
	return re != nil && re.MatchString(subject)
}

func compilePattern(pattern string) *regexp.Regexp {
	if cached, ok := patterns.Load(pattern); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}
	re := parsePattern(pattern)
	patterns.Store(pattern, re)
	return re
}

// parsePattern translates a delimited expression such as `~^/pay/\d+~i`.
// The delimiter is the first byte; whatever follows the last delimiter is a
// flag list.
func parsePattern(pattern string) *regexp.Regexp {
	if len(pattern) < 2 {
		return nil
	}
	delim := pattern[:1]
	end := strings.LastIndex(pattern, delim)
	if end <= 0 {
		return nil
	}
	expr, suffix := pattern[1:end], pattern[end+1:]

	var flags strings.Builder
	for _, f := range suffix {
		switch f {
		case 'i', 'm', 's', 'U':
			flags.WriteRune(f)
		case 'x':
			expr = stripExtended(expr)
		case 'u', 'D':
			// UTF-8 mode is always on; Go's $ never matches before a trailing newline.
		default:
			return nil
		}
	}
	// An empty expression would match every subject.
	if expr == "" {
		return nil
	}
	if flags.Len() > 0 {
		expr = "(?" + flags.String() + ")" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	return re
}

// stripExtended drops unescaped whitespace and # comments outside character
// classes.
func stripExtended(expr string) string {
	var b strings.Builder
	inClass, comment := false, false
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case comment:
			if c == '\n' {
				comment = false
			}
		case c == '\\' && i+1 < len(expr):
			b.WriteByte(c)
			b.WriteByte(expr[i+1])
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
			b.WriteByte(c)
		case c == '[':
			inClass = true
			b.WriteByte(c)
		case c == '#':
			comment = true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
