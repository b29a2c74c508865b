// Package phone normalizes free-text phone input and identifies the country
// a number belongs to from its dial code and area code.
package phone

import (
	"strings"

	"golang.org/x/text/width"
)

type country struct {
	iso      string
	name     string
	dial     string
	priority int
	areas    []string
}

// Info describes an identified phone number.
type Info struct {
	CountryISO string `json:"country_iso"`
	Country    string `json:"country"`
	DialCode   string `json:"dial_code"`
	Number     string `json:"number"`
}

// Normalize strips every non-digit character from raw after folding
// full-width digits to ASCII. The result is empty when raw contains no
// digits.
func Normalize(raw string) string {
	raw = width.Fold.String(raw)
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Identify resolves the country of raw. Entries with area codes only match
// when one of their areas follows the dial code. A longer matched prefix
// wins over a shorter one, so an area-specific entry beats the generic
// entry for its dial code; equal prefixes prefer the lowest priority.
func Identify(raw string) (*Info, bool) {
	number := Normalize(raw)
	if number == "" {
		return nil, false
	}

	var (
		best    *country
		bestLen int
	)
	for i := range countries {
		c := &countries[i]
		n := matchLen(c, number)
		if n == 0 {
			continue
		}
		if best == nil || n > bestLen || (n == bestLen && c.priority < best.priority) {
			best, bestLen = c, n
		}
	}
	if best == nil {
		return nil, false
	}

	return &Info{
		CountryISO: best.iso,
		Country:    best.name,
		DialCode:   best.dial,
		Number:     number[len(best.dial):],
	}, true
}

// Country returns the English name for an ISO code.
func Country(iso string) (string, bool) {
	iso = strings.ToLower(iso)
	for i := range countries {
		if countries[i].iso == iso {
			return countries[i].name, true
		}
	}
	return "", false
}

func matchLen(c *country, number string) int {
	if !strings.HasPrefix(number, c.dial) {
		return 0
	}
	if len(c.areas) == 0 {
		return len(c.dial)
	}
	rest := number[len(c.dial):]
	longest := 0
	for _, area := range c.areas {
		if strings.HasPrefix(rest, area) && len(area) > longest {
			longest = len(area)
		}
	}
	if longest == 0 {
		return 0
	}
	return len(c.dial) + longest
}
