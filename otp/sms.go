package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"regexp"
	"time"

	"github.com/MrEthical07/goStepUp/internal"
	"github.com/MrEthical07/goStepUp/session"
)

const (
	// DefaultCodeTTL is how long a sent SMS code stays valid.
	DefaultCodeTTL = 600 * time.Second

	codesSessionKey = "tfa_sms_codes"
)

var (
	// ErrInvalidCode covers malformed, unknown and wrong codes alike.
	ErrInvalidCode = errors.New("entered code is incorrect")
	// ErrCodeExpired is returned when the code matched after its deadline.
	ErrCodeExpired = errors.New("entered code is outdated")
)

var submittedCodePattern = regexp.MustCompile(`^\w{4,}$`)

// CodesConfig tunes SMS code storage.
type CodesConfig struct {
	TTL time.Duration
	// BypassCode, when non-empty, is accepted for any number. Leave empty
	// outside of test environments.
	BypassCode string
}

type pendingCode struct {
	Code    string `json:"code"`
	Expires int64  `json:"expires"`
}

// Codes creates and checks SMS codes. Pending codes live in the session of
// the requester, one per phone number.
type Codes struct {
	store  session.Store
	ttl    time.Duration
	bypass string
	now    func() time.Time
}

// NewCodes creates a code manager. A nil now uses time.Now.
func NewCodes(store session.Store, cfg CodesConfig, now func() time.Time) *Codes {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCodeTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Codes{
		store:  store,
		ttl:    cfg.TTL,
		bypass: cfg.BypassCode,
		now:    now,
	}
}

// Create draws a new code for number, replacing any pending one.
func (c *Codes) Create(ctx context.Context, sessionID, number string) (string, error) {
	code, err := internal.NewSMSCode()
	if err != nil {
		return "", err
	}

	codes, err := c.load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	codes[number] = pendingCode{
		Code:    code,
		Expires: c.now().Add(c.ttl).Unix(),
	}
	if err := c.store.Set(ctx, sessionID, codesSessionKey, codes); err != nil {
		return "", err
	}
	return code, nil
}

// Check validates submitted against the pending code for number. A matching
// code is consumed. An expired match returns [ErrCodeExpired] and stays
// stored.
func (c *Codes) Check(ctx context.Context, sessionID, number, submitted string) error {
	if c.bypass != "" && subtle.ConstantTimeCompare([]byte(c.bypass), []byte(submitted)) == 1 {
		return nil
	}
	if !submittedCodePattern.MatchString(submitted) {
		return ErrInvalidCode
	}

	codes, err := c.load(ctx, sessionID)
	if err != nil {
		return err
	}
	p, ok := codes[number]
	if !ok || subtle.ConstantTimeCompare([]byte(p.Code), []byte(submitted)) != 1 {
		return ErrInvalidCode
	}
	if c.now().Unix() > p.Expires {
		return ErrCodeExpired
	}

	delete(codes, number)
	if len(codes) == 0 {
		return c.store.Delete(ctx, sessionID, codesSessionKey)
	}
	return c.store.Set(ctx, sessionID, codesSessionKey, codes)
}

func (c *Codes) load(ctx context.Context, sessionID string) (map[string]pendingCode, error) {
	codes := map[string]pendingCode{}
	if _, err := c.store.Get(ctx, sessionID, codesSessionKey, &codes); err != nil {
		return nil, err
	}
	if codes == nil {
		codes = map[string]pendingCode{}
	}
	return codes, nil
}
