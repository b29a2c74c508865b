package stores

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/MrEthical07/goStepUp/internal"
	"github.com/MrEthical07/goStepUp/session"
)

const (
	proofTokensSessionKey = "tfa_tokens"
	defaultProofTokenTTL  = 60 * time.Second
	// Entries are kept this long past expiry so a late check reports
	// expiry instead of an unknown token.
	proofTokenGrace = 60 * time.Second
)

var (
	ErrProofTokenInvalid = errors.New("proof token invalid")
	ErrProofTokenExpired = errors.New("proof token expired")
	ErrProofTokenBackend = errors.New("proof token backend unavailable")
)

var proofTokenPattern = regexp.MustCompile(`^\w+$`)

type proofToken struct {
	Type    string `json:"type"`
	Expires int64  `json:"expires"`
}

// ProofTokens issues tokens proving that a session passed verification for
// one token type. A token stays valid until it expires, including after a
// successful check.
type ProofTokens struct {
	sessions session.Store
	now      func() time.Time
}

func NewProofTokens(sessions session.Store, now func() time.Time) *ProofTokens {
	if now == nil {
		now = time.Now
	}
	return &ProofTokens{sessions: sessions, now: now}
}

// Issue stores a new token of typ. Non-positive ttl means 60 seconds.
func (s *ProofTokens) Issue(ctx context.Context, sessionID, typ string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultProofTokenTTL
	}
	token, err := internal.NewProofToken()
	if err != nil {
		return "", err
	}

	tokens, err := s.load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	tokens[token] = proofToken{Type: typ, Expires: s.now().Add(ttl).Unix()}

	if err := s.sessions.Set(ctx, sessionID, proofTokensSessionKey, tokens); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProofTokenBackend, err)
	}
	return token, nil
}

// Check validates token against typ.
func (s *ProofTokens) Check(ctx context.Context, sessionID, token, typ string) error {
	if !proofTokenPattern.MatchString(token) {
		return ErrProofTokenInvalid
	}

	tokens, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}

	rec, ok := tokens[token]
	if !ok || rec.Type != typ {
		return ErrProofTokenInvalid
	}
	if rec.Expires < s.now().Unix() {
		return ErrProofTokenExpired
	}
	return nil
}

// load returns the session tokens with long-expired entries purged. The
// purge is persisted when it removed anything.
func (s *ProofTokens) load(ctx context.Context, sessionID string) (map[string]proofToken, error) {
	tokens := map[string]proofToken{}
	if _, err := s.sessions.Get(ctx, sessionID, proofTokensSessionKey, &tokens); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofTokenBackend, err)
	}
	if tokens == nil {
		tokens = map[string]proofToken{}
	}

	cut := s.now().Add(-proofTokenGrace).Unix()
	purged := false
	for k, rec := range tokens {
		if rec.Expires < cut {
			delete(tokens, k)
			purged = true
		}
	}
	if purged {
		if err := s.sessions.Set(ctx, sessionID, proofTokensSessionKey, tokens); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProofTokenBackend, err)
		}
	}
	return tokens, nil
}
