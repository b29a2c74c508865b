package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestIssueAndParseHS256(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	m, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: testSecret, Issuer: "stepup", Now: c.now})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, err := m.Issue("u1", "sid-1", "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UID != "u1" || claims.SID != "sid-1" || claims.Login != "alice" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	c.t = c.t.Add(2 * time.Hour)
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	claims := Claims{UID: "u1", SID: "s1", RegisteredClaims: gjwt.RegisteredClaims{ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
	if _, err := m.Issue("u1", "s1", ""); err == nil {
		t.Fatal("verify-only manager must not sign")
	}
}

func TestEd25519RoundTripAndKeyID(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	signer, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv, PublicKey: pub, KeyID: "k1"})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	token, err := signer.Issue("u1", "s1", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := signer.Parse(token); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	other, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub, KeyID: "k2"})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := other.Parse(token); err == nil {
		t.Fatal("expected unknown kid to be rejected")
	}
}

func TestNewManagerValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "zero ttl", cfg: Config{SigningMethod: MethodHS256, PrivateKey: testSecret}},
		{name: "short secret", cfg: Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("short")}},
		{name: "leeway too large", cfg: Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: testSecret, Leeway: time.Hour}},
		{name: "ed25519 without public key", cfg: Config{TTL: time.Minute, SigningMethod: MethodEd25519}},
		{name: "unknown method", cfg: Config{TTL: time.Minute, SigningMethod: "rs256"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewManager(tc.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func FuzzParse(f *testing.F) {
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: testSecret})
	if err != nil {
		f.Fatalf("NewManager: %v", err)
	}
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJub25lIn0.e30.")
	f.Fuzz(func(t *testing.T, token string) {
		_, _ = m.Parse(token)
	})
}
