package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithmID    = "argon2id"
	minMemoryKB    = 8 * 1024
	minSaltLength  = 16
	minKeyLength   = 16
	defaultMaxSize = 1024
)

var (
	ErrTooShort      = errors.New("password too short")
	ErrTooLong       = errors.New("password too long")
	ErrMalformedHash = errors.New("malformed password hash")
)

// Config holds Argon2id cost parameters and the accepted password length
// in bytes. MaxLength of zero means 1024.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int
	MaxLength   int
}

// DefaultConfig returns the OWASP recommended Argon2id parameters.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        1,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
		MinLength:   8,
		MaxLength:   defaultMaxSize,
	}
}

// Hasher hashes and verifies passwords.
type Hasher struct {
	config Config
}

func NewHasher(cfg Config) (*Hasher, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, errors.New("password memory must be >= 8192 KB")
	case cfg.Time < 1:
		return nil, errors.New("password time must be >= 1")
	case cfg.Parallelism < 1:
		return nil, errors.New("password parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return nil, errors.New("password salt length must be >= 16")
	case cfg.KeyLength < minKeyLength:
		return nil, errors.New("password key length must be >= 16")
	case cfg.MinLength < 0 || cfg.MaxLength < 0:
		return nil, errors.New("password length bounds must be >= 0")
	}
	if cfg.MaxLength == 0 {
		cfg.MaxLength = defaultMaxSize
	}
	if cfg.MinLength > cfg.MaxLength {
		return nil, errors.New("password MinLength exceeds MaxLength")
	}
	return &Hasher{config: cfg}, nil
}

// Hash returns the PHC encoding of a fresh Argon2id hash of pw.
func (h *Hasher) Hash(pw string) (string, error) {
	if len(pw) < h.config.MinLength || pw == "" {
		return "", ErrTooShort
	}
	if len(pw) > h.config.MaxLength {
		return "", ErrTooLong
	}

	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	p := phc{
		memory:      h.config.Memory,
		time:        h.config.Time,
		parallelism: h.config.Parallelism,
		salt:        salt,
	}
	p.hash = p.derive(pw, h.config.KeyLength)
	return p.String(), nil
}

// Verify reports whether pw matches encoded. Oversized input is refused
// before any key derivation.
func (h *Hasher) Verify(pw, encoded string) (bool, error) {
	if len(pw) > h.config.MaxLength {
		return false, ErrTooLong
	}
	p, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	computed := p.derive(pw, uint32(len(p.hash)))
	return subtle.ConstantTimeCompare(computed, p.hash) == 1, nil
}

// NeedsRehash reports whether encoded was made with weaker parameters than
// the hasher uses now.
func (h *Hasher) NeedsRehash(encoded string) (bool, error) {
	p, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	return h.config.Memory > p.memory ||
		h.config.Time > p.time ||
		h.config.Parallelism > p.parallelism ||
		h.config.KeyLength != uint32(len(p.hash)), nil
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

func (p phc) derive(pw string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(pw), p.salt, p.time, p.memory, p.parallelism, keyLen)
}

func (p phc) String() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version, p.memory, p.time, p.parallelism,
		base64.RawStdEncoding.EncodeToString(p.salt),
		base64.RawStdEncoding.EncodeToString(p.hash))
}

func parsePHC(encoded string) (phc, error) {
	var p phc
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return p, ErrMalformedHash
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return p, fmt.Errorf("%w: unsupported version %q", ErrMalformedHash, parts[2])
	}

	seen := 0
	for _, pair := range strings.Split(parts[3], ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return p, ErrMalformedHash
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil || n == 0 {
			return p, fmt.Errorf("%w: bad parameter %q", ErrMalformedHash, pair)
		}
		switch key {
		case "m":
			if n < minMemoryKB {
				return p, fmt.Errorf("%w: memory below minimum", ErrMalformedHash)
			}
			p.memory = uint32(n)
		case "t":
			p.time = uint32(n)
		case "p":
			if n > 255 {
				return p, fmt.Errorf("%w: parallelism out of range", ErrMalformedHash)
			}
			p.parallelism = uint8(n)
		default:
			return p, fmt.Errorf("%w: unknown parameter %q", ErrMalformedHash, key)
		}
		seen++
	}
	if seen != 3 || p.memory == 0 || p.time == 0 || p.parallelism == 0 {
		return p, fmt.Errorf("%w: missing parameters", ErrMalformedHash)
	}

	var err error
	if p.salt, err = decodeB64(parts[4]); err != nil || len(p.salt) < minSaltLength {
		return p, fmt.Errorf("%w: bad salt", ErrMalformedHash)
	}
	if p.hash, err = decodeB64(parts[5]); err != nil || len(p.hash) < minKeyLength {
		return p, fmt.Errorf("%w: bad hash", ErrMalformedHash)
	}
	return p, nil
}

// decodeB64 accepts padded and unpadded standard base64.
func decodeB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
