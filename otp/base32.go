package otp

import (
	"encoding/base32"
	"errors"
	"strings"
)

const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

var (
	// ErrSecretPadding is returned for secrets whose padding is not 0, 1, 3, 4 or 6 '=' characters at the end.
	ErrSecretPadding = errors.New("invalid totp secret padding")
	// ErrSecretAlphabet is returned for secrets containing characters outside A-Z2-7.
	ErrSecretAlphabet = errors.New("invalid totp secret character")
)

// DecodeSecret decodes an RFC 4648 base32 secret. Trailing bits that do not
// fill a whole byte are dropped.
func DecodeSecret(secret string) ([]byte, error) {
	pad := strings.Count(secret, "=")
	switch pad {
	case 0, 1, 3, 4, 6:
	default:
		return nil, ErrSecretPadding
	}
	if pad > 0 && !strings.HasSuffix(secret, strings.Repeat("=", pad)) {
		return nil, ErrSecretPadding
	}
	body := secret[:len(secret)-pad]

	out := make([]byte, 0, len(body)*5/8)
	var (
		acc  uint32
		bits uint
	)
	for i := 0; i < len(body); i++ {
		v := strings.IndexByte(base32Alphabet, body[i])
		if v < 0 {
			return nil, ErrSecretAlphabet
		}
		acc = acc<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>bits))
			acc &= 1<<bits - 1
		}
	}
	return out, nil
}

// EncodeSecret encodes raw as unpadded base32.
func EncodeSecret(raw []byte) string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
}
