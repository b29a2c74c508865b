// Package otp implements the one-time code primitives: pending SMS codes
// kept in the caller's session and time-based codes derived from a shared
// secret.
package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	// TOTPPeriod is the length of one time step.
	TOTPPeriod = 30 * time.Second
	// TOTPDigits is the length of generated codes.
	TOTPDigits = 6
	// DefaultDiscrepancy is the number of steps accepted on either side of now.
	DefaultDiscrepancy = 3
)

// ErrEmptySecret is returned when a TOTP secret decodes to no bytes.
var ErrEmptySecret = errors.New("empty totp secret")

// TimeStep returns the step index containing t.
func TimeStep(t time.Time) int64 {
	return t.Unix() / int64(TOTPPeriod/time.Second)
}

// TOTPCode computes the code for secret at the given time step.
func TOTPCode(secret []byte, step int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(step))

	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (uint32(sum[offset])&0x7f)<<24 |
		uint32(sum[offset+1])<<16 |
		uint32(sum[offset+2])<<8 |
		uint32(sum[offset+3])

	return fmt.Sprintf("%0*d", TOTPDigits, bin%1000000)
}

// VerifyTOTP reports whether code matches secret within discrepancy steps of
// now. Only six-digit codes are considered.
func VerifyTOTP(code string, secret []byte, discrepancy int, now time.Time) (bool, error) {
	if !isSixDigits(code) {
		return false, nil
	}
	if len(secret) == 0 {
		return false, ErrEmptySecret
	}
	if discrepancy < 0 {
		discrepancy = 0
	}

	base := TimeStep(now)
	matched := false
	for k := -discrepancy; k <= discrepancy; k++ {
		step := base + int64(k)
		if step < 0 {
			continue
		}
		// Keep scanning after a match so timing does not depend on the offset.
		if subtle.ConstantTimeCompare([]byte(TOTPCode(secret, step)), []byte(code)) == 1 {
			matched = true
		}
	}
	return matched, nil
}

// VerifyTOTPSecret decodes a base32 secret and verifies code against it.
func VerifyTOTPSecret(code, secret string, discrepancy int, now time.Time) (bool, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return false, err
	}
	return VerifyTOTP(code, key, discrepancy, now)
}

func isSixDigits(code string) bool {
	if len(code) != TOTPDigits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
