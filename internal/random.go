package internal

import (
	"crypto/rand"
	"math/big"
	"strconv"

	secure "github.com/soulteary/secure-kit"
)

const (
	smsCodeMin  = 100000
	smsCodeSpan = 900000
)

// NewSMSCode draws a uniform code in [100000, 999999].
func NewSMSCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(smsCodeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+smsCodeMin, 10), nil
}

// NewProofToken returns a word-character token prefixed with "t".
func NewProofToken() (string, error) {
	h, err := secure.RandomHex(16)
	if err != nil {
		return "", err
	}
	return "t" + h, nil
}
