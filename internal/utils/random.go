package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	loginTokenLen   = 64
	mailTokenLen    = 20
	loginTokenChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	mailTokenChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func randomString(length int, chars string) string {
	max := big.NewInt(int64(len(chars)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken;
			// there is no sane way to continue issuing tokens.
			panic("utils: crypto/rand unavailable: " + err.Error())
		}
		out[i] = chars[n.Int64()]
	}
	return string(out)
}

// NewLoginToken returns a 64-character bearer token drawn from
// letters, digits and punctuation.
func NewLoginToken() string {
	return randomString(loginTokenLen, loginTokenChars)
}

// NewMailToken returns a short alphanumeric token for email
// verification and password-reset links.
func NewMailToken() string {
	return randomString(mailTokenLen, mailTokenChars)
}
