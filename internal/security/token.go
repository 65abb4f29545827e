package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

// OTPDigits is the length of a one-time passcode.
const OTPDigits = 6

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// NewToken returns a URL-safe random token of 32 bytes of entropy.
func NewToken() (string, error) {
	b, err := randomBytes(32)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewOTPCode returns a uniformly random decimal code in 100000..999999.
func NewOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
