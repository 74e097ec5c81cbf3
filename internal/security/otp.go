package security

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// NewOTP returns a uniform four-digit recovery code in 1000..9999.
// The plaintext goes to the notification channel only; callers store a
// bcrypt hash of it.
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}
