// Package otp generates one-time email verification codes.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	codeMin   = 100000
	codeRange = 900000
)

// Generate returns a uniformly random 6-digit code in [100000, 999999],
// drawn from the operating system CSPRNG.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", codeMin+n.Int64()), nil
}
