// Package security wraps the one-way password hashing primitive.
package security

import "golang.org/x/crypto/bcrypt"

const hashCost = 10

// HashPassword derives a salted one-way hash from a plaintext password. The
// plaintext is never stored or logged.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext password matches the stored
// hash. The comparison cost does not depend on how closely the candidate
// matches.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
