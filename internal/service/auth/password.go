package auth

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier checks a plaintext password against a stored hash.
// Hashing lives in the user store, which owns the bcrypt cost; verification
// is split out so the login path can be tested without a store.
type PasswordVerifier interface {
	// Compare returns nil when the plaintext password matches the hash.
	Compare(hashedPassword, password string) error
}

// BcryptVerifier is the bcrypt-backed PasswordVerifier.
type BcryptVerifier struct{}

// NewBcryptVerifier returns a ready-to-use BcryptVerifier.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Compare checks the password against the bcrypt hash.
func (v *BcryptVerifier) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
