package security

import "golang.org/x/crypto/bcrypt"

// DefaultCost mirrors bcrypt's own default work factor.
const DefaultCost = bcrypt.DefaultCost

// HashPassword hashes a plain text password with bcrypt. A cost outside
// bcrypt's valid range falls back to the default.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password. A wrong
// password is an error return, never a panic.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
