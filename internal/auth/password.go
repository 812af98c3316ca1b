package auth

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the work factor used for new password hashes.
var BcryptCost = bcrypt.DefaultCost

// HashPassword hashes a plain-text password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a stored hash with a candidate password.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
