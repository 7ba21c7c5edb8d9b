package auth

import "golang.org/x/crypto/bcrypt"

// Passwords are stored as bcrypt hashes with per-user random salts.
// Callers only ever verify by comparison, never by re-hashing.

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hashed, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
}
