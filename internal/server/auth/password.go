package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a salted bcrypt hash of password with the given cost.
// The salt is generated internally and encoded into the returned hash, so
// equal passwords still produce distinct hashes.
func HashPassword(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether password matches the bcrypt hash.
func VerifyPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
