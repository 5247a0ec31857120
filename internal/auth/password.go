package auth

import "golang.org/x/crypto/bcrypt"

// passwordCost is the bcrypt work factor applied to every stored password.
const passwordCost = 10

// HashPassword derives a one-way hash suitable for persistence.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether the candidate matches the stored hash.
func CheckPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
