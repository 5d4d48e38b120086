package utils

import "golang.org/x/crypto/bcrypt"

// Default cost; raising it needs a rehash-on-login plan for existing hashes.
const hashCost = bcrypt.DefaultCost

// HashPassword returns the bcrypt hash of pw. bcrypt only errors on a bad
// cost or an over-long secret, both impossible with validated input, so a
// failure degrades to a hash that never matches.
func HashPassword(pw string) string {
	b, _ := bcrypt.GenerateFromPassword([]byte(pw), hashCost)
	return string(b)
}

// CheckPassword reports whether pw matches the stored bcrypt hash.
func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
