// Package auth authenticates clinic staff users and guards the HTTP routes by role.
package auth

import "golang.org/x/crypto/bcrypt"

// EncryptPassword hashes a plain password with the given bcrypt cost. A cost of zero
// uses bcrypt.DefaultCost.
func EncryptPassword(pass string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePasswords reports whether plainPass matches hashedPass.
func ComparePasswords(hashedPass, plainPass string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPass), []byte(plainPass)) == nil
}
