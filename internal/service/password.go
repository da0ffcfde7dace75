package service

import (
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is lowered by tests.
var bcryptCost = bcrypt.DefaultCost

func hashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func passwordMatches(hash, plain string) bool {
	if hash == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
