// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"strings"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// ValidatePassword checks a resource password. Group, post and comment passwords
// only gate edits, so any non-blank value bcrypt can hash is accepted.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
	}
	return nil
}
