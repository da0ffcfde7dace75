package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword_AcceptsAnythingBcryptCanHash(t *testing.T) {
	t.Parallel()
	for _, pw := range []string{
		"1",
		"grouppw",
		" padded ",
		"비밀번호",
		strings.Repeat("x", MaxPasswordBytes),
	} {
		assert.NoError(t, ValidatePassword(pw), "%q", pw)
	}
}

func TestValidatePassword_Rejects(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"empty":                "",
		"whitespace only":      " \t\n",
		"one byte over bcrypt": strings.Repeat("x", MaxPasswordBytes+1),
		// 25 three-byte runes is 75 bytes even though it is only 25 characters.
		"multibyte over bcrypt": strings.Repeat("가", 25),
	}
	for name, pw := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidatePassword(pw))
		})
	}
}
