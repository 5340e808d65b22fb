// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

const passwordSpecials = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// ValidatePassword enforces the account password policy: 12 to 128
// characters with at least one uppercase letter, lowercase letter, digit,
// and special character.
func ValidatePassword(password string) error {
	switch {
	case len(password) < 12:
		return fmt.Errorf("password must be at least 12 characters long")
	case len(password) > 128:
		return fmt.Errorf("password must not exceed 128 characters")
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}

	switch {
	case !upper:
		return fmt.Errorf("password must contain at least one uppercase letter")
	case !lower:
		return fmt.Errorf("password must contain at least one lowercase letter")
	case !digit:
		return fmt.Errorf("password must contain at least one digit")
	case !special:
		return fmt.Errorf("password must contain at least one special character (!@#$%%^&*)")
	}
	return nil
}

// ValidateUsername enforces handle rules: 3 to 30 characters of letters,
// digits, underscores and hyphens, with a letter or digit at each end.
func ValidateUsername(username string) error {
	switch {
	case len(username) < 3:
		return fmt.Errorf("username must be at least 3 characters long")
	case len(username) > 30:
		return fmt.Errorf("username must not exceed 30 characters")
	case !usernameRegex.MatchString(username):
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}

	if strings.ContainsAny(username[:1], "_-") || strings.ContainsAny(username[len(username)-1:], "_-") {
		return fmt.Errorf("username cannot start or end with underscore or hyphen")
	}
	return nil
}

// ValidateEmail checks basic email shape and length.
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}
