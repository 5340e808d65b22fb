package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

var reservedRoomNames = map[string]struct{}{
	"dashboard": {},
	"login":     {},
	"logout":    {},
	"admin":     {},
	"api":       {},
	"auth":      {},
	"rooms":     {},
	"room":      {},
	"users":     {},
	"contents":  {},
	"metrics":   {},
	"health":    {},
}

// ValidateRoomName validates room name length and reserved names.
// Reserved-name comparison is case-insensitive, like room name uniqueness.
func ValidateRoomName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed != name {
		return fmt.Errorf("room name cannot have leading or trailing spaces")
	}

	n := utf8.RuneCountInString(name)
	if n < 3 {
		return fmt.Errorf("room name must be at least 3 characters long")
	}
	if n > 60 {
		return fmt.Errorf("room name must not exceed 60 characters")
	}

	if _, exists := reservedRoomNames[strings.ToLower(name)]; exists {
		return fmt.Errorf("room name is reserved")
	}

	return nil
}

// ValidateRoomDescription bounds room description length.
func ValidateRoomDescription(description string) error {
	if utf8.RuneCountInString(description) > 500 {
		return fmt.Errorf("room description must not exceed 500 characters")
	}
	return nil
}
