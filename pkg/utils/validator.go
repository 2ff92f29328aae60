package utils

import (
	"fmt"
	"net/mail"
	"strings"
)

// ValidateEmail checks that email is a bare address with a dotted
// domain, like user@example.edu. Display names are rejected.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address: %s", email)
	}
	if _, domain, _ := strings.Cut(email, "@"); !strings.Contains(domain, ".") {
		return fmt.Errorf("invalid email address: %s", email)
	}
	return nil
}

// ValidateEstimatedValue validates a declared item value
func ValidateEstimatedValue(value float64) error {
	if value < 0 {
		return fmt.Errorf("estimated value must not be negative: %.2f", value)
	}
	return nil
}

// SanitizeString strips control characters from free-text input.
func SanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
