package phone

import (
	"errors"
	"strings"
	"unicode"
)

// MinDigits is the minimum number of digits a phone number must carry
const MinDigits = 10

var ErrInvalidPhone = errors.New("phone number must be at least 10 digits")

// Normalize strips everything but digits from a phone-like identifier.
// All lookups and storage use the normalized form.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if len(cleaned) < MinDigits {
		return "", ErrInvalidPhone
	}
	return cleaned, nil
}

// Last4 returns the last four digits, used for placeholder display names
func Last4(normalized string) string {
	if len(normalized) < 4 {
		return normalized
	}
	return normalized[len(normalized)-4:]
}
