package domain

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// NormalizePhone strips every non-digit character from raw, preserving one
// leading '+', and validates the result against the canonical pattern
// (10 to 15 digits). The operation is idempotent.
func NormalizePhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	hadPlus := strings.HasPrefix(trimmed, "+")

	normalized := DigitsOnly(trimmed)
	if hadPlus {
		normalized = "+" + normalized
	}

	if !phonePattern.MatchString(normalized) {
		return "", ErrInvalidPhone
	}
	return normalized, nil
}

// DigitsOnly removes everything but ASCII digits. Directory rows are matched
// against the inbound phone on this form, so "+1 (234) 567-8901" and
// "12345678901" address the same record.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
