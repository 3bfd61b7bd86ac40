package validation

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Casers keep state between calls, so each call builds its own.

// NormalizeCode trims, NFC-normalizes and upper-cases an invite code.
func NormalizeCode(code string) string {
	return cases.Upper(language.Und).String(norm.NFC.String(strings.TrimSpace(code)))
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(email)))
}

// NormalizeName trims, collapses inner whitespace and NFC-normalizes a display name.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}
