package rsvps

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

// Ambiguous glyphs (I, O, 0, 1) are left out so codes can be read aloud at the door.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var codeRe = regexp.MustCompile(`^C25-[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$`)

// GenerateConfirmationCode returns a random C25-XXXX-XXXX code.
func GenerateConfirmationCode() (string, error) {
	part1, err := randomPart(4)
	if err != nil {
		return "", err
	}
	part2, err := randomPart(4)
	if err != nil {
		return "", err
	}
	return "C25-" + part1 + "-" + part2, nil
}

// IsConfirmationCode reports whether s has the confirmation code shape.
func IsConfirmationCode(s string) bool {
	return codeRe.MatchString(s)
}

func randomPart(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b), nil
}
