// Package roomcode generates the short codes guests type to join a room.
package roomcode

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Alphabet excludes visually ambiguous characters (0/O, 1/I/L) so codes
// survive being read aloud or copied from a screen.
const Alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// Length of every room code.
const Length = 6

// Generate returns a random room code. Codes are uniform over Alphabet and
// independent across calls; uniqueness among live sessions is enforced by
// the session store, not here.
func Generate() string {
	chars := []byte(Alphabet)
	code := make([]byte, Length)

	for i := 0; i < Length; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		code[i] = chars[n.Int64()]
	}

	return string(code)
}

// Normalize maps user input to the canonical code form used at generation
// time. Lookup and generation must agree on this.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid reports whether a normalized code has the right shape.
func IsValid(code string) bool {
	if len(code) != Length {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(Alphabet, c) {
			return false
		}
	}
	return true
}
