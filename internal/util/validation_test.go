package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUUID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid uuid", "6f1a2b3c-4d5e-4f70-8a9b-0c1d2e3f4a5b", true},
		{"empty", "", false},
		{"uppercase rejected", "6F1A2B3C-4D5E-4F70-8A9B-0C1D2E3F4A5B", false},
		{"missing dashes", "6f1a2b3c4d5e4f708a9b0c1d2e3f4a5b", false},
		{"too short", "6f1a2b3c-4d5e-4f70-8a9b", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValidUUID(tc.input))
		})
	}
}

func TestIsValidEnum(t *testing.T) {
	roles := []string{"host", "guest"}

	t.Run("accepts member", func(t *testing.T) {
		assert.True(t, IsValidEnum("host", roles))
	})

	t.Run("accepts empty as unset", func(t *testing.T) {
		assert.True(t, IsValidEnum("", roles))
	})

	t.Run("rejects non-member", func(t *testing.T) {
		assert.False(t, IsValidEnum("admin", roles))
	})
}
