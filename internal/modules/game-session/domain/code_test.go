package domain_test

import (
	"strings"
	"testing"

	"github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"

	"github.com/stretchr/testify/require"
)

func Test_GenerateCode_Uses_Unambiguous_Alphabet(t *testing.T) {
	for i := 0; i < 200; i++ {
		// Act
		code, err := domain.GenerateCode()

		// Assert
		require.NoError(t, err)
		require.Len(t, code, domain.CodeLength)
		require.NoError(t, domain.ValidateCode(code))

		for _, c := range code {
			require.True(t, strings.ContainsRune(domain.CodeAlphabet, c), "unexpected character %q", c)
		}
	}
}

func Test_NormalizeCode_Uppercases_And_Trims(t *testing.T) {
	require.Equal(t, "ABC123", domain.NormalizeCode("  abc123 "))
}

func Test_ValidateCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"ABC123", true},
		{"OI0100", true},
		{"ABC12", false},
		{"ABC1234", false},
		{"abc123", false},
		{"ABC-12", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := domain.ValidateCode(tt.code)
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
