package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	CodeLength = 6

	// CodeAlphabet leaves out 0, O, 1 and I.
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

func GenerateCode() (string, error) {
	max := big.NewInt(int64(len(CodeAlphabet)))

	var b strings.Builder
	b.Grow(CodeLength)

	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate game code: %w", err)
		}
		b.WriteByte(CodeAlphabet[n.Int64()])
	}

	return b.String(), nil
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode accepts any six upper case letters or digits. Generated codes
// avoid confusable characters but hand-picked ones may use them.
func ValidateCode(code string) error {
	if len(code) != CodeLength {
		return fmt.Errorf("code must be exactly %d characters", CodeLength)
	}

	for _, c := range code {
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return fmt.Errorf("code contains invalid character '%c'", c)
		}
	}

	return nil
}
