package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateNumericCode returns a zero-padded random code of the given length.
func GenerateNumericCode(digits int) string {
	if digits <= 0 {
		digits = 6
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		// fallback: time-based entropy
		n = new(big.Int).Mod(big.NewInt(time.Now().UnixNano()), limit)
	}

	return fmt.Sprintf("%0*d", digits, n.Int64())
}
