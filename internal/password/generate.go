package password

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateSecure produces a random password of exactly policy.Length
// characters drawn uniformly from the union of the enabled character
// classes, using crypto/rand. A zero Length falls back to the default.
func GenerateSecure(policy GenerationPolicy) (string, error) {
	if policy.Length == 0 {
		policy.Length = DefaultGeneratedLength
	}
	if policy.Length < 0 {
		return "", ErrInvalidLength
	}

	charset := policy.charset()
	if charset == "" {
		return "", ErrNoCharacterSets
	}

	result := make([]byte, policy.Length)
	max := big.NewInt(int64(len(charset)))
	for i := range result {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %v", err)
		}
		result[i] = charset[n.Int64()]
	}

	return string(result), nil
}
