package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// charset is the alphabet of generated paths: 62 alphanumeric characters.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultPathLength is the length of generated paths.
const DefaultPathLength = 8

// GeneratePath returns a cryptographically random alphanumeric path.
func GeneratePath(length int) (string, error) {
	if length <= 0 {
		length = DefaultPathLength
	}
	code := make([]byte, length)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}
