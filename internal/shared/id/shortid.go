package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 12
)

// Stripe-style prefixes for public identifiers.
const (
	PrefixPlan         = "plan"
	PrefixSubscription = "sub"
)

// Generate creates a cryptographically random Base62 ID of the given length.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range result {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[n.Int64()]
	}
	return string(result), nil
}

// GenerateWithPrefix creates an ID in the form "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	shortID, err := Generate(length)
	if err != nil {
		return "", err
	}
	return prefix + "_" + shortID, nil
}

func NewPlanSID() (string, error) {
	return GenerateWithPrefix(PrefixPlan, DefaultLength)
}

func NewSubscriptionSID() (string, error) {
	return GenerateWithPrefix(PrefixSubscription, DefaultLength)
}

// ValidatePrefix checks that prefixedID is "<expectedPrefix>_<non-empty>".
func ValidatePrefix(prefixedID, expectedPrefix string) error {
	prefix, rest, ok := strings.Cut(prefixedID, "_")
	if !ok || rest == "" {
		return fmt.Errorf("invalid prefixed ID format: %s", prefixedID)
	}
	if prefix != expectedPrefix {
		return fmt.Errorf("invalid prefix: expected %s, got %s", expectedPrefix, prefix)
	}
	return nil
}
