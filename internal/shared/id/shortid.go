// Package id generates prefixed base62 short identifiers. Every externally
// visible entity carries one (Stripe-style) next to its numeric store ID.
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

// Entity prefixes.
const (
	PrefixHubObject       = "hub"
	PrefixCSObject        = "cso"
	PrefixConnectedSystem = "sys"
	PrefixSyncRule        = "rule"
	PrefixPendingExport   = "pex"
	PrefixRunProfile      = "run"
	PrefixActivity        = "act"
	PrefixOutcome         = "out"
)

// Generate creates a cryptographically random base62 ID of the given length.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}

	return string(result), nil
}

// MustGenerate creates a random short ID and panics on error.
func MustGenerate(length int) string {
	id, err := Generate(length)
	if err != nil {
		panic(err)
	}
	return id
}

// GenerateWithPrefix creates an ID in the form "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	id, err := Generate(length)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, id), nil
}

// MustGenerateWithPrefix creates a prefixed ID and panics on error.
func MustGenerateWithPrefix(prefix string, length int) string {
	id, err := GenerateWithPrefix(prefix, length)
	if err != nil {
		panic(err)
	}
	return id
}

// ParsePrefixedID splits "prefix_short" into its parts.
func ParsePrefixedID(prefixedID string) (prefix, shortID string, err error) {
	parts := strings.SplitN(prefixedID, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid prefixed ID format: %s", prefixedID)
	}
	return parts[0], parts[1], nil
}

// ValidatePrefix checks that a prefixed ID carries the expected prefix.
func ValidatePrefix(prefixedID, expectedPrefix string) error {
	prefix, _, err := ParsePrefixedID(prefixedID)
	if err != nil {
		return err
	}
	if prefix != expectedPrefix {
		return fmt.Errorf("invalid prefix: expected %s, got %s", expectedPrefix, prefix)
	}
	return nil
}

// NewHubObjectSID generates a hub object SID.
func NewHubObjectSID() string {
	return MustGenerateWithPrefix(PrefixHubObject, DefaultLength)
}

// NewCSObjectSID generates a connected-system object SID.
func NewCSObjectSID() string {
	return MustGenerateWithPrefix(PrefixCSObject, DefaultLength)
}

// NewConnectedSystemSID generates a connected system SID.
func NewConnectedSystemSID() string {
	return MustGenerateWithPrefix(PrefixConnectedSystem, DefaultLength)
}

// NewSyncRuleSID generates a sync rule SID.
func NewSyncRuleSID() string {
	return MustGenerateWithPrefix(PrefixSyncRule, DefaultLength)
}

// NewPendingExportSID generates a pending export SID.
func NewPendingExportSID() string {
	return MustGenerateWithPrefix(PrefixPendingExport, DefaultLength)
}

// NewRunProfileSID generates a run profile SID.
func NewRunProfileSID() string {
	return MustGenerateWithPrefix(PrefixRunProfile, DefaultLength)
}

// NewActivitySID generates an activity SID.
func NewActivitySID() string {
	return MustGenerateWithPrefix(PrefixActivity, DefaultLength)
}

// NewOutcomeSID generates an outcome item SID.
func NewOutcomeSID() string {
	return MustGenerateWithPrefix(PrefixOutcome, DefaultLength)
}
