package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrKeyRequired indicates a missing idempotency key on an endpoint
	// that requires one.
	ErrKeyRequired = errors.New("idempotency key is required for this operation")

	// ErrKeyInvalid indicates a key with characters outside the allowed
	// set.
	ErrKeyInvalid = errors.New("invalid idempotency key format")

	// ErrKeyTooLong indicates a key over the configured maximum length.
	ErrKeyTooLong = errors.New("idempotency key exceeds maximum length")
)

// Keys are restricted to characters that survive logging, URLs and header
// round trips unescaped.
var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateKey checks the key against the default maximum length.
func ValidateKey(key string) error {
	return ValidateKeyWithMaxLength(key, DefaultMaxKeyLength)
}

// ValidateKeyWithMaxLength checks the key format and length.
func ValidateKeyWithMaxLength(key string, maxLength int) error {
	if key == "" {
		return ErrKeyRequired
	}
	if len(key) > maxLength {
		return ErrKeyTooLong
	}
	if !keyPattern.MatchString(key) {
		return ErrKeyInvalid
	}
	return nil
}

// ComputeFingerprint hashes the request body. Retries carrying the same key
// but a different fingerprint are rejected rather than replayed.
func ComputeFingerprint(body []byte) string {
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}

// NormalizeKey trims surrounding whitespace from a client-supplied key.
func NormalizeKey(key string) string {
	return strings.TrimSpace(key)
}
