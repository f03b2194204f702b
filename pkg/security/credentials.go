package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CredentialsHash returns the hex sha256 of "email:password".
// It is the only form under which credentials appear in cache keys and ledgers.
func CredentialsHash(email, password string) string {
	sum := sha256.Sum256([]byte(email + ":" + password))
	return hex.EncodeToString(sum[:])
}

// SanitizeEmail trims whitespace and lowercases the address.
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail performs a loose syntactic check on an email address.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// MaskEmail creates a masked version for logging (keeps the first character and the domain)
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return MaskSecret(email)
	}
	return email[:1] + "***" + email[at:]
}

// MaskSecret creates a masked version for logging (shows only first/last few chars)
func MaskSecret(secret string) string {
	if len(secret) == 0 {
		return "[empty]"
	}

	if len(secret) <= 8 {
		return "[***]"
	}

	// Show first 3 and last 3 characters
	return secret[:3] + "..." + secret[len(secret)-3:]
}

// SecureCompare performs constant-time comparison of secrets to prevent timing attacks
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
