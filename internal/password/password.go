// Package password produces the stored representation of account passwords.
//
// Digests are unsalted hex SHA-256 so they stay comparable with rows written
// by earlier versions of the portal. See DESIGN.md before changing the scheme.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hash returns the digest stored for plaintext.
func Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Matches recomputes the digest of plaintext and compares it to digest.
func Matches(plaintext, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(plaintext)), []byte(digest)) == 1
}
