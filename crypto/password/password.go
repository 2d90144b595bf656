// Package password implements C2, the password hasher: an adaptive
// one-way hash with embedded salt and work factor. golang.org/x/crypto
// is already the teacher's AEAD dependency; this wires its bcrypt
// sub-package rather than adding a new one.
package password

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/ndavault/ndavault/apierr"
)

// Cost is the bcrypt work factor. The spec requires cost ≥ 10;
// bcrypt.DefaultCost is 10.
const Cost = bcrypt.DefaultCost

// Hash transforms a password into a digest with embedded salt and
// work factor. No plaintext password is ever stored, logged, or
// returned.
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), Cost)
	if err != nil {
		return "", apierr.Wrap(apierr.Internal, "hash password", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. bcrypt's comparison
// is already constant-time over digests of equal length.
func Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
