// Package cipher implements C1, the symmetric cipher: per-process
// envelope encryption under AES-256-GCM with random 96-bit nonces,
// generalized from the teacher's ChaCha20-Poly1305 session sealing to
// a one-shot seal/open contract for process bodies.
package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/internal/metrics"
)

const (
	// KeySize is the size in bytes of a process content key.
	KeySize = 32
	// NonceSize is the size in bytes of the AES-GCM nonce.
	NonceSize = 12
)

// GenerateKey draws a fresh 32-byte key from a CSPRNG.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, apierr.Wrap(apierr.Internal, "generate content key", err)
	}
	return key, nil
}

// Seal encrypts plaintext under key with a freshly drawn 96-bit nonce
// and no associated data, returning base64-encoded nonce‖ciphertext‖tag.
// Two calls with the same plaintext and key yield different output,
// since the nonce is random each time.
func Seal(plaintext, key []byte) (string, error) {
	start := time.Now()
	defer func() {
		metrics.CryptoOperationDuration.WithLabelValues("seal").Observe(time.Since(start).Seconds())
	}()

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", apierr.Wrap(apierr.Internal, "generate nonce", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	metrics.CryptoOperations.WithLabelValues("seal").Inc()
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a base64-encoded nonce‖ciphertext‖tag string produced
// by Seal, returning the original plaintext. It fails with Integrity
// if the tag does not verify, Malformed if the byte layout is short,
// or Internal if key is not 32 bytes.
func Open(sealed string, key []byte) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.CryptoOperationDuration.WithLabelValues("open").Observe(time.Since(start).Seconds())
	}()

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, apierr.Wrap(apierr.Malformed, "sealed body is not valid base64", err)
	}
	if len(raw) < NonceSize {
		return nil, apierr.New(apierr.Malformed, "sealed body shorter than nonce")
	}

	nonce, ciphertext := raw[:NonceSize], raw[NonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, apierr.Wrap(apierr.Integrity, "authentication tag did not verify", err)
	}
	metrics.CryptoOperations.WithLabelValues("open").Inc()
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, apierr.New(apierr.Internal, fmt.Sprintf("content key must be %d bytes, got %d", KeySize, len(key)))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apierr.Wrap(apierr.Internal, "construct AES cipher", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apierr.Wrap(apierr.Internal, "construct GCM AEAD", err)
	}
	return aead, nil
}
