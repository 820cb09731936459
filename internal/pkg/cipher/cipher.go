package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Placeholder is shown instead of a value that could not be decrypted.
const Placeholder = "Decryption Error"

const (
	keySize   = 32
	nonceSize = 12

	// tokenVersion is the key-version slot. Only one key exists today.
	tokenVersion = "v1"
	separator    = ":"
)

var (
	// ErrInvalidKeySize is returned by New when the key is not 32 bytes.
	ErrInvalidKeySize = errors.New("cipher: key must be exactly 32 bytes (AES-256)")
	// ErrDecryption is returned for malformed, tampered or foreign tokens.
	ErrDecryption = errors.New(Placeholder)
)

// Cipher encrypts and decrypts single text values.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}

// AESGCM implements Cipher with AES-256-GCM.
//
// Token format: v1:<hex nonce>:<hex ciphertext+tag>
type AESGCM struct {
	aead stdcipher.AEAD
	rand io.Reader
}

// New builds an AES-256-GCM cipher. The key is copied.
func New(key []byte) (*AESGCM, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}

	k := make([]byte, keySize)
	copy(k, key)

	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("cipher: aes init failed: %w", err)
	}
	aead, err := stdcipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher: gcm init failed: %w", err)
	}

	return &AESGCM{aead: aead, rand: rand.Reader}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *AESGCM) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", fmt.Errorf("cipher: nonce generation failed: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), []byte(tokenVersion))

	return tokenVersion + separator + hex.EncodeToString(nonce) + separator + hex.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt. Every failure is ErrDecryption.
func (c *AESGCM) Decrypt(token string) (string, error) {
	parts := strings.Split(token, separator)
	if len(parts) != 3 || parts[0] != tokenVersion {
		return "", ErrDecryption
	}

	nonce, err := hex.DecodeString(parts[1])
	if err != nil || len(nonce) != nonceSize {
		return "", ErrDecryption
	}

	sealed, err := hex.DecodeString(parts[2])
	if err != nil || len(sealed) < c.aead.Overhead() {
		return "", ErrDecryption
	}

	plain, err := c.aead.Open(nil, nonce, sealed, []byte(parts[0]))
	if err != nil {
		return "", ErrDecryption
	}

	return string(plain), nil
}

// DecryptOrPlaceholder returns the plaintext, or Placeholder when the token
// cannot be opened.
func DecryptOrPlaceholder(c Cipher, token string) string {
	plain, err := c.Decrypt(token)
	if err != nil {
		return Placeholder
	}
	return plain
}
