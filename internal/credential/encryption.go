// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package credential

// Encryption at rest for OAuth tokens.
//
//   - AES-256-GCM, 12-byte random nonce per value
//   - Key derived from CREDENTIAL_ENCRYPTION_KEY with HKDF-SHA256
//   - Output format: base64(nonce || ciphertext || tag)
//
// A nil *Encryptor is valid and means encryption is disabled: Encrypt and
// Decrypt return their input unchanged.

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	encryptionSalt = "sleepsight-credentials"
	encryptionInfo = "token-encryption-v1"
	aesKeySize     = 32
	gcmNonceSize   = 12
)

var (
	// ErrDecryptionFailed is returned for tampered data or a wrong key.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or authentication tag")

	// ErrInvalidCiphertext is returned when the value is not valid base64.
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")

	// ErrCiphertextTooShort is returned when the value cannot hold a nonce and tag.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// Encryptor seals tokens with AES-256-GCM.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor derives a key from secret. An empty secret disables
// encryption and returns a nil encryptor.
func NewEncryptor(secret string) (*Encryptor, error) {
	if secret == "" {
		return nil, nil
	}

	key, err := deriveKey(secret)
	if err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &Encryptor{aead: gcm}, nil
}

// Enabled reports whether values are actually encrypted.
func (e *Encryptor) Enabled() bool {
	return e != nil
}

// Encrypt seals plaintext. Empty input stays empty.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if e == nil || plaintext == "" {
		return plaintext, nil
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	if e == nil || ciphertext == "" {
		return ciphertext, nil
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}

	if len(data) < gcmNonceSize+e.aead.Overhead() {
		return "", ErrCiphertextTooShort
	}

	plaintext, err := e.aead.Open(nil, data[:gcmNonceSize], data[gcmNonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

func deriveKey(secret string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), []byte(encryptionSalt), []byte(encryptionInfo))
	key := make([]byte, aesKeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("read HKDF output: %w", err)
	}
	return key, nil
}
