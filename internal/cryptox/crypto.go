// Package cryptox implements the passphrase-based sealing of paste file
// bodies: PBKDF2 key derivation and AES-256-GCM encryption with the salt,
// nonce and ciphertext carried as base64 text.
//
// The constants here are a wire protocol shared with any companion client
// reading the same store; changing them breaks interoperability.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the length in bytes of the KDF salt, generated fresh
	// per Seal call.
	SaltSize = 16

	// NonceSize is the AES-GCM nonce length in bytes, generated fresh
	// per Seal call. A nonce must never repeat under the same key.
	NonceSize = 12

	// KeySize selects AES-256.
	KeySize = 32

	// TagSize is the GCM authentication tag appended to the ciphertext.
	TagSize = 16

	// KDFIterations is the fixed PBKDF2 iteration count. High on purpose,
	// to slow offline brute force against captured blobs.
	KDFIterations = 100_000
)

// ErrDecryptionFailed is returned by Unseal for every failure mode: bad
// base64, inconsistent field lengths, or tag verification failure. A wrong
// passphrase is deliberately indistinguishable from corrupted data so the
// result leaks nothing beyond pass/fail.
var ErrDecryptionFailed = errors.New("decryption failed")

// SealedBlob is the encrypted form of one file body as it travels to and
// from the paste store. All fields are standard base64.
type SealedBlob struct {
	Ciphertext string `json:"ciphertext"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
}

// DeriveKey derives the AES key from a passphrase and salt using
// PBKDF2-SHA256. Deterministic: same inputs always yield the same key.
func DeriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, KDFIterations, KeySize, sha256.New)
}

// Seal encrypts plaintext under the passphrase with a fresh random salt and
// nonce. The returned blob carries the GCM tag appended to the ciphertext.
func Seal(plaintext, passphrase string) (*SealedBlob, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	key := DeriveKey(passphrase, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	ciphertext := aesgcm.Seal(nil, nonce, []byte(plaintext), nil)

	return &SealedBlob{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Unseal decrypts a blob produced by Seal (or an interoperable
// implementation) with the given passphrase. Any failure is reported as
// ErrDecryptionFailed.
func Unseal(blob *SealedBlob, passphrase string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(blob.Ciphertext)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	salt, err := base64.StdEncoding.DecodeString(blob.Salt)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	nonce, err := base64.StdEncoding.DecodeString(blob.Nonce)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	if len(salt) != SaltSize || len(nonce) != NonceSize || len(ciphertext) < TagSize {
		return "", ErrDecryptionFailed
	}

	key := DeriveKey(passphrase, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}
