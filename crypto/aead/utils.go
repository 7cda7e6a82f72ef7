// Package aead implements AES-256-GCM authenticated encryption with
// optional associated data, the payload primitive used by the double
// ratchet.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"safetalk/errs"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12
)

// Encrypt draws a fresh nonce from the CSPRNG and seals plaintext under key,
// binding aad into the authentication tag.
func Encrypt(key [KeySize]byte, plaintext, aad []byte) (nonce [NonceSize]byte, ciphertext []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nonce, nil, err
	}
	if _, err = io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nonce, nil, err
	}
	ciphertext = gcm.Seal(nil, nonce[:], plaintext, aad)
	return nonce, ciphertext, nil
}

// Decrypt opens a GCM record produced by Encrypt. Any tag mismatch —
// tampered ciphertext, nonce, key, or aad — returns errs.ErrDecryptAuth.
func Decrypt(key [KeySize]byte, nonce [NonceSize]byte, ciphertext, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce[:], ciphertext, aad)
	if err != nil {
		return nil, errs.ErrDecryptAuth
	}
	return plaintext, nil
}

func newGCM(key [KeySize]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Flatten concatenates nonce and ciphertext into the wire encoding used
// when an encrypted record travels as a single byte slice.
func Flatten(nonce [NonceSize]byte, ciphertext []byte) []byte {
	out := make([]byte, 0, NonceSize+len(ciphertext))
	out = append(out, nonce[:]...)
	out = append(out, ciphertext...)
	return out
}

// Split recovers (nonce, ciphertext) from a flattened record. Inputs
// shorter than NonceSize are rejected with errs.ErrMalformed.
func Split(record []byte) (nonce [NonceSize]byte, ciphertext []byte, err error) {
	if len(record) < NonceSize {
		return nonce, nil, errs.ErrMalformed
	}
	copy(nonce[:], record[:NonceSize])
	ciphertext = append([]byte(nil), record[NonceSize:]...)
	return nonce, ciphertext, nil
}
