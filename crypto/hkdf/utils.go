// Package hkdf wraps golang.org/x/crypto/hkdf with the fixed SHA-256
// instantiation used throughout X3DH and the double ratchet.
package hkdf

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Expand runs HKDF-SHA256 over secret with the given salt and
// domain-separation info, returning n bytes of output keying material.
// salt may be nil (HKDF substitutes a zero-filled salt of hash length).
func Expand(secret, salt, info []byte, n int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, salt, info)
	out := make([]byte, n)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}
