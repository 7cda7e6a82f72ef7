// Package dh25519 implements X25519 Diffie-Hellman keys: the ephemeral
// and signed/one-time prekey material X3DH and the double ratchet's DH
// step both run on.
package dh25519

import (
	"crypto/rand"

	"golang.org/x/crypto/curve25519"

	"safetalk/errs"
)

const (
	// KeySize is the X25519 scalar/point length in bytes.
	KeySize = 32
)

// PrivateKey is a 32-byte X25519 scalar. The bytes are stored as given
// (Generate does not clamp them); curve25519.X25519 clamps on every use.
type PrivateKey [KeySize]byte

// PublicKey is an X25519 Montgomery-curve point.
type PublicKey [KeySize]byte

// Pair bundles a private key with its derived public key.
type Pair struct {
	Priv PrivateKey
	Pub  PublicKey
}

// Generate draws a fresh X25519 keypair from the CSPRNG.
func Generate() (*Pair, error) {
	var priv PrivateKey
	if _, err := rand.Read(priv[:]); err != nil {
		return nil, err
	}
	pub, err := priv.Public()
	if err != nil {
		return nil, err
	}
	return &Pair{Priv: priv, Pub: pub}, nil
}

// Public derives the public point for priv by multiplying the
// curve25519 base point. curve25519.X25519 applies RFC 7748 clamping
// itself, so callers need not clamp raw random bytes first.
func (priv PrivateKey) Public() (PublicKey, error) {
	var pub PublicKey
	out, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return pub, err
	}
	copy(pub[:], out)
	return pub, nil
}

// DH computes the shared X25519 secret between priv and peer's public
// key. Returns errs.ErrInvalidKey if the result is the all-zero point
// (peer supplied a low-order point), per RFC 7748 section 6.1's contributory
// behavior check.
func DH(priv PrivateKey, peer PublicKey) ([KeySize]byte, error) {
	var secret [KeySize]byte
	out, err := curve25519.X25519(priv[:], peer[:])
	if err != nil {
		return secret, errs.ErrInvalidKey
	}
	copy(secret[:], out)
	if isAllZero(secret[:]) {
		return secret, errs.ErrInvalidKey
	}
	return secret, nil
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// Zero overwrites priv in place, for explicit destruction of ephemeral
// and one-time prekey secrets once consumed, once no longer needed.
func (priv *PrivateKey) Zero() {
	for i := range priv {
		priv[i] = 0
	}
}
