// Package identity represents long-term Ed25519 identity keys: the
// signing keypair each party generates once and publishes its public
// half of, used to sign prekeys and to authenticate X3DH handshakes.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"

	"safetalk/errs"
)

const (
	// PrivateKeySize is the raw Ed25519 seed length in bytes.
	PrivateKeySize = ed25519.SeedSize
	// PublicKeySize is the raw Ed25519 public key length in bytes.
	PublicKeySize = ed25519.PublicKeySize
	// SignatureSize is the raw Ed25519 signature length in bytes.
	SignatureSize = ed25519.SignatureSize
)

// PrivateKey is a 32-byte Ed25519 seed, the canonical representation
// this package stores and exchanges instead of the 64-byte expanded
// form ed25519.PrivateKey uses internally.
type PrivateKey [PrivateKeySize]byte

// PublicKey is a 32-byte Ed25519 public key.
type PublicKey [PublicKeySize]byte

// Pair bundles a private key with its derived public key.
type Pair struct {
	Priv PrivateKey
	Pub  PublicKey
}

// Generate draws a fresh identity keypair from the CSPRNG.
func Generate() (*Pair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	var p Pair
	copy(p.Priv[:], priv.Seed())
	copy(p.Pub[:], pub)
	return &p, nil
}

// FromSeed reconstructs a keypair from a previously stored 32-byte seed.
func FromSeed(seed PrivateKey) Pair {
	priv := ed25519.NewKeyFromSeed(seed[:])
	var p Pair
	p.Priv = seed
	copy(p.Pub[:], priv.Public().(ed25519.PublicKey))
	return p
}

// Public derives the public key for priv.
func (priv PrivateKey) Public() PublicKey {
	expanded := ed25519.NewKeyFromSeed(priv[:])
	var pub PublicKey
	copy(pub[:], expanded.Public().(ed25519.PublicKey))
	return pub
}

// Sign produces a detached Ed25519 signature over msg.
func (priv PrivateKey) Sign(msg []byte) [SignatureSize]byte {
	expanded := ed25519.NewKeyFromSeed(priv[:])
	sig := ed25519.Sign(expanded, msg)
	var out [SignatureSize]byte
	copy(out[:], sig)
	return out
}

// Verify checks a detached Ed25519 signature against msg. Returns
// errs.ErrBadPreKeySignature on mismatch rather than a bool, so callers
// can propagate a single sentinel up the X3DH/prekey call chain.
func (pub PublicKey) Verify(msg []byte, sig []byte) error {
	if len(sig) != SignatureSize {
		return errs.ErrMalformed
	}
	if !ed25519.Verify(pub[:], msg, sig) {
		return errs.ErrBadPreKeySignature
	}
	return nil
}

// Equal reports whether two public keys are byte-identical.
func (pub PublicKey) Equal(other PublicKey) bool {
	return pub == other
}
