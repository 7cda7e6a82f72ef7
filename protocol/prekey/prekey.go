// Package prekey implements the medium-lived and one-time X25519
// prekeys published alongside an identity key, and the bundle a
// sender fetches to run X3DH against an offline recipient.
package prekey

import (
	"encoding/base64"
	"encoding/json"

	"safetalk/crypto/dh25519"
	"safetalk/crypto/identity"
	"safetalk/errs"
)

// SignedPreKey is a medium-lived X25519 keypair whose public half is
// signed by the owner's identity key, rotated by policy outside this
// package.
type SignedPreKey struct {
	KeyID     uint32
	Public    dh25519.PublicKey
	Signature [identity.SignatureSize]byte
	Timestamp uint64
}

// OneTimePreKey is a single-use X25519 keypair. Its private half must
// be destroyed by the host immediately after one successful responder
// X3DH derivation references its KeyID.
type OneTimePreKey struct {
	KeyID  uint32
	Public dh25519.PublicKey
}

// Bundle is the record a sender fetches to run X3DH against a
// recipient: their identity key, current signed prekey, and an
// optional one-time prekey.
type Bundle struct {
	IdentityKey   identity.PublicKey
	SignedPreKey  SignedPreKey
	OneTimePreKey *OneTimePreKey
}

// Sign produces the 64-byte Ed25519 signature over a signed prekey's
// public bytes, binding it to the owning identity key.
func Sign(identityPriv identity.PrivateKey, prekeyPublic dh25519.PublicKey) [identity.SignatureSize]byte {
	return identityPriv.Sign(prekeyPublic[:])
}

// Verify checks a signed prekey's signature against the claimed
// identity key. Returns errs.ErrBadPreKeySignature on mismatch.
func Verify(identityPub identity.PublicKey, prekeyPublic dh25519.PublicKey, signature [identity.SignatureSize]byte) error {
	return identityPub.Verify(prekeyPublic[:], signature[:])
}

// signedPreKeyJSON mirrors the wire JSON shape for a SignedPreKey:
// { "key_id": u32, "public_key": bytes, "signature": bytes, "timestamp": u64 }.
type signedPreKeyJSON struct {
	KeyID     uint32 `json:"key_id"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
	Timestamp uint64 `json:"timestamp"`
}

type oneTimePreKeyJSON struct {
	KeyID     uint32 `json:"key_id"`
	PublicKey string `json:"public_key"`
}

type bundleJSON struct {
	IdentityKey   string             `json:"identity_key"`
	SignedPreKey  signedPreKeyJSON   `json:"signed_pre_key"`
	OneTimePreKey *oneTimePreKeyJSON `json:"one_time_pre_key"`
}

// MarshalJSON encodes the bundle per the PreKey Bundle JSON shape:
// byte fields base64-encoded, one_time_pre_key null when absent.
func (b Bundle) MarshalJSON() ([]byte, error) {
	wire := bundleJSON{
		IdentityKey: base64.StdEncoding.EncodeToString(b.IdentityKey[:]),
		SignedPreKey: signedPreKeyJSON{
			KeyID:     b.SignedPreKey.KeyID,
			PublicKey: base64.StdEncoding.EncodeToString(b.SignedPreKey.Public[:]),
			Signature: base64.StdEncoding.EncodeToString(b.SignedPreKey.Signature[:]),
			Timestamp: b.SignedPreKey.Timestamp,
		},
	}
	if b.OneTimePreKey != nil {
		wire.OneTimePreKey = &oneTimePreKeyJSON{
			KeyID:     b.OneTimePreKey.KeyID,
			PublicKey: base64.StdEncoding.EncodeToString(b.OneTimePreKey.Public[:]),
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes a bundle produced by MarshalJSON.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var wire bundleJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	idBytes, err := base64.StdEncoding.DecodeString(wire.IdentityKey)
	if err != nil || len(idBytes) != identity.PublicKeySize {
		return errs.ErrMalformed
	}
	copy(b.IdentityKey[:], idBytes)

	spkPub, err := base64.StdEncoding.DecodeString(wire.SignedPreKey.PublicKey)
	if err != nil || len(spkPub) != dh25519.KeySize {
		return errs.ErrMalformed
	}
	spkSig, err := base64.StdEncoding.DecodeString(wire.SignedPreKey.Signature)
	if err != nil || len(spkSig) != identity.SignatureSize {
		return errs.ErrMalformed
	}
	b.SignedPreKey = SignedPreKey{
		KeyID:     wire.SignedPreKey.KeyID,
		Timestamp: wire.SignedPreKey.Timestamp,
	}
	copy(b.SignedPreKey.Public[:], spkPub)
	copy(b.SignedPreKey.Signature[:], spkSig)

	if wire.OneTimePreKey != nil {
		otkPub, err := base64.StdEncoding.DecodeString(wire.OneTimePreKey.PublicKey)
		if err != nil || len(otkPub) != dh25519.KeySize {
			return errs.ErrMalformed
		}
		otk := &OneTimePreKey{KeyID: wire.OneTimePreKey.KeyID}
		copy(otk.Public[:], otkPub)
		b.OneTimePreKey = otk
	} else {
		b.OneTimePreKey = nil
	}
	return nil
}
