// Package x3dh implements the Extended Triple/Quadruple Diffie-Hellman
// key agreement that bootstraps a double ratchet session: a sender
// derives a shared secret against a recipient's published prekey
// bundle without any round trip, the recipient rederives the same
// secret once it sees the sender's first message.
package x3dh

import (
	"safetalk/crypto/dh25519"
	"safetalk/crypto/hkdf"
	"safetalk/crypto/identity"
	"safetalk/crypto/keyconv"
	"safetalk/errs"
	"safetalk/protocol/prekey"
)

// info is the HKDF domain-separation string for X3DH's shared-secret
// expansion, matching the original's own X3DH constant.
const info = "SafeTalk_X3DH"

// SenderOutput is what InitiatorCalculate hands back to the caller:
// the derived shared secret, the fresh ephemeral public key to publish
// alongside the first message, and which one-time prekey (if any) was
// consumed.
type SenderOutput struct {
	SharedSecret        [32]byte
	EphemeralPublic     dh25519.PublicKey
	UsedOneTimePreKeyID *uint32
}

// InitialMessage is the metadata a sender attaches to its first
// ratchet message so the recipient can rerun X3DH as responder.
type InitialMessage struct {
	SenderIdentityKey identity.PublicKey
	EphemeralKey      dh25519.PublicKey
	OneTimePreKeyID   *uint32
}

// InitiatorCalculate runs X3DH from the sender's side against a
// recipient's prekey bundle. Steps run in the exact order the
// signature must be checked before anything else touches key
// material: a forged bundle never gets as far as generating an
// ephemeral key.
func InitiatorCalculate(senderIdentityPriv identity.PrivateKey, bundle prekey.Bundle) (SenderOutput, InitialMessage, error) {
	var out SenderOutput
	var msg InitialMessage

	if err := prekey.Verify(bundle.IdentityKey, bundle.SignedPreKey.Public, bundle.SignedPreKey.Signature); err != nil {
		return out, msg, err
	}

	ephemeral, err := dh25519.Generate()
	if err != nil {
		return out, msg, err
	}

	ika := keyconv.PrivateToX25519(senderIdentityPriv)
	ikb, err := keyconv.PublicToX25519(bundle.IdentityKey)
	if err != nil {
		return out, msg, err
	}
	spkb := bundle.SignedPreKey.Public

	dh1, err := dh25519.DH(ika, spkb)
	if err != nil {
		return out, msg, err
	}
	dh2, err := dh25519.DH(ephemeral.Priv, ikb)
	if err != nil {
		return out, msg, err
	}
	dh3, err := dh25519.DH(ephemeral.Priv, spkb)
	if err != nil {
		return out, msg, err
	}

	concat := make([]byte, 0, 4*32)
	concat = append(concat, dh1[:]...)
	concat = append(concat, dh2[:]...)
	concat = append(concat, dh3[:]...)

	var usedID *uint32
	if bundle.OneTimePreKey != nil {
		dh4, err := dh25519.DH(ephemeral.Priv, bundle.OneTimePreKey.Public)
		if err != nil {
			return out, msg, err
		}
		concat = append(concat, dh4[:]...)
		id := bundle.OneTimePreKey.KeyID
		usedID = &id
	}

	secret, err := hkdf.Expand(concat, nil, []byte(info), 32)
	if err != nil {
		return out, msg, err
	}

	copy(out.SharedSecret[:], secret)
	out.EphemeralPublic = ephemeral.Pub
	out.UsedOneTimePreKeyID = usedID

	ephemeral.Priv.Zero()

	msg = InitialMessage{
		SenderIdentityKey: senderIdentityPriv.Public(),
		EphemeralKey:      ephemeral.Pub,
		OneTimePreKeyID:   usedID,
	}
	return out, msg, nil
}

// ResponderCalculate rederives the X3DH shared secret from the
// recipient's side, given the sender's InitialMessage and the
// recipient's own private key material. signedPreKeyPriv and
// oneTimePreKeyPriv (when the sender referenced one) must be the
// private halves matching the public keys the sender's bundle
// advertised; callers destroy oneTimePreKeyPriv immediately after this
// call returns, per the one-time-use invariant.
func ResponderCalculate(
	recipientIdentityPriv identity.PrivateKey,
	senderIdentityPub identity.PublicKey,
	signedPreKeyPriv dh25519.PrivateKey,
	msg InitialMessage,
	oneTimePreKeyPriv *dh25519.PrivateKey,
) ([32]byte, error) {
	var secret [32]byte

	ikb := keyconv.PrivateToX25519(recipientIdentityPriv)
	ika, err := keyconv.PublicToX25519(senderIdentityPub)
	if err != nil {
		return secret, err
	}

	dh1, err := dh25519.DH(signedPreKeyPriv, ika)
	if err != nil {
		return secret, err
	}
	dh2, err := dh25519.DH(ikb, msg.EphemeralKey)
	if err != nil {
		return secret, err
	}
	dh3, err := dh25519.DH(signedPreKeyPriv, msg.EphemeralKey)
	if err != nil {
		return secret, err
	}

	concat := make([]byte, 0, 4*32)
	concat = append(concat, dh1[:]...)
	concat = append(concat, dh2[:]...)
	concat = append(concat, dh3[:]...)

	if msg.OneTimePreKeyID != nil {
		if oneTimePreKeyPriv == nil {
			return secret, errs.ErrInvalidKey
		}
		dh4, err := dh25519.DH(*oneTimePreKeyPriv, msg.EphemeralKey)
		if err != nil {
			return secret, err
		}
		concat = append(concat, dh4[:]...)
	}

	out, err := hkdf.Expand(concat, nil, []byte(info), 32)
	if err != nil {
		return secret, err
	}
	copy(secret[:], out)
	return secret, nil
}
