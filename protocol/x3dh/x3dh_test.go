package x3dh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safetalk/crypto/dh25519"
	"safetalk/crypto/identity"
	"safetalk/protocol/prekey"
)

type bobMaterial struct {
	identity prekey.Bundle
	idPriv   identity.PrivateKey
	spkPriv  dh25519.PrivateKey
	otkPriv  dh25519.PrivateKey
}

func setupBob(t *testing.T, withOneTime bool) bobMaterial {
	t.Helper()
	idPair, err := identity.Generate()
	require.NoError(t, err)
	spk, err := dh25519.Generate()
	require.NoError(t, err)
	sig := prekey.Sign(idPair.Priv, spk.Pub)

	bundle := prekey.Bundle{
		IdentityKey: idPair.Pub,
		SignedPreKey: prekey.SignedPreKey{
			KeyID:     1,
			Public:    spk.Pub,
			Signature: sig,
			Timestamp: 1700000000,
		},
	}

	m := bobMaterial{idPriv: idPair.Priv, spkPriv: spk.Priv}
	if withOneTime {
		otk, err := dh25519.Generate()
		require.NoError(t, err)
		bundle.OneTimePreKey = &prekey.OneTimePreKey{KeyID: 9, Public: otk.Pub}
		m.otkPriv = otk.Priv
	}
	m.identity = bundle
	return m
}

func TestX3DHAgreementWithOneTimePreKey(t *testing.T) {
	alice, err := identity.Generate()
	require.NoError(t, err)
	bob := setupBob(t, true)

	senderOut, msg, err := InitiatorCalculate(alice.Priv, bob.identity)
	require.NoError(t, err)
	require.NotNil(t, senderOut.UsedOneTimePreKeyID)
	assert.Equal(t, uint32(9), *senderOut.UsedOneTimePreKeyID)

	otkPriv := bob.otkPriv
	recipientSecret, err := ResponderCalculate(bob.idPriv, alice.Pub, bob.spkPriv, msg, &otkPriv)
	require.NoError(t, err)

	assert.Equal(t, senderOut.SharedSecret, recipientSecret)
}

func TestX3DHAgreementWithoutOneTimePreKey(t *testing.T) {
	alice, err := identity.Generate()
	require.NoError(t, err)
	bob := setupBob(t, false)

	senderOut, msg, err := InitiatorCalculate(alice.Priv, bob.identity)
	require.NoError(t, err)
	assert.Nil(t, senderOut.UsedOneTimePreKeyID)
	assert.Nil(t, msg.OneTimePreKeyID)

	recipientSecret, err := ResponderCalculate(bob.idPriv, alice.Pub, bob.spkPriv, msg, nil)
	require.NoError(t, err)

	assert.Equal(t, senderOut.SharedSecret, recipientSecret)
}

func TestInitiatorRejectsTamperedSignature(t *testing.T) {
	alice, err := identity.Generate()
	require.NoError(t, err)
	bob := setupBob(t, false)
	bob.identity.SignedPreKey.Signature[0] ^= 0xff

	_, _, err = InitiatorCalculate(alice.Priv, bob.identity)
	assert.Error(t, err)
}
