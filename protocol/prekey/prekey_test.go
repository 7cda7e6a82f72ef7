package prekey

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safetalk/crypto/dh25519"
	"safetalk/crypto/identity"
)

func TestSignAndVerify(t *testing.T) {
	idPair, err := identity.Generate()
	require.NoError(t, err)
	spk, err := dh25519.Generate()
	require.NoError(t, err)

	sig := Sign(idPair.Priv, spk.Pub)
	err = Verify(idPair.Pub, spk.Pub, sig)
	assert.NoError(t, err)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	idPair, err := identity.Generate()
	require.NoError(t, err)
	spk, err := dh25519.Generate()
	require.NoError(t, err)

	sig := Sign(idPair.Priv, spk.Pub)
	sig[0] ^= 0xff
	err = Verify(idPair.Pub, spk.Pub, sig)
	assert.Error(t, err)
}

func TestBundleJSONRoundTripWithOneTimePreKey(t *testing.T) {
	idPair, err := identity.Generate()
	require.NoError(t, err)
	spk, err := dh25519.Generate()
	require.NoError(t, err)
	otk, err := dh25519.Generate()
	require.NoError(t, err)

	sig := Sign(idPair.Priv, spk.Pub)
	bundle := Bundle{
		IdentityKey: idPair.Pub,
		SignedPreKey: SignedPreKey{
			KeyID:     7,
			Public:    spk.Pub,
			Signature: sig,
			Timestamp: 1700000000,
		},
		OneTimePreKey: &OneTimePreKey{KeyID: 3, Public: otk.Pub},
	}

	raw, err := json.Marshal(bundle)
	require.NoError(t, err)

	var decoded Bundle
	err = json.Unmarshal(raw, &decoded)
	require.NoError(t, err)

	assert.Equal(t, bundle.IdentityKey, decoded.IdentityKey)
	assert.Equal(t, bundle.SignedPreKey, decoded.SignedPreKey)
	require.NotNil(t, decoded.OneTimePreKey)
	assert.Equal(t, *bundle.OneTimePreKey, *decoded.OneTimePreKey)
}

func TestBundleJSONRoundTripWithoutOneTimePreKey(t *testing.T) {
	idPair, err := identity.Generate()
	require.NoError(t, err)
	spk, err := dh25519.Generate()
	require.NoError(t, err)
	sig := Sign(idPair.Priv, spk.Pub)

	bundle := Bundle{
		IdentityKey: idPair.Pub,
		SignedPreKey: SignedPreKey{
			KeyID:     1,
			Public:    spk.Pub,
			Signature: sig,
			Timestamp: 1700000000,
		},
	}

	raw, err := json.Marshal(bundle)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"one_time_pre_key":null`)

	var decoded Bundle
	err = json.Unmarshal(raw, &decoded)
	require.NoError(t, err)
	assert.Nil(t, decoded.OneTimePreKey)
}
