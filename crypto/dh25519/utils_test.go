package dh25519

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDHAgreement(t *testing.T) {
	alice, err := Generate()
	require.NoError(t, err)
	bob, err := Generate()
	require.NoError(t, err)

	secretA, err := DH(alice.Priv, bob.Pub)
	require.NoError(t, err)
	secretB, err := DH(bob.Priv, alice.Pub)
	require.NoError(t, err)

	assert.Equal(t, secretA, secretB)
}

func TestDHRejectsLowOrderPoint(t *testing.T) {
	alice, err := Generate()
	require.NoError(t, err)

	var zeroPoint PublicKey
	_, err = DH(alice.Priv, zeroPoint)
	assert.Error(t, err)
}

func TestZeroOverwritesKey(t *testing.T) {
	pair, err := Generate()
	require.NoError(t, err)

	pair.Priv.Zero()
	var zero PrivateKey
	assert.Equal(t, zero, pair.Priv)
}
