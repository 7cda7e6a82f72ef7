package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndSignVerify(t *testing.T) {
	pair, err := Generate()
	require.NoError(t, err)

	msg := []byte("x3dh handshake transcript")
	sig := pair.Priv.Sign(msg)

	err = pair.Pub.Verify(msg, sig[:])
	assert.NoError(t, err)
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	pair, err := Generate()
	require.NoError(t, err)

	sig := pair.Priv.Sign([]byte("original"))
	err = pair.Pub.Verify([]byte("tampered"), sig[:])
	assert.Error(t, err)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	sig := a.Priv.Sign([]byte("hello"))
	err = b.Pub.Verify([]byte("hello"), sig[:])
	assert.Error(t, err)
}

func TestFromSeedReproducesKeypair(t *testing.T) {
	pair, err := Generate()
	require.NoError(t, err)

	reconstructed := FromSeed(pair.Priv)
	assert.Equal(t, pair.Pub, reconstructed.Pub)
}

func TestPublicKeyEqual(t *testing.T) {
	pair, err := Generate()
	require.NoError(t, err)

	other, err := Generate()
	require.NoError(t, err)

	assert.True(t, pair.Pub.Equal(pair.Pub))
	assert.False(t, pair.Pub.Equal(other.Pub))
}
