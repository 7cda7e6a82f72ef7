package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safetalk/crypto/identity"
)

func TestFingerprintIsDeterministic(t *testing.T) {
	pair, err := identity.Generate()
	require.NoError(t, err)

	a, err := Fingerprint(pair.Pub, []byte("alice"))
	require.NoError(t, err)
	b, err := Fingerprint(pair.Pub, []byte("alice"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFingerprintDiffersByIdentifier(t *testing.T) {
	pair, err := identity.Generate()
	require.NoError(t, err)

	a, err := Fingerprint(pair.Pub, []byte("alice"))
	require.NoError(t, err)
	b, err := Fingerprint(pair.Pub, []byte("bob"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestFingerprintDigitsInRange(t *testing.T) {
	pair, err := identity.Generate()
	require.NoError(t, err)

	fp, err := Fingerprint(pair.Pub, []byte("carol"))
	require.NoError(t, err)

	for _, digit := range fp {
		assert.GreaterOrEqual(t, digit, 0)
		assert.LessOrEqual(t, digit, 9)
	}
}
