package x3dh

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safetalk/crypto/identity"
)

func TestInitialMessageJSONRoundTrip(t *testing.T) {
	alice, err := identity.Generate()
	require.NoError(t, err)
	bob := setupBob(t, true)

	_, msg, err := InitiatorCalculate(alice.Priv, bob.identity)
	require.NoError(t, err)

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded InitialMessage
	err = json.Unmarshal(raw, &decoded)
	require.NoError(t, err)

	assert.Equal(t, msg, decoded)
}
