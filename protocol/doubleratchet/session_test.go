package doubleratchet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safetalk/crypto/dh25519"
	"safetalk/errs"
)

func newSessionPair(t *testing.T) (*Session, *Session) {
	t.Helper()
	var sharedSecret [32]byte
	for i := range sharedSecret {
		sharedSecret[i] = byte(i + 1)
	}

	bobSPK, err := dh25519.Generate()
	require.NoError(t, err)

	alice, err := InitAlice(sharedSecret, bobSPK.Pub)
	require.NoError(t, err)

	bob := InitBob(sharedSecret, bobSPK.Priv, bobSPK.Pub)
	return alice, bob
}

func TestRatchetPingPong(t *testing.T) {
	alice, bob := newSessionPair(t)
	aad := []byte("conversation_123")

	msg1, err := alice.Encrypt([]byte("Hello Bob!"), aad)
	require.NoError(t, err)
	pt1, err := bob.Decrypt(msg1, aad)
	require.NoError(t, err)
	assert.Equal(t, "Hello Bob!", string(pt1))

	msg2, err := bob.Encrypt([]byte("Hi Alice!"), aad)
	require.NoError(t, err)
	pt2, err := alice.Decrypt(msg2, aad)
	require.NoError(t, err)
	assert.Equal(t, "Hi Alice!", string(pt2))

	msg3, err := alice.Encrypt([]byte("M3"), aad)
	require.NoError(t, err)
	pt3, err := bob.Decrypt(msg3, aad)
	require.NoError(t, err)
	assert.Equal(t, "M3", string(pt3))

	msg4, err := alice.Encrypt([]byte("M4"), aad)
	require.NoError(t, err)
	pt4, err := bob.Decrypt(msg4, aad)
	require.NoError(t, err)
	assert.Equal(t, "M4", string(pt4))
}

func TestRatchetOutOfOrderDelivery(t *testing.T) {
	alice, bob := newSessionPair(t)
	aad := []byte("conversation_123")

	m1, err := alice.Encrypt([]byte("one"), aad)
	require.NoError(t, err)
	m2, err := alice.Encrypt([]byte("two"), aad)
	require.NoError(t, err)
	m3, err := alice.Encrypt([]byte("three"), aad)
	require.NoError(t, err)

	pt3, err := bob.Decrypt(m3, aad)
	require.NoError(t, err)
	assert.Equal(t, "three", string(pt3))
	assert.Len(t, bob.skipped, 2)

	pt1, err := bob.Decrypt(m1, aad)
	require.NoError(t, err)
	assert.Equal(t, "one", string(pt1))

	pt2, err := bob.Decrypt(m2, aad)
	require.NoError(t, err)
	assert.Equal(t, "two", string(pt2))

	assert.Empty(t, bob.skipped)
}

func TestRatchetSkipLimitExceeded(t *testing.T) {
	alice, bob := newSessionPair(t)
	aad := []byte("conversation_123")

	var last Message
	for i := 0; i < MaxSkip+2; i++ {
		msg, err := alice.Encrypt([]byte("x"), aad)
		require.NoError(t, err)
		last = msg
	}

	_, err := bob.Decrypt(last, aad)
	assert.ErrorIs(t, err, errs.ErrTooManySkipped)
}

func TestAADMismatchFailsDecrypt(t *testing.T) {
	alice, bob := newSessionPair(t)

	msg, err := alice.Encrypt([]byte("secret"), []byte("conversation_123"))
	require.NoError(t, err)

	_, err = bob.Decrypt(msg, []byte("other"))
	assert.ErrorIs(t, err, errs.ErrDecryptAuth)

	// The chain step for this message number was already consumed by
	// the failed attempt above, so retrying with the correct AAD on
	// the same Message also fails — this is the documented
	// no-rollback-on-auth-failure behavior.
	_, err = bob.Decrypt(msg, []byte("conversation_123"))
	assert.Error(t, err)
}

func TestEncryptBeforeSendingChainFails(t *testing.T) {
	var sharedSecret [32]byte
	spk, err := dh25519.Generate()
	require.NoError(t, err)

	bob := InitBob(sharedSecret, spk.Priv, spk.Pub)
	_, err = bob.Encrypt([]byte("too early"), nil)
	assert.ErrorIs(t, err, errs.ErrNoSendingChain)
}

func TestSessionSerializationRoundTrip(t *testing.T) {
	alice, bob := newSessionPair(t)
	aad := []byte("conversation_123")

	msg, err := alice.Encrypt([]byte("before restore"), aad)
	require.NoError(t, err)
	_, err = bob.Decrypt(msg, aad)
	require.NoError(t, err)

	blob := alice.Marshal()
	restored, err := Unmarshal(blob)
	require.NoError(t, err)

	msg2, err := restored.Encrypt([]byte("after restore"), aad)
	require.NoError(t, err)
	pt2, err := bob.Decrypt(msg2, aad)
	require.NoError(t, err)
	assert.Equal(t, "after restore", string(pt2))
}

func TestMessageWireRoundTrip(t *testing.T) {
	alice, _ := newSessionPair(t)
	msg, err := alice.Encrypt([]byte("wire test"), []byte("aad"))
	require.NoError(t, err)

	raw := msg.ToBytes()
	decoded, err := MessageFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)

	jsonBytes, err := json.Marshal(msg)
	require.NoError(t, err)
	var decodedJSON Message
	err = json.Unmarshal(jsonBytes, &decodedJSON)
	require.NoError(t, err)
	assert.Equal(t, msg, decodedJSON)
}
