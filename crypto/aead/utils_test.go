package aead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safetalk/errs"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	var key [KeySize]byte
	for i := range key {
		key[i] = byte(i)
	}
	plaintext := []byte("Hello, SafeTalk!")
	aad := []byte("conversation_123")

	nonce, ciphertext, err := Encrypt(key, plaintext, aad)
	require.NoError(t, err)

	decrypted, err := Decrypt(key, nonce, ciphertext, aad)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptFailsOnTamperedCiphertext(t *testing.T) {
	var key [KeySize]byte
	nonce, ciphertext, err := Encrypt(key, []byte("secret message"), nil)
	require.NoError(t, err)

	ciphertext[0] ^= 0xff
	_, err = Decrypt(key, nonce, ciphertext, nil)
	assert.ErrorIs(t, err, errs.ErrDecryptAuth)
}

func TestDecryptFailsOnTamperedNonce(t *testing.T) {
	var key [KeySize]byte
	nonce, ciphertext, err := Encrypt(key, []byte("secret message"), nil)
	require.NoError(t, err)

	nonce[0] ^= 0xff
	_, err = Decrypt(key, nonce, ciphertext, nil)
	assert.Error(t, err)
}

func TestDecryptFailsOnWrongAAD(t *testing.T) {
	var key [KeySize]byte
	nonce, ciphertext, err := Encrypt(key, []byte("secret message"), []byte("conversation_123"))
	require.NoError(t, err)

	_, err = Decrypt(key, nonce, ciphertext, []byte("other"))
	assert.Error(t, err)

	plaintext, err := Decrypt(key, nonce, ciphertext, []byte("conversation_123"))
	require.NoError(t, err)
	assert.Equal(t, []byte("secret message"), plaintext)
}

func TestFlattenSplitRoundTrip(t *testing.T) {
	var key [KeySize]byte
	nonce, ciphertext, err := Encrypt(key, []byte("payload"), nil)
	require.NoError(t, err)

	record := Flatten(nonce, ciphertext)
	gotNonce, gotCiphertext, err := Split(record)
	require.NoError(t, err)
	assert.Equal(t, nonce, gotNonce)
	assert.Equal(t, ciphertext, gotCiphertext)
}

func TestSplitRejectsShortRecord(t *testing.T) {
	_, _, err := Split(make([]byte, NonceSize-1))
	assert.Error(t, err)
}
