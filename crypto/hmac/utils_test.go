package hmac

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashIsDeterministic(t *testing.T) {
	key := []byte("chain key")
	a := Hash(sha256.New, key, []byte{0x01})
	b := Hash(sha256.New, key, []byte{0x01})
	assert.Equal(t, a, b)
}

func TestHashDiffersByConstantByte(t *testing.T) {
	key := []byte("chain key")
	a := Hash(sha256.New, key, []byte{0x01})
	b := Hash(sha256.New, key, []byte{0x02})
	assert.NotEqual(t, a, b)
}
