package doubleratchet

import (
	"crypto/sha256"

	"safetalk/crypto/hkdf"
	"safetalk/crypto/hmac"
)

const (
	infoRatchet     = "SafeTalk_Ratchet"
	infoMessageKeys = "SafeTalk_MessageKeys"
)

var (
	chainStepCipherKey = []byte{0x01}
	chainStepMacKey    = []byte{0x02}
	chainStepNext      = []byte{0x03}
)

// kdfRK advances the root key given a fresh DH output, producing the
// next root key and the chain key for whichever side just gained a
// new chain (sending or receiving, depending on the caller).
func kdfRK(rootKey [32]byte, dhOut [32]byte) (newRoot [32]byte, chainKey [32]byte) {
	out, err := hkdf.Expand(dhOut[:], rootKey[:], []byte(infoRatchet), 64)
	if err != nil {
		// HKDF-SHA256 expand of a 64-byte output never exceeds the
		// 255*32 byte RFC 5869 limit; this path cannot be reached.
		panic("doubleratchet: kdfRK expand failed: " + err.Error())
	}
	copy(newRoot[:], out[:32])
	copy(chainKey[:], out[32:64])
	return newRoot, chainKey
}

// kdfCK derives this step's message keys from a chain key without
// advancing it; callers call chainStep separately once they've
// decided to commit to consuming this step.
func kdfCK(chainKey [32]byte) MessageKeys {
	cipherKey := hmac.Hash(sha256.New, chainKey[:], chainStepCipherKey)
	macKey := hmac.Hash(sha256.New, chainKey[:], chainStepMacKey)
	iv, err := hkdf.Expand(cipherKey, nil, []byte(infoMessageKeys), 16)
	if err != nil {
		panic("doubleratchet: kdfCK iv expand failed: " + err.Error())
	}

	var mk MessageKeys
	copy(mk.CipherKey[:], cipherKey)
	copy(mk.MacKey[:], macKey)
	copy(mk.IV[:], iv)
	return mk
}

// chainStep advances a chain key to its next value.
func chainStep(chainKey [32]byte) [32]byte {
	next := hmac.Hash(sha256.New, chainKey[:], chainStepNext)
	var out [32]byte
	copy(out[:], next)
	return out
}
