// Package fingerprint computes a Signal-style safety number: a
// stretched digest of an identity public key that two parties can
// compare out-of-band to detect a tampered prekey distribution.
package fingerprint

import (
	"crypto/sha512"
	"encoding/binary"

	"safetalk/crypto/identity"
)

// stretchRounds matches Signal's own safety-number stretching depth.
const stretchRounds = 5200

// Fingerprint derives a 30-digit safety number from an identity public
// key and a caller-supplied identifier (e.g. a username or user id),
// by iterating SHA-512 over their concatenation.
func Fingerprint(pubKey identity.PublicKey, userIdentifier []byte) (*[30]int, error) {
	digest := append(pubKey[:], userIdentifier...)
	hash := sha512.New()
	for i := 0; i < stretchRounds; i++ {
		if _, err := hash.Write(digest); err != nil {
			return nil, err
		}
		digest = hash.Sum(nil)
		hash.Reset()
	}

	var result [30]byte
	copy(result[:], digest[:30])

	var finalResult [30]int
	for i := 0; i < 6; i++ {
		chunk := result[i*5 : (i+1)*5]
		num := binary.BigEndian.Uint64(append([]byte{0, 0, 0}, chunk...)) % 100000
		for j := 4; j >= 0; j-- {
			finalResult[i*5+j] = int(num % 10)
			num /= 10
		}
	}

	return &finalResult, nil
}
