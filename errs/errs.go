// Package errs collects the sentinel error kinds shared across the crypto
// and protocol packages, so callers can distinguish failure modes with
// errors.Is regardless of which layer produced them.
package errs

import "errors"

var (
	// ErrMalformed means an input had the wrong length or an undecodable encoding.
	ErrMalformed = errors.New("safetalk: malformed input")

	// ErrInvalidKey means a key point was rejected (e.g. Edwards decompression failure).
	ErrInvalidKey = errors.New("safetalk: invalid key")

	// ErrBadPreKeySignature means X3DH signed-prekey verification failed.
	ErrBadPreKeySignature = errors.New("safetalk: bad prekey signature")

	// ErrDecryptAuth means AEAD tag verification failed.
	ErrDecryptAuth = errors.New("safetalk: decryption authentication failed")

	// ErrNoSendingChain means encrypt was called before a sending chain was established.
	ErrNoSendingChain = errors.New("safetalk: no sending chain key established")

	// ErrTooManySkipped means skipping forward would exceed the bounded skip window.
	ErrTooManySkipped = errors.New("safetalk: too many skipped messages")

	// ErrChainExhausted means a sending chain's message counter would overflow.
	ErrChainExhausted = errors.New("safetalk: sending chain exhausted")

	// ErrSerialization means a session or wire-message blob failed to encode/decode.
	ErrSerialization = errors.New("safetalk: serialization error")
)
