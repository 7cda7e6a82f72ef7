package doubleratchet

import (
	"safetalk/crypto/dh25519"
)

// MaxSkip bounds how many message keys a single receiving chain will
// derive and buffer ahead of the current position before a decrypt
// call is rejected with errs.ErrTooManySkipped.
const MaxSkip = 1000

// MessageKeys are the symmetric keys KDF_CK derives from one chain
// step: CipherKey drives AES-256-GCM, MacKey and IV are retained for
// interface symmetry with the reference derivation but play no role
// in this module's AEAD path (AES-GCM computes its own internal tag).
type MessageKeys struct {
	CipherKey [32]byte
	MacKey    [32]byte
	IV        [16]byte
}

// Header is the per-message ratchet metadata carried alongside the
// ciphertext: the sender's current DH public key, how many messages
// were sent on the previous sending chain, and this message's index
// within the current sending chain.
type Header struct {
	DHPublic       dh25519.PublicKey
	PrevChainCount uint32
	MessageNumber  uint32
}

// Message is a header plus its AEAD-sealed payload, the unit Encrypt
// produces and Decrypt consumes.
type Message struct {
	Header     Header
	Nonce      [12]byte
	Ciphertext []byte
}

// skippedKey identifies one buffered message key: the base64 encoding
// of the sender's DH public key at the time the chain it belongs to
// was current, plus the message's index within that chain.
type skippedKey struct {
	dhPublic string
	msgNum   uint32
}

// Session is a single-owner, mutable double ratchet state machine. All
// state-changing operations are sequential with respect to one
// Session; callers sharing a session across goroutines must serialize
// access themselves.
type Session struct {
	dhSelfPriv dh25519.PrivateKey
	dhSelfPub  dh25519.PublicKey

	dhRemote    dh25519.PublicKey
	hasDHRemote bool

	rootKey [32]byte

	chainKeySend [32]byte
	hasChainSend bool
	chainKeyRecv [32]byte
	hasChainRecv bool

	sendCount     uint32
	recvCount     uint32
	prevSendCount uint32

	skipped map[skippedKey]MessageKeys
}
