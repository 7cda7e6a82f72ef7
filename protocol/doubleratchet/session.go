// Package doubleratchet implements the Double Ratchet algorithm:
// a per-session state machine that combines a Diffie-Hellman ratchet
// with a symmetric-key ratchet to derive a fresh AEAD key for every
// message, providing forward secrecy and post-compromise recovery
// after X3DH has established the initial shared secret.
package doubleratchet

import (
	"encoding/base64"

	"safetalk/crypto/aead"
	"safetalk/crypto/dh25519"
	"safetalk/errs"
)

// InitAlice starts a session as the X3DH initiator: a fresh DH keypair
// is generated immediately and ratcheted against the responder's
// signed-prekey public, establishing the first sending chain. The
// receiving chain stays empty until the responder's first reply
// triggers a DH ratchet.
func InitAlice(sharedSecret [32]byte, theirPublic dh25519.PublicKey) (*Session, error) {
	dhSelf, err := dh25519.Generate()
	if err != nil {
		return nil, err
	}

	dhOut, err := dh25519.DH(dhSelf.Priv, theirPublic)
	if err != nil {
		return nil, err
	}

	rootKey, chainSend := kdfRK(sharedSecret, dhOut)

	return &Session{
		dhSelfPriv:   dhSelf.Priv,
		dhSelfPub:    dhSelf.Pub,
		dhRemote:     theirPublic,
		hasDHRemote:  true,
		rootKey:      rootKey,
		chainKeySend: chainSend,
		hasChainSend: true,
		skipped:      make(map[skippedKey]MessageKeys),
	}, nil
}

// InitBob starts a session as the X3DH responder, using the
// signed-prekey pair the initiator's DH target matched. Neither chain
// key exists yet; the first inbound message drives the first DH
// ratchet, which establishes the receiving chain and, immediately
// after, a fresh sending chain.
func InitBob(sharedSecret [32]byte, signedPreKeyPriv dh25519.PrivateKey, signedPreKeyPub dh25519.PublicKey) *Session {
	return &Session{
		dhSelfPriv: signedPreKeyPriv,
		dhSelfPub:  signedPreKeyPub,
		rootKey:    sharedSecret,
		skipped:    make(map[skippedKey]MessageKeys),
	}
}

// Encrypt seals plaintext under the current sending chain's next
// message key and advances that chain. aad is bound into the AEAD tag
// (typically a conversation or session identifier) but is not part of
// the returned Message.
func (s *Session) Encrypt(plaintext, aad []byte) (Message, error) {
	if !s.hasChainSend {
		return Message{}, errs.ErrNoSendingChain
	}

	mk := kdfCK(s.chainKeySend)
	s.chainKeySend = chainStep(s.chainKeySend)

	nonce, ciphertext, err := aead.Encrypt(mk.CipherKey, plaintext, aad)
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		Header: Header{
			DHPublic:       s.dhSelfPub,
			PrevChainCount: s.prevSendCount,
			MessageNumber:  s.sendCount,
		},
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}

	s.sendCount++
	return msg, nil
}

// Decrypt opens a received Message, performing a DH ratchet first if
// the message's DH public key differs from the currently known
// remote key. aad must match what Encrypt bound on the sender's side.
func (s *Session) Decrypt(msg Message, aad []byte) ([]byte, error) {
	key := skippedKey{dhPublic: encodeDHPublic(msg.Header.DHPublic), msgNum: msg.Header.MessageNumber}
	if mk, ok := s.skipped[key]; ok {
		delete(s.skipped, key)
		plaintext, err := aead.Decrypt(mk.CipherKey, msg.Nonce, msg.Ciphertext, aad)
		if err != nil {
			return nil, err
		}
		return plaintext, nil
	}

	if !s.hasDHRemote || s.dhRemote != msg.Header.DHPublic {
		if err := s.skipMessageKeys(msg.Header.PrevChainCount); err != nil {
			return nil, err
		}
		if err := s.dhRatchet(msg.Header.DHPublic); err != nil {
			return nil, err
		}
	}

	if err := s.skipMessageKeys(msg.Header.MessageNumber); err != nil {
		return nil, err
	}

	mk := kdfCK(s.chainKeyRecv)
	s.chainKeyRecv = chainStep(s.chainKeyRecv)
	s.recvCount++

	return aead.Decrypt(mk.CipherKey, msg.Nonce, msg.Ciphertext, aad)
}

// skipMessageKeys derives and buffers message keys for the current
// receiving chain from recvCount up to (but not including) until,
// advancing the chain past them. Exceeding MaxSkip aborts without
// mutating chainKeyRecv or recvCount.
func (s *Session) skipMessageKeys(until uint32) error {
	if !s.hasChainRecv {
		return nil
	}
	if until < s.recvCount {
		return nil
	}
	if until-s.recvCount > MaxSkip {
		return errs.ErrTooManySkipped
	}

	dhEncoded := encodeDHPublic(s.dhRemote)
	chainKey := s.chainKeyRecv
	for i := s.recvCount; i < until; i++ {
		mk := kdfCK(chainKey)
		chainKey = chainStep(chainKey)
		s.skipped[skippedKey{dhPublic: dhEncoded, msgNum: i}] = mk
	}

	s.chainKeyRecv = chainKey
	s.recvCount = until
	return nil
}

// dhRatchet advances both root-derived chains in response to seeing a
// new remote DH public key: the current sending chain is retired, a
// new receiving chain is derived against the old dhSelf, then a fresh
// dhSelf is generated and a new sending chain derived against it.
func (s *Session) dhRatchet(theirPublic dh25519.PublicKey) error {
	s.prevSendCount = s.sendCount
	s.sendCount = 0
	s.recvCount = 0

	s.dhRemote = theirPublic
	s.hasDHRemote = true

	dhOutRecv, err := dh25519.DH(s.dhSelfPriv, s.dhRemote)
	if err != nil {
		return err
	}
	s.rootKey, s.chainKeyRecv = kdfRK(s.rootKey, dhOutRecv)
	s.hasChainRecv = true

	dhSelf, err := dh25519.Generate()
	if err != nil {
		return err
	}
	s.dhSelfPriv = dhSelf.Priv
	s.dhSelfPub = dhSelf.Pub

	dhOutSend, err := dh25519.DH(s.dhSelfPriv, s.dhRemote)
	if err != nil {
		return err
	}
	s.rootKey, s.chainKeySend = kdfRK(s.rootKey, dhOutSend)
	s.hasChainSend = true

	return nil
}

func encodeDHPublic(pub dh25519.PublicKey) string {
	return base64.StdEncoding.EncodeToString(pub[:])
}
