package doubleratchet

import (
	"encoding/base64"

	"safetalk/crypto/dh25519"
	"safetalk/errs"
)

// sessionVersion1 is the only wire version this package currently
// emits or accepts.
const sessionVersion1 = 0x01

// Marshal serializes the session to an opaque, versioned binary blob.
// The encoding is internal to this package; callers must treat it as
// opaque and round-trip it only through Marshal/Unmarshal.
func (s *Session) Marshal() []byte {
	out := make([]byte, 0, 256)
	out = append(out, sessionVersion1)

	out = append(out, s.dhSelfPriv[:]...)
	out = append(out, s.dhSelfPub[:]...)

	out = append(out, boolByte(s.hasDHRemote))
	out = append(out, s.dhRemote[:]...)

	out = append(out, s.rootKey[:]...)

	out = append(out, boolByte(s.hasChainSend))
	out = append(out, s.chainKeySend[:]...)
	out = append(out, boolByte(s.hasChainRecv))
	out = append(out, s.chainKeyRecv[:]...)

	out = appendU32(out, s.sendCount)
	out = appendU32(out, s.recvCount)
	out = appendU32(out, s.prevSendCount)

	out = appendU32(out, uint32(len(s.skipped)))
	for k, mk := range s.skipped {
		dhBytes, err := base64.StdEncoding.DecodeString(k.dhPublic)
		if err != nil || len(dhBytes) != 32 {
			// Keys are only ever produced by encodeDHPublic in this
			// package, so this can't fail for a session we built.
			continue
		}
		out = append(out, dhBytes...)
		out = appendU32(out, k.msgNum)
		out = append(out, mk.CipherKey[:]...)
		out = append(out, mk.MacKey[:]...)
		out = append(out, mk.IV[:]...)
	}

	return out
}

// Unmarshal restores a session from a blob produced by Marshal.
func Unmarshal(data []byte) (*Session, error) {
	if len(data) < 1 || data[0] != sessionVersion1 {
		return nil, errs.ErrSerialization
	}
	pos := 1

	s := &Session{skipped: make(map[skippedKey]MessageKeys)}

	if len(data) < pos+64 {
		return nil, errs.ErrSerialization
	}
	copy(s.dhSelfPriv[:], data[pos:pos+32])
	pos += 32
	copy(s.dhSelfPub[:], data[pos:pos+32])
	pos += 32

	var ok bool
	s.hasDHRemote, pos, ok = readBool(data, pos)
	if !ok || len(data) < pos+32 {
		return nil, errs.ErrSerialization
	}
	copy(s.dhRemote[:], data[pos:pos+32])
	pos += 32

	if len(data) < pos+32 {
		return nil, errs.ErrSerialization
	}
	copy(s.rootKey[:], data[pos:pos+32])
	pos += 32

	s.hasChainSend, pos, ok = readBool(data, pos)
	if !ok || len(data) < pos+32 {
		return nil, errs.ErrSerialization
	}
	copy(s.chainKeySend[:], data[pos:pos+32])
	pos += 32

	s.hasChainRecv, pos, ok = readBool(data, pos)
	if !ok || len(data) < pos+32 {
		return nil, errs.ErrSerialization
	}
	copy(s.chainKeyRecv[:], data[pos:pos+32])
	pos += 32

	if len(data) < pos+12 {
		return nil, errs.ErrSerialization
	}
	s.sendCount, pos = readU32(data, pos)
	s.recvCount, pos = readU32(data, pos)
	s.prevSendCount, pos = readU32(data, pos)

	if len(data) < pos+4 {
		return nil, errs.ErrSerialization
	}
	var skippedCount uint32
	skippedCount, pos = readU32(data, pos)
	for i := uint32(0); i < skippedCount; i++ {
		if len(data) < pos+32+4+32+32+16 {
			return nil, errs.ErrSerialization
		}
		var dhPub dh25519.PublicKey
		copy(dhPub[:], data[pos:pos+32])
		pos += 32

		var msgNum uint32
		msgNum, pos = readU32(data, pos)

		var mk MessageKeys
		copy(mk.CipherKey[:], data[pos:pos+32])
		pos += 32
		copy(mk.MacKey[:], data[pos:pos+32])
		pos += 32
		copy(mk.IV[:], data[pos:pos+16])
		pos += 16

		s.skipped[skippedKey{dhPublic: encodeDHPublic(dhPub), msgNum: msgNum}] = mk
	}

	return s, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func readBool(data []byte, pos int) (bool, int, bool) {
	if pos+1 > len(data) {
		return false, pos + 1, false
	}
	return data[pos] != 0, pos + 1, true
}

