package doubleratchet

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"

	"safetalk/errs"
)

// ToBytes encodes a Message in the canonical binary layout:
// dh_public[32] || prev_chain_count(u32) || message_number(u32) ||
// nonce_length(u32) || nonce[12] || ciphertext_length(u32) || ciphertext.
func (m Message) ToBytes() []byte {
	out := make([]byte, 0, 32+4+4+4+len(m.Nonce)+4+len(m.Ciphertext))
	out = append(out, m.Header.DHPublic[:]...)
	out = appendU32(out, m.Header.PrevChainCount)
	out = appendU32(out, m.Header.MessageNumber)
	out = appendU32(out, uint32(len(m.Nonce)))
	out = append(out, m.Nonce[:]...)
	out = appendU32(out, uint32(len(m.Ciphertext)))
	out = append(out, m.Ciphertext...)
	return out
}

// MessageFromBytes decodes a Message produced by ToBytes.
func MessageFromBytes(data []byte) (Message, error) {
	var m Message
	if len(data) < 32+4+4+4 {
		return m, errs.ErrMalformed
	}

	copy(m.Header.DHPublic[:], data[:32])
	pos := 32

	m.Header.PrevChainCount, pos = readU32(data, pos)
	m.Header.MessageNumber, pos = readU32(data, pos)

	var nonceLen uint32
	nonceLen, pos = readU32(data, pos)
	if nonceLen != uint32(len(m.Nonce)) || len(data) < pos+int(nonceLen)+4 {
		return m, errs.ErrMalformed
	}
	copy(m.Nonce[:], data[pos:pos+int(nonceLen)])
	pos += int(nonceLen)

	var ctLen uint32
	ctLen, pos = readU32(data, pos)
	if len(data) != pos+int(ctLen) {
		return m, errs.ErrMalformed
	}
	m.Ciphertext = append([]byte(nil), data[pos:pos+int(ctLen)]...)

	return m, nil
}

func appendU32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func readU32(data []byte, pos int) (uint32, int) {
	if pos+4 > len(data) {
		return 0, pos + 4
	}
	return binary.BigEndian.Uint32(data[pos : pos+4]), pos + 4
}

// messageJSON mirrors Message's fields with byte fields base64-encoded.
type messageJSON struct {
	DHPublic       string `json:"dh_public"`
	PrevChainCount uint32 `json:"prev_chain_count"`
	MessageNumber  uint32 `json:"message_number"`
	Nonce          string `json:"nonce"`
	Ciphertext     string `json:"ciphertext"`
}

// MarshalJSON encodes a Message as the JSON mirror of ToBytes' fields,
// satisfying encoding/json.Marshaler so Message nests correctly inside
// larger envelopes (e.g. common.MessageBundle) through plain
// json.Marshal.
func (m Message) MarshalJSON() ([]byte, error) {
	wire := messageJSON{
		DHPublic:       base64.StdEncoding.EncodeToString(m.Header.DHPublic[:]),
		PrevChainCount: m.Header.PrevChainCount,
		MessageNumber:  m.Header.MessageNumber,
		Nonce:          base64.StdEncoding.EncodeToString(m.Nonce[:]),
		Ciphertext:     base64.StdEncoding.EncodeToString(m.Ciphertext),
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes a Message produced by MarshalJSON.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire messageJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return errs.ErrSerialization
	}

	dhPublic, err := base64.StdEncoding.DecodeString(wire.DHPublic)
	if err != nil || len(dhPublic) != len(m.Header.DHPublic) {
		return errs.ErrMalformed
	}
	nonce, err := base64.StdEncoding.DecodeString(wire.Nonce)
	if err != nil || len(nonce) != len(m.Nonce) {
		return errs.ErrMalformed
	}
	ciphertext, err := base64.StdEncoding.DecodeString(wire.Ciphertext)
	if err != nil {
		return errs.ErrMalformed
	}

	copy(m.Header.DHPublic[:], dhPublic)
	copy(m.Nonce[:], nonce)
	m.Ciphertext = ciphertext
	m.Header.PrevChainCount = wire.PrevChainCount
	m.Header.MessageNumber = wire.MessageNumber
	return nil
}
