package x3dh

import (
	"encoding/base64"
	"encoding/json"

	"safetalk/crypto/dh25519"
	"safetalk/crypto/identity"
	"safetalk/errs"
)

// initialMessageJSON mirrors the X3DH Initial Message JSON shape:
// { "sender_identity_key": bytes, "ephemeral_key": bytes, "one_time_prekey_id": u32 | null }.
type initialMessageJSON struct {
	SenderIdentityKey string  `json:"sender_identity_key"`
	EphemeralKey      string  `json:"ephemeral_key"`
	OneTimePreKeyID   *uint32 `json:"one_time_prekey_id"`
}

// MarshalJSON encodes the InitialMessage with byte fields base64-encoded.
func (m InitialMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(initialMessageJSON{
		SenderIdentityKey: base64.StdEncoding.EncodeToString(m.SenderIdentityKey[:]),
		EphemeralKey:      base64.StdEncoding.EncodeToString(m.EphemeralKey[:]),
		OneTimePreKeyID:   m.OneTimePreKeyID,
	})
}

// UnmarshalJSON decodes an InitialMessage produced by MarshalJSON.
func (m *InitialMessage) UnmarshalJSON(data []byte) error {
	var wire initialMessageJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	idBytes, err := base64.StdEncoding.DecodeString(wire.SenderIdentityKey)
	if err != nil || len(idBytes) != identity.PublicKeySize {
		return errs.ErrMalformed
	}
	ephBytes, err := base64.StdEncoding.DecodeString(wire.EphemeralKey)
	if err != nil || len(ephBytes) != dh25519.KeySize {
		return errs.ErrMalformed
	}

	copy(m.SenderIdentityKey[:], idBytes)
	copy(m.EphemeralKey[:], ephBytes)
	m.OneTimePreKeyID = wire.OneTimePreKeyID
	return nil
}
