// Package common holds the wire envelope the demo server and client
// exchange over the websocket transport, layering routing metadata
// around a double-ratchet message and, on messages from the session's
// initiator, the X3DH handshake material the recipient needs to
// rederive the shared secret.
package common

import (
	"safetalk/protocol/doubleratchet"
	"safetalk/protocol/x3dh"
)

// MessageBundle is the envelope carried between client and server:
// routing info, the ratchet message, associated data bound into its
// AEAD tag, and the X3DH handshake the recipient needs to establish its
// own session. The initiator attaches the handshake to every message it
// sends; the responder's messages carry none.
type MessageBundle struct {
	From      string                `json:"from"`
	To        string                `json:"to"`
	Message   doubleratchet.Message `json:"message"`
	AD        []byte                `json:"ad"`
	Handshake *x3dh.InitialMessage  `json:"handshake,omitempty"`
}
