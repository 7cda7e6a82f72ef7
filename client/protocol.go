package client

import (
	"fmt"

	"safetalk/common"
	"safetalk/crypto/dh25519"
	"safetalk/protocol/doubleratchet"
	"safetalk/protocol/fingerprint"
	"safetalk/protocol/x3dh"
)

// signalAliceHandshake runs X3DH as the initiator against the
// recipient's published bundle and initializes the sending ratchet.
// Must already have recipientID and remoteBundle set.
// Postcondition: app.ratchet and app.initHandshake are populated.
func (app *ChatApp) signalAliceHandshake() error {
	out, msg, err := x3dh.InitiatorCalculate(app.localKeys.Identity.Priv, app.remoteBundle)
	if err != nil {
		return fmt.Errorf("failed to perform key agreement: %w", err)
	}

	ratchet, err := doubleratchet.InitAlice(out.SharedSecret, app.remoteBundle.SignedPreKey.Public)
	if err != nil {
		return fmt.Errorf("failed to init ratchet: %w", err)
	}

	app.ratchet = ratchet
	app.initHandshake = &msg
	return nil
}

// signalBobHandshake rederives the X3DH shared secret from the
// responder's side and initializes the receiving ratchet.
func (app *ChatApp) signalBobHandshake(msg *x3dh.InitialMessage) error {
	var oneTimePriv *dh25519.PrivateKey
	if msg.OneTimePreKeyID != nil && app.localKeys.OneTimePreKey != nil {
		oneTimePriv = &app.localKeys.OneTimePreKey.Priv
	}

	secret, err := x3dh.ResponderCalculate(
		app.localKeys.Identity.Priv,
		msg.SenderIdentityKey,
		app.localKeys.SignedPreKey.Priv,
		*msg,
		oneTimePriv,
	)
	if err != nil {
		return fmt.Errorf("failed to perform key agreement: %w", err)
	}

	app.ratchet = doubleratchet.InitBob(secret, app.localKeys.SignedPreKey.Priv, app.localKeys.SignedPreKey.Pub)
	return nil
}

func (app *ChatApp) encryptMessage(msg string) (*common.MessageBundle, error) {
	if app.ratchet == nil {
		if err := app.signalAliceHandshake(); err != nil {
			return nil, fmt.Errorf("failed to perform handshake: %w", err)
		}
	}

	ad := app.getAD()

	encrypted, err := app.ratchet.Encrypt([]byte(msg), ad)
	if err != nil {
		return nil, fmt.Errorf("error encrypting message: %w", err)
	}

	return &common.MessageBundle{
		From:      app.userID,
		To:        app.recipientID,
		Message:   encrypted,
		AD:        ad,
		Handshake: app.initHandshake,
	}, nil
}

func (app *ChatApp) decryptMessage(bundle *common.MessageBundle) ([]byte, error) {
	if app.ratchet == nil {
		if bundle.Handshake == nil {
			return nil, fmt.Errorf("no ratchet established and message carries no handshake")
		}
		if err := app.signalBobHandshake(bundle.Handshake); err != nil {
			return nil, fmt.Errorf("error performing handshake: %w", err)
		}
	}

	plaintext, err := app.ratchet.Decrypt(bundle.Message, bundle.AD)
	if err != nil {
		return nil, fmt.Errorf("error decrypting message: %w", err)
	}
	return plaintext, nil
}

// fingerprint derives the conversation's safety number: the two
// parties' identity-key fingerprints concatenated in a canonical order
// so both sides compute the same string.
func (app *ChatApp) fingerprint() (string, error) {
	ownFingerprint, err := fingerprint.Fingerprint(app.localKeys.Identity.Pub, []byte(app.userID))
	if err != nil {
		return "", fmt.Errorf("failed to get fingerprint: %w", err)
	}
	theirFingerprint, err := fingerprint.Fingerprint(app.remoteBundle.IdentityKey, []byte(app.recipientID))
	if err != nil {
		return "", fmt.Errorf("failed to get fingerprint: %w", err)
	}

	if app.userID > app.recipientID {
		ownFingerprint, theirFingerprint = theirFingerprint, ownFingerprint
	}

	var combined [60]int
	copy(combined[:30], ownFingerprint[:])
	copy(combined[30:], theirFingerprint[:])

	var result string
	for i, num := range combined {
		result += fmt.Sprintf("%d", num)
		if (i+1)%5 == 0 && i != len(combined)-1 {
			result += " "
		}
	}
	return result, nil
}
