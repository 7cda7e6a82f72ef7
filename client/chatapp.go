package client

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jroimartin/gocui"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"safetalk/common"
	"safetalk/configs"
	"safetalk/crypto/dh25519"
	"safetalk/crypto/identity"
	"safetalk/protocol/doubleratchet"
	"safetalk/protocol/prekey"
	"safetalk/protocol/x3dh"
)

var logger = logrus.New()

// LocalKeyMaterial is the demo's own identity plus the signed and
// one-time prekeys it publishes — the private halves this process
// holds, never sent over the wire.
type LocalKeyMaterial struct {
	Identity      identity.Pair
	SignedPreKey  dh25519.Pair
	OneTimePreKey *dh25519.Pair
}

// ToBundle produces the public prekey.Bundle this identity publishes.
func (k LocalKeyMaterial) ToBundle(spkID uint32, otkID uint32, timestamp uint64) prekey.Bundle {
	sig := prekey.Sign(k.Identity.Priv, k.SignedPreKey.Pub)
	bundle := prekey.Bundle{
		IdentityKey: k.Identity.Pub,
		SignedPreKey: prekey.SignedPreKey{
			KeyID:     spkID,
			Public:    k.SignedPreKey.Pub,
			Signature: sig,
			Timestamp: timestamp,
		},
	}
	if k.OneTimePreKey != nil {
		bundle.OneTimePreKey = &prekey.OneTimePreKey{KeyID: otkID, Public: k.OneTimePreKey.Pub}
	}
	return bundle
}

type ChatApp struct {
	Gui         *gocui.Gui
	recipientID string
	messages    []string
	wsConn      *websocket.Conn
	messageLock sync.Mutex
	userID      string
	wg          sync.WaitGroup

	localKeys     LocalKeyMaterial
	remoteBundle  prekey.Bundle
	ratchet       *doubleratchet.Session
	initHandshake *x3dh.InitialMessage
}

// NewChatApp initializes a new ChatApp around an already-generated
// local identity and prekey set.
func NewChatApp(userID string, keys LocalKeyMaterial) *ChatApp {
	return &ChatApp{userID: userID, localKeys: keys}
}

// connectToWebSocket connects to the WebSocket server. recipientID
// must already be set.
func (app *ChatApp) connectToWebSocket() error {
	serverURL := fmt.Sprintf("ws://%s%s?userId=%s", configs.ServerAddress, configs.WebSocketPath, app.userID)
	conn, _, err := websocket.DefaultDialer.Dial(serverURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to WebSocket server: %w", err)
	}
	app.wsConn = conn

	bundle, err := app.GetKeys(app.recipientID)
	if err != nil {
		logger.Fatalf("error getting recipient keys: %v", err)
	}
	app.remoteBundle = *bundle

	if err = app.load(); err != nil {
		if !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to load data: %w", err)
		}
	}

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.listenForMessages()
	}()

	return nil
}

// listenForMessages listens for incoming WebSocket messages.
func (app *ChatApp) listenForMessages() {
	for {
		_, msgBytes, err := app.wsConn.ReadMessage()
		if err != nil {
			logger.Errorf("error reading message: %v", err)
			return
		}

		var bundle common.MessageBundle
		if err := json.Unmarshal(msgBytes, &bundle); err != nil {
			logger.Errorf("error unmarshalling message: %v", err)
			continue
		}

		plaintext, err := app.decryptMessage(&bundle)
		if err != nil {
			logger.Errorf("error decrypting message: %v", err)
			continue
		}

		app.messageLock.Lock()
		app.messages = append(app.messages, fmt.Sprintf("[%s] %s", bundle.From, plaintext))
		app.messageLock.Unlock()

		app.Gui.Update(func(g *gocui.Gui) error {
			return app.UpdateMessages(g)
		})
	}
}

// sendMessage sends a message to the WebSocket server as a MessageBundle.
func (app *ChatApp) sendMessage(message string) error {
	if app.wsConn == nil {
		return fmt.Errorf("websocket connection not established")
	}

	bundle, err := app.encryptMessage(message)
	if err != nil {
		return fmt.Errorf("failed to encrypt message: %w", err)
	}

	bundleJSON, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to marshal message to JSON: %w", err)
	}

	if err := app.wsConn.WriteMessage(websocket.TextMessage, bundleJSON); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// quit handles quitting the application.
func (app *ChatApp) quit(_ *gocui.Gui, _ *gocui.View) error {
	logger.Info("shutting down gracefully...")
	if app.wsConn != nil {
		app.wsConn.Close()
	}
	app.wg.Wait()

	if err := app.save(); err != nil {
		logger.Errorf("error saving data: %v", err)
	}

	return gocui.ErrQuit
}

// PostKeys publishes this user's prekey bundle to the server.
func (app *ChatApp) PostKeys() error {
	serverURL := fmt.Sprintf("http://%s%s/%s", configs.ServerAddress, configs.PublishKeysPath, app.userID)

	bundle := app.localKeys.ToBundle(1, 1, 0)
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := http.Post(serverURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned non-OK status: %v", resp.Status)
	}
	return nil
}

// GetKeys fetches recipientID's published prekey bundle.
func (app *ChatApp) GetKeys(recipientID string) (*prekey.Bundle, error) {
	serverURL := fmt.Sprintf("http://%s%s/%s", configs.ServerAddress, configs.PublishKeysPath, recipientID)

	resp, err := http.Get(serverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned non-OK status: %v", resp.Status)
	}

	var bundle prekey.Bundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &bundle, nil
}

// getAD returns the associated data bound into each message's AEAD
// tag: the two parties' identity public keys, sender first.
func (app *ChatApp) getAD() []byte {
	ad := make([]byte, 0, 64)
	ad = append(ad, app.localKeys.Identity.Pub[:]...)
	ad = append(ad, app.remoteBundle.IdentityKey[:]...)
	return ad
}

func (app *ChatApp) save() error {
	rdb := redis.NewClient(&redis.Options{Addr: configs.RedisAddress})

	if app.ratchet != nil {
		blob := app.ratchet.Marshal()
		if err := rdb.Set(context.Background(), fmt.Sprintf(configs.ClientRatchetKey, app.userID, app.recipientID), blob, 0).Err(); err != nil {
			return err
		}
	}

	var messagesBuffer bytes.Buffer
	if err := gob.NewEncoder(&messagesBuffer).Encode(app.messages); err != nil {
		return err
	}
	if err := rdb.Set(context.Background(), fmt.Sprintf(configs.ClientMessagesKey, app.userID, app.recipientID), messagesBuffer.Bytes(), 0).Err(); err != nil {
		return err
	}

	if app.initHandshake != nil {
		handshakeJSON, err := json.Marshal(app.initHandshake)
		if err != nil {
			return err
		}
		if err := rdb.Set(context.Background(), fmt.Sprintf(configs.ClientInitHandshakeKey, app.userID, app.recipientID), handshakeJSON, 0).Err(); err != nil {
			return err
		}
	}

	return nil
}

func (app *ChatApp) load() error {
	rdb := redis.NewClient(&redis.Options{Addr: configs.RedisAddress})

	ratchetData, err := rdb.Get(context.Background(), fmt.Sprintf(configs.ClientRatchetKey, app.userID, app.recipientID)).Bytes()
	if err == nil {
		session, err := doubleratchet.Unmarshal(ratchetData)
		if err != nil {
			return err
		}
		app.ratchet = session
	} else if !errors.Is(err, redis.Nil) {
		return err
	}

	messagesData, err := rdb.Get(context.Background(), fmt.Sprintf(configs.ClientMessagesKey, app.userID, app.recipientID)).Bytes()
	if err == nil {
		if err := gob.NewDecoder(bytes.NewBuffer(messagesData)).Decode(&app.messages); err != nil {
			return err
		}
	} else if !errors.Is(err, redis.Nil) {
		return err
	}

	handshakeData, err := rdb.Get(context.Background(), fmt.Sprintf(configs.ClientInitHandshakeKey, app.userID, app.recipientID)).Bytes()
	if err == nil {
		var handshake x3dh.InitialMessage
		if err := json.Unmarshal(handshakeData, &handshake); err != nil {
			return err
		}
		app.initHandshake = &handshake
	} else if !errors.Is(err, redis.Nil) {
		return err
	}

	return nil
}
