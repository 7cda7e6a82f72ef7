package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/jroimartin/gocui"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"safetalk/client"
	"safetalk/configs"
	"safetalk/crypto/dh25519"
	"safetalk/crypto/identity"
)

var logger = logrus.New()

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go <userID>")
		return
	}
	userID := os.Args[1]

	if err := createKeysIfNotExists(userID); err != nil {
		logger.Fatalf("Error creating keys: %v", err)
		return
	}
	if err := godotenv.Load(fmt.Sprintf("%s/.env.%s", configs.DebugSecretDir, userID)); err != nil {
		logger.Fatalf("Error loading .env file: %v", err)
		return
	}

	identitySeed, err := decodeHex32(os.Getenv("IDENTITY_KEY"))
	if err != nil {
		logger.Fatalf("Failed to decode IDENTITY_KEY: %v", err)
		return
	}
	signedPreKeySeed, err := decodeHex32(os.Getenv("SIGNED_PREKEY"))
	if err != nil {
		logger.Fatalf("Failed to decode SIGNED_PREKEY: %v", err)
		return
	}
	oneTimePreKeySeed, err := decodeHex32(os.Getenv("ONE_TIME_PREKEY"))
	if err != nil {
		logger.Fatalf("Failed to decode ONE_TIME_PREKEY: %v", err)
		return
	}

	identityPair := identity.FromSeed(identity.PrivateKey(identitySeed))
	signedPreKeyPriv := dh25519.PrivateKey(signedPreKeySeed)
	signedPreKeyPub, err := signedPreKeyPriv.Public()
	if err != nil {
		logger.Fatalf("Failed to derive signed prekey public key: %v", err)
		return
	}
	oneTimePreKeyPriv := dh25519.PrivateKey(oneTimePreKeySeed)
	oneTimePreKeyPub, err := oneTimePreKeyPriv.Public()
	if err != nil {
		logger.Fatalf("Failed to derive one-time prekey public key: %v", err)
		return
	}

	keys := client.LocalKeyMaterial{
		Identity:      identityPair,
		SignedPreKey:  dh25519.Pair{Priv: signedPreKeyPriv, Pub: signedPreKeyPub},
		OneTimePreKey: &dh25519.Pair{Priv: oneTimePreKeyPriv, Pub: oneTimePreKeyPub},
	}

	chatApp := client.NewChatApp(userID, keys)

	if err := chatApp.InitGui(); err != nil {
		logger.Fatalf("Error initializing gocui interface: %v", err)
	}

	if err := chatApp.PostKeys(); err != nil {
		logger.Fatalf("Error publishing keys: %v", err)
	}

	if err := chatApp.PromptRecipientID(); err != nil {
		logger.Fatalf("Error prompting recipient ID: %v", err)
	}

	if err := chatApp.Gui.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		logger.Fatalf("Error in gocui main loop: %v", err)
	}

	logger.Info("Application exited.")
}

func decodeHex32(hexStr string) ([32]byte, error) {
	var byteArray [32]byte
	if len(hexStr) == 0 {
		return byteArray, fmt.Errorf("hex string is empty")
	}
	decodedBytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return byteArray, err
	}
	if len(decodedBytes) != 32 {
		return byteArray, fmt.Errorf("decoded byte array is not 32 bytes long")
	}
	copy(byteArray[:], decodedBytes)
	return byteArray, nil
}

func createKeysIfNotExists(userID string) error {
	envFileName := fmt.Sprintf("%s/.env.%s", configs.DebugSecretDir, userID)
	if _, err := os.Stat(envFileName); err == nil {
		return nil
	}

	if err := os.MkdirAll(configs.DebugSecretDir, 0o700); err != nil {
		return fmt.Errorf("failed to create secret directory: %v", err)
	}

	identityPair, err := identity.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate identity key: %v", err)
	}
	signedPreKey, err := dh25519.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate signed prekey: %v", err)
	}
	oneTimePreKey, err := dh25519.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate one-time prekey: %v", err)
	}

	file, err := os.Create(envFileName)
	if err != nil {
		return fmt.Errorf("failed to create env file: %v", err)
	}
	defer file.Close()

	if _, err := file.WriteString(fmt.Sprintf("IDENTITY_KEY=%x\n", identityPair.Priv)); err != nil {
		return fmt.Errorf("failed to write identity key: %v", err)
	}
	if _, err := file.WriteString(fmt.Sprintf("SIGNED_PREKEY=%x\n", signedPreKey.Priv)); err != nil {
		return fmt.Errorf("failed to write signed prekey: %v", err)
	}
	if _, err := file.WriteString(fmt.Sprintf("ONE_TIME_PREKEY=%x\n", oneTimePreKey.Priv)); err != nil {
		return fmt.Errorf("failed to write one-time prekey: %v", err)
	}
	return nil
}
