package main

import (
	"fmt"
	"log"

	"safetalk/crypto/identity"
)

func main() {
	pair, err := identity.Generate()
	if err != nil {
		log.Fatalf("Failed to generate identity key: %v", err)
	}

	fmt.Printf("PRIVATE: %x\n", pair.Priv)
	fmt.Printf("PUBLIC: %x\n", pair.Pub)
}
