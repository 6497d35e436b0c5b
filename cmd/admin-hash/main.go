package main

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Generates the bcrypt hash for ADMIN_PASSWORD_HASH from the ADMIN_PASSWORD
// env var or the first CLI argument.
func main() {
	password := os.Getenv("ADMIN_PASSWORD")
	if len(os.Args) > 1 {
		password = os.Args[1]
	}
	if password == "" {
		log.Fatal("Usage: admin-hash <password>  (or set ADMIN_PASSWORD)")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	log.Println("Add this to your environment:")
	log.Printf("  ADMIN_PASSWORD_HASH=%s", string(hash))
}
