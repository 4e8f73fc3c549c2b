package utils

import (
	"log"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret hashes an access secret.
func HashSecret(secret string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("generate secret hash error:", err)
	}
	return string(hash)
}

// CheckSecret verifies a secret against its hash in constant time.
func CheckSecret(secret string, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
