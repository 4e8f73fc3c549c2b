package utils

import (
	"crypto/rand"
	"log"
	"math/big"
)

const secretChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomSecret returns a cryptographically random string of n characters.
func RandomSecret(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(secretChars)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			log.Fatal("random secret error:", err)
		}
		out[i] = secretChars[idx.Int64()]
	}
	return string(out)
}
