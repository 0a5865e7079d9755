package room

import (
	"crypto/rand"
	"math/big"
)

// Room codes are 6 characters from the uppercase alphanumeric alphabet.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const codeLength = 6

// GenerateCode returns a random room code. Uniqueness against live rooms is
// the caller's responsibility (bounded retries against the store).
func GenerateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
