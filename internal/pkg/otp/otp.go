package otp

import (
	"crypto/rand"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CodeLength is the number of digits in a sign-in code
const CodeLength = 6

// Codes live for minutes, so a lower cost than account passwords is enough
const cost = bcrypt.DefaultCost

// Generate returns a random numeric code of CodeLength digits
func Generate() (string, error) {
	var sb strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

// Hash hashes a code using bcrypt
func Hash(code string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	return string(bytes), err
}

// Verify compares a code with its hash
func Verify(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
