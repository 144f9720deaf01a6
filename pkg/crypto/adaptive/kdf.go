package adaptive

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the salt length produced by NewSalt.
const SaltSize = 16

// argon2id parameters (RFC 9106 second recommended option, lowered memory).
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// NewSalt returns SaltSize random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// DeriveKey stretches passphrase into a KeySize key with argon2id.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, KeySize)
}
