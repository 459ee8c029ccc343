package cipher

import (
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for DeriveKey.  Changing any of them changes the
// derived key, so streams sealed before the change no longer open.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4

	// MinPassphrase is the shortest passphrase DeriveKey accepts.
	MinPassphrase = 8
)

// DeriveKey stretches passphrase into a KeySize-byte key with
// argon2id.  salt should be unique per stream; the CLI uses the
// stream's random nonce.
func DeriveKey(passphrase string, salt []byte) ([]byte, error) {
	if len(passphrase) < MinPassphrase {
		return nil, fmt.Errorf("passphrase: minimum length is %d characters", MinPassphrase)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("passphrase: empty salt")
	}
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, KeySize), nil
}
