package cipher

import (
	"bytes"
	"crypto/aes"
	stdcipher "crypto/cipher"
	"encoding/hex"
	"fmt"
)

// AESCTR is AES-256-CTR through crypto/cipher's counter mode, which
// runs the fused assembly path on CPUs with AES instructions.
type AESCTR struct{}

// NewAESCTR returns the accelerated AES-CTR factory.
func NewAESCTR() *AESCTR { return &AESCTR{} }

func (*AESCTR) Algorithm() string { return Algorithm }

func (*AESCTR) NonceSize() int { return aes.BlockSize }

func (a *AESCTR) NewStream(key, nonce []byte) (stdcipher.Stream, error) {
	if err := checkSizes(a, key, nonce); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return stdcipher.NewCTR(block, nonce), nil
}

// FIPS-197 appendix C.1 (AES-128).
var (
	fipsKey    = mustHex("000102030405060708090a0b0c0d0e0f")
	fipsPlain  = mustHex("00112233445566778899aabbccddeeff")
	fipsCipher = mustHex("69c4e0d86a7b0430d8cdb78070b4c55a")
)

// KnownAnswer checks the AES block primitive against the FIPS-197
// example vector.
func KnownAnswer() error {
	block, err := aes.NewCipher(fipsKey)
	if err != nil {
		return err
	}
	out := make([]byte, aes.BlockSize)
	block.Encrypt(out, fipsPlain)
	if !bytes.Equal(out, fipsCipher) {
		return fmt.Errorf("aes known-answer test failed: got %x", out)
	}
	return nil
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
