package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
)

// PortableCTR is AES-256-CTR with the counter mode driven in Go, one
// block at a time.  It needs no AES instructions and its output is
// byte-for-byte that of AESCTR.
type PortableCTR struct{}

// NewPortableCTR returns the portable AES-CTR factory.
func NewPortableCTR() *PortableCTR { return &PortableCTR{} }

func (*PortableCTR) Algorithm() string { return Algorithm }

func (*PortableCTR) NonceSize() int { return aes.BlockSize }

func (p *PortableCTR) NewStream(key, nonce []byte) (stdcipher.Stream, error) {
	if err := checkSizes(p, key, nonce); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	ctr := make([]byte, aes.BlockSize)
	copy(ctr, nonce)
	return &ctrStream{
		block: block,
		ctr:   ctr,
		pad:   make([]byte, aes.BlockSize),
		used:  aes.BlockSize,
	}, nil
}

// ctrStream XORs with E(ctr), E(ctr+1), ...  The counter is the whole
// 16-byte block, big-endian, wrapping at 2^128.
type ctrStream struct {
	block stdcipher.Block
	ctr   []byte
	pad   []byte
	used  int // bytes of pad already consumed
}

func (s *ctrStream) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("cipher: output smaller than input")
	}
	for i := range src {
		if s.used == len(s.pad) {
			s.block.Encrypt(s.pad, s.ctr)
			increment(s.ctr)
			s.used = 0
		}
		dst[i] = src[i] ^ s.pad[s.used]
		s.used++
	}
}

func increment(ctr []byte) {
	for i := len(ctr) - 1; i >= 0; i-- {
		ctr[i]++
		if ctr[i] != 0 {
			return
		}
	}
}
