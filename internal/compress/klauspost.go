package compress

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Klauspost is the optimised zlib implementation from
// github.com/klauspost/compress.
type Klauspost struct {
	level int
}

// NewKlauspost returns the optimised implementation at level.
func NewKlauspost(level int) (*Klauspost, error) {
	if !ValidLevel(level) {
		return nil, fmt.Errorf("invalid compression level %d", level)
	}
	return &Klauspost{level: level}, nil
}

func (k *Klauspost) NewWriter(w io.Writer) (io.WriteCloser, error) {
	zw, err := zlib.NewWriterLevel(w, k.level)
	if err != nil {
		return nil, err
	}
	return zw, nil
}

func (k *Klauspost) NewReader(r io.Reader) (io.ReadCloser, error) {
	return zlib.NewReader(r)
}

func (k *Klauspost) Level() int { return k.level }
