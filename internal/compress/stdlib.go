package compress

import (
	"compress/zlib"
	"fmt"
	"io"
)

// Stdlib is the portable compress/zlib implementation.
type Stdlib struct {
	level int
}

// NewStdlib returns the portable implementation at level.
func NewStdlib(level int) (*Stdlib, error) {
	if !ValidLevel(level) {
		return nil, fmt.Errorf("invalid compression level %d", level)
	}
	return &Stdlib{level: level}, nil
}

func (s *Stdlib) NewWriter(w io.Writer) (io.WriteCloser, error) {
	zw, err := zlib.NewWriterLevel(w, s.level)
	if err != nil {
		return nil, err
	}
	return zw, nil
}

func (s *Stdlib) NewReader(r io.Reader) (io.ReadCloser, error) {
	return zlib.NewReader(r)
}

func (s *Stdlib) Level() int { return s.level }
