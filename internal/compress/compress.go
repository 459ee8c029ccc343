// Package compress defines the zlib-format compression capability and
// its implementations.  Every implementation produces and accepts the
// same wire format, so peers need not agree on which one they use.
package compress

import (
	"bytes"
	"fmt"
	"io"

	nerr "natives/internal/errors"
)

// Compression levels accepted by the constructors.
const (
	DefaultCompression = -1
	NoCompression      = 0
	BestSpeed          = 1
	BestCompression    = 9
)

// Compressor is the zlib compression capability.  Implementations are
// safe for concurrent use; the streams they return are not.
type Compressor interface {
	// NewWriter returns a writer that compresses into w.  The caller
	// must Close it to flush the trailer.
	NewWriter(w io.Writer) (io.WriteCloser, error)
	// NewReader returns a reader that inflates r.
	NewReader(r io.Reader) (io.ReadCloser, error)
	// Level returns the configured compression level.
	Level() int
}

// ValidLevel reports whether level is accepted by every implementation.
func ValidLevel(level int) bool {
	return level >= DefaultCompression && level <= BestCompression
}

// Deflate compresses src in one call.
func Deflate(c Compressor, src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := c.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		w.Close()
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	return buf.Bytes(), nil
}

// Inflate decompresses src in one call.  When limit > 0 and the inflated
// data would exceed limit bytes, it fails with errors.ErrTooLarge.
func Inflate(c Compressor, src []byte, limit int) ([]byte, error) {
	r, err := c.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(Limit(r, limit))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return out, nil
}

// Limit wraps r so that reading more than limit bytes fails with
// errors.ErrTooLarge.  limit <= 0 disables the limit.
func Limit(r io.Reader, limit int) io.Reader {
	if limit <= 0 {
		return r
	}
	return &limitedReader{r: r, remaining: int64(limit)}
}

type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, nerr.ErrTooLarge
	}
	// Allow one extra byte through so overflow is detected rather
	// than silently truncated.
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n + int(l.remaining), nerr.ErrTooLarge
	}
	return n, err
}

// selfTestPayload is compressible and spans more than one deflate block
// boundary at low levels.
var selfTestPayload = bytes.Repeat([]byte("natives compression self-test 0123456789 "), 2048)

// SelfTest round-trips a fixed payload through c.
func SelfTest(c Compressor) error {
	packed, err := Deflate(c, selfTestPayload)
	if err != nil {
		return err
	}
	if c.Level() != NoCompression && len(packed) >= len(selfTestPayload) {
		return fmt.Errorf("self-test: output (%d bytes) not smaller than input (%d bytes)",
			len(packed), len(selfTestPayload))
	}
	out, err := Inflate(c, packed, len(selfTestPayload))
	if err != nil {
		return err
	}
	if !bytes.Equal(out, selfTestPayload) {
		return fmt.Errorf("self-test: round trip mismatch")
	}
	return nil
}
