package util

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
)

// DefaultBufSize is the standard buffer size for stream I/O (32 KiB).
const DefaultBufSize = 32 * 1024

// CopyStream copies src to dst with a pooled buffer until src reaches
// EOF, either side fails, or ctx is cancelled.  It returns the number
// of bytes written to dst.  Cancellation is checked between reads, so
// a reader blocked in Read is not interrupted.
func CopyStream(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := GetBuf()
	defer PutBuf(buf)

	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		nr, rerr := src.Read(*buf)
		if nr > 0 {
			nw, werr := dst.Write((*buf)[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if rerr != nil {
			if isHarmless(rerr) {
				return written, nil
			}
			return written, rerr
		}
	}
}

// CountingWriter counts bytes passed through to W.
type CountingWriter struct {
	W io.Writer
	n atomic.Int64
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.W.Write(p)
	c.n.Add(int64(n))
	return n, err
}

// Count returns the number of bytes written so far.
func (c *CountingWriter) Count() int64 { return c.n.Load() }

// CountingReader counts bytes read from R.
type CountingReader struct {
	R io.Reader
	n atomic.Int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// Count returns the number of bytes read so far.
func (c *CountingReader) Count() int64 { return c.n.Load() }

// isHarmless returns true for errors that mark a normal end of stream.
func isHarmless(err error) bool {
	return err == nil || errors.Is(err, io.EOF)
}
