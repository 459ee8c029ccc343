package compress

import (
	"bytes"
	"testing"
)

var benchPayload = bytes.Repeat([]byte("proxy packet payload with some repetition "), 1024)

func benchmarkDeflate(b *testing.B, c Compressor) {
	b.SetBytes(int64(len(benchPayload)))
	for i := 0; i < b.N; i++ {
		if _, err := Deflate(c, benchPayload); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDeflate_Klauspost measures the preferred implementation.
func BenchmarkDeflate_Klauspost(b *testing.B) {
	c, _ := NewKlauspost(DefaultCompression)
	benchmarkDeflate(b, c)
}

// BenchmarkDeflate_Stdlib measures the portable fallback.
func BenchmarkDeflate_Stdlib(b *testing.B) {
	c, _ := NewStdlib(DefaultCompression)
	benchmarkDeflate(b, c)
}
