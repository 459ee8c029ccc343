package natives

import (
	"bytes"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"natives/config"
	"natives/internal/cipher"
	"natives/internal/compress"
	nerr "natives/internal/errors"
	"natives/internal/metrics"
	"natives/internal/selector"
	"natives/util"
)

func TestNew_DefaultSelection(t *testing.T) {
	set := New(config.Default(), nil, nil)
	if err := set.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	wantCompression := VariantStdlib
	if Is64Bit() {
		wantCompression = VariantKlauspost
	}
	if name, _ := set.Compression.SelectedName(); name != wantCompression {
		t.Errorf("compression = %q, want %q", name, wantCompression)
	}

	wantCipher := VariantPortable
	if HasAES() {
		wantCipher = VariantAESCTR
	}
	if name, _ := set.Cipher.SelectedName(); name != wantCipher {
		t.Errorf("cipher = %q, want %q", name, wantCipher)
	}
}

func TestNew_DisableFallsBack(t *testing.T) {
	cfg := config.Default()
	cfg.Disabled = []string{"KLAUSPOST", VariantAESCTR}
	set := New(cfg, nil, nil)

	if name, err := set.Compression.SelectedName(); err != nil || name != VariantStdlib {
		t.Errorf("compression = %q, %v; want stdlib", name, err)
	}
	if name, err := set.Cipher.SelectedName(); err != nil || name != VariantPortable {
		t.Errorf("cipher = %q, %v; want %s", name, err, VariantPortable)
	}

	for _, st := range set.Cipher.Candidates() {
		if st.Name == VariantAESCTR && st.State != selector.NotAvailable {
			t.Errorf("disabled aes-ctr state = %v, want not-available", st.State)
		}
	}
}

func TestNew_DisableEverything(t *testing.T) {
	cfg := config.Default()
	cfg.Disabled = []string{VariantAESCTR, VariantPortable}
	m := metrics.New()
	set := New(cfg, nil, m)

	_, err := set.Cipher.Get()
	if !nerr.IsFatal(err) {
		t.Fatalf("err = %v, want fatal selection error", err)
	}
	if err := set.Resolve(); !nerr.IsFatal(err) {
		t.Errorf("Resolve err = %v, want fatal", err)
	}
	if m.Snapshot().Exhausted != 1 {
		t.Errorf("exhausted = %d, want 1", m.Snapshot().Exhausted)
	}
}

func TestNew_WarnsOnUnknownVariant(t *testing.T) {
	var buf bytes.Buffer
	logger := util.NewLogger(1)
	logger.SetOutput(&buf)
	logger.SetTimestamps(false)

	cfg := config.Default()
	cfg.Disabled = []string{"libdeflate", "stdlib"}
	New(cfg, logger, nil)

	out := buf.String()
	if !strings.Contains(out, `unknown variant "libdeflate"`) {
		t.Errorf("expected warning, got %q", out)
	}
	if strings.Contains(out, `"stdlib"`) {
		t.Errorf("known variant should not warn: %q", out)
	}
}

func TestNew_LazySetup(t *testing.T) {
	m := metrics.New()
	set := New(config.Default(), nil, m)
	if set.Compression.Resolved() || set.Cipher.Resolved() {
		t.Fatal("New must not resolve")
	}
	if m.Attempts() != 0 {
		t.Errorf("attempts = %d before first use", m.Attempts())
	}
}

func TestSet_Usable(t *testing.T) {
	set := New(config.Default(), nil, nil)

	c := set.Compression.MustGet()
	input := []byte(strings.Repeat("usable ", 1000))
	packed, err := compress.Deflate(c, input)
	if err != nil {
		t.Fatal(err)
	}
	out, err := compress.Inflate(c, packed, len(input))
	if err != nil || !bytes.Equal(out, input) {
		t.Fatalf("compression round trip failed: %v", err)
	}

	f := set.Cipher.MustGet()
	key := bytes.Repeat([]byte{9}, cipher.KeySize)
	nonce := make([]byte, f.NonceSize())
	s, err := f.NewStream(key, nonce)
	if err != nil {
		t.Fatal(err)
	}
	sealed := make([]byte, 16)
	s.XORKeyStream(sealed, make([]byte, 16))
	if bytes.Equal(sealed, make([]byte, 16)) {
		t.Error("keystream is all zero")
	}
}

// TestCipherVariantsInteroperate seals with whatever this host
// resolves and opens with the portable fallback.
func TestCipherVariantsInteroperate(t *testing.T) {
	key := bytes.Repeat([]byte{5}, cipher.KeySize)
	nonce := bytes.Repeat([]byte{0xaa}, 16)
	plain := []byte(strings.Repeat("fallback must be transparent ", 20))

	sealer := New(config.Default(), nil, nil).Cipher.MustGet()
	cfg := config.Default()
	cfg.Disabled = []string{VariantAESCTR}
	fallback := New(cfg, nil, nil)
	opener := fallback.Cipher.MustGet()
	if name, _ := fallback.Cipher.SelectedName(); name != VariantPortable {
		t.Fatalf("fallback selected %q", name)
	}

	enc, err := sealer.NewStream(key, nonce)
	if err != nil {
		t.Fatal(err)
	}
	sealed := make([]byte, len(plain))
	enc.XORKeyStream(sealed, plain)

	dec, err := opener.NewStream(key, nonce)
	if err != nil {
		t.Fatal(err)
	}
	opened := make([]byte, len(sealed))
	dec.XORKeyStream(opened, sealed)
	if !bytes.Equal(opened, plain) {
		t.Error("portable variant could not open the resolved variant's output")
	}
}

func TestCompressionLevelApplied(t *testing.T) {
	cfg := config.Default()
	cfg.Level = compress.BestSpeed
	set := New(cfg, nil, nil)
	if got := set.Compression.MustGet().Level(); got != compress.BestSpeed {
		t.Errorf("level = %d, want %d", got, compress.BestSpeed)
	}
}

func TestPlatform(t *testing.T) {
	p := Platform()
	if p.OS == "" || p.Arch == "" {
		t.Errorf("Platform() = %+v", p)
	}
	if p.HasAES != HasAES() {
		t.Error("HasAES mismatch")
	}
}

func TestIs64Bit(t *testing.T) {
	if Is64Bit() != (strconv.IntSize == 64) {
		t.Errorf("Is64Bit() = %v on %s", Is64Bit(), runtime.GOARCH)
	}
}

func TestKnown(t *testing.T) {
	for _, names := range Variants {
		for _, n := range names {
			if !known(n) || !known(strings.ToUpper(n)) {
				t.Errorf("known(%q) = false", n)
			}
		}
	}
	if known("libdeflate") {
		t.Error("libdeflate is not a variant")
	}
}
