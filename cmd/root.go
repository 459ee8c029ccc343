// Package cmd wires up the CLI flags and dispatches to the selected
// compression or cipher implementation.
package cmd

import (
	"context"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"natives/config"
	"natives/internal/cipher"
	"natives/internal/compress"
	nerr "natives/internal/errors"
	"natives/internal/metrics"
	"natives/internal/natives"
	"natives/internal/selector"
	"natives/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X natives/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// streams are the process's standard I/O, replaceable in tests.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// Execute parses args and runs the requested natives operation.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})
}

func execute(ctx context.Context, args []string, std streams) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("natives", flag.ContinueOnError)
	fs.SetOutput(std.err)

	// ── operation ────────────────────────────────────────────────
	var list, comp, decomp, encrypt, decrypt bool
	fs.BoolVarP(&list, "list", "L", false, "Show platform and selected implementations (default)")
	fs.BoolVarP(&comp, "compress", "z", false, "Compress stdin to stdout")
	fs.BoolVarP(&decomp, "decompress", "d", false, "Decompress stdin to stdout")
	fs.BoolVar(&encrypt, "encrypt", false, "Encrypt stdin to stdout (nonce is prepended)")
	fs.BoolVar(&decrypt, "decrypt", false, "Decrypt stdin to stdout")

	// ── selection ────────────────────────────────────────────────
	fs.StringSliceVar(&cfg.Disabled, "disable", cfg.Disabled, "Never use these variants (comma-separated)")

	// ── codec parameters ─────────────────────────────────────────
	fs.IntVarP(&cfg.Level, "level", "l", cfg.Level, "Compression level (-1..9)")
	fs.IntVar(&cfg.MaxSize, "max-size", cfg.MaxSize, "Maximum decompressed size in bytes (0 = unlimited)")
	fs.StringVarP(&cfg.KeyHex, "key", "k", cfg.KeyHex, "Cipher key as 64 hex characters")
	fs.StringVarP(&cfg.Passphrase, "passphrase", "p", cfg.Passphrase, "Derive the cipher key from a passphrase (argon2id)")

	// ── output ───────────────────────────────────────────────────
	fs.BoolVarP(&cfg.Force, "force", "f", cfg.Force, "Write binary output to a terminal")
	fs.BoolVar(&cfg.JSON, "json", false, "Print --list output as JSON")
	fs.BoolVar(&cfg.ShowMetrics, "metrics", cfg.ShowMetrics, "Print selection metrics to stderr on exit")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate configuration and exit")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(std.err, fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(std.err, fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(std.out, "natives %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}

	mode, err := pickMode(list, comp, decomp, encrypt, decrypt)
	if err != nil {
		return err
	}
	cfg.Mode = mode

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DryRun {
		return nil
	}
	if binaryOutput(cfg.Mode) && !cfg.Force && isTerminal(std.out) {
		return fmt.Errorf("refusing to write %s output to a terminal (use --force)", cfg.Mode)
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(std.err)
	m := metrics.New()
	set := natives.New(cfg, logger, m)

	if cfg.ShowMetrics {
		defer func() { fmt.Fprintln(std.err, m.JSON()) }()
	}

	if cfg.Mode == config.ModeList {
		return runList(std.out, set, cfg.JSON)
	}

	in := &util.CountingReader{R: std.in}
	out := &util.CountingWriter{W: std.out}
	defer func() {
		m.BytesRead(in.Count())
		m.BytesWritten(out.Count())
	}()

	switch cfg.Mode {
	case config.ModeCompress:
		return runCompress(ctx, set, in, out)
	case config.ModeDecompress:
		return runDecompress(ctx, set, cfg.MaxSize, in, out)
	default:
		keyFor, err := keying(cfg)
		if err != nil {
			return err
		}
		if cfg.Mode == config.ModeEncrypt {
			return runEncrypt(ctx, set, keyFor, in, out)
		}
		return runDecrypt(ctx, set, keyFor, in, out)
	}
}

// keyFunc returns the key for a stream with the given nonce.
type keyFunc func(nonce []byte) ([]byte, error)

// keying returns a fixed key for --key, or one derived per stream from
// --passphrase with the nonce as salt.
func keying(cfg *config.Config) (keyFunc, error) {
	if cfg.Passphrase != "" {
		pass := cfg.Passphrase
		return func(nonce []byte) ([]byte, error) {
			return cipher.DeriveKey(pass, nonce)
		}, nil
	}
	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}
	return func([]byte) ([]byte, error) { return key, nil }, nil
}

// ── modes ────────────────────────────────────────────────────────────

func runCompress(ctx context.Context, set *natives.Set, in io.Reader, out io.Writer) error {
	c, err := set.Compression.Get()
	if err != nil {
		return err
	}
	w, err := c.NewWriter(out)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}
	if _, err := util.CopyStream(ctx, w, in); err != nil {
		w.Close()
		return fmt.Errorf("compress: %w", err)
	}
	return w.Close()
}

func runDecompress(ctx context.Context, set *natives.Set, maxSize int, in io.Reader, out io.Writer) error {
	c, err := set.Compression.Get()
	if err != nil {
		return err
	}
	r, err := c.NewReader(in)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	defer r.Close()

	if _, err := util.CopyStream(ctx, out, compress.Limit(r, maxSize)); err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	return nil
}

func runEncrypt(ctx context.Context, set *natives.Set, keyFor keyFunc, in io.Reader, out io.Writer) error {
	f, err := set.Cipher.Get()
	if err != nil {
		return err
	}
	nonce := make([]byte, f.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("encrypt: nonce: %w", err)
	}
	key, err := keyFor(nonce)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	stream, err := f.NewStream(key, nonce)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	if _, err := out.Write(nonce); err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	w := &stdcipher.StreamWriter{S: stream, W: out}
	if _, err := util.CopyStream(ctx, w, in); err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	return nil
}

func runDecrypt(ctx context.Context, set *natives.Set, keyFor keyFunc, in io.Reader, out io.Writer) error {
	f, err := set.Cipher.Get()
	if err != nil {
		return err
	}
	nonce := make([]byte, f.NonceSize())
	if _, err := io.ReadFull(in, nonce); err != nil {
		return fmt.Errorf("decrypt: reading %d-byte nonce: %w", len(nonce), err)
	}
	key, err := keyFor(nonce)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}
	stream, err := f.NewStream(key, nonce)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}
	r := &stdcipher.StreamReader{S: stream, R: in}
	if _, err := util.CopyStream(ctx, out, r); err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}
	return nil
}

// ── list ─────────────────────────────────────────────────────────────

type candidateReport struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	Selected bool   `json:"selected,omitempty"`
	Error    string `json:"error,omitempty"`
}

type capabilityReport struct {
	Capability string            `json:"capability"`
	Selected   string            `json:"selected,omitempty"`
	Error      string            `json:"error,omitempty"`
	Candidates []candidateReport `json:"candidates"`
}

type listReport struct {
	Platform     natives.PlatformInfo `json:"platform"`
	Capabilities []capabilityReport   `json:"capabilities"`
}

func runList(w io.Writer, set *natives.Set, asJSON bool) error {
	report := listReport{
		Platform: natives.Platform(),
		Capabilities: []capabilityReport{
			describe(set.Compression),
			describe(set.Cipher),
		},
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(w, report)
	}

	for _, c := range report.Capabilities {
		if c.Error != "" {
			return fmt.Errorf("%s: %w", c.Capability, nerr.ErrNoSuitableImplementation)
		}
	}
	return nil
}

// describer is the non-generic part of a selector.
type describer interface {
	Capability() string
	SelectedName() (string, error)
	Candidates() []selector.CandidateStatus
}

func describe(s describer) capabilityReport {
	r := capabilityReport{Capability: s.Capability()}
	name, err := s.SelectedName()
	if err != nil {
		r.Error = err.Error()
	}
	r.Selected = name
	for _, c := range s.Candidates() {
		cr := candidateReport{Name: c.Name, State: c.State.String(), Selected: c.Selected}
		if c.Err != nil {
			cr.Error = c.Err.Error()
		}
		r.Candidates = append(r.Candidates, cr)
	}
	return r
}

func printReport(w io.Writer, r listReport) {
	p := r.Platform
	aes := "no"
	if p.HasAES {
		aes = "yes"
	}
	fmt.Fprintf(w, "platform: %s/%s", p.OS, p.Arch)
	if p.CPU != "" {
		fmt.Fprintf(w, "  cpu: %s", p.CPU)
	}
	fmt.Fprintf(w, "  aes: %s\n", aes)

	for _, c := range r.Capabilities {
		fmt.Fprintf(w, "%s:\n", c.Capability)
		for _, cand := range c.Candidates {
			mark := " "
			if cand.Selected {
				mark = "*"
			}
			line := fmt.Sprintf("  %s %-18s %s", mark, cand.Name, cand.State)
			if cand.Error != "" {
				line += " (" + cand.Error + ")"
			}
			fmt.Fprintln(w, line)
		}
		if c.Error != "" {
			fmt.Fprintf(w, "  ! %s\n", c.Error)
		}
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func pickMode(list, comp, decomp, encrypt, decrypt bool) (config.Mode, error) {
	var chosen []string
	mode := config.ModeList
	for _, m := range []struct {
		set  bool
		mode config.Mode
	}{
		{list, config.ModeList},
		{comp, config.ModeCompress},
		{decomp, config.ModeDecompress},
		{encrypt, config.ModeEncrypt},
		{decrypt, config.ModeDecrypt},
	} {
		if m.set {
			chosen = append(chosen, "--"+m.mode.String())
			mode = m.mode
		}
	}
	if len(chosen) > 1 {
		return mode, fmt.Errorf("%s are mutually exclusive", strings.Join(chosen, ", "))
	}
	return mode, nil
}

func binaryOutput(m config.Mode) bool {
	return m == config.ModeCompress || m == config.ModeEncrypt
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `natives - accelerated codec selector v%s

Picks the fastest working compression and cipher implementation for
this machine, falling back to portable ones.

Usage:
  natives [--list] [--json]                   Show selected implementations
  natives -z [options] < in > out             Compress
  natives -d [options] < in > out             Decompress
  natives --encrypt -k KEY < in > out         Encrypt (AES-256-CTR)
  natives --decrypt -k KEY < in > out         Decrypt
  natives --encrypt -p PASS < in > out        Encrypt with a passphrase

Options:
`, version)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Environment:
  NATIVES_DISABLE, NATIVES_LEVEL, NATIVES_MAX_SIZE, NATIVES_KEY,
  NATIVES_PASSPHRASE, NATIVES_FORCE, NATIVES_METRICS, NATIVES_VERBOSE

Examples:
  natives -v                                  Which variants win here?
  natives --disable aes-ctr --list            Force the portable AES-CTR
  tar c dir | natives -z -l 9 > dir.tar.z     Compress a stream
`)
}
