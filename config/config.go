// Package config defines the runtime configuration for natives and the
// helpers used to parse it.
package config

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	nerr "natives/internal/errors"
)

// Mode is the operation the CLI performs.
type Mode int

const (
	ModeList Mode = iota
	ModeCompress
	ModeDecompress
	ModeEncrypt
	ModeDecrypt
)

func (m Mode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeCompress:
		return "compress"
	case ModeDecompress:
		return "decompress"
	case ModeEncrypt:
		return "encrypt"
	case ModeDecrypt:
		return "decrypt"
	default:
		return "unknown"
	}
}

// NeedsKey reports whether the mode uses the cipher.
func (m Mode) NeedsKey() bool { return m == ModeEncrypt || m == ModeDecrypt }

// Config holds every tuneable for a natives run.
type Config struct {
	// ── Selection ────────────────────────────────────────────────────
	Disabled []string // variant names never attempted

	// ── Compression ──────────────────────────────────────────────────
	Level   int
	MaxSize int // inflate limit in bytes

	// ── Cipher ───────────────────────────────────────────────────────
	KeyHex     string
	Passphrase string // argon2id-stretched per stream, exclusive with KeyHex

	// ── Operation ────────────────────────────────────────────────────
	Mode   Mode
	Force  bool // write binary output to a terminal
	DryRun bool

	// ── Output ───────────────────────────────────────────────────────
	Verbose     int
	ShowMetrics bool
	JSON        bool // --list output as JSON
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Level:   DefaultLevel,
		MaxSize: DefaultMaxSize,
	}
}

// IsDisabled reports whether variant name was disabled.  Matching is
// case-insensitive.
func (c *Config) IsDisabled(name string) bool {
	return slices.ContainsFunc(c.Disabled, func(d string) bool {
		return strings.EqualFold(d, name)
	})
}

// Key decodes KeyHex.
func (c *Config) Key() ([]byte, error) {
	return ParseKey(c.KeyHex)
}

// ── Parsers ──────────────────────────────────────────────────────────

// ParseList splits a comma-separated list, trimming blanks and
// dropping empty entries.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseKey decodes a hex-encoded KeySize-byte key.
func ParseKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("key is not valid hex: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes (%d hex characters), got %d bytes",
			KeySize, KeySize*2, len(key))
	}
	return key, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Level < MinLevel || c.Level > MaxLevel {
		return &nerr.ConfigError{
			Field:   "level",
			Value:   c.Level,
			Message: fmt.Sprintf("out of range %d..%d", MinLevel, MaxLevel),
			Hint:    "use -1 for the default level",
		}
	}

	if c.MaxSize < 0 || c.MaxSize > HardMaxSize {
		return &nerr.ConfigError{
			Field:   "max-size",
			Value:   c.MaxSize,
			Message: fmt.Sprintf("out of range 0..%d", HardMaxSize),
			Hint:    "0 disables the limit",
		}
	}

	if err := c.validateKeying(); err != nil {
		return err
	}

	if c.JSON && c.Mode != ModeList {
		return fmt.Errorf("--json is only valid with --list")
	}

	return nil
}

func (c *Config) validateKeying() error {
	if !c.Mode.NeedsKey() {
		if c.KeyHex != "" || c.Passphrase != "" {
			field := "key"
			if c.KeyHex == "" {
				field = "passphrase"
			}
			return &nerr.ConfigError{
				Field:   field,
				Message: "only valid with --encrypt or --decrypt",
			}
		}
		return nil
	}

	switch {
	case c.KeyHex == "" && c.Passphrase == "":
		return &nerr.ConfigError{
			Field:   "key",
			Message: "required with --" + c.Mode.String(),
			Hint: fmt.Sprintf("pass %d hex characters, e.g. from `openssl rand -hex %d`, or --passphrase",
				KeySize*2, KeySize),
		}
	case c.KeyHex != "" && c.Passphrase != "":
		return &nerr.ConfigError{
			Field:   "key",
			Message: "--key and --passphrase are mutually exclusive",
		}
	case c.KeyHex != "":
		if _, err := ParseKey(c.KeyHex); err != nil {
			return &nerr.ConfigError{Field: "key", Message: err.Error()}
		}
	case len(c.Passphrase) < MinPassphrase:
		return &nerr.ConfigError{
			Field:   "passphrase",
			Message: fmt.Sprintf("must be at least %d characters", MinPassphrase),
		}
	}
	return nil
}
