package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the NATIVES_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only set env
// vars override the existing value.  This should be called BEFORE CLI
// flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "DISABLE"); v != "" {
		cfg.Disabled = ParseList(v)
	}
	if v, ok := envInt(EnvPrefix + "LEVEL"); ok {
		cfg.Level = v
	}
	if v, ok := envInt(EnvPrefix + "MAX_SIZE"); ok {
		cfg.MaxSize = v
	}
	if v := os.Getenv(EnvPrefix + "KEY"); v != "" {
		cfg.KeyHex = v
	}
	if v := os.Getenv(EnvPrefix + "PASSPHRASE"); v != "" {
		cfg.Passphrase = v
	}
	if envBool(EnvPrefix + "FORCE") {
		cfg.Force = true
	}
	if envBool(EnvPrefix + "METRICS") {
		cfg.ShowMetrics = true
	}
	if v, ok := envInt(EnvPrefix + "VERBOSE"); ok && v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

// envInt returns the integer value of key and whether it was set to a
// valid integer.  Zero is a valid value.
func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
