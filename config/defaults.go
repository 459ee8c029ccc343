package config

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// EnvPrefix prefixes every supported environment variable.
	EnvPrefix = "NATIVES_"

	// DefaultLevel selects each compressor's default level.
	DefaultLevel = -1

	// MinLevel and MaxLevel bound the accepted compression levels.
	MinLevel = -1
	MaxLevel = 9

	// DefaultMaxSize caps inflated output (8 MiB).
	DefaultMaxSize = 8 * 1024 * 1024

	// HardMaxSize is the largest --max-size accepted (128 MiB).
	HardMaxSize = 128 * 1024 * 1024

	// KeySize is the cipher key length in bytes.
	KeySize = 32

	// MinPassphrase is the shortest accepted --passphrase.
	MinPassphrase = 8
)
