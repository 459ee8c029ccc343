// Package natives assembles the selectors for every capability the
// proxy pipeline needs.  A Set is built once by whoever owns the
// pipeline and passed to it; nothing here is package-global.
package natives

import (
	"strings"

	"natives/config"
	"natives/internal/cipher"
	"natives/internal/compress"
	"natives/internal/metrics"
	"natives/internal/selector"
	"natives/util"
)

// Capability names, used in logs, metrics and errors.
const (
	CapabilityCompression = "compression"
	CapabilityCipher      = "cipher"
)

// Variant names, most preferred first within each capability.
const (
	VariantKlauspost = "klauspost"
	VariantStdlib    = "stdlib"
	VariantAESCTR    = "aes-ctr"
	VariantPortable  = "aes-ctr-portable"
)

// Variants lists every known variant name per capability, in priority
// order.
var Variants = map[string][]string{
	CapabilityCompression: {VariantKlauspost, VariantStdlib},
	CapabilityCipher:      {VariantAESCTR, VariantPortable},
}

// Set holds one resolved-on-demand selector per capability.
type Set struct {
	Compression *selector.Selector[compress.Compressor]
	Cipher      *selector.Selector[cipher.Factory]
}

// New builds a Set from cfg.  Probes run now; setup runs lazily on the
// first Get of each selector.  logger and m may be nil.
func New(cfg *config.Config, logger *util.Logger, m *metrics.Collector) *Set {
	for _, name := range cfg.Disabled {
		if !known(name) {
			logger.Warn("ignoring unknown variant %q in disable list", name)
		}
	}

	opts := []selector.Option{selector.WithLogger(logger), selector.WithMetrics(m)}
	return &Set{
		Compression: selector.New(CapabilityCompression, compressionCandidates(cfg), opts...),
		Cipher:      selector.New(CapabilityCipher, cipherCandidates(cfg), opts...),
	}
}

// Resolve forces resolution of every capability and returns the first
// fatal error.  Services call it at startup so a missing capability
// fails fast instead of on the first connection.
func (s *Set) Resolve() error {
	if _, err := s.Compression.Get(); err != nil {
		return err
	}
	if _, err := s.Cipher.Get(); err != nil {
		return err
	}
	return nil
}

func compressionCandidates(cfg *config.Config) []*selector.Candidate[compress.Compressor] {
	level := cfg.Level
	return []*selector.Candidate[compress.Compressor]{
		selector.NewCandidate(VariantKlauspost,
			enabled(cfg, VariantKlauspost, Is64Bit),
			func() error {
				c, err := compress.NewKlauspost(level)
				if err != nil {
					return err
				}
				return compress.SelfTest(c)
			},
			func() (compress.Compressor, error) {
				c, err := compress.NewKlauspost(level)
				if err != nil {
					return nil, err
				}
				return c, nil
			}),
		selector.NewCandidate(VariantStdlib,
			enabled(cfg, VariantStdlib, selector.Always),
			nil,
			func() (compress.Compressor, error) {
				c, err := compress.NewStdlib(level)
				if err != nil {
					return nil, err
				}
				return c, nil
			}),
	}
}

// Both cipher variants produce the same AES-256-CTR stream, so which
// one a host resolves to never affects what a peer can decrypt.
func cipherCandidates(cfg *config.Config) []*selector.Candidate[cipher.Factory] {
	return []*selector.Candidate[cipher.Factory]{
		selector.NewValueCandidate[cipher.Factory](VariantAESCTR,
			enabled(cfg, VariantAESCTR, HasAES),
			func() error {
				if err := cipher.KnownAnswer(); err != nil {
					return err
				}
				return cipher.SelfTest(cipher.NewAESCTR())
			},
			cipher.NewAESCTR()),
		selector.NewValueCandidate[cipher.Factory](VariantPortable,
			enabled(cfg, VariantPortable, selector.Always),
			func() error {
				if err := cipher.SelfTest(cipher.NewPortableCTR()); err != nil {
					return err
				}
				return cipher.Agree(cipher.NewPortableCTR(), cipher.NewAESCTR())
			},
			cipher.NewPortableCTR()),
	}
}

// enabled combines a platform probe with the config's disable list.
func enabled(cfg *config.Config, name string, probe selector.Probe) selector.Probe {
	disabled := func() bool { return cfg.IsDisabled(name) }
	return selector.All(selector.Not(disabled), probe)
}

func known(name string) bool {
	for _, names := range Variants {
		for _, n := range names {
			if strings.EqualFold(n, name) {
				return true
			}
		}
	}
	return false
}
