package natives

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/cpu"

	"natives/internal/selector"
)

// HasAES reports whether the CPU has AES instructions that crypto/aes
// uses.  POWER8 and later always have them.
var HasAES = selector.Any(
	func() bool { return cpu.X86.HasAES },
	func() bool { return cpu.ARM64.HasAES },
	func() bool { return cpu.S390X.HasAES && cpu.S390X.HasAESCTR },
	selector.OnArch("ppc64", "ppc64le"),
)

// Is64Bit reports whether the build targets a 64-bit architecture.
var Is64Bit = selector.OnArch(
	"amd64", "arm64", "loong64", "mips64", "mips64le",
	"ppc64", "ppc64le", "riscv64", "s390x", "wasm",
)

// PlatformInfo describes the host for diagnostics.
type PlatformInfo struct {
	OS       string   `json:"os"`
	Arch     string   `json:"arch"`
	CPU      string   `json:"cpu,omitempty"`
	Vendor   string   `json:"vendor,omitempty"`
	Cores    int      `json:"cores,omitempty"`
	HasAES   bool     `json:"has_aes"`
	Features []string `json:"features,omitempty"`
}

// Platform gathers host details from the runtime and cpuid.
func Platform() PlatformInfo {
	return PlatformInfo{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		CPU:      cpuid.CPU.BrandName,
		Vendor:   cpuid.CPU.VendorString,
		Cores:    cpuid.CPU.LogicalCores,
		HasAES:   HasAES(),
		Features: cpuid.CPU.FeatureSet(),
	}
}
