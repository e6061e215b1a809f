// Package cookie generates the non-zero, unforgeable 64-bit tokens used to
// address IPC channels, in-flight messages and process capabilities. The
// same generator backs all three so that a token observed in one namespace
// cannot be mistaken for, or forged into, a token valid in another only by
// guessing; callers are expected to keep their own cookie spaces (channel
// cookies, message cookies, capability cookies) in separate maps.
package cookie

import (
	"sync/atomic"

	"github.com/roscopeco/anos/kernel/cpu"
)

// counter is the per-process-image monotonic counter mixed into every
// generated cookie. It is not per-CPU in this single-binary kernel image;
// the atomic increment gives it the same "never repeats" property a
// per-CPU counter would, at the cost of one shared cache line.
var counter uint64

// entropyFn and tscFn are mocked by tests; cpu.ReadEntropy/cpu.ReadTSC are
// arch-stub primitives with no portable implementation to execute off
// real hardware.
var (
	entropyFn = cpu.ReadEntropy
	tscFn     = cpu.ReadTSC
)

// Generate returns a fresh, non-zero 64-bit token. It mixes a hardware
// entropy sample, the time-stamp counter (monotonic across cores) and a
// monotonic counter, then folds the result with a fixed-round avalanche so
// no single input dominates the low bits callers might be tempted to mask
// off. The mixing function itself is deliberately unexported and exposed
// only through this entry point: nothing in the kernel stores or inspects
// the intermediate values.
func Generate() uint64 {
	for {
		n := atomic.AddUint64(&counter, 1)
		mixed := mix(entropyFn(), tscFn(), n)
		if mixed != 0 {
			return mixed
		}
	}
}

// mix is a splitmix64-style finaliser: cheap, branch-free, and good enough
// to scatter the counter's low bits across the whole word so sequential
// cookies don't differ only in a handful of bits.
func mix(entropy, tsc, n uint64) uint64 {
	x := entropy ^ (tsc * 0x9E3779B97F4A7C15) ^ (n << 1)
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}
