package mem

import (
	"github.com/roscopeco/anos/kernel"
)

// Memset sets size bytes at the given address to the supplied value. It
// delegates to kernel.Memset, which does the actual work via log2(size)
// overlapping copies instead of a byte-at-a-time loop.
func Memset(addr uintptr, value byte, size Size) {
	kernel.Memset(addr, value, uintptr(size))
}

// Memcopy copies size bytes from src to dst. The two regions must not
// overlap.
func Memcopy(src, dst uintptr, size Size) {
	kernel.Memcopy(src, dst, uintptr(size))
}
