package syscall

import (
	"unsafe"

	"github.com/roscopeco/anos/kernel/kfmt"
)

func kfmtWrite(p []byte) {
	kfmt.Printf("%s", p)
}

// AnosMemInfo is the payload syscall 4 (memstats) fills in at the
// user-supplied pointer. Field set matches what the physical-region
// accounting this kernel actually keeps can report; totals are in bytes.
type AnosMemInfo struct {
	PhysicalTotal uint64
	PhysicalAvail uint64
}

func writeMemInfo(ptr uintptr, total, avail uint64) {
	info := (*AnosMemInfo)(unsafe.Pointer(ptr))
	info.PhysicalTotal = total
	info.PhysicalAvail = avail
}

// maxDebugStringLen bounds how far kfmtPrintString will scan for a NUL
// terminator: a malformed or malicious pointer must not turn a debug print
// into an unbounded read.
const maxDebugStringLen = 4096

func kfmtPrintString(ptr uintptr) {
	base := (*byte)(unsafe.Pointer(ptr))
	n := 0
	for n < maxDebugStringLen {
		b := *(*byte)(unsafe.Pointer(uintptr(unsafe.Pointer(base)) + uintptr(n)))
		if b == 0 {
			break
		}
		n++
	}

	buf := unsafe.Slice(base, n)
	kfmtWrite(buf)
}

func kfmtPrintChar(c byte) {
	kfmt.Printf("%c", c)
}
