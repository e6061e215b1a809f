package vmm

import (
	"runtime"
	"testing"

	"github.com/roscopeco/anos/kernel/mem"
)

func requireRiscv64(t *testing.T) {
	if runtime.GOARCH != "riscv64" {
		t.Skip("test requires riscv64 runtime; skipping")
	}
}

func TestPTEFlagsRoundTripRiscv64(t *testing.T) {
	requireRiscv64(t)

	var pte pageTableEntry
	flags := FlagPresent | FlagRW | FlagUserAccessible | FlagGlobal

	pte.SetFlags(flags)

	if !pte.HasFlags(FlagPresent | FlagRW | FlagUserAccessible | FlagGlobal) {
		t.Fatalf("expected entry to have all of %v set", flags)
	}

	if pte.HasFlags(FlagNoExecute) {
		t.Fatal("a leaf entry without FlagNoExecute set should have the X bit on")
	}
}

func TestPTENoExecuteIsInvertedRiscv64(t *testing.T) {
	requireRiscv64(t)

	var pte pageTableEntry
	pte.SetFlags(FlagPresent | FlagRW | FlagNoExecute)

	if !pte.HasFlags(FlagNoExecute) {
		t.Fatal("expected FlagNoExecute to read back set when requested")
	}

	got := pte.Flags()
	if got&FlagNoExecute == 0 {
		t.Fatal("expected Flags() to report FlagNoExecute")
	}
}

func TestPTEFrameRoundTripRiscv64(t *testing.T) {
	requireRiscv64(t)

	var pte pageTableEntry
	frame := mem.Frame(0x1234)

	pte.SetFrame(frame)
	pte.SetFlags(FlagPresent | FlagRW)

	if got := pte.Frame(); got != frame {
		t.Fatalf("expected Frame() to return %v; got %v", frame, got)
	}
}

func TestSetPointerFlagsRiscv64(t *testing.T) {
	requireRiscv64(t)

	var pte pageTableEntry
	pte.SetPointerFlags()

	if !pte.HasFlags(FlagPresent) {
		t.Fatal("expected a pointer entry to be valid")
	}
	if raw := uintptr(pte); raw&(bitRead|bitWrite|bitExecute) != 0 {
		t.Fatalf("expected a pointer entry to have R/W/X clear; raw = %#x", raw)
	}
}
