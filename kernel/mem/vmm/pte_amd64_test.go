package vmm

import (
	"runtime"
	"testing"

	"github.com/roscopeco/anos/kernel/mem"
)

func requireAmd64(t *testing.T) {
	if runtime.GOARCH != "amd64" {
		t.Skip("test requires amd64 runtime; skipping")
	}
}

func TestPTEFlagsRoundTripAmd64(t *testing.T) {
	requireAmd64(t)

	var pte pageTableEntry
	flags := FlagPresent | FlagRW | FlagUserAccessible | FlagNoExecute | FlagCopyOnWrite | FlagGlobal

	pte.SetFlags(flags)

	if !pte.HasFlags(flags) {
		t.Fatalf("expected entry to have all of %v set", flags)
	}

	if got := pte.Flags(); got != flags {
		t.Fatalf("expected Flags() to return %v; got %v", flags, got)
	}

	pte.ClearFlags(FlagCopyOnWrite)
	if pte.HasFlags(FlagCopyOnWrite) {
		t.Fatal("expected FlagCopyOnWrite to be cleared")
	}
	if !pte.HasFlags(FlagPresent | FlagRW) {
		t.Fatal("expected clearing one flag to leave the others intact")
	}
}

func TestPTEHasAnyFlagAmd64(t *testing.T) {
	requireAmd64(t)

	var pte pageTableEntry
	pte.SetFlags(FlagRW)

	if !pte.HasAnyFlag(FlagRW | FlagUserAccessible) {
		t.Fatal("expected HasAnyFlag to match when at least one flag is set")
	}
	if pte.HasAnyFlag(FlagUserAccessible | FlagGlobal) {
		t.Fatal("expected HasAnyFlag to not match when none of the flags are set")
	}
}

func TestPTEFrameRoundTripAmd64(t *testing.T) {
	requireAmd64(t)

	var pte pageTableEntry
	frame := mem.Frame(0x1234)

	pte.SetFrame(frame)
	pte.SetFlags(FlagPresent | FlagRW)

	if got := pte.Frame(); got != frame {
		t.Fatalf("expected Frame() to return %v; got %v", frame, got)
	}
	if !pte.HasFlags(FlagPresent | FlagRW) {
		t.Fatal("expected SetFrame to leave flags untouched")
	}
}

func TestSetPointerFlagsAmd64(t *testing.T) {
	requireAmd64(t)

	var pte pageTableEntry
	pte.SetPointerFlags()

	if !pte.HasFlags(FlagPresent | FlagRW) {
		t.Fatal("expected a pointer entry to carry Present|RW on amd64")
	}
}
