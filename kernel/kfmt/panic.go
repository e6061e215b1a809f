package kfmt

import (
	"io"

	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/cpu"
)

var (
	// haltFn is mocked by tests and is automatically inlined by the
	// compiler. It defaults to halting only the local core; kernel/smp
	// upgrades it to a halt-all-cores broadcast once SMP bring-up has
	// registered the other cores (see SetHaltFn).
	haltFn = cpu.Halt

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// SetHaltFn overrides the function invoked after a panic has printed its
// message. kernel/smp calls this once secondary cores are known so that a
// fatal error freezes every CPU, not just the one that hit it.
func SetHaltFn(fn func()) {
	haltFn = fn
}

// sink returns the writer Panic should wrap with a PrefixWriter: the
// attached output sink if one exists, otherwise the early ring buffer.
func sink() io.Writer {
	if outputSink != nil {
		return outputSink
	}
	return &earlyPrintBuffer
}

// Panic outputs the supplied error (if not nil) to the console and halts.
// Calls to Panic never return. Panic also works as a redirection target for
// calls to the builtin panic() (resolved via runtime.gopanic).
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	Printf("\n-----------------------------------\n")
	if err != nil {
		// err.Message can itself span several lines (e.g. a register
		// dump); PrefixWriter tags every one of them with the module
		// that raised the error, not just the first.
		pw := NewPrefixWriter(sink(), "["+err.Module+"] ")
		Fprintf(pw, "unrecoverable error: %s\n", err.Message)
	}
	Printf("*** kernel panic: system halted ***")
	Printf("\n-----------------------------------\n")

	haltFn()
}
