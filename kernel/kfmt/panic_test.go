package kfmt

import (
	"bytes"
	"testing"

	"github.com/roscopeco/anos/kernel"
)

func TestPanic(t *testing.T) {
	defer func(orig func()) { haltFn = orig }(haltFn)

	var haltCalled bool
	haltFn = func() { haltCalled = true }

	t.Run("with error", func(t *testing.T) {
		haltCalled = false
		var buf bytes.Buffer
		SetOutputSink(&buf)
		defer SetOutputSink(nil)

		err := &kernel.Error{Module: "test", Message: "panic test"}
		Panic(err)

		exp := "\n-----------------------------------\n[test] unrecoverable error: panic test\n*** kernel panic: system halted ***\n-----------------------------------\n"
		if got := buf.String(); got != exp {
			t.Fatalf("expected to get:\n%q\ngot:\n%q", exp, got)
		}

		if !haltCalled {
			t.Fatal("expected haltFn to be called by Panic")
		}
	})

	t.Run("without error", func(t *testing.T) {
		haltCalled = false
		var buf bytes.Buffer
		SetOutputSink(&buf)
		defer SetOutputSink(nil)

		Panic(nil)

		exp := "\n-----------------------------------\n*** kernel panic: system halted ***\n-----------------------------------\n"
		if got := buf.String(); got != exp {
			t.Fatalf("expected to get:\n%q\ngot:\n%q", exp, got)
		}

		if !haltCalled {
			t.Fatal("expected haltFn to be called by Panic")
		}
	})

	t.Run("with string", func(t *testing.T) {
		haltCalled = false
		var buf bytes.Buffer
		SetOutputSink(&buf)
		defer SetOutputSink(nil)

		Panic("boom")

		exp := "\n-----------------------------------\n[rt] unrecoverable error: boom\n*** kernel panic: system halted ***\n-----------------------------------\n"
		if got := buf.String(); got != exp {
			t.Fatalf("expected to get:\n%q\ngot:\n%q", exp, got)
		}
	})
}

func TestSetHaltFn(t *testing.T) {
	defer func(orig func()) { haltFn = orig }(haltFn)

	called := false
	SetHaltFn(func() { called = true })
	haltFn()

	if !called {
		t.Fatal("expected SetHaltFn to override haltFn")
	}
}
