package main

import (
	"github.com/roscopeco/anos/kernel/hal/bootinfo"
	"github.com/roscopeco/anos/kernel/kmain"
)

// bootInfo is populated by the platform's own startup stub before main is
// called. A package-level variable is used instead of a literal argument
// to prevent the compiler from inlining the call and eliminating Kmain
// from the generated object file.
var bootInfo *bootinfo.Info

// main makes a dummy call to the actual kernel main entrypoint function. It
// is intentionally defined to prevent the Go compiler from optimizing away
// the real kernel code.
func main() {
	kmain.Kmain(bootInfo)
}
