// Package hal defines the narrow device boundary the kernel core depends
// on directly. It intentionally stops at an interface: concrete console,
// video and ACPI drivers are external collaborators, not part of this
// module (see kernel/hal/bootinfo for the boot-time data those drivers
// would consume).
package hal

import "io"

// Terminal is the output boundary kfmt writes to once early boot hands off
// to a real console driver. Any driver that can accept a byte stream can
// satisfy this without kernel/hal needing to know its concrete type.
type Terminal interface {
	io.Writer
}

// ActiveTerminal points to the currently active terminal, or nil before one
// has been attached. kfmt does not read this variable: its output goes to
// whatever writer kfmt.SetOutputSink installed, and to its own ring buffer
// while none is set.
var ActiveTerminal Terminal

