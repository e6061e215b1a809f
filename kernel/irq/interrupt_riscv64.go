package irq

import "github.com/roscopeco/anos/kernel/kfmt"

// Regs is a snapshot of the general-purpose registers at the point a trap
// occurred. x0 (always zero) and x2/sp are omitted since the trap entry
// stub already needs sp to find this structure.
type Regs struct {
	RA, GP, TP                     uint64
	T0, T1, T2                     uint64
	S0, S1                         uint64
	A0, A1, A2, A3, A4, A5, A6, A7 uint64
	S2, S3, S4, S5, S6, S7, S8, S9 uint64
	S10, S11                       uint64
	T3, T4, T5, T6                 uint64
}

// Print dumps the register values through kfmt.
func (r *Regs) Print() {
	kfmt.Printf("A0 = %16x A1 = %16x\n", r.A0, r.A1)
	kfmt.Printf("A2 = %16x A3 = %16x\n", r.A2, r.A3)
	kfmt.Printf("RA = %16x GP = %16x\n", r.RA, r.GP)
}

// Frame is the trap context the entry stub captures: the faulting PC, the
// cause and faulting-address CSRs, and the previous privilege/interrupt
// state from sstatus.
type Frame struct {
	SEPC    uint64
	SSTATUS uint64
	SCAUSE  uint64
	STVAL   uint64
}

// Print dumps the trap frame through kfmt.
func (f *Frame) Print() {
	kfmt.Printf("SEPC   = %16x SCAUSE = %16x\n", f.SEPC, f.SCAUSE)
	kfmt.Printf("STVAL  = %16x SSTATUS = %16x\n", f.STVAL, f.SSTATUS)
}
