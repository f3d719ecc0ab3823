package profile

import (
	"golang.org/x/sys/unix"
)

func programCounter(regs *unix.PtraceRegs) uint64 {
	// The PC captured when the thread was interrupted.
	return regs.Pc
}

func framePointer(regs *unix.PtraceRegs) uint64 {
	// x29 holds the frame pointer by convention.
	return regs.Regs[29]
}
