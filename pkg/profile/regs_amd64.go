package profile

import (
	"golang.org/x/sys/unix"
)

func programCounter(regs *unix.PtraceRegs) uint64 {
	return regs.Rip
}

func framePointer(regs *unix.PtraceRegs) uint64 {
	return regs.Rbp
}
