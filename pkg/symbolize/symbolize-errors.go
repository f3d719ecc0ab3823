package symbolize

import (
	"github.com/pkg/errors"
)

var (
	ErrNoLoadSegment    = errors.New("no PT_LOAD program header")
	ErrDebuggerPrologue = errors.New("debugger prologue ended early")
)
