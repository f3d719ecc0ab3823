package dynlink

import (
	"github.com/pkg/errors"
)

var (
	ErrNoPhdrEntry      = errors.New("no AT_PHDR entry in auxv")
	ErrNoPhnumEntry     = errors.New("no AT_PHNUM entry in auxv")
	ErrNoDynamicSegment = errors.New("no PT_DYNAMIC program header")
	ErrNoDebugEntry     = errors.New("no DT_DEBUG dynamic entry")
)
