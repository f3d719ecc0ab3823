package remote

import (
	"github.com/pkg/errors"
)

var (
	// ErrFault reports a read that hit unmapped target memory.
	ErrFault = errors.New("target memory fault")
)
