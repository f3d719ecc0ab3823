package profile

import (
	"github.com/pkg/errors"
)

var (
	ErrWaitMismatch   = errors.New("wait returned an unexpected pid")
	ErrNotInitialized = errors.New("profiler is not initialized")
)
