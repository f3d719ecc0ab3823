package image

import (
	"github.com/pkg/errors"
)

var (
	ErrOutOfRange = errors.New("read outside the mapped file")
)
