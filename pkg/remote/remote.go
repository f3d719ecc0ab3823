package remote

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Reader performs typed reads against the address space of another
// process. The target must be stopped while it is read, otherwise the
// values returned may be torn.
type Reader struct {
	pid int
}

func NewReader(pid int) *Reader {
	return &Reader{pid: pid}
}

func (r *Reader) Pid() int {
	return r.pid
}

// ReadAt fills buf with len(buf) bytes read from addr in the target.
// A read that hits an unmapped page reports ErrFault.
func (r *Reader) ReadAt(addr uint64, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}

	local := []unix.Iovec{{Base: &buf[0], Len: uint64(len(buf))}}
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}

	n, err := unix.ProcessVMReadv(r.pid, local, remote, 0)
	if err != nil {
		if errors.Is(err, unix.EFAULT) || errors.Is(err, unix.EIO) {
			return ErrFault
		}
		return errors.Wrapf(err, "failed to read %d bytes at %#x from pid %d", len(buf), addr, r.pid)
	}
	if n < len(buf) {
		// The region ends inside the requested range.
		return ErrFault
	}

	return nil
}

// Word reads one machine word from addr.
func (r *Reader) Word(addr uint64) (uint64, error) {
	buf := make([]byte, 8)
	if err := r.ReadAt(addr, buf); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(buf), nil
}

// ReadInto decodes a fixed-layout value from addr in the target. The
// layouts handled here (ELF structures, link_map, r_debug, register
// blocks) are defined byte-for-byte by the host OS.
func (r *Reader) ReadInto(addr uint64, v interface{}) error {
	size := binary.Size(v)
	if size < 0 {
		return errors.Errorf("value of type %T has no fixed size", v)
	}

	buf := make([]byte, size)
	if err := r.ReadAt(addr, buf); err != nil {
		return err
	}

	return errors.Wrap(binary.Read(bytes.NewReader(buf), binary.LittleEndian, v), "failed to decode remote value")
}

// CString reads a NUL-terminated string starting at addr, one byte at
// a time. addr does not need to be aligned.
func (r *Reader) CString(addr uint64) (string, error) {
	var result []byte
	buf := make([]byte, 1)

	for cur := addr; ; cur++ {
		if err := r.ReadAt(cur, buf); err != nil {
			return "", err
		}
		if buf[0] == 0 {
			break
		}
		result = append(result, buf[0])
	}

	return string(result), nil
}
