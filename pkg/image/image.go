package image

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// MappedFile is a read-only mapping of an on-disk file. Byte slices
// returned by Bytes borrow from the mapping and must not be used
// after Close.
type MappedFile struct {
	data []byte
}

func Open(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to map %s", path)
	}

	return &MappedFile{data: data}, nil
}

func (m *MappedFile) Size() uint64 {
	return uint64(len(m.data))
}

// Bytes returns n bytes of the mapping starting at off.
func (m *MappedFile) Bytes(off, n uint64) ([]byte, error) {
	if off+n < off || off+n > uint64(len(m.data)) {
		return nil, errors.Wrapf(ErrOutOfRange, "%d bytes at offset %#x", n, off)
	}

	return m.data[off : off+n], nil
}

// ReadInto decodes a fixed-layout value from off in the mapping.
func (m *MappedFile) ReadInto(off uint64, v interface{}) error {
	size := binary.Size(v)
	if size < 0 {
		return errors.Errorf("value of type %T has no fixed size", v)
	}

	buf, err := m.Bytes(off, uint64(size))
	if err != nil {
		return err
	}

	return errors.Wrap(binary.Read(bytes.NewReader(buf), binary.LittleEndian, v), "failed to decode mapped value")
}

// CString reads a NUL-terminated string starting at off.
func (m *MappedFile) CString(off uint64) (string, error) {
	if off > uint64(len(m.data)) {
		return "", errors.Wrapf(ErrOutOfRange, "string at offset %#x", off)
	}

	tail := m.data[off:]
	end := bytes.IndexByte(tail, 0)
	if end < 0 {
		return "", errors.Wrapf(ErrOutOfRange, "unterminated string at offset %#x", off)
	}

	return string(tail[:end]), nil
}

func (m *MappedFile) Close() error {
	data := m.data
	m.data = nil

	return errors.Wrap(unix.Munmap(data), "failed to unmap file")
}
