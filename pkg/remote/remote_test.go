package remote_test

import (
	"os"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/mjacobson/drspin/pkg/remote"
)

// Package-level variables live in the data segment, so their
// addresses are stable for the duration of the test.
var (
	stringPayload = [8]byte{'d', 'r', 's', 'p', 'i', 'n', 0, 0xff}
	wordPayload   = uint64(0x1122334455667788)
	arrayPayload  = [4]uint32{10, 20, 30, 40}
	structPayload = struct {
		A uint32
		B uint32
	}{0xdead, 0xbeef}
)

func addrOf(p unsafe.Pointer) uint64 {
	return uint64(uintptr(p))
}

func TestReadAtOwnMemory(t *testing.T) {
	r := remote.NewReader(os.Getpid())

	buf := make([]byte, 6)
	err := r.ReadAt(addrOf(unsafe.Pointer(&stringPayload)), buf)
	require.NoError(t, err)
	require.Equal(t, []byte("drspin"), buf)
}

func TestReadAtFault(t *testing.T) {
	r := remote.NewReader(os.Getpid())

	err := r.ReadAt(1, make([]byte, 4))
	require.ErrorIs(t, err, remote.ErrFault)
}

func TestWord(t *testing.T) {
	r := remote.NewReader(os.Getpid())

	word, err := r.Word(addrOf(unsafe.Pointer(&wordPayload)))
	require.NoError(t, err)
	require.Equal(t, wordPayload, word)
}

func TestCString(t *testing.T) {
	r := remote.NewReader(os.Getpid())

	s, err := r.CString(addrOf(unsafe.Pointer(&stringPayload)))
	require.NoError(t, err)
	require.Equal(t, "drspin", s)
}

func TestCStringUnaligned(t *testing.T) {
	r := remote.NewReader(os.Getpid())

	s, err := r.CString(addrOf(unsafe.Pointer(&stringPayload)) + 1)
	require.NoError(t, err)
	require.Equal(t, "rspin", s)
}

func TestReadInto(t *testing.T) {
	r := remote.NewReader(os.Getpid())

	var decoded struct {
		A uint32
		B uint32
	}
	err := r.ReadInto(addrOf(unsafe.Pointer(&structPayload)), &decoded)
	require.NoError(t, err)
	require.Equal(t, structPayload, decoded)
}

func TestArrayIteration(t *testing.T) {
	r := remote.NewReader(os.Getpid())

	arr := remote.NewArray[uint32](r, addrOf(unsafe.Pointer(&arrayPayload)), len(arrayPayload))
	require.Equal(t, len(arrayPayload), arr.Len())

	for i := 0; i < arr.Len(); i++ {
		elem, err := arr.Get(i)
		require.NoError(t, err)
		require.Equal(t, arrayPayload[i], elem)
	}
}
