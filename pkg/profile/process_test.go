package profile_test

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mjacobson/drspin/pkg/profile"
)

type hexSymbolicator struct{}

func (hexSymbolicator) Symbolicate(address uint64) string {
	return fmt.Sprintf("sym_%x", address)
}

func TestNewProcessReadsOwnName(t *testing.T) {
	proc, err := profile.NewProcess(os.Getpid())
	require.NoError(t, err)
	require.NotEmpty(t, proc.Name())
}

func TestNewProcessMissingTarget(t *testing.T) {
	// An impossible pid.
	_, err := profile.NewProcess(1 << 30)
	require.Error(t, err)
}

func TestThreadFirstTouchCreation(t *testing.T) {
	proc, err := profile.NewProcess(os.Getpid())
	require.NoError(t, err)

	first := proc.Thread(101)
	again := proc.Thread(101)
	require.Same(t, first, again)

	first.AddSample(profile.Sample{0x1, 0x2})
	require.Len(t, proc.Thread(101).Samples(), 1)
}

func TestPrintTreeLayout(t *testing.T) {
	proc, err := profile.NewProcess(os.Getpid())
	require.NoError(t, err)

	thread := proc.Thread(0x1c8)
	thread.AddSample(profile.Sample{0xa, 0xb})
	thread.AddSample(profile.Sample{0xa, 0xb})
	thread.AddSample(profile.Sample{0xa, 0xc})

	var buf bytes.Buffer
	proc.PrintTree(&buf, hexSymbolicator{})

	expected := fmt.Sprintf("Process: %s [%d]\n\n", proc.Name(), proc.PID) +
		"  Thread 0x1c8:\n" +
		"  3  sym_a (0xa)\n" +
		"    2  sym_b (0xb)\n" +
		"    1  sym_c (0xc)\n" +
		"\n"
	require.Equal(t, expected, buf.String())
}

func TestPrintTreePreservesThreadOrder(t *testing.T) {
	proc, err := profile.NewProcess(os.Getpid())
	require.NoError(t, err)

	proc.Thread(2).AddSample(profile.Sample{0x1})
	proc.Thread(1).AddSample(profile.Sample{0x2})

	var buf bytes.Buffer
	proc.PrintTree(&buf, hexSymbolicator{})

	first := bytes.Index(buf.Bytes(), []byte("Thread 0x2:"))
	second := bytes.Index(buf.Bytes(), []byte("Thread 0x1:"))
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
}
