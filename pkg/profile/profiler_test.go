package profile_test

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mjacobson/drspin/pkg/profile"
)

func TestProfilerDefaults(t *testing.T) {
	profiler := profile.NewProfiler()
	require.NotNil(t, profiler)
	require.ErrorIs(t, profiler.Init(), profile.ErrNotInitialized)
}

// TestProfilerSamplesChild attaches to a spawned sleeping child and
// drives a short sampling run end to end. Skipped where ptrace is not
// permitted.
func TestProfilerSamplesChild(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("sampling requires Linux ptrace")
	}

	child := exec.Command("sleep", "10")
	require.NoError(t, child.Start())
	defer func() {
		child.Process.Kill()
		child.Wait()
	}()

	profiler := profile.NewProfiler(
		profile.WithPID(child.Process.Pid),
		profile.WithDuration(100*time.Millisecond),
		profile.WithInterval(time.Millisecond),
		profile.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, profiler.Init())

	if err := profiler.Run(context.Background()); err != nil {
		t.Skipf("ptrace not permitted in this environment: %v", err)
	}
	defer profiler.Detach()

	proc := profiler.Process()
	thread := proc.Thread(child.Process.Pid)
	require.NotEmpty(t, thread.Samples())

	for _, sample := range thread.Samples() {
		require.NotEmpty(t, sample)
	}

	done, total := profiler.Progress()
	require.Equal(t, total, done)
}
