package profile

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/mjacobson/drspin/internal/settings"
)

// tracer owns the debugger attachment to the target. The kernel ties
// a ptrace attachment to the attaching thread, so every ptrace
// request is funneled through one locked OS thread.
type tracer struct {
	pid      int
	attached map[int]struct{}
	ops      chan func()
	opDone   chan struct{}
}

func newTracer(pid int) *tracer {
	t := &tracer{
		pid:      pid,
		attached: make(map[int]struct{}),
		ops:      make(chan func()),
		opDone:   make(chan struct{}),
	}

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		for op := range t.ops {
			op()
			t.opDone <- struct{}{}
		}
	}()

	return t
}

func (t *tracer) exec(op func()) {
	t.ops <- op
	<-t.opDone
}

// Attach attaches to the target's thread group leader. The stop it
// triggers is consumed by the first WaitForStop.
func (t *tracer) Attach() error {
	var err error
	t.exec(func() { err = unix.PtraceAttach(t.pid) })
	if err != nil {
		return errors.Wrapf(err, "failed to attach to pid %d", t.pid)
	}
	t.attached[t.pid] = struct{}{}

	return nil
}

// AttachThread attaches to one thread of the target and consumes its
// attach stop. Threads appearing after the initial attach are picked
// up here on first sight.
func (t *tracer) AttachThread(tid int) error {
	if _, ok := t.attached[tid]; ok {
		return nil
	}

	var err error
	t.exec(func() {
		if err = unix.PtraceAttach(tid); err != nil {
			return
		}
		var status unix.WaitStatus
		_, err = unix.Wait4(tid, &status, unix.WALL, nil)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to attach to thread %d", tid)
	}
	t.attached[tid] = struct{}{}

	return nil
}

// WaitForStop blocks until the target reports a state change and
// asserts the reporting pid is the target's.
func (t *tracer) WaitForStop() error {
	var waited int
	var err error
	t.exec(func() {
		var status unix.WaitStatus
		waited, err = unix.Wait4(t.pid, &status, unix.WALL, nil)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to wait for pid %d", t.pid)
	}
	if waited != t.pid {
		return errors.Wrapf(ErrWaitMismatch, "waited for %d, got %d", t.pid, waited)
	}

	return nil
}

// GetRegs reads the general-purpose registers of a stopped thread.
func (t *tracer) GetRegs(tid int) (unix.PtraceRegs, error) {
	var regs unix.PtraceRegs
	var err error
	t.exec(func() { err = unix.PtraceGetRegs(tid, &regs) })

	return regs, errors.Wrapf(err, "failed to read registers of thread %d", tid)
}

// Resume lets every attached thread run.
func (t *tracer) Resume() error {
	var err error
	t.exec(func() {
		for tid := range t.attached {
			if contErr := unix.PtraceCont(tid, 0); contErr != nil && err == nil {
				err = contErr
			}
		}
	})

	return errors.Wrapf(err, "failed to resume pid %d", t.pid)
}

// Stop sends the target a stop signal so the next WaitForStop can
// observe the stop.
func (t *tracer) Stop() error {
	return errors.Wrapf(unix.Kill(t.pid, unix.SIGSTOP), "failed to stop pid %d", t.pid)
}

// Detach releases every attached thread and retires the ptrace
// thread.
func (t *tracer) Detach() error {
	var err error
	t.exec(func() {
		for tid := range t.attached {
			if detachErr := unix.PtraceDetach(tid); detachErr != nil && err == nil {
				err = detachErr
			}
		}
	})
	close(t.ops)

	return errors.Wrapf(err, "failed to detach from pid %d", t.pid)
}

// Threads lists the live thread ids of the target, bounded by
// settings.ThreadListMax.
func (t *tracer) Threads() ([]int, error) {
	entries, err := os.ReadDir(fmt.Sprintf("/proc/%d/task", t.pid))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list threads of pid %d", t.pid)
	}

	tids := make([]int, 0, len(entries))
	for _, entry := range entries {
		tid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		tids = append(tids, tid)
		if len(tids) == settings.ThreadListMax {
			break
		}
	}
	sort.Ints(tids)

	return tids, nil
}
