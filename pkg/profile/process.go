package profile

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/mjacobson/drspin/pkg/calltree"
	"github.com/mjacobson/drspin/pkg/symbolize"
)

// Sample is one captured call stack, outermost frame first. A sample
// is never modified once recorded.
type Sample []uint64

// Thread accumulates the samples captured for one thread of the
// target, in capture order.
type Thread struct {
	ID      int
	samples []Sample
}

func (t *Thread) AddSample(sample Sample) {
	t.samples = append(t.samples, sample)
}

func (t *Thread) Samples() []Sample {
	return t.samples
}

// PrintTree aggregates the thread's samples into a call tree and
// prints it sorted by sample count.
func (t *Thread) PrintTree(w io.Writer, symbolicator symbolize.Symbolicator) {
	fmt.Fprintf(w, "  Thread %#x:\n", t.ID)

	root := calltree.NewRoot()
	for _, sample := range t.samples {
		root.Insert(sample)
	}
	root.Sort()
	root.Print(w, 2, symbolicator)

	fmt.Fprintln(w)
}

// Process is the record of one profiled target: its name and its
// threads, in the order they were first sampled.
type Process struct {
	PID     int
	name    string
	threads []*Thread
}

func NewProcess(pid int) (*Process, error) {
	comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read process info for pid %d", pid)
	}

	return &Process{PID: pid, name: strings.TrimSpace(string(comm))}, nil
}

func (p *Process) Name() string {
	return p.name
}

// Thread returns the record for tid, creating it on first touch.
func (p *Process) Thread(tid int) *Thread {
	for _, thread := range p.threads {
		if thread.ID == tid {
			return thread
		}
	}

	thread := &Thread{ID: tid}
	p.threads = append(p.threads, thread)

	return thread
}

// PrintTree prints the full report: the process header followed by
// one call tree per thread.
func (p *Process) PrintTree(w io.Writer, symbolicator symbolize.Symbolicator) {
	fmt.Fprintf(w, "Process: %s [%d]\n\n", p.name, p.PID)

	for _, thread := range p.threads {
		thread.PrintTree(w, symbolicator)
	}
}
