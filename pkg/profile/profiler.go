// Package profile drives a ptrace sampling loop against a live
// process, capturing one frame-pointer backtrace per thread per tick.
package profile

import (
	"context"
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/mjacobson/drspin/pkg/remote"
)

type Profiler struct {
	tracer *tracer
	reader *remote.Reader
	proc   *Process

	ticksDone  atomic.Int64
	ticksTotal int

	*ProfilerOptions
}

func NewProfiler(opts ...ProfilerOption) *Profiler {
	profiler := &Profiler{
		ProfilerOptions: defaultOptions(),
	}
	for _, opt := range opts {
		opt(profiler)
	}

	return profiler
}

// Init validates the target and creates its process record. It does
// not touch the target.
func (p *Profiler) Init() error {
	if p.pid <= 0 {
		return ErrNotInitialized
	}

	proc, err := NewProcess(p.pid)
	if err != nil {
		return err
	}

	p.proc = proc
	p.reader = remote.NewReader(p.pid)
	p.tracer = newTracer(p.pid)
	p.ticksTotal = int(p.duration / p.interval)

	return nil
}

func (p *Profiler) Process() *Process {
	return p.proc
}

// Progress reports completed and total sample ticks. Safe to call
// from another goroutine while Run is in flight.
func (p *Profiler) Progress() (int, int) {
	return int(p.ticksDone.Load()), p.ticksTotal
}

// Run attaches to the target and drives the sampling loop. On
// return, sampling is over but the target is still attached and
// stopped, so its link map can be read; Detach releases it.
func (p *Profiler) Run(ctx context.Context) error {
	if p.proc == nil {
		return ErrNotInitialized
	}

	p.logger.Debug().Int("pid", p.pid).Msg("attaching to target")
	if err := p.tracer.Attach(); err != nil {
		return err
	}

ticks:
	for i := 0; i < p.ticksTotal; i++ {
		select {
		case <-ctx.Done():
			p.logger.Debug().Int("ticks", i).Msg("sampling interrupted by signal")
			break ticks
		default:
		}

		if err := p.sampleOnce(); err != nil {
			return err
		}
		p.ticksDone.Store(int64(i + 1))
	}

	// Consume the stop pending from the last tick.
	return p.tracer.WaitForStop()
}

// Detach releases the debugger attachment and lets the target run.
func (p *Profiler) Detach() error {
	return p.tracer.Detach()
}

// sampleOnce is one tick: wait for the stop, backtrace every thread,
// resume, grant the target its run time, and re-stop it.
func (p *Profiler) sampleOnce() error {
	if err := p.tracer.WaitForStop(); err != nil {
		return err
	}

	tids, err := p.tracer.Threads()
	if err != nil {
		return err
	}

	for _, tid := range tids {
		if err := p.tracer.AttachThread(tid); err != nil {
			return err
		}

		regs, err := p.tracer.GetRegs(tid)
		if err != nil {
			return err
		}

		pc, fp := programCounter(&regs), framePointer(&regs)
		sample := WalkStack(p.readFramePair, pc, fp, p.maxFrameSize)
		p.proc.Thread(tid).AddSample(sample)
	}

	if err := p.tracer.Resume(); err != nil {
		return err
	}

	time.Sleep(p.interval)

	return p.tracer.Stop()
}

// readFramePair reads the saved frame pointer and return address
// stored at fp in the target.
func (p *Profiler) readFramePair(fp uint64) (uint64, uint64, error) {
	buf := make([]byte, 16)
	if err := p.reader.ReadAt(fp, buf); err != nil {
		return 0, 0, errors.Wrap(err, "failed to read frame")
	}

	return binary.LittleEndian.Uint64(buf[:8]), binary.LittleEndian.Uint64(buf[8:]), nil
}
