package profile

import (
	"time"

	log "github.com/rs/zerolog"

	"github.com/mjacobson/drspin/internal/settings"
)

type ProfilerOptions struct {
	pid          int
	duration     time.Duration
	interval     time.Duration
	maxFrameSize uint64

	logger log.Logger
}

type ProfilerOption func(*Profiler)

func defaultOptions() *ProfilerOptions {
	return &ProfilerOptions{
		interval:     settings.DefaultSampleInterval,
		maxFrameSize: settings.DefaultMaxFrameSize,
		logger:       log.Nop(),
	}
}

func WithPID(pid int) ProfilerOption {
	return func(p *Profiler) {
		p.pid = pid
	}
}

func WithDuration(duration time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.duration = duration
	}
}

func WithInterval(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.interval = interval
	}
}

func WithMaxFrameSize(size uint64) ProfilerOption {
	return func(p *Profiler) {
		p.maxFrameSize = size
	}
}

func WithLogger(logger log.Logger) ProfilerOption {
	return func(p *Profiler) {
		p.logger = logger
	}
}
