package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mjacobson/drspin/internal/output"
	"github.com/mjacobson/drspin/pkg/profile"
	"github.com/mjacobson/drspin/pkg/symbolize"
)

const logLevelInfo = "info"

type Options struct {
	logLevel     string
	status       bool
	debugger     bool
	interval     time.Duration
	maxFrameSize uint64

	Ctx    context.Context
	Logger log.Logger
}

type Option func(*Options)

func NewOptions(opts ...Option) *Options {
	o := new(Options)
	for _, opt := range opts {
		opt(o)
	}

	return o
}

func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Ctx = ctx
	}
}

func WithLogger(logger log.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func (o *Options) Run(_ *cobra.Command, args []string) error {
	logLevel, err := log.ParseLevel(o.logLevel)
	if err != nil {
		o.Logger.Fatal().Err(err).Msg("invalid log level")
	}
	o.Logger = o.Logger.Level(logLevel)

	pid, err := strconv.Atoi(args[0])
	if err != nil || pid <= 0 {
		return errors.Errorf("invalid pid %q", args[0])
	}

	seconds, err := strconv.Atoi(args[1])
	if err != nil || seconds < 1 {
		return errors.Errorf("invalid duration %q: want a whole number of seconds >= 1", args[1])
	}

	profiler := profile.NewProfiler(
		profile.WithPID(pid),
		profile.WithDuration(time.Duration(seconds)*time.Second),
		profile.WithInterval(o.interval),
		profile.WithMaxFrameSize(o.maxFrameSize),
		profile.WithLogger(o.Logger),
	)

	if err := profiler.Init(); err != nil {
		return errors.Wrap(err, "failed to init profiler")
	}

	proc := profiler.Process()
	fmt.Printf("Sampling process %s [%d] for %d seconds with %s of run time between samples...\n",
		proc.Name(), pid, seconds, o.interval)

	if o.status {
		statusCtx, stopStatus := context.WithCancel(o.Ctx)
		defer stopStatus()
		go output.StatusBar(statusCtx, 100*time.Millisecond, func() {
			done, total := profiler.Progress()
			output.PrintRight(os.Stderr, output.PrettySamplingStatus(done, total))
		})
	}

	if err := profiler.Run(o.Ctx); err != nil {
		return errors.Wrap(err, "failed to run profiler")
	}

	fmt.Println("Sampling completed.  Processing symbols...")

	var symbolicator symbolize.Symbolicator
	if o.debugger {
		// The debugger needs to attach itself, so release the target
		// first.
		if err := profiler.Detach(); err != nil {
			return errors.Wrap(err, "failed to detach from target")
		}

		dbg, err := symbolize.NewDebuggerSymbolicator(pid, o.Logger)
		if err != nil {
			return errors.Wrap(err, "failed to spawn debugger")
		}
		defer func() {
			if err := dbg.Close(); err != nil {
				o.Logger.Warn().Err(err).Msg("failed to close debugger")
			}
		}()
		symbolicator = dbg
	} else {
		// The link map is read out of the target while it is still
		// attached and stopped, so the walk sees a consistent state.
		libraries, err := symbolize.LoadProcessLibraries(pid, o.Logger)
		if err != nil {
			return errors.Wrap(err, "failed to load target libraries")
		}
		symbolicator = symbolize.NewLibrarySymbolicator(libraries...)

		if err := profiler.Detach(); err != nil {
			return errors.Wrap(err, "failed to detach from target")
		}
	}

	proc.PrintTree(os.Stdout, symbolicator)

	return nil
}
