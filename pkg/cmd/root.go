package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mjacobson/drspin/internal/settings"
)

func NewRootCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <pid> <seconds>", settings.CmdName),
		Short: fmt.Sprintf("%s is a sampling profiler for running processes", settings.CmdName),
		Long: fmt.Sprintf(`%s periodically interrupts a running process, captures a frame-pointer
backtrace for every thread, and prints an aggregated per-thread call tree
with symbolicated frames.`, settings.CmdName),
		Args:              cobra.ExactArgs(2),
		DisableAutoGenTag: true,
		RunE:              o.Run,
	}

	cmd.Flags().StringVar(&o.logLevel, "log-level", logLevelInfo, "Log level")
	cmd.Flags().BoolVar(&o.status, "status", false, "Print a live sampling status line on standard error")
	cmd.Flags().BoolVar(&o.debugger, "debugger", false, "Symbolicate through an external debugger instead of parsing ELF images")
	cmd.Flags().DurationVar(&o.interval, "interval", settings.DefaultSampleInterval, "Run time granted to the target between samples")
	cmd.Flags().Uint64Var(&o.maxFrameSize, "max-frame-size", settings.DefaultMaxFrameSize, "Frame-pointer jump above which a stack walk ends")

	return cmd
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stderr).Level(log.InfoLevel)

	opts := NewOptions(
		WithContext(ctx),
		WithLogger(logger),
	)

	if err := NewRootCmd(opts).Execute(); err != nil {
		os.Exit(1)
	}
}
