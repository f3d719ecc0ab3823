package symbolize

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/rs/zerolog"
)

const (
	debuggerPath          = "lldb"
	debuggerPrologueLines = 5
	debuggerSummaryMarker = "Summary: "
	debuggerPrompt        = "(lldb)"
)

// DebuggerSymbolicator resolves addresses by driving an interactive
// debugger attached to the target over pipes. Results are cached per
// address.
//
// The line protocol is heuristic: a fixed-length prologue skip, a
// "Summary:" substring search, and a prompt-prefix scan delimiting
// each reply. It tracks the debugger's human-facing output and is as
// brittle as that implies.
type DebuggerSymbolicator struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner
	cache  map[uint64]string
	logger log.Logger
}

func NewDebuggerSymbolicator(pid int, logger log.Logger) (*DebuggerSymbolicator, error) {
	cmd := exec.Command(debuggerPath, "-p", strconv.Itoa(pid))

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open debugger stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open debugger stdout")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start debugger")
	}

	s := &DebuggerSymbolicator{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewScanner(stdout),
		cache:  make(map[uint64]string),
		logger: logger.With().Str("component", "debugger").Logger(),
	}

	// Discard the attach prologue.
	for i := 0; i < debuggerPrologueLines; i++ {
		if !s.stdout.Scan() {
			s.Close()
			return nil, ErrDebuggerPrologue
		}
		s.logger.Debug().Str("line", s.stdout.Text()).Msg("discarded prologue")
	}

	return s, nil
}

func (s *DebuggerSymbolicator) Symbolicate(address uint64) string {
	if address == 0 {
		return "..."
	}

	if result, ok := s.cache[address]; ok {
		return result
	}

	result := "???"

	// The second command is a no-op marker: its echo tells us the
	// reply to the lookup is over without leaving stale input behind.
	fmt.Fprintf(s.stdin, "image look -a %#x\np (void)0\n", address)

	for s.stdout.Scan() {
		line := s.stdout.Text()
		s.logger.Debug().Str("line", line).Msg("read reply")

		if i := strings.Index(line, debuggerSummaryMarker); i >= 0 {
			result = line[i+len(debuggerSummaryMarker):]
			// Keep reading until the prompt so no reply is left
			// buffered.
		} else if strings.HasPrefix(line, debuggerPrompt) {
			break
		}
	}

	s.cache[address] = result

	return result
}

func (s *DebuggerSymbolicator) Close() error {
	s.stdin.Close()

	return errors.Wrap(s.cmd.Wait(), "failed to stop debugger")
}
