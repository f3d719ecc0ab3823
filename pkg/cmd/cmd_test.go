package cmd_test

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mjacobson/drspin/pkg/cmd"
)

func execute(args ...string) error {
	opts := cmd.NewOptions(
		cmd.WithContext(context.Background()),
		cmd.WithLogger(zerolog.Nop()),
	)

	c := cmd.NewRootCmd(opts)
	c.SetOut(io.Discard)
	c.SetErr(io.Discard)
	c.SetArgs(args)

	return c.Execute()
}

func TestWrongArgumentCount(t *testing.T) {
	require.Error(t, execute())
	require.Error(t, execute("123"))
	require.Error(t, execute("123", "5", "extra"))
}

func TestInvalidPid(t *testing.T) {
	err := execute("notapid", "5")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid pid")

	err = execute("0", "5")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid pid")
}

func TestInvalidSeconds(t *testing.T) {
	err := execute("123456", "0")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid duration")

	err = execute("123456", "soon")
	require.Error(t, err)
}
