package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and captures both streams.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "cqdecomp", cmd.Use)
	assert.Contains(t, cmd.Long, "CQDECOMP_")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"decompose", "rules", "partitions", "validate", "canon",
		"random", "profile", "history", "show", "scenario",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestDecomposeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	decomposeCmd, _, err := cmd.Find([]string{"decompose"})
	require.NoError(t, err)

	tests := []struct {
		flag string
		def  string
	}{
		{"mode", "validate"},
		{"max-partitions", "10000"},
		{"time-budget", "0s"},
		{"tuple-limit", "0"},
		{"single-tuple", "false"},
		{"plan", "all"},
		{"diameter-cap", "0"},
		{"workers", "1"},
		{"seed", "0"},
		{"db", ""},
		{"query", ""},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := decomposeCmd.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestHistoryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"history", "show"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)

		dbFlag := sub.Flags().Lookup("db")
		require.NotNil(t, dbFlag)
		// --db is required, so default is empty
		assert.Equal(t, "", dbFlag.DefValue)
	}
}

func TestRandomCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	randomCmd, _, err := cmd.Find([]string{"random"})
	require.NoError(t, err)

	outputFlag := randomCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "canon", "a")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}
