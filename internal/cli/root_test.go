package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ruport", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"query", "sources"}

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
	assert.Equal(t, "csv", formatFlag.DefValue)

	sourcesFlag := cmd.PersistentFlags().Lookup("sources")
	require.NotNil(t, sourcesFlag)
	assert.Equal(t, DefaultSourcesFile, sourcesFlag.DefValue)
}

func TestQueryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	queryCmd, _, err := cmd.Find([]string{"query"})
	require.NoError(t, err)

	for _, name := range []string{"source", "file", "sql", "param", "raw", "each", "uniform"} {
		assert.NotNil(t, queryCmd.Flags().Lookup(name), "flag %s", name)
	}
	assert.Equal(t, "s", queryCmd.Flags().Lookup("source").Shorthand)
	assert.Equal(t, "p", queryCmd.Flags().Lookup("param").Shorthand)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--format", "xml", "sources"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommand_QueryThroughRoot(t *testing.T) {
	rootOpts := setupSources(t)

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--sources", rootOpts.Sources, "query", "select name from people order by id"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "name\ngreg\nsandal\n", buf.String())
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("csv"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("text"))
}
