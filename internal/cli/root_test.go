package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "pmsum", root.Use)
	assert.Contains(t, root.Long, "NPAG and IT2B")

	for _, name := range []string{"summarize", "validate", "test", "history", "show"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCommand_FlagDefaults(t *testing.T) {
	root := NewRootCommand()

	tests := []struct {
		cmd   string // "" for persistent root flags
		flag  string
		short string
		def   string
	}{
		{"", "format", "", "text"},
		{"", "verbose", "v", "false"},
		{"summarize", "save", "", "false"},
		{"summarize", "db", "", "pmsum.db"},
		{"summarize", "jobs", "j", ""},
		{"test", "update", "", "false"},
		{"test", "filter", "", ""},
		{"test", "golden-dir", "", ""},
		{"history", "db", "", "pmsum.db"},
		{"history", "method", "", ""},
		{"history", "limit", "", "0"},
		{"show", "db", "", "pmsum.db"},
	}

	for _, tt := range tests {
		t.Run(tt.cmd+"/"+tt.flag, func(t *testing.T) {
			flags := root.PersistentFlags()
			if tt.cmd != "" {
				sub, _, err := root.Find([]string{tt.cmd})
				require.NoError(t, err)
				flags = sub.Flags()
			}
			f := flags.Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.short, f.Shorthand)
			if tt.flag != "jobs" {
				assert.Equal(t, tt.def, f.DefValue)
			}
		})
	}
}

func TestIsValidFormat(t *testing.T) {
	for _, f := range ValidFormats {
		assert.True(t, isValidFormat(f), f)
	}
	for _, f := range []string{"xml", "", "TEXT"} {
		assert.False(t, isValidFormat(f), f)
	}
}

func TestRootCommand_InvalidFormatIsCommandError(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"--format", "invalid", "validate", "run.json"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootOptions_LoggerDefaultsToNop(t *testing.T) {
	logger := (&RootOptions{}).Logger()
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel), "no-op logger discards debug")
}

func TestNewLogger_VerboseEnablesDebug(t *testing.T) {
	quiet, err := newLogger(false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zapcore.DebugLevel))

	verbose, err := newLogger(true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}
