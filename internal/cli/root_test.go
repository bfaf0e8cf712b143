package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "accountcell", cmd.Use)

	for _, name := range []string{"verify", "trace", "batch", "replay", "config", "test", "journal", "codes"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
	for _, flag := range []string{"verbose", "format", "config", "db", "settings"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCommandRejectsInvalidFormat(t *testing.T) {
	_, err := execute(NewRootCommand(), "--format", "xml", "codes")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func isJSONResponse(t *testing.T, out string) {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	assert.Equal(t, "ok", resp.Status)
}

func TestRootCommandFormatFromEnv(t *testing.T) {
	t.Setenv("ACCOUNTCELL_FORMAT", "json")

	out, err := execute(NewRootCommand(), "codes", "--family", "status")
	require.NoError(t, err)
	isJSONResponse(t, out)
}

func TestRootCommandFlagBeatsEnv(t *testing.T) {
	t.Setenv("ACCOUNTCELL_FORMAT", "json")

	out, err := execute(NewRootCommand(), "--format", "text", "codes", "--actions")
	require.NoError(t, err)
	assert.Contains(t, out, "transfer_account\n")
}

func TestRootCommandSettingsFile(t *testing.T) {
	settings := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("format: json\n"), 0o644))

	out, err := execute(NewRootCommand(), "--settings", settings, "codes", "--actions")
	require.NoError(t, err)
	isJSONResponse(t, out)
}

func TestRootCommandMissingSettingsFile(t *testing.T) {
	_, err := execute(NewRootCommand(), "--settings", filepath.Join(t.TempDir(), "none.yaml"), "codes")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
