package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCompileDefault(t *testing.T) {
	output := filepath.Join(t.TempDir(), "config.json")

	out, err := execute(NewConfigCommand(testOpts("json")), "compile", "testdata/configs/default", "-o", output)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Data.Digest)
	assert.Equal(t, 1, resp.Data.Files)
	assert.True(t, resp.Data.Enabled)
	assert.NotEmpty(t, resp.Data.SignAlgorithms)
	assert.Equal(t, output, resp.Data.Output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestConfigCompileDigestIsStable(t *testing.T) {
	digest := func() string {
		out, err := execute(NewConfigCommand(testOpts("json")), "compile", "testdata/configs/default")
		require.NoError(t, err)
		var resp struct {
			Data CompilationResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data.Digest
	}
	assert.Equal(t, digest(), digest())
}

func TestConfigCompileText(t *testing.T) {
	out, err := execute(NewConfigCommand(testOpts("text")), "compile", "testdata/configs/default")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled testdata/configs/default")
	assert.Contains(t, out, "digest")
}

func TestConfigCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		want string
	}{
		{name: "invalid", dir: "testdata/configs/invalid", want: "E110"},
		{name: "broken", dir: "testdata/configs/broken", want: "E004"},
		{name: "no config field", dir: "testdata/configs/missing", want: "E010"},
		{name: "no directory", dir: "testdata/configs/none", want: "E005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewConfigCommand(testOpts("text")), "compile", tt.dir)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "✗ Compilation failed")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestConfigCompileErrorsJSON(t *testing.T) {
	out, err := execute(NewConfigCommand(testOpts("json")), "compile", "testdata/configs/invalid")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E110", resp.Error.Code)
	details, ok := resp.Error.Details.([]any)
	require.True(t, ok, "details: %T", resp.Error.Details)
	assert.Greater(t, len(details), 1)
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		out, err := execute(NewConfigCommand(testOpts("text")), "validate", "testdata/configs/default")
		require.NoError(t, err)
		assert.Contains(t, out, "✓ testdata/configs/default is valid")
	})

	t.Run("invalid", func(t *testing.T) {
		out, err := execute(NewConfigCommand(testOpts("json")), "validate", "testdata/configs/invalid")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var resp struct {
			Data ValidationResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.False(t, resp.Data.Valid)
		assert.NotEmpty(t, resp.Data.Digest)
		require.Greater(t, len(resp.Data.Errors), 1)
		assert.Equal(t, "E110", resp.Data.Errors[0].Code)

		var codes []string
		for _, e := range resp.Data.Errors {
			codes = append(codes, e.Code)
		}
		assert.Contains(t, codes, "E113", "duplicate sign algorithm")
	})

	t.Run("missing directory", func(t *testing.T) {
		out, err := execute(NewConfigCommand(testOpts("text")), "validate", "testdata/configs/none")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "E005")
	})
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"config", ErrCodeConfigMissing},
		{"main.type_ids.account_cell", ErrCodeMainTable},
		{"account.max_length", ErrCodeAccountTable},
		{"price.tiers", ErrCodePriceTable},
		{"records.key_namespace", ErrCodeRecordsTable},
		{"sub_account.basic_capacity", ErrCodeSubAccountTable},
		{"settings", ErrCodeBuildFailed},
		{"", ErrCodeBuildFailed},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field))
		})
	}
}
