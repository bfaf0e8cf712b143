package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/accountcell/internal/ir"
)

const minimalYAML = `
name: minimal
description: One accepted transfer
steps:
  - name: accepted
    action: transfer_account
    account:
      name: alice.bit
      owner: alice
    output:
      owner: bob
      stamp: [last_transfer_account_at]
    expect:
      code: Accept
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Steps, 1)
	step := s.Steps[0]
	assert.Equal(t, "transfer_account", step.Action)
	assert.Equal(t, "alice", step.Account.Owner)
	require.NotNil(t, step.Output)
	assert.Equal(t, "bob", step.Output.Owner)
	assert.Equal(t, []string{ir.FieldLastTransferAccountAt}, step.Output.Stamp)
	assert.Nil(t, step.Output.Records)
	assert.Empty(t, s.Assertions)
}

func TestParseScenario_EmptyRecordsClear(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: clear
description: Records cleared
steps:
  - name: clear
    action: transfer_account
    account: {name: alice.bit, owner: alice, records: [{type: text, key: email, value: a}]}
    output: {owner: bob, records: []}
    expect: {code: Accept}
`))
	require.NoError(t, err)

	out := s.Steps[0].Output
	require.NotNil(t, out.Records)
	assert.Empty(t, *out.Records)
	assert.Equal(t, ir.Records{{Type: "text", Key: "email", Value: "a"}}, ir.Records(s.Steps[0].Account.Records))
}

func TestParseScenario_ExpiresIn(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: expiry
description: Negative offsets
steps:
  - name: grace
    action: transfer_account
    account: {name: alice.bit, owner: alice, expires_in: -86400}
    expect: {code: AccountCellInGracePeriod}
`))
	require.NoError(t, err)
	require.NotNil(t, s.Steps[0].Account.ExpiresIn)
	assert.Equal(t, int64(-86400), *s.Steps[0].Account.ExpiresIn)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: minimalYAML + "asertions: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			yaml: "description: d\nsteps: [{name: s, action: a, account: {name: a.bit, owner: o}, expect: {code: Accept}}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nsteps: [{name: s, action: a, account: {name: a.bit, owner: o}, expect: {code: Accept}}]\n",
			want: "description is required",
		},
		{
			name: "no steps",
			yaml: "name: n\ndescription: d\nsteps: []\n",
			want: "steps list is required",
		},
		{
			name: "missing action",
			yaml: "name: n\ndescription: d\nsteps: [{name: s, account: {name: a.bit, owner: o}, expect: {code: Accept}}]\n",
			want: "steps[0]: action is required",
		},
		{
			name: "missing owner",
			yaml: "name: n\ndescription: d\nsteps: [{name: s, action: a, account: {name: a.bit}, expect: {code: Accept}}]\n",
			want: "account.owner is required",
		},
		{
			name: "unknown code",
			yaml: "name: n\ndescription: d\nsteps: [{name: s, action: a, account: {name: a.bit, owner: o}, expect: {code: Maybe}}]\n",
			want: `unknown code "Maybe"`,
		},
		{
			name: "missing expect",
			yaml: "name: n\ndescription: d\nsteps: [{name: s, action: a, account: {name: a.bit, owner: o}}]\n",
			want: "expect.code is required",
		},
		{
			name: "unknown role",
			yaml: "name: n\ndescription: d\nsteps: [{name: s, action: a, role: admin, account: {name: a.bit, owner: o}, expect: {code: Accept}}]\n",
			want: `role: unknown role "admin"`,
		},
		{
			name: "unknown lock kind",
			yaml: "name: n\ndescription: d\nsteps: [{name: s, action: a, account: {name: a.bit, owner: o, kind: rsa}, expect: {code: Accept}}]\n",
			want: "account.kind",
		},
		{
			name: "unknown status",
			yaml: "name: n\ndescription: d\nsteps: [{name: s, action: a, account: {name: a.bit, owner: o, status: frozen}, expect: {code: Accept}}]\n",
			want: "account.status",
		},
		{
			name: "undefined version",
			yaml: "name: n\ndescription: d\nsteps: [{name: s, action: a, account: {name: a.bit, owner: o, version: 9}, expect: {code: Accept}}]\n",
			want: "account.version",
		},
		{
			name: "bad stamp",
			yaml: "name: n\ndescription: d\nsteps: [{name: s, action: a, account: {name: a.bit, owner: o}, output: {stamp: [registered_at]}, expect: {code: Accept}}]\n",
			want: "is not a timestamp field",
		},
		{
			name: "bad tamper",
			yaml: "name: n\ndescription: d\nsteps: [{name: s, action: a, account: {name: a.bit, owner: o}, output: {tamper: [status]}, expect: {code: Accept}}]\n",
			want: "cannot be tampered",
		},
		{
			name: "output and omit_output",
			yaml: "name: n\ndescription: d\nsteps: [{name: s, action: a, account: {name: a.bit, owner: o}, output: {}, omit_output: true, expect: {code: Accept}}]\n",
			want: "exclusive",
		},
		{
			name: "duplicate step",
			yaml: "name: n\ndescription: d\nsteps: [{name: s, action: a, account: {name: a.bit, owner: o}, expect: {code: Accept}}, {name: s, action: a, account: {name: a.bit, owner: o}, expect: {code: Accept}}]\n",
			want: `duplicate step name "s"`,
		},
		{
			name: "unknown assertion",
			yaml: minimalYAML + "assertions: [{type: trace_order, count: 1}]\n",
			want: `unknown assertion type "trace_order"`,
		},
		{
			name: "assertion without type",
			yaml: minimalYAML + "assertions: [{count: 1}]\n",
			want: "type is required",
		},
		{
			name: "negative count",
			yaml: minimalYAML + "assertions: [{type: journal_count, count: -1}]\n",
			want: "count must be non-negative",
		},
		{
			name: "unknown family",
			yaml: minimalYAML + "assertions: [{type: family_count, family: cosmic, count: 1}]\n",
			want: `unknown family "cosmic"`,
		},
		{
			name: "verdict count unknown code",
			yaml: minimalYAML + "assertions: [{type: verdict_count, code: Nope, count: 1}]\n",
			want: `unknown code "Nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_ResolvesConfig(t *testing.T) {
	path, err := filepath.Abs("testdata/scenarios/relaxed_config.yaml")
	require.NoError(t, err)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	want, err := filepath.Abs("testdata/configs/relaxed")
	require.NoError(t, err)
	assert.Equal(t, want, s.Config)
}

func TestLoadScenario_MissingConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "s.yaml", "config: nowhere\n"+minimalYAML)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config directory")
}

func TestLoadScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"edit_records", "lifecycle", "relaxed_config", "transfer_account"}, names)
}

func TestLoadScenarios_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "good.yaml", minimalYAML)
	writeScenario(t, dir, "bad.yaml", "name: bad\n")

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}
