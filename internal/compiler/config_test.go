package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
)

func loadTestdata(t *testing.T, dir string) cue.Value {
	t.Helper()
	insts := load.Instances([]string{"."}, &load.Config{Dir: dir})
	require.Len(t, insts, 1)
	require.NoError(t, insts[0].Err)
	v := cuecontext.New().BuildInstance(insts[0])
	require.NoError(t, v.Err())
	return v.LookupPath(cue.ParsePath("config"))
}

func TestCompileDefaultConfig(t *testing.T) {
	cfg, err := CompileConfig(loadTestdata(t, "testdata/default"))
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
	assert.Empty(t, Validate(cfg))
}

func TestCompiledDigestMatchesDefault(t *testing.T) {
	cfg, err := CompileConfig(loadTestdata(t, "testdata/default"))
	require.NoError(t, err)

	got, err := cfg.Digest()
	require.NoError(t, err)
	want, err := config.Default().Digest()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCompileConfigAppliesDefaults(t *testing.T) {
	base := loadTestdata(t, "testdata/default")
	ctx := base.Context()

	// hash_type and args are left to the schema defaults elsewhere.
	patch := ctx.CompileString(`
		main: platform_wallet: hash_type: "data1"
	`)
	cfg, err := CompileConfig(base.Unify(patch))
	require.NoError(t, err)
	assert.Equal(t, ir.HashTypeData1, cfg.Main.PlatformWallet.HashType)
	assert.Equal(t, ir.HashTypeType, cfg.Main.CrossChainLock.HashType)
	assert.Empty(t, cfg.Main.AlwaysSuccessLock.Args)
}

func TestCompileConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "unknown field",
			src:   `account: basic_capacaty: 1`,
			field: "account.basic_capacaty",
		},
		{
			name:  "negative fee",
			src:   `account: common_fee: -1`,
			field: "account.common_fee",
		},
		{
			name:  "bad hash",
			src:   `main: das_lock: "0x1234"`,
			field: "main.das_lock",
		},
		{
			name:  "unknown lock kind",
			src:   `main: sign_algorithms: ["ckb", "btc"]`,
			field: "main.sign_algorithms",
		},
		{
			name:  "tier length out of uint8",
			src:   `price: tiers: [{length: 300, new: 1, renew: 1}]`,
			field: "price.tiers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := loadTestdata(t, "testdata/default")
			patch := base.Context().CompileString(tt.src)
			require.NoError(t, patch.Err())

			_, err := CompileConfig(base.Unify(patch))
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Contains(t, ce.Field, tt.field)
		})
	}
}

func TestCompileConfigMissingField(t *testing.T) {
	v := cuecontext.New().CompileString(`
		config: {
			version: 1
		}
	`)
	require.NoError(t, v.Err())

	_, err := CompileConfig(v.LookupPath(cue.ParsePath("config")))
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
}

func TestCompileConfigRequiresValue(t *testing.T) {
	v := cuecontext.New().CompileString(`other: 1`)
	_, err := CompileConfig(v.LookupPath(cue.ParsePath("config")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is required")
}

func TestCompileErrorFormat(t *testing.T) {
	assert.Equal(t, "account.common_fee: must be positive",
		(&CompileError{Field: "account.common_fee", Message: "must be positive"}).Error())
}

func TestLoad(t *testing.T) {
	cfg, err := Load("testdata/default")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadReportsValidationErrors(t *testing.T) {
	_, err := Load("testdata/invalid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[E110]")
	assert.Contains(t, err.Error(), "[E150]")
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load("testdata/does-not-exist")
	require.Error(t, err)
}
