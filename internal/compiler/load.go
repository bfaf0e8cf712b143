package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/accountcell/internal/config"
)

// ConfigPath is the top-level field a configuration package defines.
const ConfigPath = "config"

// LoadValue builds the CUE package in dir and returns its config field.
func LoadValue(dir string) (cue.Value, error) {
	insts := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(insts) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances in %s", dir)
	}
	if err := insts[0].Err; err != nil {
		return cue.Value{}, fmt.Errorf("loading %s: %w", dir, err)
	}
	v := cuecontext.New().BuildInstance(insts[0])
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v.LookupPath(cue.ParsePath(ConfigPath)), nil
}

// Load compiles and validates the configuration package in dir.
// Validation errors are joined into one error.
func Load(dir string) (*config.Config, error) {
	v, err := LoadValue(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := CompileConfig(v)
	if err != nil {
		return nil, err
	}
	if verrs := Validate(cfg); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = ve
		}
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}
