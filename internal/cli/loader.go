package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/accountcell/internal/compiler"
	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/engine"
	"github.com/roach88/accountcell/internal/sign"
)

// LoadMode controls how errors are handled during config loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll reports every validation error.
	LoadModeCollectAll
)

// LoadResult is a compiled configuration package.
type LoadResult struct {
	Config    *config.Config
	Digest    string
	CUEValue  cue.Value
	FileCount int
}

// LoadError represents an error that occurred while loading a config.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadConfig loads, compiles and validates the CUE configuration package
// in dir. A nil result means nothing could be compiled; a non-nil result
// with errors means the config compiled but failed validation.
func LoadConfig(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing config directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	value, err := compiler.LoadValue(dir)
	if err != nil {
		return nil, []error{convertCompileError(err, ErrCodeLoadFailed)}
	}

	cfg, err := compiler.CompileConfig(value)
	if err != nil {
		return nil, []error{convertCompileError(err, ErrCodeBuildFailed)}
	}

	digest, err := cfg.Digest()
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("digesting config: %v", err)}}
	}

	result := &LoadResult{
		Config:    cfg,
		Digest:    digest,
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	var errs []error
	for _, ve := range compiler.Validate(cfg) {
		errs = append(errs, &LoadError{Code: ve.Code, Message: fmt.Sprintf("%s: %s", ve.Field, ve.Message)})
		if mode == LoadModeFailFast {
			break
		}
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with
// position info. Errors without a field get fallback.
func convertCompileError(err error, fallback string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: fallback, Message: err.Error()}
}

// Error code constants, unified across all CLI commands. Validation
// failures use the compiler's E1xx codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files or snapshots found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeSnapshot    = "E008" // Snapshot does not decode
	ErrCodeJournal     = "E009" // Journal open, read or write failed

	// Compile errors by config table
	ErrCodeConfigMissing   = "E010" // No config field in the package
	ErrCodeMainTable       = "E011"
	ErrCodeAccountTable    = "E012"
	ErrCodePriceTable      = "E013"
	ErrCodeRecordsTable    = "E014"
	ErrCodeSubAccountTable = "E015"
)

// MapFieldToErrorCode maps a compiler error field to an error code by the
// table it belongs to.
func MapFieldToErrorCode(field string) string {
	table, _, _ := strings.Cut(field, ".")
	switch table {
	case "config":
		return ErrCodeConfigMissing
	case "main":
		return ErrCodeMainTable
	case "account":
		return ErrCodeAccountTable
	case "price":
		return ErrCodePriceTable
	case "records":
		return ErrCodeRecordsTable
	case "sub_account":
		return ErrCodeSubAccountTable
	default:
		return ErrCodeBuildFailed
	}
}

// resolveConfig returns the configuration the verifier runs with: the
// package named by --config, or the built-in default.
func resolveConfig(opts *RootOptions) (*config.Config, string, error) {
	if opts.Config == "" {
		cfg := config.Default()
		digest, err := cfg.Digest()
		if err != nil {
			return nil, "", WrapExitError(ExitCommandError, "failed to digest default config", err)
		}
		return cfg, digest, nil
	}
	result, errs := LoadConfig(opts.Config, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, "", WrapExitError(ExitCommandError, "failed to load config "+opts.Config, errs[0])
	}
	return result.Config, result.Digest, nil
}

// newVerifier builds a verifier for cfg with the command's signature
// oracle and logger.
func newVerifier(opts *RootOptions, cfg *config.Config, extra ...engine.Option) *engine.Verifier {
	var oracle sign.Oracle = sign.NewRegistry(cfg.Main.SignAlgorithms)
	if opts.Oracle != nil {
		oracle = opts.Oracle
	}
	vopts := append([]engine.Option{
		engine.WithSignOracle(oracle),
		engine.WithLogger(opts.logger()),
	}, extra...)
	return engine.New(cfg, vopts...)
}

// snapshotExts are the file extensions read as snapshots.
var snapshotExts = []string{".yaml", ".yml", ".json"}

// collectSnapshots expands directories among paths into the snapshot
// files they contain, sorted by name. Plain files are kept as given.
func collectSnapshots(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("snapshot path not found: %s", p)}
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		for _, e := range entries {
			if !e.IsDir() && slices.Contains(snapshotExts, filepath.Ext(e.Name())) {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: "no snapshots found"}
	}
	return files, nil
}
