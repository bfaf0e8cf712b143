package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/accountcell/internal/ir"
)

// CompileOptions holds flags for the config compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult summarizes a compiled configuration package.
type CompilationResult struct {
	Digest         string   `json:"digest"`
	Files          int      `json:"files"`
	Enabled        bool     `json:"enabled"`
	SignAlgorithms []string `json:"sign_algorithms"`
	PriceTiers     int      `json:"price_tiers"`
	RecordKeys     int      `json:"record_keys"`
	Output         string   `json:"output,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool       `json:"valid"`
	Digest string     `json:"digest,omitempty"`
	Errors []CLIError `json:"errors,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Compile and validate CUE configuration packages",
	}
	cmd.AddCommand(newConfigCompileCommand(rootOpts))
	cmd.AddCommand(newConfigValidateCommand(rootOpts))
	return cmd
}

func newConfigCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <config-dir>",
		Short: "Compile a CUE configuration package to canonical JSON",
		Long: `Compile a CUE configuration package, validate it, and print its digest.

The digest is the id journal rows are recorded under. With --output the
canonical JSON the digest is computed over is written to a file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadConfig(dir, LoadModeCollectAll)
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)

	cfg := loadResult.Config
	result := CompilationResult{
		Digest:     loadResult.Digest,
		Files:      loadResult.FileCount,
		Enabled:    cfg.Main.Enabled,
		PriceTiers: len(cfg.Price.Tiers),
		RecordKeys: len(cfg.Records.KeyNamespace),
		Output:     opts.Output,
	}
	for _, k := range cfg.Main.SignAlgorithms {
		result.SignAlgorithms = append(result.SignAlgorithms, k.String())
	}

	if opts.Output != "" {
		data, err := ir.MarshalCanonical(cfg.IR())
		if err != nil {
			return reportError(formatter, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("marshaling config: %v", err)})
		}
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return reportError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	formatter.Textf("✓ Compiled %s", dir)
	formatter.Textf("  digest           %s", result.Digest)
	formatter.Textf("  enabled          %t", result.Enabled)
	formatter.Textf("  sign algorithms  %v", result.SignAlgorithms)
	formatter.Textf("  price tiers      %d", result.PriceTiers)
	formatter.Textf("  record keys      %d", result.RecordKeys)
	if result.Output != "" {
		formatter.Textf("Wrote canonical config to %s", result.Output)
	}
	return nil
}

// outputCompileErrors outputs every load, compile and validation error.
func outputCompileErrors(f *OutputFormatter, errs []error) error {
	cliErrors := toCLIErrors(errs)
	if f.JSON() {
		if err := f.Error(cliErrors[0].Code, cliErrors[0].Message, cliErrors); err != nil {
			return err
		}
	} else {
		f.Textf("✗ Compilation failed\n")
		writeErrorList(f, errs)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

func newConfigValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-dir>",
		Short: "Validate a CUE configuration package",
		Long: `Validate a CUE configuration package and report every error found.

Exit codes:
  0 - The configuration is valid
  1 - The configuration compiled but breaks validation rules
  2 - The package could not be loaded or compiled`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := LoadConfig(dir, LoadModeCollectAll)
	if loadResult == nil {
		return outputCompileErrors(formatter, loadErrors)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)

	result := ValidationResult{
		Valid:  len(loadErrors) == 0,
		Digest: loadResult.Digest,
		Errors: toCLIErrors(loadErrors),
	}
	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if result.Valid {
		formatter.Textf("✓ %s is valid", dir)
	} else {
		formatter.Textf("✗ %s: %d validation error(s)\n", dir, len(loadErrors))
		writeErrorList(formatter, loadErrors)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(loadErrors)))
	}
	return nil
}

func toCLIErrors(errs []error) []CLIError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]CLIError, len(errs))
	for i, err := range errs {
		out[i] = CLIError{Code: ErrCodeGeneric, Message: err.Error()}
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			out[i] = CLIError{Code: loadErr.Code, Message: loadErr.Message}
			if loadErr.Pos.IsValid() {
				out[i].Details = fmt.Sprintf("%s:%d:%d", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
			}
		}
	}
	return out
}

func writeErrorList(f *OutputFormatter, errs []error) {
	for _, e := range toCLIErrors(errs) {
		if pos, ok := e.Details.(string); ok {
			f.Textf("%s", pos)
		}
		f.Textf("  %s: %s", e.Code, e.Message)
	}
}
