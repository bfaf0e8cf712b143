package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/accountcell/internal/engine"
	"github.com/roach88/accountcell/internal/tx"
)

// VerdictOutput is the verdict of one snapshot.
type VerdictOutput struct {
	File    string            `json:"file"`
	TxHash  string            `json:"tx_hash"`
	Action  string            `json:"action"`
	Code    int               `json:"code"`
	Verdict string            `json:"verdict"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Accepted reports whether the transition was valid.
func (v VerdictOutput) Accepted() bool {
	return v.Code == 0
}

// VerifyResult holds the verdicts of a verify invocation.
type VerifyResult struct {
	ConfigDigest string          `json:"config_digest"`
	Verdicts     []VerdictOutput `json:"verdicts"`
	Accepted     int             `json:"accepted"`
	Rejected     int             `json:"rejected"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <snapshot|dir>...",
		Short: "Verify transaction snapshots",
		Long: `Verify one or more transaction snapshots and print their verdicts.

Directories are expanded to the .yaml, .yml and .json files they contain.

Exit codes:
  0 - Every transaction was accepted
  1 - At least one transaction was rejected
  2 - Command error (unreadable snapshot, bad config, etc.)

Examples:
  accountcell verify tx.yaml
  accountcell verify --config ./config snapshots/
  accountcell verify --format json tx.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runVerify(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, digest, err := resolveConfig(opts)
	if err != nil {
		return reportError(formatter, err)
	}
	files, err := collectSnapshots(paths)
	if err != nil {
		return reportError(formatter, err)
	}
	formatter.VerboseLog("Verifying %d snapshot(s) with config %s", len(files), digest)

	verifier := newVerifier(opts, cfg)
	result := VerifyResult{ConfigDigest: digest}
	for _, file := range files {
		t, err := tx.LoadFile(file)
		if err != nil {
			return reportError(formatter, &LoadError{Code: ErrCodeSnapshot, Message: fmt.Sprintf("%s: %v", file, err)})
		}
		v := verdictOutput(file, t, verifier.Verify(t))
		result.Verdicts = append(result.Verdicts, v)
		if v.Accepted() {
			result.Accepted++
		} else {
			result.Rejected++
		}
		printVerdict(formatter, v)
	}

	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		formatter.Textf("\n%d accepted, %d rejected", result.Accepted, result.Rejected)
	}

	if result.Rejected > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d transaction(s) rejected", result.Rejected))
	}
	return nil
}

func verdictOutput(file string, t *tx.Transaction, err error) VerdictOutput {
	code := engine.CodeOf(err)
	v := VerdictOutput{
		File:    file,
		TxHash:  t.Hash.String(),
		Action:  string(t.Action.Action),
		Code:    int(code),
		Verdict: code.String(),
	}
	var ve *engine.VerifyError
	if errors.As(err, &ve) {
		v.Message = ve.Message
		v.Details = ve.Details
	} else if err != nil {
		v.Message = err.Error()
	}
	return v
}

func printVerdict(f *OutputFormatter, v VerdictOutput) {
	if v.Accepted() {
		f.Textf("✓ %s  %s  %s", v.File, v.Action, v.Verdict)
		return
	}
	f.Textf("✗ %s  %s  %s(%d): %s", v.File, v.Action, v.Verdict, v.Code, v.Message)
	if f.Verbose {
		for _, k := range slices.Sorted(maps.Keys(v.Details)) {
			f.Textf("    %s: %s", k, v.Details[k])
		}
	}
}

// reportError writes err in the configured format and returns it as a
// command error.
func reportError(f *OutputFormatter, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code != ExitCommandError {
		return err
	}
	code := ErrCodeGeneric
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code = loadErr.Code
	}
	if outErr := f.Error(code, err.Error(), nil); outErr != nil {
		return outErr
	}
	if exitErr != nil {
		return exitErr
	}
	return WrapExitError(ExitCommandError, "command failed", err)
}
