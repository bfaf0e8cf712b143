package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/accountcell/internal/engine"
	"github.com/roach88/accountcell/internal/tx"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Budget int
}

// TraceResult is the step log of one verification.
type TraceResult struct {
	VerdictOutput
	Steps  []string `json:"steps"`
	Loads  int      `json:"loads"`
	Budget int      `json:"budget"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <snapshot>",
		Short: "Show every verification step of a snapshot",
		Long: `Verify one snapshot and print the steps the verifier took, the number
of cells it loaded and the verdict it reached.

The exit code follows verify: 1 when the transaction is rejected.

Examples:
  accountcell trace tx.yaml
  accountcell trace --budget 16 tx.yaml
  accountcell trace --format json tx.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Budget, "budget", engine.DefaultLoadBudget, "cell loads allowed per verification")

	return cmd
}

func runTrace(opts *TraceOptions, file string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Budget <= 0 {
		return reportError(formatter, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("budget must be positive, got %d", opts.Budget)})
	}
	cfg, _, err := resolveConfig(opts.RootOptions)
	if err != nil {
		return reportError(formatter, err)
	}
	t, err := tx.LoadFile(file)
	if err != nil {
		return reportError(formatter, &LoadError{Code: ErrCodeSnapshot, Message: fmt.Sprintf("%s: %v", file, err)})
	}

	verifier := newVerifier(opts.RootOptions, cfg, engine.WithLoadBudget(opts.Budget))
	tr := verifier.Trace(t)
	result := TraceResult{
		VerdictOutput: verdictOutput(file, t, tr.Err),
		Steps:         tr.Steps,
		Loads:         tr.Loads,
		Budget:        opts.Budget,
	}

	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		formatter.Textf("Trace: %s (%s)", file, result.Action)
		formatter.Textf("  tx %s", result.TxHash)
		for i, step := range result.Steps {
			formatter.Textf("  %3d. %s", i+1, step)
		}
		formatter.Textf("Loads: %d/%d", result.Loads, result.Budget)
		if result.Accepted() {
			formatter.Textf("Verdict: %s", result.Verdict)
		} else {
			formatter.Textf("Verdict: %s(%d): %s", result.Verdict, result.Code, result.Message)
		}
	}

	if !result.Accepted() {
		return NewExitError(ExitFailure, fmt.Sprintf("transaction rejected: %s", result.Verdict))
	}
	return nil
}
