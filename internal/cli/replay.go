package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/accountcell/internal/engine"
	"github.com/roach88/accountcell/internal/store"
	"github.com/roach88/accountcell/internal/tx"
)

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID           string           `json:"run_id"`
	Source          string           `json:"source"`
	JournaledConfig string           `json:"journaled_config"`
	ConfigChanged   bool             `json:"config_changed"`
	Total           int              `json:"total"`
	Matched         int              `json:"matched"`
	Mismatches      []store.Mismatch `json:"mismatches"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	ConfigDigest  string            `json:"config_digest"`
	Runs          []ReplayRunResult `json:"runs"`
	TotalRuns     int               `json:"total_runs"`
	AllReproduced bool              `json:"all_reproduced"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [run-id]",
		Short: "Re-verify journaled runs and report verdict drift",
		Long: `Re-verify every snapshot of a journaled run with the current config
and compare each verdict with the one recorded.

Without a run id every run in the journal is replayed. Runs journaled under
a different config digest are flagged; their mismatches show what the new
config changes.

Exit codes:
  0 - Every verdict was reproduced
  1 - At least one verdict differs
  2 - Command error (journal not found, unknown run, etc.)

Examples:
  accountcell replay --db ./verdicts.db
  accountcell replay --db ./verdicts.db 01923c3e-7d4b-7c1e-9a61-2b7f7c1f0e55
  accountcell replay --db ./verdicts.db --config ./next-config --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runReplay(rootOpts, runID, cmd)
		},
	}
	return cmd
}

func runReplay(opts *RootOptions, runID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts, cmd)

	st, err := openJournal(opts, true)
	if err != nil {
		return reportError(formatter, err)
	}
	defer st.Close()

	cfg, digest, err := resolveConfig(opts)
	if err != nil {
		return reportError(formatter, err)
	}
	verifier := newVerifier(opts, cfg)

	var runs []store.Run
	if runID != "" {
		run, err := st.ReadRunInfo(ctx, runID)
		if err != nil {
			return reportError(formatter, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("run %s: %v", runID, err)})
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx)
		if err != nil {
			return reportError(formatter, &LoadError{Code: ErrCodeJournal, Message: err.Error()})
		}
	}

	result := ReplayResult{
		ConfigDigest:  digest,
		Runs:          make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:     len(runs),
		AllReproduced: true,
	}
	verify := func(t *tx.Transaction) (int, string) {
		code := engine.CodeOf(verifier.Verify(t))
		return int(code), code.String()
	}
	for _, run := range runs {
		report, err := st.Replay(ctx, run.ID, verify)
		if err != nil {
			return reportError(formatter, &LoadError{Code: ErrCodeJournal, Message: err.Error()})
		}
		rr := ReplayRunResult{
			RunID:           run.ID,
			Source:          run.Source,
			JournaledConfig: report.ConfigDigest,
			ConfigChanged:   report.ConfigDigest != digest,
			Total:           report.Total,
			Matched:         report.Matched,
			Mismatches:      report.Mismatches,
		}
		if !report.OK() {
			result.AllReproduced = false
		}
		result.Runs = append(result.Runs, rr)
		opts.logger().Info("run replayed",
			"run", run.ID,
			"total", report.Total,
			"mismatches", len(report.Mismatches),
		)
	}

	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputReplayText(formatter, result)
	}

	if !result.AllReproduced {
		return NewExitError(ExitFailure, "replay verdicts differ from the journal")
	}
	return nil
}

func outputReplayText(f *OutputFormatter, result ReplayResult) {
	if len(result.Runs) == 0 {
		f.Textf("No runs found in journal.")
		return
	}
	for _, run := range result.Runs {
		mark := "✓"
		if len(run.Mismatches) > 0 {
			mark = "✗"
		}
		f.Textf("%s %s (%s): %d/%d reproduced", mark, run.RunID, run.Source, run.Matched, run.Total)
		if run.ConfigChanged {
			f.Textf("  journaled under config %s", run.JournaledConfig)
		}
		for _, m := range run.Mismatches {
			f.Textf("  seq %d tx %s: journaled %s, replayed %s", m.Seq, m.TxHash, m.RecordedName, m.ReplayedName)
		}
	}
	if result.AllReproduced {
		f.Textf("\nAll %d run(s) reproduced", result.TotalRuns)
	} else {
		f.Textf("\nVerdict drift detected")
	}
}

// openJournal opens the store named by --db. When mustExist is set a
// missing file is an error instead of a new journal.
func openJournal(opts *RootOptions, mustExist bool) (*store.Store, error) {
	if opts.DB == "" {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "journal path is required (--db or " + EnvPrefix + "_DB)"}
	}
	if mustExist {
		if _, err := os.Stat(opts.DB); err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("journal not found: %s", opts.DB)}
		}
	}
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeJournal, Message: fmt.Sprintf("open journal: %v", err)}
	}
	return st, nil
}
