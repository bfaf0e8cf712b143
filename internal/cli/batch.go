package cli

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/accountcell/internal/engine"
	"github.com/roach88/accountcell/internal/metrics"
	"github.com/roach88/accountcell/internal/store"
	"github.com/roach88/accountcell/internal/tx"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Workers      int
	Metrics      string // Prometheus textfile path
	Source       string
	RunID        string
	FailOnReject bool
}

// BatchResult summarizes one journaled batch run.
type BatchResult struct {
	RunID        string            `json:"run_id"`
	ConfigDigest string            `json:"config_digest"`
	Source       string            `json:"source"`
	Total        int               `json:"total"`
	Accepted     int               `json:"accepted"`
	Rejected     int               `json:"rejected"`
	NewVerdicts  int               `json:"new_verdicts"`
	Summary      []store.CodeCount `json:"summary"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <snapshot|dir>...",
		Short: "Verify snapshots concurrently and journal the verdicts",
		Long: `Verify a set of snapshots with a pool of workers and journal every
verdict under one run in the SQLite journal named by --db.

Verdicts are journaled in input order whatever order the workers finish
in, so a run can be replayed exactly. A verdict already journaled for the
same transaction, action, code and config is shared, not duplicated.

Rejections are verdicts, not failures: the exit code is 0 unless
--fail-on-reject is set.

Examples:
  accountcell batch --db ./verdicts.db snapshots/
  accountcell batch --db ./verdicts.db --workers 8 --metrics ./accountcell.prom snapshots/`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", runtime.NumCPU(), "concurrent verifications")
	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", "write Prometheus metrics to this textfile")
	cmd.Flags().StringVar(&opts.Source, "source", "", "label recorded with the run (default: the input paths)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "run id (default: a new UUIDv7)")
	cmd.Flags().BoolVar(&opts.FailOnReject, "fail-on-reject", false, "exit 1 when any transaction is rejected")

	return cmd
}

func runBatch(opts *BatchOptions, paths []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger()

	if opts.Workers <= 0 {
		return reportError(formatter, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("workers must be positive, got %d", opts.Workers)})
	}
	cfg, digest, err := resolveConfig(opts.RootOptions)
	if err != nil {
		return reportError(formatter, err)
	}
	files, err := collectSnapshots(paths)
	if err != nil {
		return reportError(formatter, err)
	}
	st, err := openJournal(opts.RootOptions, false)
	if err != nil {
		return reportError(formatter, err)
	}
	defer st.Close()

	collector := metrics.NewCollector(metrics.DefaultNamespace)
	verifier := newVerifier(opts.RootOptions, cfg, engine.WithObserver(collector))

	snapshots, verdicts, err := verifyAll(ctx, verifier, files, opts.Workers)
	if err != nil {
		return reportError(formatter, err)
	}

	var ids store.RunIDGenerator = store.UUIDv7{}
	if opts.RunID != "" {
		ids = store.NewFixedRunIDs(opts.RunID)
	}
	source := opts.Source
	if source == "" {
		source = strings.Join(paths, ",")
	}
	result := BatchResult{
		RunID:        ids.NewRunID(),
		ConfigDigest: digest,
		Source:       source,
		Total:        len(files),
	}
	if err := st.BeginRun(ctx, result.RunID, digest, source); err != nil {
		return reportError(formatter, &LoadError{Code: ErrCodeJournal, Message: err.Error()})
	}

	for i, t := range snapshots {
		v := verdictOutput(files[i], t, verdicts[i])
		if v.Accepted() {
			result.Accepted++
		} else {
			result.Rejected++
		}
		entry, err := store.NewEntry(t, v.Code, v.Verdict, v.Message, digest)
		if err != nil {
			return reportError(formatter, &LoadError{Code: ErrCodeJournal, Message: fmt.Sprintf("%s: %v", files[i], err)})
		}
		inserted, err := st.WriteEntry(ctx, result.RunID, int64(i), entry)
		if err != nil {
			return reportError(formatter, &LoadError{Code: ErrCodeJournal, Message: fmt.Sprintf("%s: %v", files[i], err)})
		}
		collector.RecordJournalWrite(inserted)
		if inserted {
			result.NewVerdicts++
		}
		formatter.VerboseLog("%s  %s  %s", files[i], v.Action, v.Verdict)
	}
	collector.RecordBatch(len(files))

	result.Summary, err = st.Summary(ctx, result.RunID)
	if err != nil {
		return reportError(formatter, &LoadError{Code: ErrCodeJournal, Message: err.Error()})
	}
	if opts.Metrics != "" {
		if err := collector.WriteTextfile(opts.Metrics); err != nil {
			return reportError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("write metrics: %v", err)})
		}
	}
	logger.Info("batch journaled",
		"run", result.RunID,
		"total", result.Total,
		"rejected", result.Rejected,
		"new_verdicts", result.NewVerdicts,
	)

	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputBatchText(formatter, result)
	}

	if opts.FailOnReject && result.Rejected > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d transaction(s) rejected", result.Rejected))
	}
	return nil
}

// verifyAll loads and verifies files on up to workers goroutines. The
// results are indexed like files. A snapshot that does not decode stops
// the batch.
func verifyAll(ctx context.Context, v *engine.Verifier, files []string, workers int) ([]*tx.Transaction, []error, error) {
	snapshots := make([]*tx.Transaction, len(files))
	verdicts := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := tx.LoadFile(file)
			if err != nil {
				return &LoadError{Code: ErrCodeSnapshot, Message: fmt.Sprintf("%s: %v", file, err)}
			}
			snapshots[i] = t
			verdicts[i] = v.Verify(t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return snapshots, verdicts, nil
}

func outputBatchText(f *OutputFormatter, result BatchResult) {
	f.Textf("Run %s", result.RunID)
	f.Textf("  config  %s", result.ConfigDigest)
	f.Textf("  source  %s", result.Source)
	for _, c := range result.Summary {
		f.Textf("  %-28s %-40s %d", c.Action, fmt.Sprintf("%s(%d)", c.Name, c.Code), c.Count)
	}
	f.Textf("\n%d verified: %d accepted, %d rejected, %d new verdict(s)",
		result.Total, result.Accepted, result.Rejected, result.NewVerdicts)
}
