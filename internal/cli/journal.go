package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/store"
)

// RunInfo is one journaled run with its verdict summary.
type RunInfo struct {
	ID           string            `json:"id"`
	ConfigDigest string            `json:"config_digest"`
	Source       string            `json:"source"`
	Entries      int               `json:"entries"`
	Summary      []store.CodeCount `json:"summary,omitempty"`
}

// VerdictInfo is one journaled verdict.
type VerdictInfo struct {
	ID             string `json:"id"`
	Action         string `json:"action"`
	Code           int    `json:"code"`
	Name           string `json:"name"`
	Message        string `json:"message,omitempty"`
	ConfigDigest   string `json:"config_digest"`
	SnapshotDigest string `json:"snapshot_digest"`
}

// NewJournalCommand creates the journal command group.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the verdict journal",
	}
	cmd.AddCommand(newJournalRunsCommand(rootOpts))
	cmd.AddCommand(newJournalTxCommand(rootOpts))
	return cmd
}

func newJournalRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List journaled runs",
		Long: `List every run in the journal, oldest first.

Examples:
  accountcell journal runs --db ./verdicts.db
  accountcell journal runs --db ./verdicts.db --summary`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournalRuns(rootOpts, summary, cmd)
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "count verdicts per action and code")

	return cmd
}

func runJournalRuns(opts *RootOptions, summary bool, cmd *cobra.Command) error {
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

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return reportError(formatter, &LoadError{Code: ErrCodeJournal, Message: err.Error()})
	}
	infos := make([]RunInfo, len(runs))
	for i, r := range runs {
		infos[i] = RunInfo{ID: r.ID, ConfigDigest: r.ConfigDigest, Source: r.Source, Entries: r.Entries}
		if summary {
			if infos[i].Summary, err = st.Summary(ctx, r.ID); err != nil {
				return reportError(formatter, &LoadError{Code: ErrCodeJournal, Message: err.Error()})
			}
		}
	}

	if formatter.JSON() {
		return formatter.Success(infos)
	}
	if len(infos) == 0 {
		formatter.Textf("No runs found in journal.")
		return nil
	}
	for _, r := range infos {
		formatter.Textf("%s  %d entries  %s", r.ID, r.Entries, r.Source)
		for _, c := range r.Summary {
			formatter.Textf("    %-28s %s(%d) x%d", c.Action, c.Name, c.Code, c.Count)
		}
	}
	return nil
}

func newJournalTxCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx <tx-hash>",
		Short: "Show every verdict journaled for a transaction",
		Long: `Show every verdict journaled for a transaction hash, across configs.

A transaction with verdicts under two config digests shows how a config
change affected it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournalTx(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runJournalTx(opts *RootOptions, hashArg string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts, cmd)

	hash, err := ir.ParseHash(hashArg)
	if err != nil {
		return reportError(formatter, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("invalid tx hash: %v", err)})
	}
	st, err := openJournal(opts, true)
	if err != nil {
		return reportError(formatter, err)
	}
	defer st.Close()

	verdicts, err := st.VerdictsForTx(ctx, hash)
	if err != nil {
		return reportError(formatter, &LoadError{Code: ErrCodeJournal, Message: err.Error()})
	}
	infos := make([]VerdictInfo, len(verdicts))
	for i, v := range verdicts {
		infos[i] = VerdictInfo{
			ID:             v.ID,
			Action:         string(v.Action),
			Code:           v.Code,
			Name:           v.Name,
			Message:        v.Message,
			ConfigDigest:   v.ConfigDigest,
			SnapshotDigest: v.SnapshotDigest,
		}
	}

	if formatter.JSON() {
		return formatter.Success(infos)
	}
	if len(infos) == 0 {
		formatter.Textf("No verdicts journaled for %s.", hash)
		return nil
	}
	for _, v := range infos {
		formatter.Textf("%s  %s  %s(%d)  config %s", v.ID, v.Action, v.Name, v.Code, v.ConfigDigest)
		if v.Message != "" {
			formatter.Textf("    %s", v.Message)
		}
	}
	return nil
}
