package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/accountcell/internal/compiler"
	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/engine"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/store"
	"github.com/roach88/accountcell/internal/testutil"
	"github.com/roach88/accountcell/internal/tx"
)

// Harness runs scenarios against the verifier with a fixed clock, a fake
// signature oracle and a fresh in-memory journal.
type Harness struct {
	cfg      *config.Config
	digest   string
	verifier *engine.Verifier
	store    *store.Store
	runIDs   store.RunIDGenerator
	now      uint64
	logger   *slog.Logger
}

// Option configures a scenario run.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger routes verifier and harness logs to l. Logs are discarded by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) {
		o.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Every step is verified, journaled under one run, and the run is replayed
// from the journal at the end. A step whose verdict differs from its expect
// clause, a failed assertion or a replay mismatch fails the result; an
// error is returned only when the scenario cannot be executed at all.
func Run(ctx context.Context, s *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := config.Default()
	if s.Config != "" {
		loaded, err := compiler.Load(s.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", s.Config, err)
		}
		cfg = loaded
	}
	digest, err := cfg.Digest()
	if err != nil {
		return nil, fmt.Errorf("failed to digest config: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runID := s.RunID
	if runID == "" {
		runID = "run-" + s.Name
	}
	now := s.Now
	if now == 0 {
		now = testutil.Now
	}

	h := &Harness{
		cfg:      cfg,
		digest:   digest,
		verifier: engine.New(cfg,
			engine.WithSignOracle(testutil.FakeOracle{}),
			engine.WithLogger(o.logger),
		),
		store:  st,
		runIDs: store.NewFixedRunIDs(runID),
		now:    now,
		logger: o.logger,
	}
	return h.run(ctx, s)
}

func (h *Harness) run(ctx context.Context, s *Scenario) (*Result, error) {
	runID := h.runIDs.NewRunID()
	if err := h.store.BeginRun(ctx, runID, h.digest, "scenario:"+s.Name); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range s.Steps {
		sr, err := h.executeStep(ctx, runID, int64(i), step)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Name, err)
		}
		result.Steps = append(result.Steps, sr)
		if sr.Code != sr.Expected {
			result.AddError(fmt.Sprintf("step %q: expected %s, got %s: %s",
				step.Name, sr.Expected, sr.Code, sr.Message))
		}
	}

	for _, msg := range EvaluateAssertions(ctx, result, s.Assertions, h.store) {
		result.AddError(msg)
	}

	report, err := h.store.Replay(ctx, runID, h.replay)
	if err != nil {
		return nil, fmt.Errorf("failed to replay run: %w", err)
	}
	result.Replay = report
	for _, m := range report.Mismatches {
		result.AddError(fmt.Sprintf("replay seq %d: journaled %s, replayed %s",
			m.Seq, m.RecordedName, m.ReplayedName))
	}
	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, runID string, seq int64, step Step) (StepResult, error) {
	t, err := h.build(step)
	if err != nil {
		return StepResult{}, err
	}
	tr := h.verifier.Trace(t)

	expected, _ := engine.ParseErrorCode(step.Expect.Code)
	msg := verdictMessage(tr.Err)
	entry, err := store.NewEntry(t, int(tr.Code), tr.Code.String(), msg, h.digest)
	if err != nil {
		return StepResult{}, err
	}
	if _, err := h.store.WriteEntry(ctx, runID, seq, entry); err != nil {
		return StepResult{}, err
	}

	h.logger.Info("scenario step completed",
		"step", step.Name,
		"action", step.Action,
		"code", int(tr.Code),
		"verdict_id", entry.Verdict.ID,
	)
	return StepResult{
		Name:      step.Name,
		Action:    t.Action.Action,
		Code:      tr.Code,
		Expected:  expected,
		VerdictID: entry.Verdict.ID,
		Message:   msg,
		Trace:     tr.Steps,
	}, nil
}

func (h *Harness) replay(t *tx.Transaction) (int, string) {
	code := engine.CodeOf(h.verifier.Verify(t))
	return int(code), code.String()
}

func verdictMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *engine.VerifyError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

// build turns a step into a signed transaction snapshot.
func (h *Harness) build(step Step) (*tx.Transaction, error) {
	spec := step.Account
	kind := ir.LockCKBSingle
	if spec.Kind != "" {
		k, err := ir.ParseLockKind(spec.Kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}
	manager := spec.Manager
	if manager == "" {
		manager = spec.Owner
	}
	args := lockArgs(kind, spec.Owner, manager)

	in, err := h.inputAccount(spec, args)
	if err != nil {
		return nil, err
	}

	action := ir.Action(step.Action)
	b := testutil.NewBuilder(h.cfg, action).Now(h.now).InputAccount(in)

	role := step.Role
	if role == "" {
		role = RoleOwner
	}
	switch role {
	case RoleOwner:
		b.Role(ir.RoleOwner)
	case RoleManager:
		b.Role(ir.RoleManager)
	}

	if !step.OmitOutput {
		out := OutputSpec{}
		if step.Output != nil {
			out = *step.Output
		}
		outAcc, err := h.outputAccount(action, kind, spec, in, out)
		if err != nil {
			return nil, err
		}
		b.OutputAccount(outAcc)
	}

	signer := step.Sign
	if signer == "" {
		signer = role
	}
	switch signer {
	case RoleOwner:
		b.SignRole(0, args, ir.RoleOwner)
	case RoleManager:
		b.SignRole(0, args, ir.RoleManager)
	}
	return b.Build(), nil
}

func lockArgs(kind ir.LockKind, owner, manager string) ir.LockArgs {
	return ir.LockArgs{
		OwnerKind:   kind,
		Owner:       testutil.RoleArgs(kind, owner),
		ManagerKind: kind,
		Manager:     testutil.RoleArgs(kind, manager),
	}
}

func (h *Harness) inputAccount(spec AccountSpec, args ir.LockArgs) (testutil.Account, error) {
	var status ir.AccountStatus
	if spec.Status != "" {
		s, err := ir.ParseAccountStatus(spec.Status)
		if err != nil {
			return testutil.Account{}, err
		}
		status = s
	}

	now := h.now
	return testutil.NewAccount(spec.Name, args).With(func(a *testutil.Account) {
		if spec.Version != 0 {
			a.Version = spec.Version
		}
		if spec.Capacity != 0 {
			a.Capacity = spec.Capacity
		}
		a.ExpiredAt = now + config.YearSec
		if spec.ExpiresIn != nil {
			a.ExpiredAt = offset(now, *spec.ExpiresIn)
		}
		a.Fields.RegisteredAt = now - config.YearSec
		a.Fields.Status = status
		a.Fields.Records = append(ir.Records(nil), spec.Records...)
		a.Fields.LastTransferAccountAt = ago(now, spec.TransferredAgo)
		a.Fields.LastEditManagerAt = ago(now, spec.ManagerEditedAgo)
		a.Fields.LastEditRecordsAt = ago(now, spec.RecordsEditedAgo)
	}), nil
}

func (h *Harness) outputAccount(action ir.Action, kind ir.LockKind, spec AccountSpec, in testutil.Account, out OutputSpec) (testutil.Account, error) {
	var status *ir.AccountStatus
	if out.Status != "" {
		s, err := ir.ParseAccountStatus(out.Status)
		if err != nil {
			return testutil.Account{}, err
		}
		status = &s
	}
	spend := actionFee(h.cfg.Account, action)
	if out.Spend != nil {
		spend = *out.Spend
	}

	now := h.now
	return in.With(func(a *testutil.Account) {
		switch {
		case out.Owner != "":
			manager := out.Manager
			if manager == "" {
				manager = out.Owner
			}
			a.Args = lockArgs(kind, out.Owner, manager)
		case out.Manager != "":
			a.Args = lockArgs(kind, spec.Owner, out.Manager)
		}
		if status != nil {
			a.Fields.Status = *status
		}
		if out.Version != 0 {
			a.Version = out.Version
		}
		if spend > a.Capacity {
			spend = a.Capacity
		}
		a.Capacity -= spend
		if out.Records != nil {
			a.Fields.Records = append(ir.Records{}, *out.Records...)
		}
		for _, f := range out.Stamp {
			switch f {
			case ir.FieldLastTransferAccountAt:
				a.Fields.LastTransferAccountAt = now
			case ir.FieldLastEditManagerAt:
				a.Fields.LastEditManagerAt = now
			case ir.FieldLastEditRecordsAt:
				a.Fields.LastEditRecordsAt = now
			}
		}
		for _, f := range out.Tamper {
			switch f {
			case ir.FieldRegisteredAt:
				a.Fields.RegisteredAt++
			case ir.DataFieldExpiredAt:
				a.ExpiredAt++
			}
		}
	}), nil
}

// actionFee is the fee the account pays for action under the default rules.
func actionFee(a config.Account, action ir.Action) uint64 {
	switch action {
	case ir.ActionTransferAccount:
		return a.TransferAccountFee
	case ir.ActionEditManager:
		return a.EditManagerFee
	case ir.ActionEditRecords:
		return a.EditRecordsFee
	default:
		return a.CommonFee
	}
}

func offset(now uint64, delta int64) uint64 {
	if delta < 0 {
		d := uint64(-delta)
		if d > now {
			return 0
		}
		return now - d
	}
	return now + uint64(delta)
}

func ago(now, d uint64) uint64 {
	if d == 0 || d > now {
		return 0
	}
	return now - d
}
