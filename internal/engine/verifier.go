package engine

import (
	"log/slog"
	"time"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/sign"
	"github.com/roach88/accountcell/internal/tx"
)

// Observer receives one call per verdict. The metrics collector implements it.
type Observer interface {
	ObserveVerdict(action ir.Action, code ErrorCode, elapsed time.Duration)
}

// Verifier checks account cell transitions against one config.
//
// A Verifier holds no per-transaction state and is safe for concurrent use
// as long as the injected oracle, decoder and observer are.
type Verifier struct {
	cfg      *config.Config
	oracle   sign.Oracle
	decoder  ir.RecordDecoder
	logger   *slog.Logger
	observer Observer
	budget   int
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithSignOracle sets the signature oracle. Without one, every action that
// needs a signature is rejected with ErrCodeUnsupportedSignAlgorithm.
func WithSignOracle(o sign.Oracle) Option {
	return func(v *Verifier) {
		v.oracle = o
	}
}

// WithDecoder replaces the default JSON envelope decoder.
func WithDecoder(d ir.RecordDecoder) Option {
	return func(v *Verifier) {
		v.decoder = d
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = l
	}
}

// WithObserver registers an observer for verdicts.
func WithObserver(o Observer) Option {
	return func(v *Verifier) {
		v.observer = o
	}
}

// WithLoadBudget sets the number of cell loads one verification may perform.
//
// Default: DefaultLoadBudget
func WithLoadBudget(n int) Option {
	return func(v *Verifier) {
		v.budget = n
	}
}

// New creates a Verifier for cfg.
func New(cfg *config.Config, opts ...Option) *Verifier {
	v := &Verifier{
		cfg:     cfg,
		decoder: ir.JSONDecoder{},
		logger:  slog.Default(),
		budget:  DefaultLoadBudget,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Trace is the step log of one verification.
type Trace struct {
	Action ir.Action
	Steps  []string
	Loads  int
	Code   ErrorCode
	Err    error
}

// Verify returns nil when the transaction is a valid transition, or a
// *VerifyError naming the first violated rule.
func (v *Verifier) Verify(t *tx.Transaction) error {
	return v.run(t, nil)
}

// Trace verifies t and records every step taken.
func (v *Verifier) Trace(t *tx.Transaction) *Trace {
	tr := &Trace{}
	tr.Err = v.run(t, tr)
	tr.Code = CodeOf(tr.Err)
	return tr
}

func (v *Verifier) run(t *tx.Transaction, tr *Trace) (err error) {
	start := time.Now()
	var action ir.Action
	if t != nil {
		action = t.Action.Action
	}
	if tr != nil {
		tr.Action = action
	}
	defer func() {
		code := CodeOf(err)
		v.logger.Info("verdict",
			"action", action,
			"code", int(code),
			"name", code.String(),
		)
		if err != nil {
			v.logger.Debug("verdict reason", "error", err.Error())
		}
		if v.observer != nil {
			v.observer.ObserveVerdict(action, code, time.Since(start))
		}
	}()

	if t == nil {
		return newVerifyError(ErrCodeInvalidTransactionStructure, "transaction is nil")
	}
	if v.cfg == nil {
		return newVerifyError(ErrCodeConfigIsRequired, "no config loaded")
	}
	if !v.cfg.Main.Enabled {
		return newVerifyError(ErrCodeSystemOff, "system status is off")
	}
	if action == "" {
		return newVerifyError(ErrCodeWitnessReadingError, "action witness is empty")
	}

	r, ok := lookupRule(action)
	if !ok {
		return newVerifyError(ErrCodeActionNotSupported, "action %q is not supported", action)
	}

	c := newEvalCtx(v, t, tr)
	defer func() {
		if tr != nil {
			tr.Loads = c.budget.Used()
		}
	}()
	return r.run(c)
}
