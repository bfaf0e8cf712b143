// Package sign verifies witness lock signatures.
//
// Each lock kind has one Strategy. A Registry holds the strategies enabled
// by configuration and satisfies Oracle, the interface the verifier
// consumes. Kinds without a strategy (WebAuthn, Reserved) report
// ErrUnsupportedAlgorithm.
package sign

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/accountcell/internal/ir"
)

var (
	// ErrUnsupportedAlgorithm is returned for lock kinds with no enabled strategy.
	ErrUnsupportedAlgorithm = errors.New("unsupported sign algorithm")
	// ErrSignatureInvalid is returned when a signature does not verify.
	ErrSignatureInvalid = errors.New("signature verification failed")
)

// Oracle verifies the witness lock of one input against the lock args.
type Oracle interface {
	Verify(kind ir.LockKind, digest ir.Hash, witnessLock, args []byte) error
}

// Strategy verifies signatures of one lock kind.
type Strategy interface {
	Verify(digest ir.Hash, witnessLock, args []byte) error
}

// Strategies returns the strategy of every supported lock kind.
func Strategies() map[ir.LockKind]Strategy {
	return map[ir.LockKind]Strategy{
		ir.LockCKBSingle:    CKBSingle{},
		ir.LockCKBMulti:     CKBMulti{},
		ir.LockETH:          ETH{},
		ir.LockTRON:         TRON{},
		ir.LockETHTypedData: ETHTypedData{},
		ir.LockMIXIN:        MIXIN{},
		ir.LockDOGE:         DOGE{},
	}
}

// Registry dispatches to the strategies of the enabled lock kinds.
type Registry struct {
	strategies map[ir.LockKind]Strategy
}

var _ Oracle = (*Registry)(nil)

// NewRegistry enables the supported strategies among kinds. Kinds with no
// strategy are ignored; they fail at verification time.
func NewRegistry(kinds []ir.LockKind) *Registry {
	all := Strategies()
	r := &Registry{strategies: make(map[ir.LockKind]Strategy, len(kinds))}
	for _, k := range kinds {
		if s, ok := all[k]; ok {
			r.strategies[k] = s
		}
	}
	return r
}

// Register installs s for kind, replacing any previous strategy.
func (r *Registry) Register(kind ir.LockKind, s Strategy) {
	r.strategies[kind] = s
}

// Kinds returns the enabled kinds in ascending order.
func (r *Registry) Kinds() []ir.LockKind {
	out := make([]ir.LockKind, 0, len(r.strategies))
	for k := range r.strategies {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Verify implements Oracle.
func (r *Registry) Verify(kind ir.LockKind, digest ir.Hash, witnessLock, args []byte) error {
	s, ok := r.strategies[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, kind)
	}
	if err := s.Verify(digest, witnessLock, args); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSignatureInvalid, fmt.Sprintf(format, args...))
}
