// Package tx models the immutable transaction snapshot handed to the verifier.
//
// Cells are addressed by (Source, index). Scans never read a length field:
// they load index 0, 1, 2, ... until Load reports ErrIndexOutOfBound, the same
// way the ledger host exposes its cells.
package tx

import (
	"errors"
	"fmt"

	"github.com/roach88/accountcell/internal/ir"
)

// ErrIndexOutOfBound is the sentinel returned when an index is past the end
// of a source. It terminates every scan.
var ErrIndexOutOfBound = errors.New("index out of bound")

// Source selects which cell list an index refers to.
type Source uint8

const (
	SourceInput Source = iota
	SourceOutput
	SourceCellDep
)

func (s Source) String() string {
	switch s {
	case SourceInput:
		return "input"
	case SourceOutput:
		return "output"
	case SourceCellDep:
		return "cell_dep"
	default:
		return fmt.Sprintf("source(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(text []byte) error {
	switch string(text) {
	case "input":
		*s = SourceInput
	case "output":
		*s = SourceOutput
	case "cell_dep":
		*s = SourceCellDep
	default:
		return fmt.Errorf("unknown source %q", string(text))
	}
	return nil
}

// Cell is one cell of the snapshot.
type Cell struct {
	Capacity uint64     `json:"capacity" yaml:"capacity"`
	Lock     ir.Script  `json:"lock" yaml:"lock"`
	Type     *ir.Script `json:"type,omitempty" yaml:"type,omitempty"`
	Data     ir.Bytes   `json:"data" yaml:"data"`
	Since    uint64     `json:"since,omitempty" yaml:"since,omitempty"`
}

// HasType reports whether the cell's type script uses codeHash.
func (c Cell) HasType(codeHash ir.Hash) bool {
	return c.Type != nil && c.Type.CodeHash == codeHash
}

// ActionWitness names the requested action and its parameters.
// Params[0], when present, is the role that signed the transaction.
type ActionWitness struct {
	Action ir.Action `json:"action" yaml:"action"`
	Params ir.Bytes  `json:"params" yaml:"params"`
}

// Role returns the role byte carried in the params.
func (a ActionWitness) Role() (ir.Role, bool) {
	if len(a.Params) == 0 {
		return 0, false
	}
	return ir.Role(a.Params[0]), true
}

// EntityWitness carries the decoded-on-demand entity of one cell.
type EntityWitness struct {
	Source Source        `json:"source" yaml:"source"`
	Index  int           `json:"index" yaml:"index"`
	Kind   ir.EntityKind `json:"kind" yaml:"kind"`
	// Entity is the raw envelope handed to the ir.RecordDecoder.
	Entity string `json:"entity" yaml:"entity"`
}

// SignatureWitness is the lock field of an input's witness.
type SignatureWitness struct {
	Input int      `json:"input" yaml:"input"`
	Lock  ir.Bytes `json:"lock" yaml:"lock"`
}

// Transaction is the immutable snapshot verified as a whole.
type Transaction struct {
	Hash       ir.Hash            `json:"hash" yaml:"hash"`
	Action     ActionWitness      `json:"action" yaml:"action"`
	Inputs     []Cell             `json:"inputs" yaml:"inputs"`
	Outputs    []Cell             `json:"outputs" yaml:"outputs"`
	CellDeps   []Cell             `json:"cell_deps" yaml:"cell_deps"`
	Entities   []EntityWitness    `json:"entities" yaml:"entities"`
	Signatures []SignatureWitness `json:"signatures,omitempty" yaml:"signatures,omitempty"`
}

func (t *Transaction) cells(src Source) []Cell {
	switch src {
	case SourceInput:
		return t.Inputs
	case SourceOutput:
		return t.Outputs
	case SourceCellDep:
		return t.CellDeps
	default:
		return nil
	}
}

// Load returns the cell at index i of src, or ErrIndexOutOfBound.
func (t *Transaction) Load(src Source, i int) (Cell, error) {
	cells := t.cells(src)
	if i < 0 || i >= len(cells) {
		return Cell{}, fmt.Errorf("load %s[%d]: %w", src, i, ErrIndexOutOfBound)
	}
	return cells[i], nil
}

// Scan calls fn for every cell of src in index order, stopping at the
// out-of-bound sentinel or when fn returns false.
func (t *Transaction) Scan(src Source, fn func(i int, c Cell) bool) {
	for i := 0; ; i++ {
		c, err := t.Load(src, i)
		if errors.Is(err, ErrIndexOutOfBound) {
			return
		}
		if !fn(i, c) {
			return
		}
	}
}

// FindByType returns the indexes of cells in src whose type uses codeHash.
func (t *Transaction) FindByType(codeHash ir.Hash, src Source) []int {
	var out []int
	t.Scan(src, func(i int, c Cell) bool {
		if c.HasType(codeHash) {
			out = append(out, i)
		}
		return true
	})
	return out
}

// FindByLock returns the indexes of cells in src locked by lock.
func (t *Transaction) FindByLock(lock ir.Script, src Source) []int {
	var out []int
	t.Scan(src, func(i int, c Cell) bool {
		if c.Lock.Equal(lock) {
			out = append(out, i)
		}
		return true
	})
	return out
}

// HasTypeScript reports whether any cell of src uses codeHash as its type.
// Companion scripts are detected this way.
func (t *Transaction) HasTypeScript(codeHash ir.Hash, src Source) bool {
	found := false
	t.Scan(src, func(_ int, c Cell) bool {
		found = c.HasType(codeHash)
		return !found
	})
	return found
}

// Count returns the number of cells in src, found by scanning to the sentinel.
func (t *Transaction) Count(src Source) int {
	n := 0
	t.Scan(src, func(int, Cell) bool {
		n++
		return true
	})
	return n
}

// Entity returns the raw entity witness of kind for the cell at (src, i).
func (t *Transaction) Entity(src Source, i int, kind ir.EntityKind) ([]byte, bool) {
	for _, w := range t.Entities {
		if w.Source == src && w.Index == i && w.Kind == kind {
			return []byte(w.Entity), true
		}
	}
	return nil, false
}

// Signature returns the witness lock bytes for input i.
func (t *Transaction) Signature(input int) ([]byte, bool) {
	for _, s := range t.Signatures {
		if s.Input == input {
			return s.Lock, true
		}
	}
	return nil, false
}

// SigningDigest is the message an input's signature commits to: the
// transaction hash followed by the input index.
func (t *Transaction) SigningDigest(input int) ir.Hash {
	idx := []byte{byte(input), byte(input >> 8), byte(input >> 16), byte(input >> 24)}
	return ir.Blake2b256(t.Hash[:], idx)
}
