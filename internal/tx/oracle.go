package tx

import (
	"errors"
	"fmt"

	"github.com/roach88/accountcell/internal/ir"
)

// ErrOracleMissing is returned when no cell dep publishes the requested value.
var ErrOracleMissing = errors.New("oracle cell is required")

// ReadOracle returns the value published by the first cell dep whose type
// script uses oracleType and whose args[0] selects kind.
func (t *Transaction) ReadOracle(oracleType ir.Hash, kind ir.OracleKind) (uint64, error) {
	var (
		value uint64
		found bool
		err   error
	)
	t.Scan(SourceCellDep, func(i int, c Cell) bool {
		if !c.HasType(oracleType) || len(c.Type.Args) == 0 || ir.OracleKind(c.Type.Args[0]) != kind {
			return true
		}
		var dataKind ir.OracleKind
		dataKind, value, err = ir.ParseOracleCellData(c.Data)
		if err == nil && dataKind != kind {
			err = fmt.Errorf("cell_dep[%d]: oracle data is %s, type args say %s", i, dataKind, kind)
		}
		found = true
		return false
	})
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrOracleMissing, kind)
	}
	return value, err
}
