package engine

import (
	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
)

// throttleRule couples a config interval with the record timestamp it guards.
type throttleRule struct {
	Interval func(config.Account) uint64
	Field    string
}

var (
	transferThrottle = &throttleRule{
		Interval: func(a config.Account) uint64 { return a.TransferAccountThrottle },
		Field:    ir.FieldLastTransferAccountAt,
	}
	editManagerThrottle = &throttleRule{
		Interval: func(a config.Account) uint64 { return a.EditManagerThrottle },
		Field:    ir.FieldLastEditManagerAt,
	}
	editRecordsThrottle = &throttleRule{
		Interval: func(a config.Account) uint64 { return a.EditRecordsThrottle },
		Field:    ir.FieldLastEditRecordsAt,
	}
)

func timestampField(r ir.AccountRecord, field string) (uint64, bool) {
	switch field {
	case ir.FieldLastTransferAccountAt:
		return r.LastTransferAccountAt()
	case ir.FieldLastEditManagerAt:
		return r.LastEditManagerAt()
	case ir.FieldLastEditRecordsAt:
		return r.LastEditRecordsAt()
	case ir.FieldRegisteredAt:
		return r.RegisteredAt(), true
	default:
		return 0, false
	}
}

// verifyThrottle requires the guarded timestamp to be at least one interval
// old, unless it was never set, and the output to stamp it with now.
func (c *evalCtx) verifyThrottle(in, out *AccountCell, th *throttleRule) error {
	if in.Record.Version() <= 1 {
		return newVerifyError(ErrCodeInvalidTransactionStructure,
			"record version %d of %s has no throttle timestamps", in.Record.Version(), in)
	}
	now, err := c.timestamp()
	if err != nil {
		return err
	}
	prev, ok := timestampField(in.Record, th.Field)
	if !ok {
		return newVerifyError(ErrCodeInvalidTransactionStructure, "%s does not define %s", in, th.Field)
	}
	interval := th.Interval(c.cfg.Account)
	if prev != 0 && now < prev+interval {
		return newVerifyError(ErrCodeAccountCellThrottle, "%s was set at %d, next change allowed at %d", th.Field, prev, prev+interval).
			With("now", now)
	}
	stamped, ok := timestampField(out.Record, th.Field)
	if !ok || stamped != now {
		return newVerifyError(ErrCodeAccountCellTimestampMismatch, "%s of %s should be %d", th.Field, out, now).
			With("actual", stamped)
	}
	c.step("throttle passed", "field", th.Field, "prev", prev, "now", now)
	return nil
}
