package engine

import (
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
)

// LockChange declares how the lock of an account cell may change.
type LockChange uint8

const (
	// LockKeep requires identical lock args.
	LockKeep LockChange = iota
	// LockOwner requires the owner half to change. The manager is free.
	LockOwner
	// LockManager requires the owner to stay and the manager to change.
	LockManager
	// LockAny leaves the args unconstrained.
	LockAny
)

// Exceptions lists what a transition may change.
type Exceptions struct {
	Lock    LockChange
	Data    []string
	Witness []string
}

// VerifyConsistency requires every field of out to equal the same field of
// in, except the fields ex names.
//
// Witness fields are compared only when both record versions define them. A
// field that only the output version defines must carry its zero value
// unless excepted.
func VerifyConsistency(in, out *AccountCell, ex Exceptions) error {
	if !typeEqual(in, out) {
		return newVerifyError(ErrCodeAccountCellTypeShouldNotBeModified,
			"type script of %s differs from %s", out, in)
	}
	if err := verifyLockChange(in, out, ex.Lock); err != nil {
		return err
	}

	inData, outData := in.Data.Fields(), out.Data.Fields()
	for _, k := range outData.SortedKeys() {
		if slices.Contains(ex.Data, k) {
			continue
		}
		if !ir.EqualValues(inData[k], outData[k]) {
			return newVerifyError(ErrCodeAccountCellDataNotConsistent, "data field %s of %s was modified", k, out).
				With("field", k)
		}
	}

	if out.Record.Version() < in.Record.Version() {
		return newVerifyError(ErrCodeWitnessVersionUnsupported,
			"record version of %s is %d, below input version %d", out, out.Record.Version(), in.Record.Version())
	}

	inFields, outFields := in.Record.Fields(), out.Record.Fields()
	for _, k := range outFields.SortedKeys() {
		if slices.Contains(ex.Witness, k) {
			continue
		}
		if inFields.Has(k) {
			if !ir.EqualValues(inFields[k], outFields[k]) {
				return newVerifyError(ErrCodeAccountCellProtectFieldIsModified,
					"witness field %s of %s was modified", k, out).With("field", k)
			}
			continue
		}
		if !ir.IsZeroValue(outFields[k]) {
			return newVerifyError(ErrCodeAccountCellProtectFieldIsModified,
				"witness field %s of %s is new and must be zero", k, out).With("field", k)
		}
	}
	return nil
}

func typeEqual(in, out *AccountCell) bool {
	a, b := in.Cell.Type, out.Cell.Type
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func verifyLockChange(in, out *AccountCell, change LockChange) error {
	inLock, outLock := in.Cell.Lock, out.Cell.Lock
	if inLock.CodeHash != outLock.CodeHash || inLock.HashType != outLock.HashType {
		return newVerifyError(ErrCodeAccountCellLockShouldNotBeModified, "lock script of %s was replaced", out)
	}
	switch change {
	case LockKeep:
		if !inLock.Equal(outLock) {
			return newVerifyError(ErrCodeAccountCellLockShouldNotBeModified, "lock args of %s were modified", out)
		}
	case LockOwner:
		if in.Args.SameOwner(out.Args) {
			return newVerifyError(ErrCodeAccountCellOwnerLockShouldBeChanged, "owner of %s should change", out)
		}
	case LockManager:
		if !in.Args.SameOwner(out.Args) {
			return newVerifyError(ErrCodeAccountCellLockShouldNotBeModified, "owner of %s should not change", out)
		}
		if in.Args.SameManager(out.Args) {
			return newVerifyError(ErrCodeAccountCellManagerLockShouldChange, "manager of %s should change", out)
		}
	}
	return nil
}

// verifyRecordsEmpty requires the output record to carry no records.
func verifyRecordsEmpty(out *AccountCell) error {
	if n := len(out.Record.Records()); n != 0 {
		return newVerifyError(ErrCodeAccountCellRecordNotEmpty, "%s still carries %d records", out, n)
	}
	return nil
}

// Record types accepted by edit_records.
const (
	RecordTypeAddress   = "address"
	RecordTypeProfile   = "profile"
	RecordTypeText      = "text"
	RecordTypeCustomKey = "custom_key"
	RecordTypeDweb      = "dweb"
)

const customKeyCharset = "0123456789abcdefghijklmnopqrstuvwxyz_"

// VerifyRecordKeys checks every record key and the total record size.
func VerifyRecordKeys(cfg config.Records, maxSize uint32, records ir.Records) error {
	for i, r := range records {
		if !validRecordKey(cfg, r) {
			return newVerifyError(ErrCodeAccountCellRecordKeyInvalid, "record %d has invalid key %s.%s", i, r.Type, r.Key).
				With("index", i)
		}
	}
	if size := records.Size(); maxSize > 0 && size > int(maxSize) {
		return newVerifyError(ErrCodeAccountCellRecordSizeTooLarge, "records take %d bytes, limit is %d", size, maxSize)
	}
	return nil
}

func validRecordKey(cfg config.Records, r ir.Record) bool {
	if r.Key == "" {
		return false
	}
	switch r.Type {
	case RecordTypeAddress:
		for _, ch := range r.Key {
			if !unicode.IsDigit(ch) || ch > unicode.MaxASCII {
				return false
			}
		}
		_, err := strconv.ParseUint(r.Key, 10, 32)
		return err == nil
	case RecordTypeCustomKey:
		for _, ch := range r.Key {
			if !strings.ContainsRune(customKeyCharset, ch) {
				return false
			}
		}
		return true
	case RecordTypeProfile, RecordTypeText, RecordTypeDweb:
		return cfg.HasKey(r.Type + "." + r.Key)
	default:
		return false
	}
}
