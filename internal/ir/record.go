package ir

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnsupportedVersion is returned for record versions this model does not know.
var ErrUnsupportedVersion = errors.New("unsupported record version")

// Witness field names used by consistency exceptions and throttle rules.
const (
	FieldID                    = "id"
	FieldAccount               = "account"
	FieldRegisteredAt          = "registered_at"
	FieldStatus                = "status"
	FieldRecords               = "records"
	FieldLastTransferAccountAt = "last_transfer_account_at"
	FieldLastEditManagerAt     = "last_edit_manager_at"
	FieldLastEditRecordsAt     = "last_edit_records_at"
	FieldEnableSubAccount      = "enable_sub_account"
	FieldRenewSubAccountPrice  = "renew_sub_account_price"
	FieldApproval              = "approval"
)

// RecordFields is the superset of every field any record version defines.
// It is the construction and decoding shape; NewAccountRecord keeps only the
// fields the chosen version defines.
type RecordFields struct {
	ID                    AccountID     `json:"id" yaml:"id"`
	Account               string        `json:"account" yaml:"account"`
	RegisteredAt          uint64        `json:"registered_at" yaml:"registered_at"`
	Status                AccountStatus `json:"status" yaml:"status"`
	Records               Records       `json:"records" yaml:"records"`
	LastTransferAccountAt uint64        `json:"last_transfer_account_at" yaml:"last_transfer_account_at"`
	LastEditManagerAt     uint64        `json:"last_edit_manager_at" yaml:"last_edit_manager_at"`
	LastEditRecordsAt     uint64        `json:"last_edit_records_at" yaml:"last_edit_records_at"`
	EnableSubAccount      bool          `json:"enable_sub_account" yaml:"enable_sub_account"`
	RenewSubAccountPrice  uint64        `json:"renew_sub_account_price" yaml:"renew_sub_account_price"`
	Approval              Approval      `json:"approval" yaml:"approval"`
}

// AccountRecord is the versioned account record. Accessors for fields that
// a version does not define return ok == false.
type AccountRecord interface {
	Version() uint32
	ID() AccountID
	Account() string
	RegisteredAt() uint64
	Status() AccountStatus
	Records() Records

	LastTransferAccountAt() (uint64, bool)
	LastEditManagerAt() (uint64, bool)
	LastEditRecordsAt() (uint64, bool)
	EnableSubAccount() (bool, bool)
	RenewSubAccountPrice() (uint64, bool)
	Approval() (Approval, bool)

	// Fields returns every defined field keyed by its witness field name.
	Fields() IRObject
	// Snapshot returns the defined fields as a RecordFields value.
	Snapshot() RecordFields
}

// NewAccountRecord builds the record of the given version from f.
func NewAccountRecord(version uint32, f RecordFields) (AccountRecord, error) {
	if !f.Status.Valid() {
		return nil, fmt.Errorf("account status %d is not defined", uint8(f.Status))
	}
	v1 := AccountRecordV1{
		id:           f.ID,
		account:      f.Account,
		registeredAt: f.RegisteredAt,
		status:       f.Status,
		records:      slices.Clone(f.Records),
	}
	v2 := AccountRecordV2{
		AccountRecordV1:       v1,
		lastTransferAccountAt: f.LastTransferAccountAt,
		lastEditManagerAt:     f.LastEditManagerAt,
		lastEditRecordsAt:     f.LastEditRecordsAt,
	}
	v3 := AccountRecordV3{
		AccountRecordV2:      v2,
		enableSubAccount:     f.EnableSubAccount,
		renewSubAccountPrice: f.RenewSubAccountPrice,
	}
	switch version {
	case 1:
		return v1, nil
	case 2:
		return v2, nil
	case 3:
		return v3, nil
	case 4:
		return AccountRecordV4{AccountRecordV3: v3, approval: f.Approval}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}

// MustNewAccountRecord is like NewAccountRecord but panics on error.
func MustNewAccountRecord(version uint32, f RecordFields) AccountRecord {
	r, err := NewAccountRecord(version, f)
	if err != nil {
		panic(err)
	}
	return r
}

// AccountRecordV1 is the original record: identity, status and records.
type AccountRecordV1 struct {
	id           AccountID
	account      string
	registeredAt uint64
	status       AccountStatus
	records      Records
}

func (r AccountRecordV1) Version() uint32                       { return 1 }
func (r AccountRecordV1) ID() AccountID                         { return r.id }
func (r AccountRecordV1) Account() string                       { return r.account }
func (r AccountRecordV1) RegisteredAt() uint64                  { return r.registeredAt }
func (r AccountRecordV1) Status() AccountStatus                 { return r.status }
func (r AccountRecordV1) Records() Records                      { return slices.Clone(r.records) }
func (r AccountRecordV1) LastTransferAccountAt() (uint64, bool) { return 0, false }
func (r AccountRecordV1) LastEditManagerAt() (uint64, bool)     { return 0, false }
func (r AccountRecordV1) LastEditRecordsAt() (uint64, bool)     { return 0, false }
func (r AccountRecordV1) EnableSubAccount() (bool, bool)        { return false, false }
func (r AccountRecordV1) RenewSubAccountPrice() (uint64, bool)  { return 0, false }
func (r AccountRecordV1) Approval() (Approval, bool)            { return Approval{}, false }

func (r AccountRecordV1) Fields() IRObject {
	return IRObject{
		FieldID:           IRHex(r.id[:]),
		FieldAccount:      IRString(r.account),
		FieldRegisteredAt: IRUint(r.registeredAt),
		FieldStatus:       IRString(r.status.String()),
		FieldRecords:      r.records.IR(),
	}
}

func (r AccountRecordV1) Snapshot() RecordFields {
	return RecordFields{
		ID:           r.id,
		Account:      r.account,
		RegisteredAt: r.registeredAt,
		Status:       r.status,
		Records:      slices.Clone(r.records),
	}
}

// AccountRecordV2 adds the throttle timestamps.
type AccountRecordV2 struct {
	AccountRecordV1
	lastTransferAccountAt uint64
	lastEditManagerAt     uint64
	lastEditRecordsAt     uint64
}

func (r AccountRecordV2) Version() uint32                       { return 2 }
func (r AccountRecordV2) LastTransferAccountAt() (uint64, bool) { return r.lastTransferAccountAt, true }
func (r AccountRecordV2) LastEditManagerAt() (uint64, bool)     { return r.lastEditManagerAt, true }
func (r AccountRecordV2) LastEditRecordsAt() (uint64, bool)     { return r.lastEditRecordsAt, true }

func (r AccountRecordV2) Fields() IRObject {
	obj := r.AccountRecordV1.Fields()
	obj[FieldLastTransferAccountAt] = IRUint(r.lastTransferAccountAt)
	obj[FieldLastEditManagerAt] = IRUint(r.lastEditManagerAt)
	obj[FieldLastEditRecordsAt] = IRUint(r.lastEditRecordsAt)
	return obj
}

func (r AccountRecordV2) Snapshot() RecordFields {
	f := r.AccountRecordV1.Snapshot()
	f.LastTransferAccountAt = r.lastTransferAccountAt
	f.LastEditManagerAt = r.lastEditManagerAt
	f.LastEditRecordsAt = r.lastEditRecordsAt
	return f
}

// AccountRecordV3 adds the sub-account switch and its renewal price.
type AccountRecordV3 struct {
	AccountRecordV2
	enableSubAccount     bool
	renewSubAccountPrice uint64
}

func (r AccountRecordV3) Version() uint32                      { return 3 }
func (r AccountRecordV3) EnableSubAccount() (bool, bool)       { return r.enableSubAccount, true }
func (r AccountRecordV3) RenewSubAccountPrice() (uint64, bool) { return r.renewSubAccountPrice, true }

func (r AccountRecordV3) Fields() IRObject {
	obj := r.AccountRecordV2.Fields()
	obj[FieldEnableSubAccount] = IRBool(r.enableSubAccount)
	obj[FieldRenewSubAccountPrice] = IRUint(r.renewSubAccountPrice)
	return obj
}

func (r AccountRecordV3) Snapshot() RecordFields {
	f := r.AccountRecordV2.Snapshot()
	f.EnableSubAccount = r.enableSubAccount
	f.RenewSubAccountPrice = r.renewSubAccountPrice
	return f
}

// AccountRecordV4 adds the approval slot. It is the latest version.
type AccountRecordV4 struct {
	AccountRecordV3
	approval Approval
}

func (r AccountRecordV4) Version() uint32            { return 4 }
func (r AccountRecordV4) Approval() (Approval, bool) { return r.approval, true }

func (r AccountRecordV4) Fields() IRObject {
	obj := r.AccountRecordV3.Fields()
	obj[FieldApproval] = r.approval.IR()
	return obj
}

func (r AccountRecordV4) Snapshot() RecordFields {
	f := r.AccountRecordV3.Snapshot()
	f.Approval = r.approval
	return f
}
