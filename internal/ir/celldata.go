package ir

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedCellData is returned when raw cell data is shorter than its
// layout requires.
var ErrMalformedCellData = errors.New("malformed cell data")

const accountDataHeaderLen = 32 + 20 + 20 + 8

// AccountCellData is the raw data of an account cell:
//
//	witness_hash(32) ‖ id(20) ‖ next(20) ‖ expired_at(u64 LE) ‖ account
type AccountCellData struct {
	WitnessHash Hash
	ID          AccountID
	Next        AccountID
	ExpiredAt   uint64
	Account     string
}

// Data field names used by consistency exceptions.
const (
	DataFieldID        = "id"
	DataFieldNext      = "next"
	DataFieldExpiredAt = "expired_at"
	DataFieldAccount   = "account"
)

// ParseAccountCellData parses the account cell data layout.
func ParseAccountCellData(b []byte) (AccountCellData, error) {
	if len(b) <= accountDataHeaderLen {
		return AccountCellData{}, fmt.Errorf("%w: account cell data is %d bytes", ErrMalformedCellData, len(b))
	}
	var d AccountCellData
	copy(d.WitnessHash[:], b[0:32])
	copy(d.ID[:], b[32:52])
	copy(d.Next[:], b[52:72])
	d.ExpiredAt = binary.LittleEndian.Uint64(b[72:80])
	d.Account = string(b[80:])
	return d, nil
}

// Bytes encodes the data layout.
func (d AccountCellData) Bytes() Bytes {
	out := make([]byte, accountDataHeaderLen, accountDataHeaderLen+len(d.Account))
	copy(out[0:32], d.WitnessHash[:])
	copy(out[32:52], d.ID[:])
	copy(out[52:72], d.Next[:])
	binary.LittleEndian.PutUint64(out[72:80], d.ExpiredAt)
	return append(out, d.Account...)
}

// Fields returns the data fields subject to consistency checks.
// The witness hash is excluded: it tracks the record and is bound separately.
func (d AccountCellData) Fields() IRObject {
	return IRObject{
		DataFieldID:        IRHex(d.ID[:]),
		DataFieldNext:      IRHex(d.Next[:]),
		DataFieldExpiredAt: IRUint(d.ExpiredAt),
		DataFieldAccount:   IRString(d.Account),
	}
}

// SubAccountCellData is the raw data of a sub-account cell:
//
//	smt_root(32) ‖ das_profit(u64 LE) ‖ owner_profit(u64 LE)
type SubAccountCellData struct {
	SMTRoot     Hash
	DasProfit   uint64
	OwnerProfit uint64
}

// ParseSubAccountCellData parses the sub-account cell data layout.
func ParseSubAccountCellData(b []byte) (SubAccountCellData, error) {
	if len(b) < 48 {
		return SubAccountCellData{}, fmt.Errorf("%w: sub-account cell data is %d bytes", ErrMalformedCellData, len(b))
	}
	var d SubAccountCellData
	copy(d.SMTRoot[:], b[0:32])
	d.DasProfit = binary.LittleEndian.Uint64(b[32:40])
	d.OwnerProfit = binary.LittleEndian.Uint64(b[40:48])
	return d, nil
}

// Bytes encodes the data layout.
func (d SubAccountCellData) Bytes() Bytes {
	out := make([]byte, 48)
	copy(out[0:32], d.SMTRoot[:])
	binary.LittleEndian.PutUint64(out[32:40], d.DasProfit)
	binary.LittleEndian.PutUint64(out[40:48], d.OwnerProfit)
	return out
}

// ParsePointsCellData reads the balance held by a points ledger cell.
func ParsePointsCellData(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, fmt.Errorf("%w: points cell data is %d bytes", ErrMalformedCellData, len(b))
	}
	return binary.LittleEndian.Uint64(b[0:8]), nil
}

// PointsCellData encodes a points ledger balance.
func PointsCellData(amount uint64) Bytes {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, amount)
	return out
}

// OracleKind selects which value an oracle cell publishes.
type OracleKind uint8

const (
	OracleQuote  OracleKind = 0
	OracleTime   OracleKind = 1
	OracleHeight OracleKind = 2
)

func (k OracleKind) String() string {
	switch k {
	case OracleQuote:
		return "quote"
	case OracleTime:
		return "time"
	case OracleHeight:
		return "height"
	default:
		return fmt.Sprintf("oracle(%d)", uint8(k))
	}
}

// ParseOracleCellData reads kind(1) ‖ value(u64 BE).
func ParseOracleCellData(b []byte) (OracleKind, uint64, error) {
	if len(b) < 9 {
		return 0, 0, fmt.Errorf("%w: oracle cell data is %d bytes", ErrMalformedCellData, len(b))
	}
	return OracleKind(b[0]), binary.BigEndian.Uint64(b[1:9]), nil
}

// OracleCellData encodes an oracle value.
func OracleCellData(kind OracleKind, value uint64) Bytes {
	out := make([]byte, 9)
	out[0] = byte(kind)
	binary.BigEndian.PutUint64(out[1:], value)
	return out
}
