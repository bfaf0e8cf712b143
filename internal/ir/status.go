package ir

import (
	"fmt"
	"strconv"
)

// AccountStatus is the lifecycle state stored in an account record.
// Expiration windows (grace, auction, post-auction) are derived from
// expired_at and never stored here.
type AccountStatus uint8

const (
	StatusNormal              AccountStatus = 0
	StatusSelling             AccountStatus = 1
	StatusAuction             AccountStatus = 2
	StatusLockedForCrossChain AccountStatus = 3
	StatusApprovedTransfer    AccountStatus = 4
)

var statusNames = map[AccountStatus]string{
	StatusNormal:              "normal",
	StatusSelling:             "selling",
	StatusAuction:             "auction",
	StatusLockedForCrossChain: "locked_for_cross_chain",
	StatusApprovedTransfer:    "approved_transfer",
}

func (s AccountStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Valid reports whether s is a known status.
func (s AccountStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (s AccountStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown account status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *AccountStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseAccountStatus parses a status name.
// Numeric forms are accepted for values written by hand.
func ParseAccountStatus(name string) (AccountStatus, error) {
	for k, v := range statusNames {
		if v == name {
			return k, nil
		}
	}
	if n, err := strconv.ParseUint(name, 10, 8); err == nil && AccountStatus(n).Valid() {
		return AccountStatus(n), nil
	}
	return 0, fmt.Errorf("unknown account status %q", name)
}

// LockKind identifies the signature algorithm of one half of the lock args.
type LockKind uint8

const (
	LockCKBSingle    LockKind = 0
	LockCKBMulti     LockKind = 1
	LockReserved     LockKind = 2
	LockETH          LockKind = 3
	LockTRON         LockKind = 4
	LockETHTypedData LockKind = 5
	LockMIXIN        LockKind = 6
	LockDOGE         LockKind = 7
	LockWebAuthn     LockKind = 8
)

var lockKindNames = map[LockKind]string{
	LockCKBSingle:    "ckb",
	LockCKBMulti:     "ckb_multi",
	LockReserved:     "reserved",
	LockETH:          "eth",
	LockTRON:         "tron",
	LockETHTypedData: "eth_typed_data",
	LockMIXIN:        "mixin",
	LockDOGE:         "doge",
	LockWebAuthn:     "webauthn",
}

func (k LockKind) String() string {
	if name, ok := lockKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("lock_kind(%d)", uint8(k))
}

// ArgsLen returns the length of the per-role args for this kind,
// or 0 when the kind is unknown.
func (k LockKind) ArgsLen() int {
	switch k {
	case LockMIXIN:
		return 32
	case LockWebAuthn:
		return 21
	case LockCKBSingle, LockCKBMulti, LockReserved, LockETH, LockTRON, LockETHTypedData, LockDOGE:
		return 20
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k LockKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *LockKind) UnmarshalText(text []byte) error {
	parsed, err := ParseLockKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseLockKind parses a lock kind name.
func ParseLockKind(name string) (LockKind, error) {
	for k, v := range lockKindNames {
		if v == name {
			return k, nil
		}
	}
	if n, err := strconv.ParseUint(name, 10, 8); err == nil && LockKind(n).ArgsLen() > 0 {
		return LockKind(n), nil
	}
	return 0, fmt.Errorf("unknown lock kind %q", name)
}
