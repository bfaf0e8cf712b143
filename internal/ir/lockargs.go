package ir

import (
	"bytes"
	"errors"
	"fmt"
)

// BlackHoleArgs is the owner args of an account whose owner has been burned
// by a cross-chain keeper. Refunds owed to it go to the platform wallet.
var BlackHoleArgs = make([]byte, 20)

// ErrMalformedLockArgs is returned when lock args do not follow the
// owner/manager layout.
var ErrMalformedLockArgs = errors.New("malformed lock args")

// LockArgs is the parsed args of an account cell lock:
//
//	owner_kind(1) ‖ owner_args(n) ‖ manager_kind(1) ‖ manager_args(n)
type LockArgs struct {
	OwnerKind   LockKind
	Owner       Bytes
	ManagerKind LockKind
	Manager     Bytes
}

// ParseLockArgs parses the owner/manager args layout.
func ParseLockArgs(b []byte) (LockArgs, error) {
	var a LockArgs
	rest := b
	var err error
	if a.OwnerKind, a.Owner, rest, err = splitRole(rest); err != nil {
		return LockArgs{}, fmt.Errorf("owner: %w", err)
	}
	if a.ManagerKind, a.Manager, rest, err = splitRole(rest); err != nil {
		return LockArgs{}, fmt.Errorf("manager: %w", err)
	}
	if len(rest) != 0 {
		return LockArgs{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformedLockArgs, len(rest))
	}
	return a, nil
}

func splitRole(b []byte) (LockKind, Bytes, []byte, error) {
	if len(b) < 1 {
		return 0, nil, nil, fmt.Errorf("%w: missing kind byte", ErrMalformedLockArgs)
	}
	kind := LockKind(b[0])
	n := kind.ArgsLen()
	if n == 0 {
		return 0, nil, nil, fmt.Errorf("%w: unknown lock kind %d", ErrMalformedLockArgs, b[0])
	}
	if len(b) < 1+n {
		return 0, nil, nil, fmt.Errorf("%w: %s args need %d bytes", ErrMalformedLockArgs, kind, n)
	}
	return kind, Bytes(append([]byte(nil), b[1:1+n]...)), b[1+n:], nil
}

// Bytes encodes the args back into the wire layout.
func (a LockArgs) Bytes() Bytes {
	out := make([]byte, 0, 2+len(a.Owner)+len(a.Manager))
	out = append(out, byte(a.OwnerKind))
	out = append(out, a.Owner...)
	out = append(out, byte(a.ManagerKind))
	out = append(out, a.Manager...)
	return out
}

// OwnerOnly returns args where the manager half is a copy of the owner half.
// This is the lock that refunds and change are addressed to.
func (a LockArgs) OwnerOnly() LockArgs {
	return LockArgs{
		OwnerKind:   a.OwnerKind,
		Owner:       append(Bytes(nil), a.Owner...),
		ManagerKind: a.OwnerKind,
		Manager:     append(Bytes(nil), a.Owner...),
	}
}

// SameOwner reports whether both args carry the same owner half.
func (a LockArgs) SameOwner(o LockArgs) bool {
	return a.OwnerKind == o.OwnerKind && bytes.Equal(a.Owner, o.Owner)
}

// SameManager reports whether both args carry the same manager half.
func (a LockArgs) SameManager(o LockArgs) bool {
	return a.ManagerKind == o.ManagerKind && bytes.Equal(a.Manager, o.Manager)
}

// OwnerIsManager reports whether the owner also holds the manager role.
func (a LockArgs) OwnerIsManager() bool {
	return a.OwnerKind == a.ManagerKind && bytes.Equal(a.Owner, a.Manager)
}

// OwnerIsBlackHole reports whether the owner args are the burn sentinel.
func (a LockArgs) OwnerIsBlackHole() bool {
	return bytes.Equal(a.Owner, BlackHoleArgs)
}

// RoleArgs returns the kind and args authorized for role.
func (a LockArgs) RoleArgs(r Role) (LockKind, Bytes) {
	if r == RoleManager {
		return a.ManagerKind, a.Manager
	}
	return a.OwnerKind, a.Owner
}

// OwnerKey identifies the owner half as a string key, used to sum ledger
// balances per address.
func (a LockArgs) OwnerKey() string {
	return Bytes(append([]byte{byte(a.OwnerKind)}, a.Owner...)).String()
}
