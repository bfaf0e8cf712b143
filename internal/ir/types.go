package ir

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash is a 32-byte ledger hash (code hashes, tx hashes, witness bindings).
type Hash [32]byte

// String returns the 0x-prefixed hex form.
func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// IsZero reports whether every byte is zero.
func (h Hash) IsZero() bool { return h == Hash{} }

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	b, err := ParseBytes(string(text))
	if err != nil {
		return err
	}
	if len(b) != len(h) {
		return fmt.Errorf("hash must be %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return nil
}

// ParseHash parses a 0x-prefixed (or bare) 32-byte hex string.
func ParseHash(s string) (Hash, error) {
	var h Hash
	err := h.UnmarshalText([]byte(s))
	return h, err
}

// MustParseHash is like ParseHash but panics on error.
func MustParseHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

// Bytes is a byte string that encodes as 0x-prefixed hex in text formats.
type Bytes []byte

// String returns the 0x-prefixed hex form.
func (b Bytes) String() string { return "0x" + hex.EncodeToString(b) }

// MarshalText implements encoding.TextMarshaler.
func (b Bytes) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bytes) UnmarshalText(text []byte) error {
	parsed, err := ParseBytes(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBytes decodes hex with an optional 0x prefix.
func ParseBytes(s string) (Bytes, error) {
	s = strings.TrimPrefix(s, "0x")
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return out, nil
}

// AccountID is the 20-byte account identifier.
type AccountID [20]byte

// String returns the 0x-prefixed hex form.
func (id AccountID) String() string { return "0x" + hex.EncodeToString(id[:]) }

// MarshalText implements encoding.TextMarshaler.
func (id AccountID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *AccountID) UnmarshalText(text []byte) error {
	b, err := ParseBytes(string(text))
	if err != nil {
		return err
	}
	if len(b) != len(id) {
		return fmt.Errorf("account id must be %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return nil
}

// HashType selects how a script's code hash is matched.
type HashType uint8

const (
	HashTypeData  HashType = 0
	HashTypeType  HashType = 1
	HashTypeData1 HashType = 2
)

var hashTypeNames = map[HashType]string{
	HashTypeData:  "data",
	HashTypeType:  "type",
	HashTypeData1: "data1",
}

func (t HashType) String() string {
	if s, ok := hashTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("hash_type(%d)", uint8(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t HashType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *HashType) UnmarshalText(text []byte) error {
	for k, v := range hashTypeNames {
		if v == string(text) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown hash_type %q", string(text))
}

// Script is a lock or type script reference.
type Script struct {
	CodeHash Hash     `json:"code_hash" yaml:"code_hash"`
	HashType HashType `json:"hash_type" yaml:"hash_type"`
	Args     Bytes    `json:"args" yaml:"args"`
}

// Equal compares scripts field by field.
func (s Script) Equal(o Script) bool {
	return s.CodeHash == o.CodeHash && s.HashType == o.HashType && bytes.Equal(s.Args, o.Args)
}

// WithArgs returns a copy of s carrying args.
func (s Script) WithArgs(args []byte) Script {
	s.Args = append(Bytes(nil), args...)
	return s
}

// IR returns the script as an IRObject.
func (s Script) IR() IRObject {
	return IRObject{
		"code_hash": IRString(s.CodeHash.String()),
		"hash_type": IRString(s.HashType.String()),
		"args":      IRHex(s.Args),
	}
}

// Role selects which half of the lock args must authorize an action.
type Role uint8

const (
	RoleOwner   Role = 0
	RoleManager Role = 1
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleManager:
		return "manager"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}
