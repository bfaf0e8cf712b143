package ir

import (
	"bytes"
	"fmt"
	"slices"
	"unicode/utf16"
)

// IRValue is a sealed interface representing the values a record field may
// hold when it is compared or hashed. Only IRString, IRInt, IRBool, IRArray
// and IRObject implement it. NO floats.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRString represents a string value. Byte fields are carried as 0x-prefixed hex.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value. Always int64, never float64.
type IRInt int64

func (IRInt) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an ordered list of values.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to values.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// IRUint converts an unsigned quantity into an IRInt.
// Capacities, prices and timestamps all fit comfortably in int64.
func IRUint(n uint64) IRInt {
	return IRInt(int64(n))
}

// IRHex encodes bytes as a 0x-prefixed lowercase hex IRString.
func IRHex(b []byte) IRString {
	return IRString(Bytes(b).String())
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's string ordering compares UTF-8 bytes, which differs for astral runes.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// Has reports whether the object defines key.
func (obj IRObject) Has(key string) bool {
	_, ok := obj[key]
	return ok
}

// MarshalJSON renders the object as canonical JSON so that diagnostics and
// journal rows print fields in a stable order.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(obj)
}

// EqualValues reports whether two values have identical canonical encodings.
// A nil value only equals another nil value.
func EqualValues(a, b IRValue) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ab, err := MarshalCanonical(a)
	if err != nil {
		return false
	}
	bb, err := MarshalCanonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// IsZeroValue reports whether v is the zero value of its kind: "", 0, false,
// an empty array or an empty object. Zero-valued hex strings ("0x", "0x00..")
// also count as zero.
func IsZeroValue(v IRValue) bool {
	switch val := v.(type) {
	case nil:
		return true
	case IRString:
		if val == "" || val == "0x" {
			return true
		}
		b, err := ParseBytes(string(val))
		if err != nil {
			return false
		}
		for _, c := range b {
			if c != 0 {
				return false
			}
		}
		return true
	case IRInt:
		return val == 0
	case IRBool:
		return !bool(val)
	case IRArray:
		return len(val) == 0
	case IRObject:
		return len(val) == 0
	default:
		panic(fmt.Sprintf("ir: unknown IRValue type %T", v))
	}
}
