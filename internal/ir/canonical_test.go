package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("alice.bit"), `"alice.bit"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"uint64", uint64(18446744073709551615), "18446744073709551615"},
		{"bool", IRBool(true), "true"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"array", IRArray{IRInt(1), IRString("a")}, `[1,"a"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := IRObject{
		"status":  IRString("normal"),
		"account": IRString("alice.bit"),
		"records": IRArray{IRObject{"value": IRString("x"), "key": IRString("email")}},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"account":"alice.bit","records":[{"key":"email","value":"x"}],"status":"normal"}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as the surrogate pair D800 DC00 and sorts before U+E000.
	obj := IRObject{
		"\ue000":     IRInt(1),
		"\U00010000": IRInt(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\ue000\":1}", string(result))
}

func TestMarshalCanonicalEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"html untouched", "<a>&</a>", `"<a>&</a>"`},
		{"quote", `say "hi"`, `"say \"hi\""`},
		{"backslash", `a\b`, `"a\\b"`},
		{"newline and tab", "a\n\tb", `"a\n\tb"`},
		{"control", "a\x01b", `"a\u0001b"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"literal backslash u2028 text", `\u2028`, `"\\u2028"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "é" as e + combining acute (NFD) must serialize as the precomposed rune.
	decomposed := IRString("e\u0301")
	composed := IRString("\u00e9")

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestMarshalCanonicalRejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(IRObject{"k": nil})
	assert.Error(t, err)
}

func TestEqualValues(t *testing.T) {
	a := IRObject{"x": IRArray{IRInt(1)}, "y": IRBool(false)}
	b := IRObject{"y": IRBool(false), "x": IRArray{IRInt(1)}}
	c := IRObject{"x": IRArray{IRInt(2)}, "y": IRBool(false)}

	assert.True(t, EqualValues(a, b))
	assert.False(t, EqualValues(a, c))
	assert.False(t, EqualValues(a, nil))
	assert.True(t, EqualValues(nil, nil))
}

func TestIsZeroValue(t *testing.T) {
	assert.True(t, IsZeroValue(IRInt(0)))
	assert.True(t, IsZeroValue(IRBool(false)))
	assert.True(t, IsZeroValue(IRObject{}))
	assert.True(t, IsZeroValue(IRHex(make([]byte, 20))))
	assert.False(t, IsZeroValue(IRInt(1)))
	assert.False(t, IsZeroValue(IRString("alice")))
	assert.False(t, IsZeroValue(IRArray{IRInt(0)}))
}
