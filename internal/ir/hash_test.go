package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdictIDDeterminism(t *testing.T) {
	txHash := Blake2b256([]byte("tx-1"))

	id1, err := VerdictID(txHash, ActionTransferAccount, 0, "cfg")
	require.NoError(t, err)
	id2, err := VerdictID(txHash, ActionTransferAccount, 0, "cfg")
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "VerdictID must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestVerdictIDChangesWithInput(t *testing.T) {
	txHash := Blake2b256([]byte("tx-1"))

	base := MustVerdictID(txHash, ActionTransferAccount, 0, "cfg")
	assert.NotEqual(t, base, MustVerdictID(Blake2b256([]byte("tx-2")), ActionTransferAccount, 0, "cfg"))
	assert.NotEqual(t, base, MustVerdictID(txHash, ActionEditManager, 0, "cfg"))
	assert.NotEqual(t, base, MustVerdictID(txHash, ActionTransferAccount, 146, "cfg"))
	assert.NotEqual(t, base, MustVerdictID(txHash, ActionTransferAccount, 0, "cfg-2"))
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte("same")
	assert.NotEqual(t, hashWithDomain(DomainVerdict, data), hashWithDomain(DomainConfig, data))
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")),
		"null separator must prevent boundary collisions")
}

func TestDeriveAccountID(t *testing.T) {
	id := DeriveAccountID("alice.bit")
	full := Blake2b256([]byte("alice.bit"))

	assert.Equal(t, full[:20], id[:])
	assert.NotEqual(t, id, DeriveAccountID("bob.bit"))
}

func TestBlake2b256Parts(t *testing.T) {
	// Hashing parts is hashing their concatenation.
	assert.Equal(t, Blake2b256([]byte("abcdef")), Blake2b256([]byte("abc"), []byte("def")))
}
