package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Domain prefixes for content-addressed journal identity.
// Version suffix enables future algorithm migration.
const (
	DomainVerdict  = "accountcell/verdict/v1"
	DomainConfig   = "accountcell/config/v1"
	DomainSnapshot = "accountcell/snapshot/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Blake2b256 hashes the concatenation of parts with unkeyed BLAKE2b-256.
// This is the ledger-side hash: witness bindings, account ids, signing
// digests and lock-args hashes all use it.
func Blake2b256(parts ...[]byte) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // unkeyed construction cannot fail
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Blake160 returns the first 20 bytes of Blake2b256(data).
func Blake160(data []byte) [20]byte {
	full := Blake2b256(data)
	var out [20]byte
	copy(out[:], full[:20])
	return out
}

// DeriveAccountID computes the account id for a full account name
// (including its suffix): the first 20 bytes of its BLAKE2b-256 hash.
func DeriveAccountID(account string) AccountID {
	return AccountID(Blake160([]byte(account)))
}

// VerdictID computes the content-addressed id of a journaled verdict.
// The same transaction verified under the same configuration always yields
// the same id, which makes journal writes idempotent.
func VerdictID(txHash Hash, action Action, code int, configDigest string) (string, error) {
	obj := IRObject{
		"tx_hash":       IRString(txHash.String()),
		"action":        IRString(action),
		"code":          IRInt(code),
		"config_digest": IRString(configDigest),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("VerdictID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainVerdict, canonical), nil
}

// ConfigDigest computes the digest of a canonical configuration object.
func ConfigDigest(obj IRObject) (string, error) {
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ConfigDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainConfig, canonical), nil
}

// SnapshotDigest computes the digest of an encoded transaction snapshot.
func SnapshotDigest(encoded []byte) string {
	return hashWithDomain(DomainSnapshot, encoded)
}

// MustVerdictID is like VerdictID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustVerdictID(txHash Hash, action Action, code int, configDigest string) string {
	id, err := VerdictID(txHash, action, code, configDigest)
	if err != nil {
		panic(err)
	}
	return id
}
