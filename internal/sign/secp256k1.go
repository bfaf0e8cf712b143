package sign

import (
	"bytes"
	"crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/ripemd160"

	"github.com/roach88/accountcell/internal/ir"
)

// RecoverableSigLen is the length of an r ‖ s ‖ v signature.
const RecoverableSigLen = 65

// recoverPubKey recovers the signer of hash from an r ‖ s ‖ v signature.
// v is the recovery id, optionally offset by 27.
func recoverPubKey(sig, hash []byte) (*secp256k1.PublicKey, error) {
	if len(sig) != RecoverableSigLen {
		return nil, invalid("signature is %d bytes, want %d", len(sig), RecoverableSigLen)
	}
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 3 {
		return nil, invalid("recovery id %d out of range", sig[64])
	}
	compact := make([]byte, RecoverableSigLen)
	compact[0] = 27 + 4 + v
	copy(compact[1:], sig[:64])
	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, invalid("%v", err)
	}
	return pub, nil
}

// CompactToRecoverable converts a decred compact signature into r ‖ s ‖ v.
func CompactToRecoverable(compact []byte) []byte {
	out := make([]byte, 0, RecoverableSigLen)
	out = append(out, compact[1:]...)
	return append(out, (compact[0]-27)&3)
}

// CKBSingle verifies secp256k1 signatures against blake160(pubkey) args.
type CKBSingle struct{}

func (CKBSingle) Verify(digest ir.Hash, witnessLock, args []byte) error {
	pub, err := recoverPubKey(witnessLock, digest[:])
	if err != nil {
		return err
	}
	hash := ir.Blake160(pub.SerializeCompressed())
	if !bytes.Equal(hash[:], args) {
		return invalid("signer does not match lock args")
	}
	return nil
}

// Multisig script layout: reserved(1) ‖ require_first_n(1) ‖ threshold(1) ‖
// pubkeys(1) ‖ blake160 hashes.
const multisigHeaderLen = 4

// MultisigScript encodes a multisig script over key hashes.
func MultisigScript(requireFirstN, threshold uint8, hashes [][20]byte) []byte {
	out := []byte{0, requireFirstN, threshold, uint8(len(hashes))}
	for _, h := range hashes {
		out = append(out, h[:]...)
	}
	return out
}

// CKBMulti verifies threshold multisig. The witness lock is the multisig
// script followed by threshold signatures. Args are blake160(script),
// optionally followed by a u64 since that the signed message commits to.
type CKBMulti struct{}

func (CKBMulti) Verify(digest ir.Hash, witnessLock, args []byte) error {
	if len(args) != 20 && len(args) != 28 {
		return invalid("multisig args are %d bytes", len(args))
	}
	if len(witnessLock) < multisigHeaderLen {
		return invalid("multisig witness is too short")
	}
	requireFirstN, threshold, n := int(witnessLock[1]), int(witnessLock[2]), int(witnessLock[3])
	if threshold == 0 || threshold > n || requireFirstN > threshold {
		return invalid("multisig %d-of-%d with first %d is malformed", threshold, n, requireFirstN)
	}
	scriptLen := multisigHeaderLen + 20*n
	if len(witnessLock) != scriptLen+threshold*RecoverableSigLen {
		return invalid("multisig witness is %d bytes, want %d", len(witnessLock), scriptLen+threshold*RecoverableSigLen)
	}
	script := witnessLock[:scriptLen]
	scriptHash := ir.Blake160(script)
	if !bytes.Equal(scriptHash[:], args[:20]) {
		return invalid("multisig script does not match lock args")
	}

	message := digest
	if len(args) == 28 {
		message = ir.Blake2b256(digest[:], args[20:])
	}
	used := make([]bool, n)
	for i := 0; i < threshold; i++ {
		sig := witnessLock[scriptLen+i*RecoverableSigLen : scriptLen+(i+1)*RecoverableSigLen]
		pub, err := recoverPubKey(sig, message[:])
		if err != nil {
			return err
		}
		h := ir.Blake160(pub.SerializeCompressed())
		idx := -1
		for j := 0; j < n; j++ {
			if bytes.Equal(script[multisigHeaderLen+20*j:multisigHeaderLen+20*(j+1)], h[:]) {
				idx = j
				break
			}
		}
		if idx < 0 || used[idx] {
			return invalid("signature %d is not from a distinct member", i)
		}
		used[idx] = true
	}
	for j := 0; j < requireFirstN; j++ {
		if !used[j] {
			return invalid("member %d is required to sign", j)
		}
	}
	return nil
}

// DOGE verifies signatures over the double sha256 of the digest against
// ripemd160(sha256(pubkey)) args.
type DOGE struct{}

// DogeMessage is the hash DOGE signatures sign.
func DogeMessage(digest ir.Hash) []byte {
	first := sha256.Sum256(digest[:])
	second := sha256.Sum256(first[:])
	return second[:]
}

// DogeAddress is the pubkey hash DOGE lock args carry.
func DogeAddress(pub *secp256k1.PublicKey) []byte {
	sum := sha256.Sum256(pub.SerializeCompressed())
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

func (DOGE) Verify(digest ir.Hash, witnessLock, args []byte) error {
	pub, err := recoverPubKey(witnessLock, DogeMessage(digest))
	if err != nil {
		return err
	}
	if !bytes.Equal(DogeAddress(pub), args) {
		return invalid("signer does not match lock args")
	}
	return nil
}
