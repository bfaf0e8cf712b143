package sign

import (
	"bytes"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"

	"github.com/roach88/accountcell/internal/ir"
)

const (
	ethMessagePrefix  = "\x19Ethereum Signed Message:\n32"
	tronMessagePrefix = "\x19TRON Signed Message:\n32"
)

func keccak256(parts ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// PersonalMessage is the hash a wallet signs for digest under prefix.
func PersonalMessage(prefix string, digest ir.Hash) []byte {
	return keccak256([]byte(prefix), digest[:])
}

// EthAddress is the 20-byte address of pub.
func EthAddress(pub *secp256k1.PublicKey) []byte {
	return keccak256(pub.SerializeUncompressed()[1:])[12:]
}

func verifyAddress(sig, hash, args []byte) error {
	pub, err := recoverPubKey(sig, hash)
	if err != nil {
		return err
	}
	if !bytes.Equal(EthAddress(pub), args) {
		return invalid("signer does not match lock args")
	}
	return nil
}

// ETH verifies personal-message signatures against an Ethereum address.
type ETH struct{}

func (ETH) Verify(digest ir.Hash, witnessLock, args []byte) error {
	return verifyAddress(witnessLock, PersonalMessage(ethMessagePrefix, digest), args)
}

// TRON verifies TRON personal-message signatures. Args carry the address
// without its 0x41 network byte.
type TRON struct{}

func (TRON) Verify(digest ir.Hash, witnessLock, args []byte) error {
	return verifyAddress(witnessLock, PersonalMessage(tronMessagePrefix, digest), args)
}

// ETHTypedData verifies a signature over an EIP-712 typed-data hash. The
// witness lock is signature(65) ‖ typed_data_hash(32); the eip712 companion
// binds the typed data to the transaction.
type ETHTypedData struct{}

func (ETHTypedData) Verify(_ ir.Hash, witnessLock, args []byte) error {
	if len(witnessLock) != RecoverableSigLen+32 {
		return invalid("typed-data witness is %d bytes, want %d", len(witnessLock), RecoverableSigLen+32)
	}
	return verifyAddress(witnessLock[:RecoverableSigLen], witnessLock[RecoverableSigLen:], args)
}
