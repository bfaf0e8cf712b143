package sign

import (
	"crypto/ed25519"

	"github.com/roach88/accountcell/internal/ir"
)

// MIXIN verifies ed25519 signatures; the args are the public key.
type MIXIN struct{}

func (MIXIN) Verify(digest ir.Hash, witnessLock, args []byte) error {
	if len(args) != ed25519.PublicKeySize {
		return invalid("mixin args are %d bytes, want %d", len(args), ed25519.PublicKeySize)
	}
	if len(witnessLock) != ed25519.SignatureSize {
		return invalid("mixin signature is %d bytes, want %d", len(witnessLock), ed25519.SignatureSize)
	}
	if !ed25519.Verify(ed25519.PublicKey(args), digest[:], witnessLock) {
		return invalid("ed25519 signature does not verify")
	}
	return nil
}
