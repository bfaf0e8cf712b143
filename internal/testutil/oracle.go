package testutil

import (
	"bytes"
	"fmt"

	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/sign"
)

// FakeOracle is a deterministic signature oracle for tests. It accepts
// exactly the witness locks produced by FakeSign and rejects WebAuthn and
// Reserved kinds like the real registry.
//
// Thread-safety: FakeOracle is stateless and safe for concurrent use.
type FakeOracle struct{}

var _ sign.Oracle = FakeOracle{}

// FakeSign returns the witness lock FakeOracle accepts for (kind, digest, args).
func FakeSign(kind ir.LockKind, digest ir.Hash, args []byte) []byte {
	h := ir.Blake2b256([]byte("accountcell/fake-signature"), []byte{byte(kind)}, digest[:], args)
	return h[:]
}

// Verify implements sign.Oracle.
func (FakeOracle) Verify(kind ir.LockKind, digest ir.Hash, witnessLock, args []byte) error {
	switch kind {
	case ir.LockWebAuthn, ir.LockReserved:
		return fmt.Errorf("%w: %s", sign.ErrUnsupportedAlgorithm, kind)
	}
	if !bytes.Equal(witnessLock, FakeSign(kind, digest, args)) {
		return fmt.Errorf("%w: fake signature mismatch", sign.ErrSignatureInvalid)
	}
	return nil
}
