package tx

import (
	"encoding/binary"
	"fmt"

	"github.com/suffix-labs/legacy-tx/pkg/crypto"
	"github.com/suffix-labs/legacy-tx/pkg/script"
)

// SignatureHash computes the legacy signature hash for input inIndex.
//
// The transaction is copied and the copy is reduced to what the hash type
// commits to:
//   - every input script is emptied, then input inIndex gets connectedScript
//   - NONE drops all outputs and zeroes the other inputs' sequences
//   - ANYONECANPAY keeps only input inIndex
//
// The copy is serialized, hashType is appended as a little-endian uint32 and
// the result is double SHA-256 hashed. The digest is returned in hash order,
// not reversed for display.
//
// SINGLE is rejected with ErrNotImplemented. Base types other than NONE and
// SINGLE commit like ALL. A hash type above 0xff is rejected with
// ErrInvalidArgument: a signature carries only its low byte, so it could
// never verify. The receiver is never modified.
func (t *Transaction) SignatureHash(connectedScript script.Script, inIndex int, hashType SigHashType) ([32]byte, error) {
	if inIndex < 0 || inIndex >= len(t.Ins) {
		return [32]byte{}, &SighashError{
			InputIndex: inIndex,
			HashType:   hashType,
			Message:    fmt.Sprintf("input index out of range (have %d inputs)", len(t.Ins)),
			Cause:      ErrInvalidArgument,
		}
	}
	if hashType > MaxSigHashType {
		return [32]byte{}, &SighashError{
			InputIndex: inIndex,
			HashType:   hashType,
			Message:    "hash type does not fit in the signature's trailing byte",
			Cause:      ErrInvalidArgument,
		}
	}
	if hashType.Base() == SigHashSingle {
		return [32]byte{}, &SighashError{
			InputIndex: inIndex,
			HashType:   hashType,
			Message:    "SIGHASH_SINGLE is not supported",
			Cause:      ErrNotImplemented,
		}
	}

	c := t.Clone()
	for i := range c.Ins {
		c.Ins[i].Script = nil
	}
	c.Ins[inIndex].Script = connectedScript.Clone()

	if hashType.Base() == SigHashNone {
		c.Outs = nil
		for i := range c.Ins {
			if i != inIndex {
				c.Ins[i].Sequence = 0
			}
		}
	}

	if hashType.AnyoneCanPay() {
		c.Ins = c.Ins[inIndex : inIndex+1]
	}

	buf := binary.LittleEndian.AppendUint32(c.Serialize(), uint32(hashType))
	return crypto.DoubleSHA256(buf), nil
}
