// Package tx implements the legacy transaction model: construction, the
// byte-exact wire codec, the signature-hash algorithm and input signing.
//
// Wire layout (all integers little-endian, counts and lengths CompactSize):
//
//	version        uint32
//	input count    varint
//	  prev hash    [32]byte, wire order (reverse of display)
//	  prev index   uint32
//	  script       varint length + bytes
//	  sequence     uint32
//	output count   varint
//	  value        uint64
//	  script       varint length + bytes
//	locktime       uint32
//
// A Transaction is not safe for concurrent use. Sign independent clones
// instead of sharing one instance.
package tx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/suffix-labs/legacy-tx/pkg/script"
)

// SigHashType selects which parts of a transaction a signature commits to.
type SigHashType uint32

// Signature hash types.
const (
	SigHashAll          SigHashType = 0x01 // Commit to all inputs and outputs
	SigHashNone         SigHashType = 0x02 // Commit to inputs only
	SigHashSingle       SigHashType = 0x03 // Commit to the output at the same index
	SigHashAnyoneCanPay SigHashType = 0x80 // Commit to the signed input only

	// SigHashMask extracts the base type from a hash type.
	SigHashMask SigHashType = 0x1f

	// MaxSigHashType is the largest hash type a signature can carry.
	MaxSigHashType SigHashType = 0xff
)

// Base returns the hash type with the ANYONECANPAY modifier removed.
func (h SigHashType) Base() SigHashType {
	return h & SigHashMask
}

// AnyoneCanPay reports whether the ANYONECANPAY modifier is set.
func (h SigHashType) AnyoneCanPay() bool {
	return h&SigHashAnyoneCanPay != 0
}

var sigHashNames = map[SigHashType]string{
	SigHashAll:    "ALL",
	SigHashNone:   "NONE",
	SigHashSingle: "SINGLE",
}

// String returns names like "ALL" or "NONE|ANYONECANPAY", or the hex value
// for unknown base types.
func (h SigHashType) String() string {
	name, ok := sigHashNames[h.Base()]
	if !ok || h&^(SigHashMask|SigHashAnyoneCanPay) != 0 {
		return fmt.Sprintf("0x%02x", uint32(h))
	}
	if h.AnyoneCanPay() {
		name += "|ANYONECANPAY"
	}
	return name
}

// ParseSigHashType parses a hash type by name ("all", "none|anyonecanpay")
// or as a number ("1", "0x81"). Numbers above 0xff are rejected.
func ParseSigHashType(s string) (SigHashType, error) {
	if n, err := strconv.ParseUint(s, 0, 32); err == nil {
		if SigHashType(n) > MaxSigHashType {
			return 0, argumentError("hash type", fmt.Sprintf("%s exceeds 0xff", s), nil)
		}
		return SigHashType(n), nil
	}

	base, modifier, hasModifier := strings.Cut(strings.ToUpper(s), "|")
	var h SigHashType
	for t, name := range sigHashNames {
		if name == base {
			h = t
		}
	}
	if h == 0 {
		return 0, argumentError("hash type", strconv.Quote(s), nil)
	}
	if hasModifier {
		if modifier != "ANYONECANPAY" {
			return 0, argumentError("hash type", strconv.Quote(s), nil)
		}
		h |= SigHashAnyoneCanPay
	}
	return h, nil
}

const (
	// DefaultVersion is the version of newly created transactions.
	DefaultVersion uint32 = 1

	// DefaultSequence marks an input as final.
	DefaultSequence uint32 = 0xffffffff

	// DefaultFeePerKb is the fee rate used by EstimateFee callers that have
	// no better figure, in base units per 1000 bytes.
	DefaultFeePerKb uint64 = 20000
)

// Outpoint identifies an output of a previous transaction.
type Outpoint struct {
	Hash  chainhash.Hash // Previous transaction id, stored in wire order
	Index uint32         // Output index in the previous transaction
}

// String returns "hash:index" with the hash in display order.
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash, o.Index)
}

// TxIn spends a previous output.
type TxIn struct {
	PreviousOutpoint Outpoint
	Script           script.Script // Unlocking script, empty until signed
	Sequence         uint32
}

// TxOut creates a new spendable output.
type TxOut struct {
	Value   uint64
	Script  script.Script // Locking script
	Address string        // Display only, derived from Script when it has an address form
}

// OutputRecord describes a previous output an input spends. SignWithKeys
// uses it to pick the key for each input.
type OutputRecord struct {
	Address string
	Value   uint64
}

func (in TxIn) clone() TxIn {
	in.Script = in.Script.Clone()
	return in
}

func (out TxOut) clone() TxOut {
	out.Script = out.Script.Clone()
	return out
}

func (in TxIn) equal(other TxIn) bool {
	return in.PreviousOutpoint == other.PreviousOutpoint &&
		in.Sequence == other.Sequence &&
		in.Script.Equal(other.Script)
}

func (out TxOut) equal(other TxOut) bool {
	return out.Value == other.Value && out.Script.Equal(other.Script)
}
