// Package script builds, parses and classifies legacy locking and unlocking
// scripts.
//
// Scripts are built, tokenized and classified with btcd's txscript. Only the
// push-data subset of the script language and the standard templates are
// used here. Scripts are never executed.
package script

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// scriptVersion is the only script version legacy transactions carry.
const scriptVersion = 0

var (
	// ErrTruncated is returned when a push extends past the end of the script.
	ErrTruncated = errors.New("script truncated")

	// ErrNotPushOnly is returned by Pushes for a script containing an
	// opcode other than a data push.
	ErrNotPushOnly = errors.New("script is not push-only")
)

// Script is a raw script byte buffer.
type Script []byte

// FromHex decodes a hex-encoded script.
func FromHex(s string) (Script, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding script hex: %w", err)
	}
	return Script(b), nil
}

// FromPushes builds a script that pushes each element in order using the
// smallest push that encodes it. Elements larger than 520 bytes are
// rejected.
func FromPushes(data ...[]byte) (Script, error) {
	b := txscript.NewScriptBuilder()
	for _, d := range data {
		b.AddData(d)
	}
	s, err := b.Script()
	if err != nil {
		return nil, fmt.Errorf("building push script: %w", err)
	}
	return Script(s), nil
}

// Clone returns a deep copy. A nil script stays nil.
func (s Script) Clone() Script {
	if s == nil {
		return nil
	}
	return bytes.Clone(s)
}

// Equal reports whether two scripts hold the same bytes. Nil and empty
// scripts are equal.
func (s Script) Equal(other Script) bool {
	return bytes.Equal(s, other)
}

// Hex returns the hex encoding of the script.
func (s Script) Hex() string {
	return hex.EncodeToString(s)
}

// String implements fmt.Stringer.
func (s Script) String() string {
	return s.Hex()
}

// Op is a single parsed script element. Data is set for push opcodes.
type Op struct {
	Opcode byte
	Data   []byte
}

// IsPush reports whether the element pushes data (including OP_0).
func (o Op) IsPush() bool {
	return o.Opcode <= txscript.OP_PUSHDATA4
}

// Parse splits the script into opcodes and their push data.
func (s Script) Parse() ([]Op, error) {
	var ops []Op
	tokenizer := txscript.MakeScriptTokenizer(scriptVersion, s)
	for tokenizer.Next() {
		ops = append(ops, Op{Opcode: tokenizer.Opcode(), Data: tokenizer.Data()})
	}
	if err := tokenizer.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return ops, nil
}

// Pushes returns the data pushed by a push-only script. OP_0 yields an
// empty element and OP_1NEGATE, OP_1 through OP_16 the number they push.
func (s Script) Pushes() ([][]byte, error) {
	ops, err := s.Parse()
	if err != nil {
		return nil, err
	}

	pushes := make([][]byte, 0, len(ops))
	for i, op := range ops {
		switch {
		case op.IsPush():
			if op.Data == nil {
				op.Data = []byte{}
			}
			pushes = append(pushes, op.Data)
		case op.Opcode == txscript.OP_1NEGATE:
			pushes = append(pushes, []byte{0x81})
		case txscript.IsSmallInt(op.Opcode):
			pushes = append(pushes, []byte{byte(txscript.AsSmallInt(op.Opcode))})
		default:
			return nil, fmt.Errorf("element %d is opcode 0x%02x: %w", i, op.Opcode, ErrNotPushOnly)
		}
	}
	return pushes, nil
}
