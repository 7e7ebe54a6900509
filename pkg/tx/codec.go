package tx

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/suffix-labs/legacy-tx/pkg/wire"
)

// Minimum encoded sizes, used to reject counts that cannot fit in the
// remaining buffer before allocating for them.
const (
	minTxInSize  = 32 + 4 + 1 + 4 // hash, index, empty script, sequence
	minTxOutSize = 8 + 1          // value, empty script
)

// Serialize encodes the transaction in the legacy wire format.
func (t *Transaction) Serialize() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, t.SerializeSize()))

	wire.WriteUint32(buf, t.Version)

	wire.WriteCompactSize(buf, uint64(len(t.Ins)))
	for _, in := range t.Ins {
		buf.Write(in.PreviousOutpoint.Hash[:])
		wire.WriteUint32(buf, in.PreviousOutpoint.Index)
		wire.WriteVarBytes(buf, in.Script)
		wire.WriteUint32(buf, in.Sequence)
	}

	wire.WriteCompactSize(buf, uint64(len(t.Outs)))
	for _, out := range t.Outs {
		wire.WriteUint64(buf, out.Value)
		wire.WriteVarBytes(buf, out.Script)
	}

	wire.WriteUint32(buf, t.LockTime)

	return buf.Bytes()
}

// SerializeHex returns the hex encoding of Serialize.
func (t *Transaction) SerializeHex() string {
	return hex.EncodeToString(t.Serialize())
}

// SerializeSize returns the length of Serialize without encoding.
func (t *Transaction) SerializeSize() int {
	n := 4 + wire.CompactSizeLen(uint64(len(t.Ins))) +
		wire.CompactSizeLen(uint64(len(t.Outs))) + 4
	for _, in := range t.Ins {
		n += 32 + 4 + wire.CompactSizeLen(uint64(len(in.Script))) + len(in.Script) + 4
	}
	for _, out := range t.Outs {
		n += 8 + wire.CompactSizeLen(uint64(len(out.Script))) + len(out.Script)
	}
	return n
}

// DeserializeHex decodes a hex-encoded transaction.
func DeserializeHex(s string) (*Transaction, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{Offset: 0, Message: "invalid hex", Cause: err}
	}
	return Deserialize(b)
}

// Deserialize decodes a transaction in the legacy wire format.
//
// The whole buffer must be consumed. Every accepted buffer re-serializes to
// exactly the same bytes: non-minimal CompactSize values, lengths past the
// end of the buffer and trailing data are rejected with a *DecodeError.
func Deserialize(b []byte) (*Transaction, error) {
	d := decoder{r: wire.NewReader(b)}
	t := New()

	t.Version = d.readUint32("version")

	inCount := d.readCount("input count", minTxInSize)
	if d.err == nil && inCount > 0 {
		t.Ins = make([]TxIn, 0, inCount)
	}
	for i := 0; i < inCount && d.err == nil; i++ {
		var in TxIn
		in.PreviousOutpoint.Hash = d.readHash(fmt.Sprintf("input %d previous hash", i))
		in.PreviousOutpoint.Index = d.readUint32(fmt.Sprintf("input %d previous index", i))
		in.Script = d.readVarBytes(fmt.Sprintf("input %d script", i))
		in.Sequence = d.readUint32(fmt.Sprintf("input %d sequence", i))
		t.Ins = append(t.Ins, in)
	}

	outCount := d.readCount("output count", minTxOutSize)
	if d.err == nil && outCount > 0 {
		t.Outs = make([]TxOut, 0, outCount)
	}
	for i := 0; i < outCount && d.err == nil; i++ {
		var out TxOut
		out.Value = d.readUint64(fmt.Sprintf("output %d value", i))
		out.Script = d.readVarBytes(fmt.Sprintf("output %d script", i))
		out.Address = outputAddress(out.Script, t.network())
		t.Outs = append(t.Outs, out)
	}

	t.LockTime = d.readUint32("locktime")

	if d.err != nil {
		return nil, d.err
	}
	if rest := d.r.Remaining(); rest != 0 {
		return nil, &DecodeError{
			Offset:  d.r.Offset(),
			Message: fmt.Sprintf("%d trailing bytes after locktime", rest),
		}
	}
	return t, nil
}

// decoder reads fields from a wire.Reader and records the first failure,
// so Deserialize can read the whole layout before checking for errors.
type decoder struct {
	r   *wire.Reader
	err error
}

func (d *decoder) fail(offset int, field string, err error) {
	d.err = &DecodeError{Offset: offset, Message: field, Cause: err}
}

func (d *decoder) readUint32(field string) uint32 {
	if d.err != nil {
		return 0
	}
	at := d.r.Offset()
	v, err := d.r.ReadUint32()
	if err != nil {
		d.fail(at, field, err)
	}
	return v
}

func (d *decoder) readUint64(field string) uint64 {
	if d.err != nil {
		return 0
	}
	at := d.r.Offset()
	v, err := d.r.ReadUint64()
	if err != nil {
		d.fail(at, field, err)
	}
	return v
}

func (d *decoder) readHash(field string) [32]byte {
	if d.err != nil {
		return [32]byte{}
	}
	at := d.r.Offset()
	h, err := d.r.ReadHash()
	if err != nil {
		d.fail(at, field, err)
	}
	return h
}

func (d *decoder) readVarBytes(field string) []byte {
	if d.err != nil {
		return nil
	}
	at := d.r.Offset()
	b, err := d.r.ReadVarBytes()
	if err != nil {
		d.fail(at, field, err)
		return nil
	}
	return b
}

// readCount reads an element count and rejects it if that many elements of at
// least minSize bytes cannot fit in the rest of the buffer.
func (d *decoder) readCount(field string, minSize int) int {
	if d.err != nil {
		return 0
	}
	at := d.r.Offset()
	n, err := d.r.ReadCompactSize()
	if err != nil {
		d.fail(at, field, err)
		return 0
	}
	if n > uint64(d.r.Remaining()/minSize) {
		d.fail(at, field, fmt.Errorf("%d elements cannot fit in %d remaining bytes: %w",
			n, d.r.Remaining(), wire.ErrUnexpectedEnd))
		return 0
	}
	return int(n)
}
