// Package wire implements the primitive encodings of the legacy transaction
// wire format.
//
// All integers are little-endian. Variable-length integers use the
// Bitcoin CompactSize encoding:
//
//   - < 0xFD: 1 byte (the value itself)
//   - <= 0xFFFF: 0xFD + 2 bytes little-endian
//   - <= 0xFFFFFFFF: 0xFE + 4 bytes little-endian
//   - otherwise: 0xFF + 8 bytes little-endian
//
// CompactSize values are encoded and decoded by btcd's wire package; this
// package adds the cursor-based Reader the strict transaction decoder needs.
//
// See: https://en.bitcoin.it/wiki/Protocol_documentation#Variable_length_integer
package wire

import (
	"bytes"
	"encoding/binary"

	btcdwire "github.com/btcsuite/btcd/wire"
)

// protocolVersion is passed to btcd's encoders, which ignore it for
// CompactSize and byte-string fields.
const protocolVersion = 0

// WriteCompactSize writes a CompactSize-encoded integer.
func WriteCompactSize(buf *bytes.Buffer, n uint64) {
	// Writes to a bytes.Buffer cannot fail.
	_ = btcdwire.WriteVarInt(buf, protocolVersion, n)
}

// AppendCompactSize appends the CompactSize encoding of n to b.
func AppendCompactSize(b []byte, n uint64) []byte {
	buf := bytes.NewBuffer(b)
	WriteCompactSize(buf, n)
	return buf.Bytes()
}

// CompactSizeLen returns the number of bytes the CompactSize encoding of n
// occupies.
func CompactSizeLen(n uint64) int {
	return btcdwire.VarIntSerializeSize(n)
}

// WriteUint32 writes v as 4 little-endian bytes.
func WriteUint32(buf *bytes.Buffer, v uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], v)
	buf.Write(scratch[:])
}

// WriteUint64 writes v as 8 little-endian bytes.
func WriteUint64(buf *bytes.Buffer, v uint64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], v)
	buf.Write(scratch[:])
}

// WriteVarBytes writes a CompactSize length prefix followed by b.
func WriteVarBytes(buf *bytes.Buffer, b []byte) {
	_ = btcdwire.WriteVarBytes(buf, protocolVersion, b)
}

// ReverseBytes returns a reversed copy of b.
//
// 32-byte hashes are displayed in the reverse of their wire order.
func ReverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}
