package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	btcdwire "github.com/btcsuite/btcd/wire"
)

var (
	// ErrUnexpectedEnd is returned when a field extends past the end of the
	// buffer.
	ErrUnexpectedEnd = errors.New("unexpected end of data")

	// ErrNonCanonical is returned for a CompactSize that could have been
	// encoded in fewer bytes. Accepting these would give one transaction two
	// encodings.
	ErrNonCanonical = errors.New("non-canonical compact size")
)

// Reader decodes fixed-width and CompactSize fields from a byte slice,
// tracking its position with an explicit cursor.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset returns the cursor position.
func (r *Reader) Offset() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// next returns the next n bytes and advances the cursor.
func (r *Reader) next(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w",
			n, r.pos, r.Remaining(), ErrUnexpectedEnd)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadCompactSize reads a CompactSize-encoded integer, rejecting
// non-minimal encodings.
func (r *Reader) ReadCompactSize() (uint64, error) {
	start := r.pos
	src := bytes.NewReader(r.buf[r.pos:])
	v, err := btcdwire.ReadVarInt(src, protocolVersion)
	if err != nil {
		var msgErr *btcdwire.MessageError
		switch {
		case errors.As(err, &msgErr):
			return 0, fmt.Errorf("%s at offset %d: %w", msgErr.Description, start, ErrNonCanonical)
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return 0, fmt.Errorf("compact size at offset %d, have %d bytes: %w",
				start, r.Remaining(), ErrUnexpectedEnd)
		}
		return 0, err
	}
	r.pos += r.Remaining() - src.Len()
	return v, nil
}

// ReadBytes reads n bytes and returns a copy of them.
func (r *Reader) ReadBytes(n uint64) ([]byte, error) {
	if n > uint64(r.Remaining()) {
		return nil, fmt.Errorf("length %d at offset %d exceeds remaining %d bytes: %w",
			n, r.pos, r.Remaining(), ErrUnexpectedEnd)
	}
	b, err := r.next(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadVarBytes reads a CompactSize length followed by that many bytes.
func (r *Reader) ReadVarBytes() ([]byte, error) {
	n, err := r.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(n)
}

// ReadHash reads a 32-byte hash in wire order.
func (r *Reader) ReadHash() ([32]byte, error) {
	var h [32]byte
	b, err := r.next(32)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}
