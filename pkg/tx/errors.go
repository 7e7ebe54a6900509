package tx

import (
	"errors"
	"fmt"
)

// Error kinds. The structured errors below wrap one of these, so callers can
// match with errors.Is regardless of which operation failed.
var (
	ErrMalformedEncoding = errors.New("malformed encoding")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotImplemented    = errors.New("not implemented")
)

// DecodeError is returned when Deserialize or DeserializeHex rejects its
// input.
type DecodeError struct {
	Offset  int    // Byte offset of the field that failed to decode
	Message string // Field being decoded
	Cause   error  // Underlying error (if any)
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode error at offset %d: %s: %v", e.Offset, e.Message, e.Cause)
	}
	return fmt.Sprintf("decode error at offset %d: %s", e.Offset, e.Message)
}

func (e *DecodeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrMalformedEncoding}
	}
	return []error{ErrMalformedEncoding, e.Cause}
}

// ArgumentError is returned when a construction or signing call receives an
// argument it cannot use.
type ArgumentError struct {
	Argument string // Name of the offending argument
	Message  string // Human-readable error message
	Cause    error  // Underlying error (if any)
}

func (e *ArgumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Argument, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid %s: %s", e.Argument, e.Message)
}

func (e *ArgumentError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInvalidArgument}
	}
	return []error{ErrInvalidArgument, e.Cause}
}

// SighashError is returned when the signature hash of an input cannot be
// computed.
type SighashError struct {
	InputIndex int         // Index of the input being signed
	HashType   SigHashType // Requested hash type
	Message    string      // Human-readable error message
	Cause      error       // ErrInvalidArgument or ErrNotImplemented
}

func (e *SighashError) Error() string {
	return fmt.Sprintf("sighash error at input %d (hash type 0x%02x): %s",
		e.InputIndex, uint32(e.HashType), e.Message)
}

func (e *SighashError) Unwrap() error {
	return e.Cause
}

func argumentError(arg, msg string, cause error) error {
	return &ArgumentError{Argument: arg, Message: msg, Cause: cause}
}
