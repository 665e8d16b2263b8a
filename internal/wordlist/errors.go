package wordlist

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedDocument is returned when the input is not well-formed XML.
	ErrMalformedDocument = errors.New("malformed wordlist document")
	// ErrNoEntriesFound is returned when a well-formed document yields no entries.
	ErrNoEntriesFound = errors.New("no entries found in wordlist")
	// ErrDecode is returned when the input bytes are invalid for their detected encoding.
	ErrDecode = errors.New("invalid byte sequence for detected encoding")
	// ErrSerializationInvariant is returned when rendered bytes break the BOM placement
	// contract. It signals a defect in the serializer, never a problem with the input.
	ErrSerializationInvariant = errors.New("serialization invariant violated")
)

// MalformedDocumentError carries the XML parser's message.
type MalformedDocumentError struct {
	Err error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("%s: %v", ErrMalformedDocument, e.Err)
}

func (e *MalformedDocumentError) Unwrap() []error {
	return []error{ErrMalformedDocument, e.Err}
}

// DecodeError reports where decoding failed.
type DecodeError struct {
	Encoding Encoding
	Offset   int
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s at byte %d: %s", ErrDecode, e.Encoding, e.Offset, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

// InvariantViolationError describes which part of the BOM contract failed.
type InvariantViolationError struct {
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSerializationInvariant, e.Reason)
}

func (e *InvariantViolationError) Unwrap() error {
	return ErrSerializationInvariant
}
