package xdr

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed indicates a packet or payload violated XDR or framing rules:
// a bad length, a truncated body, or an oversize string/opaque/array. It is
// the sentinel behind the protocol-level Malformed error kind.
var ErrMalformed = errors.New("xdr: malformed encoding")

// DefaultMaxStringLen is the 4 MiB cap spec'd for any string field.
const DefaultMaxStringLen = 4 * 1024 * 1024

// DefaultMaxOpaqueLen is the cap applied to variable-length opaque data
// that isn't otherwise bounded by a smaller protocol-specific limit.
const DefaultMaxOpaqueLen = 4 * 1024 * 1024

// DefaultMaxArrayLen bounds the element count of a length-prefixed array,
// protecting decoders from a hostile or corrupt count field that would
// otherwise drive an enormous allocation before the short read is noticed.
const DefaultMaxArrayLen = 1 << 20

// Limits bounds the sizes this package will accept while decoding. The
// zero value is not useable; construct with DefaultLimits() or fill in
// every field. The Decode* functions take their cap as a plain argument
// rather than a Limits; tests pass a much smaller cap there so that
// malformed-length cases don't require multi-megabyte fixtures.
type Limits struct {
	MaxStringLen uint32
	MaxOpaqueLen uint32
	MaxArrayLen  uint32
}

// DefaultLimits returns the protocol's default caps.
func DefaultLimits() Limits {
	return Limits{
		MaxStringLen: DefaultMaxStringLen,
		MaxOpaqueLen: DefaultMaxOpaqueLen,
		MaxArrayLen:  DefaultMaxArrayLen,
	}
}

// WriteOpaque encodes variable-length opaque data: a uint32 length, the
// bytes, then zero-padding to the next 4-byte boundary. limit mirrors
// DecodeOpaque's cap, rejecting an outbound payload no decoder on the
// other end would accept.
func WriteOpaque(buf *bytes.Buffer, data []byte, limit uint32) error {
	if uint32(len(data)) > limit {
		return fmt.Errorf("%w: opaque length %d exceeds limit %d", ErrMalformed, len(data), limit)
	}
	if err := WriteUint32(buf, uint32(len(data))); err != nil {
		return err
	}
	if _, err := buf.Write(data); err != nil {
		return fmt.Errorf("write opaque data: %w", err)
	}
	return WritePadding(buf, uint32(len(data)))
}

// WriteString encodes a string using the same framing as WriteOpaque. No
// trailing NUL is written; UTF-8 bytes are carried verbatim.
func WriteString(buf *bytes.Buffer, s string) error {
	return WriteOpaque(buf, []byte(s), DefaultMaxStringLen)
}

// DecodeOpaque decodes variable-length opaque data, rejecting any declared
// length greater than limit or that would read past a bounded reader's
// remaining content.
func DecodeOpaque(r io.Reader, limit uint32) ([]byte, error) {
	length, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	if length > limit {
		return nil, fmt.Errorf("%w: opaque length %d exceeds limit %d", ErrMalformed, length, limit)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: read opaque[%d]: %v", ErrMalformed, length, err)
	}
	if err := skipPadding(r, length); err != nil {
		return nil, err
	}
	return data, nil
}

// DecodeString decodes a length-prefixed string, rejecting anything over
// limit bytes (4 MiB by default).
func DecodeString(r io.Reader, limit uint32) (string, error) {
	data, err := DecodeOpaque(r, limit)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteArray encodes a length-prefixed array: a uint32 count followed by
// each element's encoding, produced by encodeElem in order.
func WriteArray[T any](buf *bytes.Buffer, elems []T, encodeElem func(*bytes.Buffer, T) error) error {
	if err := WriteUint32(buf, uint32(len(elems))); err != nil {
		return err
	}
	for i, e := range elems {
		if err := encodeElem(buf, e); err != nil {
			return fmt.Errorf("encode element %d: %w", i, err)
		}
	}
	return nil
}

// DecodeArray decodes a length-prefixed array of up to maxLen elements,
// each produced by decodeElem.
func DecodeArray[T any](r io.Reader, maxLen uint32, decodeElem func(io.Reader) (T, error)) ([]T, error) {
	count, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	if count > maxLen {
		return nil, fmt.Errorf("%w: array count %d exceeds limit %d", ErrMalformed, count, maxLen)
	}
	elems := make([]T, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := decodeElem(r)
		if err != nil {
			return nil, fmt.Errorf("decode element %d: %w", i, err)
		}
		elems = append(elems, e)
	}
	return elems, nil
}
