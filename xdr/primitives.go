package xdr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WriteUint32 encodes an unsigned 32-bit integer, big-endian.
func WriteUint32(buf *bytes.Buffer, v uint32) error {
	if err := binary.Write(buf, binary.BigEndian, v); err != nil {
		return fmt.Errorf("write uint32: %w", err)
	}
	return nil
}

// WriteInt32 encodes a signed 32-bit integer, big-endian two's complement.
func WriteInt32(buf *bytes.Buffer, v int32) error {
	return WriteUint32(buf, uint32(v))
}

// WriteUint64 encodes an unsigned 64-bit integer, big-endian.
func WriteUint64(buf *bytes.Buffer, v uint64) error {
	if err := binary.Write(buf, binary.BigEndian, v); err != nil {
		return fmt.Errorf("write uint64: %w", err)
	}
	return nil
}

// WriteInt64 encodes a signed 64-bit integer, big-endian two's complement.
func WriteInt64(buf *bytes.Buffer, v int64) error {
	return WriteUint64(buf, uint64(v))
}

// WriteDouble encodes an IEEE-754 double, big-endian.
func WriteDouble(buf *bytes.Buffer, v float64) error {
	return WriteUint64(buf, math.Float64bits(v))
}

// WriteBool encodes a boolean as a uint32, 0 or 1.
func WriteBool(buf *bytes.Buffer, v bool) error {
	var n uint32
	if v {
		n = 1
	}
	return WriteUint32(buf, n)
}

// DecodeUint32 decodes an unsigned 32-bit integer, big-endian.
func DecodeUint32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("%w: read uint32: %v", ErrMalformed, err)
	}
	return v, nil
}

// DecodeInt32 decodes a signed 32-bit integer, big-endian two's complement.
func DecodeInt32(r io.Reader) (int32, error) {
	v, err := DecodeUint32(r)
	return int32(v), err
}

// DecodeUint64 decodes an unsigned 64-bit integer, big-endian.
func DecodeUint64(r io.Reader) (uint64, error) {
	var v uint64
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("%w: read uint64: %v", ErrMalformed, err)
	}
	return v, nil
}

// DecodeInt64 decodes a signed 64-bit integer, big-endian two's complement.
func DecodeInt64(r io.Reader) (int64, error) {
	v, err := DecodeUint64(r)
	return int64(v), err
}

// DecodeDouble decodes an IEEE-754 double, big-endian.
func DecodeDouble(r io.Reader) (float64, error) {
	v, err := DecodeUint64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// DecodeBool decodes a boolean, encoded as a uint32 (0 = false, non-zero = true).
func DecodeBool(r io.Reader) (bool, error) {
	v, err := DecodeUint32(r)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// WriteFixedOpaque writes exactly len(data) bytes verbatim, then zero-pads
// to the next 4-byte boundary. The caller is responsible for ensuring data
// is the declared fixed length (e.g. 16 bytes for a UUID) — this helper
// does not know the schema's declared width.
func WriteFixedOpaque(buf *bytes.Buffer, data []byte) error {
	if _, err := buf.Write(data); err != nil {
		return fmt.Errorf("write fixed opaque: %w", err)
	}
	return WritePadding(buf, uint32(len(data)))
}

// DecodeFixedOpaque reads exactly n bytes verbatim, then skips padding to
// the next 4-byte boundary.
func DecodeFixedOpaque(r io.Reader, n int) ([]byte, error) {
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: read fixed opaque[%d]: %v", ErrMalformed, n, err)
	}
	if err := skipPadding(r, uint32(n)); err != nil {
		return nil, err
	}
	return data, nil
}

// WritePadding writes the zero bytes needed to align dataLen to a 4-byte
// boundary. Per RFC 4506 §4.11, padding is always (4 - dataLen%4) % 4 bytes.
func WritePadding(buf *bytes.Buffer, dataLen uint32) error {
	n := padLen(dataLen)
	if n == 0 {
		return nil
	}
	if _, err := buf.Write(make([]byte, n)); err != nil {
		return fmt.Errorf("write padding: %w", err)
	}
	return nil
}

func padLen(dataLen uint32) uint32 {
	return (4 - dataLen%4) % 4
}

// skipPadding reads and discards the padding bytes following a
// variable-length or fixed-length field, without checking their value (the
// spec explicitly permits non-zero padding bytes on decode).
func skipPadding(r io.Reader, dataLen uint32) error {
	n := padLen(dataLen)
	if n == 0 {
		return nil
	}
	var pad [3]byte
	if _, err := io.ReadFull(r, pad[:n]); err != nil {
		return fmt.Errorf("%w: skip padding: %v", ErrMalformed, err)
	}
	return nil
}
