package xdr

import (
	"bytes"
	"fmt"
	"io"
)

// EncodeUnionDiscriminant writes the uint32 discriminant preceding a
// discriminated union's variant body. Kept as a named wrapper around
// WriteUint32 so union encode sites read as what they are, not as an
// unexplained integer write.
func EncodeUnionDiscriminant(buf *bytes.Buffer, disc uint32) error {
	return WriteUint32(buf, disc)
}

// DecodeUnionDiscriminant reads the uint32 discriminant preceding a
// discriminated union's variant body.
func DecodeUnionDiscriminant(r io.Reader) (uint32, error) {
	return DecodeUint32(r)
}

// UnionDecoders maps a union's discriminant values to the decode function
// for that arm's body. DecodeUnion reads the discriminant, looks up the
// matching decoder, and runs it; an unrecognized discriminant is Malformed.
type UnionDecoders[T any] map[uint32]func(io.Reader) (T, error)

// DecodeUnion reads a discriminant and dispatches to the matching arm
// decoder from arms.
func DecodeUnion[T any](r io.Reader, arms UnionDecoders[T]) (disc uint32, v T, err error) {
	disc, err = DecodeUnionDiscriminant(r)
	if err != nil {
		return disc, v, err
	}
	decode, ok := arms[disc]
	if !ok {
		return disc, v, fmt.Errorf("%w: union discriminant %d has no registered arm", ErrMalformed, disc)
	}
	v, err = decode(r)
	return disc, v, err
}
