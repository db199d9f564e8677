package xdr

import (
	"bytes"
	"fmt"
	"io"
)

// WriteOptional encodes an optional value: a uint32 discriminator (0 or 1)
// followed by the value's encoding when present is true.
func WriteOptional[T any](buf *bytes.Buffer, present bool, v T, encode func(*bytes.Buffer, T) error) error {
	if !present {
		return WriteBool(buf, false)
	}
	if err := WriteBool(buf, true); err != nil {
		return err
	}
	return encode(buf, v)
}

// DecodeOptional decodes an optional value. ok is false when the
// discriminator was 0, in which case v is the zero value of T.
func DecodeOptional[T any](r io.Reader, decode func(io.Reader) (T, error)) (v T, ok bool, err error) {
	disc, err := DecodeUint32(r)
	if err != nil {
		return v, false, err
	}
	switch disc {
	case 0:
		return v, false, nil
	case 1:
		v, err = decode(r)
		return v, true, err
	default:
		return v, false, fmt.Errorf("%w: optional discriminant %d not in {0,1}", ErrMalformed, disc)
	}
}
