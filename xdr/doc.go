// Package xdr implements the subset of RFC 4506 (External Data
// Representation) used by the libvirt RPC wire protocol: big-endian fixed
// width integers, 4-byte-aligned variable-length opaque data and strings,
// optional values, arrays, and discriminated unions.
//
// This package is protocol-agnostic: it knows nothing about libvirt's
// header layout or procedure numbers (see package wire and package
// procedure for those). It mirrors the shape of a generic XDR helper
// library — one function per wire type, operating on a *bytes.Buffer for
// encoding and an io.Reader for decoding — rather than a reflection-based
// marshaler, so that the size caps and error taxonomy described in the
// protocol spec can be enforced precisely at each call site.
package xdr
