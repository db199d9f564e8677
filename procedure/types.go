// Package procedure declares the libvirt RPC procedure registry: the
// closed, numbered set of request/reply shapes each procedure carries, a
// parallel registry of server-initiated event shapes, and the handle and
// auxiliary value types (Domain, Network, StorageVol, Secret, TypedParam,
// RemoteError, StreamHole) those shapes are built from.
//
// Handles are carried by value, never by reference: the server holds
// authoritative object state, the client only ever carries these small
// identifying tuples on the wire (spec's "Handles are values" design note).
package procedure

import (
	"bytes"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/arterrin/lvrpc/xdr"
)

// UUID is a 16-byte opaque handle identifier, encoded as RFC 4506 fixed
// opaque data (16 bytes, already a multiple of 4 so no padding follows).
type UUID [16]byte

func (u UUID) Encode(buf *bytes.Buffer) error {
	return xdr.WriteFixedOpaque(buf, u[:])
}

func DecodeUUID(r io.Reader) (UUID, error) {
	var u UUID
	data, err := xdr.DecodeFixedOpaque(r, 16)
	if err != nil {
		return u, err
	}
	copy(u[:], data)
	return u, nil
}

// String renders u in the canonical 8-4-4-4-12 hyphenated form.
func (u UUID) String() string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", u[0:4], u[4:6], u[6:8], u[8:10], u[10:16])
}

// ParseUUID parses a canonical hyphenated UUID string (the form every
// libvirt CLI and API accepts for a handle's uuid field) into the 16-byte
// wire form.
func ParseUUID(s string) (UUID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("procedure: parse uuid %q: %w", s, err)
	}
	return UUID(parsed), nil
}

// Domain identifies a remote domain (a VM instance) by name, UUID, and the
// server-assigned numeric id (-1 when not running).
type Domain struct {
	Name string
	UUID UUID
	ID   int32
}

func (d Domain) Encode(buf *bytes.Buffer) error {
	if err := xdr.WriteString(buf, d.Name); err != nil {
		return err
	}
	if err := d.UUID.Encode(buf); err != nil {
		return err
	}
	return xdr.WriteInt32(buf, d.ID)
}

func DecodeDomain(r io.Reader) (Domain, error) {
	var d Domain
	var err error
	if d.Name, err = xdr.DecodeString(r, xdr.DefaultMaxStringLen); err != nil {
		return d, err
	}
	if d.UUID, err = DecodeUUID(r); err != nil {
		return d, err
	}
	if d.ID, err = xdr.DecodeInt32(r); err != nil {
		return d, err
	}
	return d, nil
}

// Network identifies a remote virtual network by name and UUID.
type Network struct {
	Name string
	UUID UUID
}

func (n Network) Encode(buf *bytes.Buffer) error {
	if err := xdr.WriteString(buf, n.Name); err != nil {
		return err
	}
	return n.UUID.Encode(buf)
}

func DecodeNetwork(r io.Reader) (Network, error) {
	var n Network
	var err error
	if n.Name, err = xdr.DecodeString(r, xdr.DefaultMaxStringLen); err != nil {
		return n, err
	}
	if n.UUID, err = DecodeUUID(r); err != nil {
		return n, err
	}
	return n, nil
}

// StorageVol identifies a remote storage volume by its pool, name, and a
// server-assigned stable key.
type StorageVol struct {
	Pool string
	Name string
	Key  string
}

func (v StorageVol) Encode(buf *bytes.Buffer) error {
	if err := xdr.WriteString(buf, v.Pool); err != nil {
		return err
	}
	if err := xdr.WriteString(buf, v.Name); err != nil {
		return err
	}
	return xdr.WriteString(buf, v.Key)
}

func DecodeStorageVol(r io.Reader) (StorageVol, error) {
	var v StorageVol
	var err error
	if v.Pool, err = xdr.DecodeString(r, xdr.DefaultMaxStringLen); err != nil {
		return v, err
	}
	if v.Name, err = xdr.DecodeString(r, xdr.DefaultMaxStringLen); err != nil {
		return v, err
	}
	if v.Key, err = xdr.DecodeString(r, xdr.DefaultMaxStringLen); err != nil {
		return v, err
	}
	return v, nil
}

// Secret identifies a remote secret by UUID plus the usage type/id pair
// that disambiguates which object the secret is attached to.
type Secret struct {
	UUID      UUID
	UsageType int32
	UsageID   string
}

func (s Secret) Encode(buf *bytes.Buffer) error {
	if err := s.UUID.Encode(buf); err != nil {
		return err
	}
	if err := xdr.WriteInt32(buf, s.UsageType); err != nil {
		return err
	}
	return xdr.WriteString(buf, s.UsageID)
}

func DecodeSecret(r io.Reader) (Secret, error) {
	var s Secret
	var err error
	if s.UUID, err = DecodeUUID(r); err != nil {
		return s, err
	}
	if s.UsageType, err = xdr.DecodeInt32(r); err != nil {
		return s, err
	}
	if s.UsageID, err = xdr.DecodeString(r, xdr.DefaultMaxStringLen); err != nil {
		return s, err
	}
	return s, nil
}

// TypedParamTag discriminates which value field of a TypedParam is set.
type TypedParamTag uint32

const (
	TypedParamInt TypedParamTag = iota + 1
	TypedParamUint
	TypedParamLong
	TypedParamUlong
	TypedParamDouble
	TypedParamBoolean
	TypedParamString
)

// TypedParam is a (field name, tagged value) pair used to carry
// heterogeneous configuration and statistics maps (e.g. DOMAIN_GET_CPU_STATS).
// Exactly one of the value fields below is meaningful; Tag says which.
type TypedParam struct {
	Field string
	Tag   TypedParamTag

	Int     int32
	Uint    uint32
	Long    int64
	Ulong   uint64
	Double  float64
	Boolean bool
	String  string
}

func (p TypedParam) Encode(buf *bytes.Buffer) error {
	if err := xdr.WriteString(buf, p.Field); err != nil {
		return err
	}
	if err := xdr.EncodeUnionDiscriminant(buf, uint32(p.Tag)); err != nil {
		return err
	}
	switch p.Tag {
	case TypedParamInt:
		return xdr.WriteInt32(buf, p.Int)
	case TypedParamUint:
		return xdr.WriteUint32(buf, p.Uint)
	case TypedParamLong:
		return xdr.WriteInt64(buf, p.Long)
	case TypedParamUlong:
		return xdr.WriteUint64(buf, p.Ulong)
	case TypedParamDouble:
		return xdr.WriteDouble(buf, p.Double)
	case TypedParamBoolean:
		return xdr.WriteBool(buf, p.Boolean)
	case TypedParamString:
		return xdr.WriteString(buf, p.String)
	default:
		return fmt.Errorf("typed param: unknown tag %d", p.Tag)
	}
}

func DecodeTypedParam(r io.Reader) (TypedParam, error) {
	var p TypedParam
	var err error
	if p.Field, err = xdr.DecodeString(r, xdr.DefaultMaxStringLen); err != nil {
		return p, err
	}
	tag, err := xdr.DecodeUnionDiscriminant(r)
	if err != nil {
		return p, err
	}
	p.Tag = TypedParamTag(tag)
	switch p.Tag {
	case TypedParamInt:
		p.Int, err = xdr.DecodeInt32(r)
	case TypedParamUint:
		p.Uint, err = xdr.DecodeUint32(r)
	case TypedParamLong:
		p.Long, err = xdr.DecodeInt64(r)
	case TypedParamUlong:
		p.Ulong, err = xdr.DecodeUint64(r)
	case TypedParamDouble:
		p.Double, err = xdr.DecodeDouble(r)
	case TypedParamBoolean:
		p.Boolean, err = xdr.DecodeBool(r)
	case TypedParamString:
		p.String, err = xdr.DecodeString(r, xdr.DefaultMaxStringLen)
	default:
		return p, fmt.Errorf("%w: typed param tag %d not in {1..7}", xdr.ErrMalformed, p.Tag)
	}
	return p, err
}

func WriteTypedParamArray(buf *bytes.Buffer, params []TypedParam) error {
	return xdr.WriteArray(buf, params, TypedParam.Encode)
}

func DecodeTypedParamArray(r io.Reader, max uint32) ([]TypedParam, error) {
	return xdr.DecodeArray(r, max, DecodeTypedParam)
}

// RemoteError is the body of a status=ERROR reply or stream packet.
type RemoteError struct {
	Code    int32
	Domain  int32
	Message_ *string
	Level   int32
	Dom     *Domain
	Str1    *string
	Str2    *string
	Str3    *string
	Int1    int32
	Int2    int32
	Net     *Network
}

// Message returns the human-readable message, or a placeholder when the
// server omitted one.
func (e *RemoteError) Message() string {
	if e.Message_ != nil {
		return *e.Message_
	}
	return fmt.Sprintf("remote error (code=%d, domain=%d)", e.Code, e.Domain)
}

func (e *RemoteError) Encode(buf *bytes.Buffer) error {
	if err := xdr.WriteInt32(buf, e.Code); err != nil {
		return err
	}
	if err := xdr.WriteInt32(buf, e.Domain); err != nil {
		return err
	}
	if err := writeOptString(buf, e.Message_); err != nil {
		return err
	}
	if err := xdr.WriteInt32(buf, e.Level); err != nil {
		return err
	}
	if err := writeOptDomain(buf, e.Dom); err != nil {
		return err
	}
	if err := writeOptString(buf, e.Str1); err != nil {
		return err
	}
	if err := writeOptString(buf, e.Str2); err != nil {
		return err
	}
	if err := writeOptString(buf, e.Str3); err != nil {
		return err
	}
	if err := xdr.WriteInt32(buf, e.Int1); err != nil {
		return err
	}
	if err := xdr.WriteInt32(buf, e.Int2); err != nil {
		return err
	}
	return writeOptNetwork(buf, e.Net)
}

func DecodeRemoteError(r io.Reader) (*RemoteError, error) {
	e := &RemoteError{}
	var err error
	if e.Code, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.Domain, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.Message_, err = decodeOptString(r); err != nil {
		return nil, err
	}
	if e.Level, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.Dom, err = decodeOptDomain(r); err != nil {
		return nil, err
	}
	if e.Str1, err = decodeOptString(r); err != nil {
		return nil, err
	}
	if e.Str2, err = decodeOptString(r); err != nil {
		return nil, err
	}
	if e.Str3, err = decodeOptString(r); err != nil {
		return nil, err
	}
	if e.Int1, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.Int2, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.Net, err = decodeOptNetwork(r); err != nil {
		return nil, err
	}
	return e, nil
}

func writeOptString(buf *bytes.Buffer, s *string) error {
	return xdr.WriteOptional(buf, s != nil, derefString(s), xdr.WriteString)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func decodeOptString(r io.Reader) (*string, error) {
	v, ok, err := xdr.DecodeOptional(r, func(r io.Reader) (string, error) {
		return xdr.DecodeString(r, xdr.DefaultMaxStringLen)
	})
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

func writeOptDomain(buf *bytes.Buffer, d *Domain) error {
	var v Domain
	if d != nil {
		v = *d
	}
	return xdr.WriteOptional(buf, d != nil, v, Domain.Encode)
}

func decodeOptDomain(r io.Reader) (*Domain, error) {
	v, ok, err := xdr.DecodeOptional(r, DecodeDomain)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

func writeOptNetwork(buf *bytes.Buffer, n *Network) error {
	var v Network
	if n != nil {
		v = *n
	}
	return xdr.WriteOptional(buf, n != nil, v, Network.Encode)
}

func decodeOptNetwork(r io.Reader) (*Network, error) {
	v, ok, err := xdr.DecodeOptional(r, DecodeNetwork)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

// StreamHole is the body of a STREAM_HOLE packet: a sparse span of length
// bytes at the stream's current cursor, with no data bytes transmitted.
type StreamHole struct {
	Length int64
	Flags  uint32
}

func (h StreamHole) Encode(buf *bytes.Buffer) error {
	if err := xdr.WriteInt64(buf, h.Length); err != nil {
		return err
	}
	return xdr.WriteUint32(buf, h.Flags)
}

func DecodeStreamHole(r io.Reader) (StreamHole, error) {
	var h StreamHole
	var err error
	if h.Length, err = xdr.DecodeInt64(r); err != nil {
		return h, err
	}
	if h.Flags, err = xdr.DecodeUint32(r); err != nil {
		return h, err
	}
	return h, nil
}
