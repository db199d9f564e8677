// Package wire implements the libvirt RPC packet framing: a 4-byte
// big-endian total length, a fixed 24-byte header, and an optional XDR
// body. The framing follows the same record-marking shape as ONC RPC's
// length-prefixed TCP records: a 4-byte length prefix guarding a bounded
// read of the rest of the message.
package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/arterrin/lvrpc/xdr"
)

// Program is the stable identifier of the libvirt RPC protocol family.
const Program uint32 = 0x20008086

// ProtocolVersion is the (currently sole) protocol version.
const ProtocolVersion uint32 = 1

// PacketType is the header's `type` field.
type PacketType uint32

const (
	Call PacketType = iota
	Reply
	Message
	Stream
	CallWithFDs
	ReplyWithFDs
	StreamHole
)

func (t PacketType) String() string {
	switch t {
	case Call:
		return "CALL"
	case Reply:
		return "REPLY"
	case Message:
		return "MESSAGE"
	case Stream:
		return "STREAM"
	case CallWithFDs:
		return "CALL_WITH_FDS"
	case ReplyWithFDs:
		return "REPLY_WITH_FDS"
	case StreamHole:
		return "STREAM_HOLE"
	default:
		return fmt.Sprintf("PacketType(%d)", uint32(t))
	}
}

// PacketStatus is the header's `status` field.
type PacketStatus uint32

const (
	StatusOK PacketStatus = iota
	StatusError
	StatusContinue
)

func (s PacketStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusContinue:
		return "CONTINUE"
	default:
		return fmt.Sprintf("PacketStatus(%d)", uint32(s))
	}
}

// HeaderSize is the fixed, on-wire size of Header in bytes.
const HeaderSize = 24

// Header is the fixed-layout 24-byte packet header that precedes every
// packet body.
type Header struct {
	Program   uint32
	Version   uint32
	Procedure int32
	Type      PacketType
	Serial    uint32
	Status    PacketStatus
}

// Encode appends the header's XDR encoding (exactly HeaderSize bytes) to buf.
func (h Header) Encode(buf *bytes.Buffer) error {
	if err := xdr.WriteUint32(buf, h.Program); err != nil {
		return err
	}
	if err := xdr.WriteUint32(buf, h.Version); err != nil {
		return err
	}
	if err := xdr.WriteInt32(buf, h.Procedure); err != nil {
		return err
	}
	if err := xdr.WriteUint32(buf, uint32(h.Type)); err != nil {
		return err
	}
	if err := xdr.WriteUint32(buf, h.Serial); err != nil {
		return err
	}
	if err := xdr.WriteUint32(buf, uint32(h.Status)); err != nil {
		return err
	}
	return nil
}

// DecodeHeader reads exactly HeaderSize bytes from r and decodes them.
func DecodeHeader(r io.Reader) (Header, error) {
	var h Header
	var err error

	if h.Program, err = xdr.DecodeUint32(r); err != nil {
		return h, err
	}
	if h.Version, err = xdr.DecodeUint32(r); err != nil {
		return h, err
	}
	if h.Procedure, err = xdr.DecodeInt32(r); err != nil {
		return h, err
	}
	typ, err := xdr.DecodeUint32(r)
	if err != nil {
		return h, err
	}
	h.Type = PacketType(typ)
	if h.Serial, err = xdr.DecodeUint32(r); err != nil {
		return h, err
	}
	status, err := xdr.DecodeUint32(r)
	if err != nil {
		return h, err
	}
	h.Status = PacketStatus(status)
	return h, nil
}
