// Package stream drives the libvirt stream sub-protocol layered on package
// wire's framing: CONTINUE-typed data chunks, STREAM_HOLE sparse markers,
// an OK-typed terminator, and ERROR-typed abort carrying a RemoteError.
// Both directions reuse the serial of the CALL that established the
// stream (STORAGE_VOL_UPLOAD or STORAGE_VOL_DOWNLOAD); no other CALL may
// be issued on the connection until the stream ends.
package stream

import (
	"bytes"
	"fmt"
	"io"

	"github.com/arterrin/lvrpc/procedure"
	"github.com/arterrin/lvrpc/rpcerr"
	"github.com/arterrin/lvrpc/wire"
)

// MaxChunk is the legacy per-packet payload maximum shared with package wire.
const MaxChunk = wire.MaxStreamChunk

// conn is the subset of *client.Connection the stream package needs. It is
// defined here, not imported from package client, to avoid a dependency
// cycle (client constructs streams once the initiating Call is answered).
type conn interface {
	FrameReader() *wire.Framer
}

// newBase prepares to drive the stream sub-protocol for serial on c, after
// the caller has already issued the initiating STORAGE_VOL_UPLOAD/DOWNLOAD
// CALL and received its (REPLY, OK). procNum is stamped on every stream
// packet header; whether this side sends or receives is decided by the
// UploadStream/DownloadStream wrapping it.
func newBase(c conn, serial uint32, procNum int32) *base {
	return &base{framer: c.FrameReader(), serial: serial, procedure: procNum}
}

type base struct {
	framer    *wire.Framer
	serial    uint32
	procedure int32
	closed    bool
	err       error
}

func (b *base) header(typ wire.PacketType, status wire.PacketStatus) wire.Header {
	return wire.Header{
		Program:   wire.Program,
		Version:   wire.ProtocolVersion,
		Procedure: b.procedure,
		Type:      typ,
		Serial:    b.serial,
		Status:    status,
	}
}

// finishRead consumes the trailing (REPLY, OK) the server sends for the
// initiating CALL's serial once it has seen our STREAM OK/ERROR terminator.
func (b *base) finishRead() error {
	h, body, err := b.framer.ReadPacket()
	if err != nil {
		return rpcerr.FromDecodeError(err)
	}
	if h.Type != wire.Reply || h.Serial != b.serial {
		return rpcerr.Newf(rpcerr.KindProtocol, "expected closing REPLY for stream serial %d, got %s/%d", b.serial, h.Type, h.Serial)
	}
	if h.Status == wire.StatusError {
		re, err := procedure.DecodeRemoteError(bytes.NewReader(body))
		if err != nil {
			return rpcerr.FromDecodeError(err)
		}
		return rpcerr.Remote(re)
	}
	return nil
}

var errStreamClosed = fmt.Errorf("stream: already closed")

// Chunk is one unit read from a DownloadStream's Next, either data bytes
// or a sparse hole length — never both.
type Chunk struct {
	Data       []byte
	HoleLength int64
	IsHole     bool
}

var _ io.Writer = (*UploadStream)(nil)
var _ io.Reader = (*DownloadStream)(nil)
