package wire

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/arterrin/lvrpc/rpcerr"
	"github.com/arterrin/lvrpc/xdr"
)

// MaxPacketSize is the maximum accepted total_length for an inbound packet.
const MaxPacketSize = 33554432

// MaxStreamChunk is the legacy per-packet payload maximum used to chunk
// stream data.
const MaxStreamChunk = 262120

// Framer reads and writes whole packets (length prefix + header + body)
// over an underlying connection. It owns no protocol state beyond the byte
// stream itself — serials, outstanding calls, and stream bookkeeping live
// in package client.
type Framer struct {
	conn net.Conn

	// lenBuf is a reusable scratch buffer for the 4-byte length prefix.
	lenBuf [4]byte
}

// NewFramer wraps conn for packet-oriented reads and writes.
func NewFramer(conn net.Conn) *Framer {
	return &Framer{conn: conn}
}

// Close closes the underlying connection.
func (f *Framer) Close() error {
	return f.conn.Close()
}

// SetDeadlines applies d as both the read and write deadline for every
// subsequent packet. A zero d clears any deadline.
func (f *Framer) SetDeadlines(d time.Duration) error {
	if d <= 0 {
		return f.conn.SetDeadline(time.Time{})
	}
	return f.conn.SetDeadline(time.Now().Add(d))
}

// WritePacket encodes header and body into a single framed packet and
// writes it in one call, retrying on short writes until the whole packet
// is flushed.
func (f *Framer) WritePacket(h Header, body []byte) error {
	total := uint32(4 + HeaderSize + len(body))

	var buf bytes.Buffer
	buf.Grow(int(total))
	if err := xdr.WriteUint32(&buf, total); err != nil {
		return err
	}
	if err := h.Encode(&buf); err != nil {
		return err
	}
	if len(body) > 0 {
		buf.Write(body)
	}

	return f.writeAll(buf.Bytes())
}

func (f *Framer) writeAll(data []byte) error {
	for len(data) > 0 {
		n, err := f.conn.Write(data)
		if err != nil {
			return fmt.Errorf("%w: %v", rpcerr.ErrTransportClosed, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: zero-length write", rpcerr.ErrTransportClosed)
		}
		data = data[n:]
	}
	return nil
}

// ReadPacket reads exactly one whole packet: the 4-byte length, the
// 24-byte header, and the declared body.
func (f *Framer) ReadPacket() (Header, []byte, error) {
	if _, err := io.ReadFull(f.conn, f.lenBuf[:]); err != nil {
		return Header{}, nil, fmt.Errorf("%w: read length: %v", rpcerr.ErrTransportClosed, err)
	}
	total := beUint32(f.lenBuf[:])

	if total < 4+HeaderSize {
		return Header{}, nil, fmt.Errorf("%w: total_length %d shorter than header", xdr.ErrMalformed, total)
	}
	if total > MaxPacketSize {
		return Header{}, nil, fmt.Errorf("%w: total_length %d exceeds max %d", xdr.ErrMalformed, total, MaxPacketSize)
	}

	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f.conn, headerBuf); err != nil {
		return Header{}, nil, fmt.Errorf("%w: read header: %v", rpcerr.ErrTransportClosed, err)
	}
	h, err := DecodeHeader(bytes.NewReader(headerBuf))
	if err != nil {
		return Header{}, nil, err
	}

	bodyLen := total - (4 + HeaderSize)
	var body []byte
	if bodyLen > 0 {
		body = make([]byte, bodyLen)
		if _, err := io.ReadFull(f.conn, body); err != nil {
			return Header{}, nil, fmt.Errorf("%w: read body[%d]: %v", rpcerr.ErrTransportClosed, bodyLen, err)
		}
	}

	return h, body, nil
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
