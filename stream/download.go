package stream

import (
	"bytes"
	"io"

	"github.com/arterrin/lvrpc/procedure"
	"github.com/arterrin/lvrpc/rpcerr"
	"github.com/arterrin/lvrpc/wire"
)

// DownloadStream receives bulk data from the server via STREAM CONTINUE
// and STREAM_HOLE packets, after a STORAGE_VOL_DOWNLOAD CALL has already
// returned (REPLY, OK) on c.
type DownloadStream struct {
	*base
	pending []byte // data left over from a Chunk not yet fully consumed by Read
	eof     bool
}

// NewDownloadStream wraps c for receiving the body of the
// STORAGE_VOL_DOWNLOAD identified by serial.
func NewDownloadStream(c conn, serial uint32) *DownloadStream {
	return &DownloadStream{base: newBase(c, serial, procedure.ProcStorageVolDownload)}
}

// Next reads the next stream packet and returns it as a Chunk: either data
// bytes or a hole length. Callers doing sparse-file reconstruction should
// use Next directly and Seek past HoleLength instead of calling Read,
// which materializes holes as zero bytes.
func (s *DownloadStream) Next() (Chunk, error) {
	if s.closed {
		return Chunk{}, io.EOF
	}
	h, body, err := s.framer.ReadPacket()
	if err != nil {
		s.err = rpcerr.FromDecodeError(err)
		s.closed = true
		return Chunk{}, s.err
	}
	if h.Serial != s.serial {
		s.err = rpcerr.Newf(rpcerr.KindProtocol, "stream packet serial %d does not match %d", h.Serial, s.serial)
		s.closed = true
		return Chunk{}, s.err
	}

	switch {
	case h.Type == wire.Stream && h.Status == wire.StatusContinue:
		recordStreamBytes("download", len(body))
		return Chunk{Data: body}, nil
	case h.Type == wire.StreamHole && h.Status == wire.StatusContinue:
		hole, err := decodeHoleBody(body)
		if err != nil {
			s.err = rpcerr.FromDecodeError(err)
			s.closed = true
			return Chunk{}, s.err
		}
		recordStreamHole()
		return Chunk{HoleLength: hole.Length, IsHole: true}, nil
	case h.Type == wire.Stream && h.Status == wire.StatusOK:
		s.closed = true
		s.eof = true
		return Chunk{}, io.EOF
	case h.Type == wire.Stream && h.Status == wire.StatusError:
		re, err := procedure.DecodeRemoteError(bytes.NewReader(body))
		if err != nil {
			s.err = rpcerr.FromDecodeError(err)
		} else {
			s.err = rpcerr.Remote(re)
		}
		s.closed = true
		return Chunk{}, s.err
	default:
		s.err = rpcerr.Newf(rpcerr.KindProtocol, "unexpected stream packet %s/%s", h.Type, h.Status)
		s.closed = true
		return Chunk{}, s.err
	}
}

// Read implements io.Reader, materializing holes as zero bytes so
// DownloadStream can be used anywhere an io.Reader is expected. Callers
// that want to avoid allocating/writing zeros for large holes should use
// Next instead.
func (s *DownloadStream) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		if s.eof {
			return 0, io.EOF
		}
		chunk, err := s.Next()
		if err != nil {
			return 0, err
		}
		if chunk.IsHole {
			s.pending = make([]byte, chunk.HoleLength)
			continue
		}
		s.pending = chunk.Data
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}
