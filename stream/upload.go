package stream

import (
	"github.com/arterrin/lvrpc/procedure"
	"github.com/arterrin/lvrpc/rpcerr"
	"github.com/arterrin/lvrpc/wire"
)

// UploadStream sends bulk data to the server via STREAM CONTINUE packets,
// chunked at MaxChunk, after a STORAGE_VOL_UPLOAD CALL has already
// returned (REPLY, OK) on c.
type UploadStream struct {
	*base
}

// NewUploadStream wraps c for sending the body of the STORAGE_VOL_UPLOAD
// identified by serial.
func NewUploadStream(c conn, serial uint32) *UploadStream {
	return &UploadStream{base: newBase(c, serial, procedure.ProcStorageVolUpload)}
}

// Write sends p as one or more STREAM CONTINUE chunks, splitting at
// MaxChunk. It never holds data back: every call to Write puts bytes on
// the wire before returning.
func (s *UploadStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, errStreamClosed
	}
	total := 0
	for len(p) > 0 {
		n := len(p)
		if n > MaxChunk {
			n = MaxChunk
		}
		if err := s.framer.WritePacket(s.header(wire.Stream, wire.StatusContinue), p[:n]); err != nil {
			s.err = rpcerr.FromDecodeError(err)
			return total, s.err
		}
		recordStreamBytes("upload", n)
		total += n
		p = p[n:]
	}
	return total, nil
}

// Skip emits a STREAM_HOLE of length n instead of writing n zero bytes,
// advancing the remote cursor without transmitting data — the sparse-write
// path for files with holes.
func (s *UploadStream) Skip(n int64) error {
	if s.closed {
		return errStreamClosed
	}
	if n <= 0 {
		return nil
	}
	var buf = holeBody(n, 0)
	if err := s.framer.WritePacket(s.header(wire.StreamHole, wire.StatusContinue), buf); err != nil {
		s.err = rpcerr.FromDecodeError(err)
		return s.err
	}
	recordStreamHole()
	return nil
}

// Close sends the STREAM OK terminator and waits for the server's closing
// REPLY. Writing to s after Close returns an error.
func (s *UploadStream) Close() error {
	if s.closed {
		return s.err
	}
	s.closed = true
	if s.err != nil {
		return s.err
	}
	if err := s.framer.WritePacket(s.header(wire.Stream, wire.StatusOK), nil); err != nil {
		s.err = rpcerr.FromDecodeError(err)
		return s.err
	}
	s.err = s.finishRead()
	return s.err
}

// Abort sends the STREAM ERROR terminator, aborting the upload with a
// caller-supplied message rather than waiting for a server-side failure.
func (s *UploadStream) Abort(message string) error {
	if s.closed {
		return s.err
	}
	s.closed = true
	re := &procedure.RemoteError{Code: 1, Message_: &message}
	var buf = mustEncodeRemoteError(re)
	if err := s.framer.WritePacket(s.header(wire.Stream, wire.StatusError), buf); err != nil {
		s.err = rpcerr.FromDecodeError(err)
		return s.err
	}
	return nil
}
