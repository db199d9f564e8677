package client

import (
	"context"
	"io"

	"github.com/arterrin/lvrpc/procedure"
	"github.com/arterrin/lvrpc/rpcerr"
	"github.com/arterrin/lvrpc/stream"
)

// uploadHandle and downloadHandle wrap a *stream.UploadStream and a
// *stream.DownloadStream so that ending the stream (Close or Abort for an
// upload, io.EOF or an error from Next for a download) also releases the
// connection's stream lock, keeping the "no other CALL while a stream is
// open" invariant enforced in one place.
type uploadHandle struct {
	*stream.UploadStream
	release func()
	span    *streamSpan
}

func (h *uploadHandle) Close() error {
	defer h.release()
	defer h.span.end()
	err := h.UploadStream.Close()
	h.span.recordError(err)
	return err
}

func (h *uploadHandle) Abort(message string) error {
	defer h.release()
	defer h.span.end()
	err := h.UploadStream.Abort(message)
	h.span.recordError(err)
	return err
}

type downloadHandle struct {
	*stream.DownloadStream
	release func()
	span    *streamSpan
	done    bool
}

// Next wraps stream.DownloadStream.Next, releasing the connection's stream
// lock once io.EOF or an error ends the stream.
func (h *downloadHandle) Next() (stream.Chunk, error) {
	chunk, err := h.DownloadStream.Next()
	if err != nil && !h.done {
		h.done = true
		if err != io.EOF {
			h.span.recordError(err)
		}
		h.span.end()
		h.release()
	}
	return chunk, err
}

// UploadVolume issues STORAGE_VOL_UPLOAD and, once the server accepts it,
// returns a writer driving the stream sub-protocol for the transfer. The
// caller must Write the volume's bytes and Close (or Abort) it; no other
// Call may be made on c until that happens.
func (c *Connection) UploadVolume(ctx context.Context, args procedure.StorageVolUploadArgs) (*uploadHandle, error) {
	serial, span, err := c.beginStream(ctx, procedure.ProcStorageVolUpload, args)
	if err != nil {
		return nil, err
	}
	return &uploadHandle{
		UploadStream: stream.NewUploadStream(c, serial),
		release:      c.unlockStream,
		span:         span,
	}, nil
}

// DownloadVolume issues STORAGE_VOL_DOWNLOAD and returns a reader driving
// the stream sub-protocol for the transfer.
func (c *Connection) DownloadVolume(ctx context.Context, args procedure.StorageVolDownloadArgs) (*downloadHandle, error) {
	serial, span, err := c.beginStream(ctx, procedure.ProcStorageVolDownload, args)
	if err != nil {
		return nil, err
	}
	return &downloadHandle{
		DownloadStream: stream.NewDownloadStream(c, serial),
		release:        c.unlockStream,
		span:           span,
	}, nil
}

// beginStream issues the initiating CALL, reserves the connection for the
// stream sub-protocol on success, and returns the serial the stream must
// use for every subsequent packet along with a span covering the transfer
// the caller must end once the stream closes.
func (c *Connection) beginStream(ctx context.Context, procNum int32, args any) (uint32, *streamSpan, error) {
	c.mu.Lock()
	if c.poisoned {
		err := c.poisonErr
		c.mu.Unlock()
		return 0, nil, err
	}
	if c.streamOwner != nil {
		err := rpcerr.Newf(rpcerr.KindUsage, "stream already open on this connection (serial %d)", *c.streamOwner)
		c.mu.Unlock()
		return 0, nil, err
	}
	c.mu.Unlock()

	desc, _ := c.reg.Lookup(procNum)
	ctx, span := startStreamSpan(ctx, desc.Name)

	// Call handles its own locking/serial bookkeeping; this call's reply
	// (an empty OK body) confirms the server is ready to receive/send the
	// stream packets that follow on the same serial.
	_, err := c.Call(ctx, procNum, args)
	if err != nil {
		span.recordError(err)
		span.end()
		return 0, nil, err
	}

	c.mu.Lock()
	serial := c.serial
	c.mu.Unlock()
	span.setSerial(serial)

	if err := c.lockStream(serial); err != nil {
		span.recordError(err)
		span.end()
		return 0, nil, err
	}
	return serial, span, nil
}
