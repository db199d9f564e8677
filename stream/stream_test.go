package stream_test

import (
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arterrin/lvrpc/procedure"
	"github.com/arterrin/lvrpc/stream"
	"github.com/arterrin/lvrpc/wire"
)

// pipeConn wraps net.Pipe's client half as the minimal conn interface
// stream.New*Stream expects.
type pipeConn struct {
	framer *wire.Framer
}

func (p *pipeConn) FrameReader() *wire.Framer { return p.framer }

func newPipe(t *testing.T) (*pipeConn, *wire.Framer) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })
	return &pipeConn{framer: wire.NewFramer(client)}, wire.NewFramer(server)
}

func TestUploadStreamSparseWrite(t *testing.T) {
	c, serverFramer := newPipe(t)
	up := stream.NewUploadStream(c, 6)

	done := make(chan error, 1)
	go func() {
		_, err := up.Write([]byte("abcd"))
		if err != nil {
			done <- err
			return
		}
		if err := up.Skip(1048576); err != nil {
			done <- err
			return
		}
		if _, err := up.Write([]byte("wxyz")); err != nil {
			done <- err
			return
		}
		done <- up.Close()
	}()

	h, body, err := serverFramer.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, wire.Stream, h.Type)
	assert.Equal(t, wire.StatusContinue, h.Status)
	assert.Equal(t, "abcd", string(body))

	h, body, err = serverFramer.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, wire.StreamHole, h.Type)
	hole, err := procedure.DecodeStreamHole(bytes.NewReader(body))
	require.NoError(t, err)
	assert.EqualValues(t, 1048576, hole.Length)

	h, body, err = serverFramer.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, wire.Stream, h.Type)
	assert.Equal(t, "wxyz", string(body))

	h, _, err = serverFramer.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, wire.Stream, h.Type)
	assert.Equal(t, wire.StatusOK, h.Status)

	require.NoError(t, serverFramer.WritePacket(wire.Header{
		Program: wire.Program, Version: wire.ProtocolVersion,
		Procedure: h.Procedure, Type: wire.Reply, Serial: h.Serial, Status: wire.StatusOK,
	}, nil))

	require.NoError(t, <-done)
}

func TestDownloadStreamWithHole(t *testing.T) {
	c, serverFramer := newPipe(t)
	down := stream.NewDownloadStream(c, 7)

	go func() {
		hdr := func(typ wire.PacketType, status wire.PacketStatus) wire.Header {
			return wire.Header{Program: wire.Program, Version: wire.ProtocolVersion, Procedure: procedure.ProcStorageVolDownload, Type: typ, Serial: 7, Status: status}
		}
		_ = serverFramer.WritePacket(hdr(wire.Stream, wire.StatusContinue), []byte("head"))
		var holeBuf bytes.Buffer
		_ = procedure.StreamHole{Length: 1048576}.Encode(&holeBuf)
		_ = serverFramer.WritePacket(hdr(wire.StreamHole, wire.StatusContinue), holeBuf.Bytes())
		_ = serverFramer.WritePacket(hdr(wire.Stream, wire.StatusContinue), []byte("tail"))
		_ = serverFramer.WritePacket(hdr(wire.Stream, wire.StatusOK), nil)
	}()

	chunk, err := down.Next()
	require.NoError(t, err)
	assert.Equal(t, "head", string(chunk.Data))

	chunk, err = down.Next()
	require.NoError(t, err)
	assert.True(t, chunk.IsHole)
	assert.EqualValues(t, 1048576, chunk.HoleLength)

	chunk, err = down.Next()
	require.NoError(t, err)
	assert.Equal(t, "tail", string(chunk.Data))

	_, err = down.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDownloadStreamReadMaterializesHoleAsZeros(t *testing.T) {
	c, serverFramer := newPipe(t)
	down := stream.NewDownloadStream(c, 7)

	go func() {
		hdr := func(typ wire.PacketType, status wire.PacketStatus) wire.Header {
			return wire.Header{Program: wire.Program, Version: wire.ProtocolVersion, Procedure: procedure.ProcStorageVolDownload, Type: typ, Serial: 7, Status: status}
		}
		var holeBuf bytes.Buffer
		_ = procedure.StreamHole{Length: 8}.Encode(&holeBuf)
		_ = serverFramer.WritePacket(hdr(wire.StreamHole, wire.StatusContinue), holeBuf.Bytes())
		_ = serverFramer.WritePacket(hdr(wire.Stream, wire.StatusOK), nil)
	}()

	got, err := io.ReadAll(down)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), got)
}

func TestDownloadStreamAbortSurfacesRemoteError(t *testing.T) {
	c, serverFramer := newPipe(t)
	down := stream.NewDownloadStream(c, 7)

	go func() {
		msg := "volume vanished mid-transfer"
		var errBuf bytes.Buffer
		_ = (&procedure.RemoteError{Code: 9, Message_: &msg}).Encode(&errBuf)
		_ = serverFramer.WritePacket(wire.Header{
			Program: wire.Program, Version: wire.ProtocolVersion,
			Procedure: procedure.ProcStorageVolDownload, Type: wire.Stream, Serial: 7, Status: wire.StatusError,
		}, errBuf.Bytes())
	}()

	_, err := down.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vanished")
}
