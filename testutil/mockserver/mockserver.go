// Package mockserver is an in-process stand-in for libvirtd used by this
// module's own tests. It speaks just enough of the wire protocol — framing,
// header, one scripted reply per expected procedure — to exercise the call
// engine and stream sub-protocol without a real hypervisor. Modeled on the
// teacher's portmap_integration_test.go helpers (buildRPCCallMsg,
// sendTCPRPCMsg), adapted from one-shot test functions into a reusable
// scripted server.
package mockserver

import (
	"bytes"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/arterrin/lvrpc/procedure"
	"github.com/arterrin/lvrpc/wire"
)

// Reply is one scripted response: either Body with StatusOK/whatever
// Status is set, or an error body when Status is wire.StatusError.
type Reply struct {
	Status wire.PacketStatus
	Body   []byte
	// Type overrides the packet type; zero value means wire.Reply.
	Type wire.PacketType
}

// Server is a scripted libvirtd stand-in listening on a loopback TCP
// socket. Script maps procedure number to the reply sent for the next CALL
// naming that procedure; repeated calls to the same procedure pop
// successive entries if more than one was scripted.
type Server struct {
	t        *testing.T
	listener net.Listener

	mu     sync.Mutex
	script map[int32][]Reply

	// pushEvents, if set, are sent as MESSAGE packets immediately after the
	// connection is accepted, before any CALL is read — simulating
	// server-initiated events interleaved with a reply.
	pushEvents []pushedEvent

	done chan struct{}
}

type pushedEvent struct {
	procedure int32
	body      []byte
}

// New starts a mock server listening on 127.0.0.1:0 and returns it; call
// Addr() for the dial target. Serve, run in a goroutine, accepts a single
// connection; t.Cleanup closes the listener and waits for Serve to return.
func New(t *testing.T) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("mockserver: listen: %v", err)
	}
	s := &Server{
		t:        t,
		listener: ln,
		script:   make(map[int32][]Reply),
		done:     make(chan struct{}),
	}
	t.Cleanup(func() {
		_ = ln.Close()
		<-s.done
	})
	return s
}

// Addr returns the dial address for this server.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// ScriptReply queues reply for the next CALL naming procNum.
func (s *Server) ScriptReply(procNum int32, reply Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script[procNum] = append(s.script[procNum], reply)
}

// PushEvent queues an event to be sent as a MESSAGE packet right after
// accept, ahead of any reply.
func (s *Server) PushEvent(procNum int32, body []byte) {
	s.pushEvents = append(s.pushEvents, pushedEvent{procedure: procNum, body: body})
}

// Serve accepts exactly one connection and drives it until the peer closes
// it or the listener is closed. Call this in a goroutine before dialing.
func (s *Server) Serve() {
	defer close(s.done)
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	framer := wire.NewFramer(conn)

	for _, ev := range s.pushEvents {
		_ = framer.WritePacket(wire.Header{
			Program: wire.Program, Version: wire.ProtocolVersion,
			Procedure: ev.procedure, Type: wire.Message, Status: wire.StatusOK,
		}, ev.body)
	}

	for {
		h, _, err := framer.ReadPacket()
		if err != nil {
			return
		}

		s.mu.Lock()
		queue := s.script[h.Procedure]
		var reply Reply
		if len(queue) > 0 {
			reply, queue = queue[0], queue[1:]
			s.script[h.Procedure] = queue
		} else {
			reply = Reply{Status: wire.StatusError, Body: unscriptedErrorBody(h.Procedure)}
		}
		s.mu.Unlock()

		typ := wire.Reply
		if reply.Type != 0 {
			typ = reply.Type
		}

		out := wire.Header{
			Program: wire.Program, Version: wire.ProtocolVersion,
			Procedure: h.Procedure, Type: typ, Serial: h.Serial, Status: reply.Status,
		}
		if err := framer.WritePacket(out, reply.Body); err != nil {
			return
		}
	}
}

func unscriptedErrorBody(procNum int32) []byte {
	msg := fmt.Sprintf("mockserver: no scripted reply for procedure %d", procNum)
	re := &procedure.RemoteError{Code: 1, Message_: &msg}
	var buf bytes.Buffer
	_ = re.Encode(&buf)
	return buf.Bytes()
}
