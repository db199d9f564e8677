// Package client implements the synchronous call engine: one outstanding
// CALL at a time per connection, serial numbers handed out monotonically,
// MESSAGE packets observed while waiting for a reply routed to the event
// queue instead of treated as an error.
package client

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/arterrin/lvrpc/internal/logger"
	"github.com/arterrin/lvrpc/procedure"
	"github.com/arterrin/lvrpc/rpcerr"
	"github.com/arterrin/lvrpc/wire"
)

// EventQueueSize bounds how many MESSAGE packets can sit unread before
// further ones are dropped: a small fixed-capacity channel rather than an
// unbounded queue.
const EventQueueSize = 256

// Event is one decoded MESSAGE packet: Payload is the value produced by
// the event's registered procedure.EventDescriptor.Decode, or nil if the
// procedure number wasn't recognized or decoding failed. Raw always holds
// the undecoded body.
type Event struct {
	Procedure int32
	Payload   any
	Raw       []byte
}

// Connection drives one libvirt RPC session over a single net.Conn. Only
// one CALL may be outstanding at a time; concurrent callers of Call block
// on the internal mutex, mirroring the "one outstanding CALL" invariant
// rather than pipelining requests.
type Connection struct {
	framer *wire.Framer
	reg    *procedure.Registry
	events *procedure.EventRegistry

	mu     sync.Mutex
	serial uint32

	eventCh chan Event

	poisoned bool
	poisonErr error

	// streamOwner is non-nil while a stream sub-protocol exchange is using
	// this connection, naming the serial it must not be reused until the
	// stream finishes. See package stream.
	streamOwner *uint32
}

// Options configures a new Connection.
type Options struct {
	Registry *procedure.Registry
	Events   *procedure.EventRegistry
}

// New wraps conn for RPC use. A nil Registry/Events in opts falls back to
// procedure.Default/procedure.DefaultEvents.
func New(conn net.Conn, opts Options) *Connection {
	reg := opts.Registry
	if reg == nil {
		reg = procedure.Default
	}
	events := opts.Events
	if events == nil {
		events = procedure.DefaultEvents
	}
	return &Connection{
		framer:  wire.NewFramer(conn),
		reg:     reg,
		events:  events,
		eventCh: make(chan Event, EventQueueSize),
	}
}

// Close closes the underlying transport. Further Call invocations return
// a KindTransportClosed error.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.poison(rpcerr.New(rpcerr.KindTransportClosed, fmt.Errorf("connection closed")))
	return c.framer.Close()
}

// poison marks the connection unusable for further calls; callers must
// hold c.mu.
func (c *Connection) poison(err *rpcerr.Error) {
	if !c.poisoned {
		c.poisoned = true
		c.poisonErr = err
		logger.Warn("connection poisoned", logger.Err(err))
	}
}

// Events returns the channel MESSAGE packets are published to. Reading
// from it is optional — an unconsumed channel simply fills up to
// EventQueueSize and further MESSAGE packets are dropped (see
// package eventbus for a fan-out consumer that never drops silently).
func (c *Connection) Events() <-chan Event {
	return c.eventCh
}

// lockStream reserves the connection for the stream sub-protocol owning
// serial, preventing any other Call from being issued until unlockStream.
func (c *Connection) lockStream(serial uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.streamOwner != nil {
		return rpcerr.Newf(rpcerr.KindUsage, "stream already open on this connection (serial %d)", *c.streamOwner)
	}
	c.streamOwner = &serial
	return nil
}

func (c *Connection) unlockStream() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streamOwner = nil
}

// FrameReader exposes the Framer, for reads and writes, to package stream, which
// drives its own packet loop over the same serial once a STORAGE_VOL_*
// CALL hands control to it.
func (c *Connection) FrameReader() *wire.Framer { return c.framer }

func (c *Connection) nextSerial() uint32 {
	c.serial++
	return c.serial
}

func (c *Connection) publishEvent(procNum int32, body []byte) {
	ev := Event{Procedure: procNum, Raw: body}
	if desc, ok := c.events.Lookup(procNum); ok {
		if payload, err := desc.Decode(bytes.NewReader(body)); err == nil {
			ev.Payload = payload
		} else {
			logger.Warn("event decode failed", logger.Procedure(desc.Name), logger.Err(err))
		}
	}
	select {
	case c.eventCh <- ev:
	default:
		logger.Warn("event dropped, queue full", "procedure", procNum)
	}
}

// deadlineFromContext converts a context deadline (if any) into the
// time.Duration SetDeadlines wants; a context with no deadline yields 0,
// and Call then leaves the connection's existing deadlines as they are.
func deadlineFromContext(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		d := time.Until(dl)
		if d < 0 {
			d = 0
		}
		return d
	}
	return 0
}
