package client

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/arterrin/lvrpc/procedure"
	"github.com/arterrin/lvrpc/rpcerr"
	"github.com/arterrin/lvrpc/wire"
)

// CallOption customizes a single Call invocation without mutating
// connection-wide state.
type CallOption func(*callConfig)

type callConfig struct {
	timeout time.Duration
}

// WithTimeout bounds this call's round trip; it takes precedence over any
// deadline already on ctx.
func WithTimeout(d time.Duration) CallOption {
	return func(c *callConfig) { c.timeout = d }
}

// Call issues one CALL for procNum with args (nil if the procedure takes
// no request body) and returns the decoded reply (nil if the procedure
// returns no body): bump serial, encode, write, then read packets until
// the reply matching this call's serial arrives — MESSAGE packets seen
// along the way are enqueued, not treated as errors.
func (c *Connection) Call(ctx context.Context, procNum int32, args any) (any, error) {
	start := time.Now()
	desc, ok := c.reg.Lookup(procNum)
	if !ok {
		return nil, rpcerr.Newf(rpcerr.KindUsage, "unknown procedure %d", procNum)
	}

	cfg := callConfig{timeout: deadlineFromContext(ctx)}
	for _, withOpt := range callOptsFromContext(ctx) {
		withOpt(&cfg)
	}

	ctx, span := startCallSpan(ctx, desc.Name)
	defer span.end()

	c.mu.Lock()
	if c.poisoned {
		c.mu.Unlock()
		span.recordError(c.poisonErr)
		return nil, c.poisonErr
	}
	if c.streamOwner != nil {
		c.mu.Unlock()
		err := rpcerr.Newf(rpcerr.KindUsage, "cannot issue CALL while stream owns serial %d", *c.streamOwner)
		span.recordError(err)
		return nil, err
	}
	serial := c.nextSerial()
	span.setSerial(serial)

	var body []byte
	if desc.EncodeRequest != nil {
		var buf bytes.Buffer
		if err := desc.EncodeRequest(&buf, args); err != nil {
			c.mu.Unlock()
			err = rpcerr.New(rpcerr.KindUsage, fmt.Errorf("encode %s request: %w", desc.Name, err))
			span.recordError(err)
			return nil, err
		}
		body = buf.Bytes()
	}

	if cfg.timeout > 0 {
		_ = c.framer.SetDeadlines(cfg.timeout)
	}

	header := wire.Header{
		Program:   wire.Program,
		Version:   wire.ProtocolVersion,
		Procedure: procNum,
		Type:      wire.Call,
		Serial:    serial,
		Status:    wire.StatusOK,
	}
	if err := c.framer.WritePacket(header, body); err != nil {
		err2 := rpcerr.FromDecodeError(err)
		c.poison(err2)
		c.mu.Unlock()
		span.recordError(err2)
		recordCallError(desc.Name, err2.Kind)
		return nil, err2
	}

	reply, err := c.awaitReply(serial, desc)
	c.mu.Unlock()

	recordCallDuration(desc.Name, time.Since(start))
	if err != nil {
		span.recordError(err)
		recordCallError(desc.Name, err.(*rpcerr.Error).Kind)
		return nil, err
	}
	span.setOK()
	return reply, nil
}

// awaitReply reads packets until it finds the REPLY/ERROR matching serial,
// routing any MESSAGE packets it encounters to the event queue in the
// meantime. Caller holds c.mu.
func (c *Connection) awaitReply(serial uint32, desc *procedure.Descriptor) (any, error) {
	for {
		h, body, err := c.framer.ReadPacket()
		if err != nil {
			rerr := rpcerr.FromDecodeError(err)
			c.poison(rerr)
			return nil, rerr
		}

		if h.Program != wire.Program || h.Version != wire.ProtocolVersion {
			return nil, rpcerr.Newf(rpcerr.KindProtocol, "unexpected program/version %d/%d", h.Program, h.Version)
		}

		switch h.Type {
		case wire.Message:
			c.publishEvent(h.Procedure, body)
			continue
		case wire.Reply, wire.ReplyWithFDs:
			if h.Serial != serial {
				return nil, rpcerr.Newf(rpcerr.KindProtocol, "reply serial %d does not match call serial %d", h.Serial, serial)
			}
			if h.Procedure != desc.Number {
				return nil, rpcerr.Newf(rpcerr.KindProtocol, "reply procedure %d does not match call procedure %d", h.Procedure, desc.Number)
			}
			return c.decodeReply(h, body, desc)
		default:
			return nil, rpcerr.Newf(rpcerr.KindProtocol, "unexpected packet type %s while awaiting reply", h.Type)
		}
	}
}

func (c *Connection) decodeReply(h wire.Header, body []byte, desc *procedure.Descriptor) (any, error) {
	switch h.Status {
	case wire.StatusOK:
		if desc.DecodeReply == nil {
			return nil, nil
		}
		v, err := desc.DecodeReply(bytes.NewReader(body))
		if err != nil {
			return nil, rpcerr.FromDecodeError(err)
		}
		return v, nil
	case wire.StatusError:
		re, err := procedure.DecodeRemoteError(bytes.NewReader(body))
		if err != nil {
			return nil, rpcerr.FromDecodeError(err)
		}
		return nil, rpcerr.Remote(re)
	default:
		return nil, rpcerr.Newf(rpcerr.KindProtocol, "unexpected reply status %s", h.Status)
	}
}

type callOptsContextKey struct{}

// WithCallOptions attaches CallOptions to ctx so they apply to every Call
// made with it, for callers that thread a context through several layers
// before reaching the Connection.
func WithCallOptions(ctx context.Context, opts ...CallOption) context.Context {
	return context.WithValue(ctx, callOptsContextKey{}, opts)
}

func callOptsFromContext(ctx context.Context) []CallOption {
	if opts, ok := ctx.Value(callOptsContextKey{}).([]CallOption); ok {
		return opts
	}
	return nil
}
