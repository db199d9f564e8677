// Package grpcbridge republishes a Bus's events to out-of-process
// subscribers over a gRPC server-streaming call. It carries no generated
// protobuf stubs: the subscribe RPC is registered by hand against a
// grpc.ServiceDesc, and frames are encoded with the package's own JSON
// codec rather than a .proto-derived message type, since protoc is not
// available to this module and the event payloads are already plain Go
// structs.
package grpcbridge

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/arterrin/lvrpc/client"
	"github.com/arterrin/lvrpc/eventbus"
	"github.com/arterrin/lvrpc/internal/logger"
)

// RawEvent is the wire shape sent to subscribers. Payload is omitted —
// decoded event structs vary per procedure and are not worth a protobuf
// Any-style envelope here — so subscribers that need the typed payload
// read it from the same process via eventbus.Bus directly; this bridge
// exists for procedure-level visibility (dashboards, audit tailing)
// rather than full remote decoding.
type RawEvent struct {
	Procedure int32  `json:"procedure"`
	Raw       []byte `json:"raw"`
}

func toRawEvent(ev client.Event) RawEvent {
	return RawEvent{Procedure: ev.Procedure, Raw: ev.Raw}
}

// Service adapts a Bus to gRPC's server-streaming model.
type Service struct {
	bus *eventbus.Bus
}

// NewService returns a Service that streams everything published to bus.
func NewService(bus *eventbus.Bus) *Service {
	return &Service{bus: bus}
}

// Subscribe streams every event published to the bus until the client
// disconnects or the stream's context is cancelled.
func (s *Service) Subscribe(stream grpc.ServerStream) error {
	// Drain the client's single request message (an empty subscribe
	// request) before streaming replies; server-streaming RPCs still
	// exchange one request frame even though this bridge ignores its
	// contents.
	var discard RawEvent
	if err := stream.RecvMsg(&discard); err != nil {
		return status.Errorf(codes.InvalidArgument, "grpcbridge: recv request: %v", err)
	}

	ch, unsubscribe := s.bus.Subscribe()
	defer unsubscribe()

	ctx := stream.Context()
	for {
		select {
		case ev := <-ch:
			if err := stream.SendMsg(toRawEvent(ev)); err != nil {
				return status.Errorf(codes.Unavailable, "grpcbridge: send: %v", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// subscribeHandler adapts Service.Subscribe to the grpc.StreamHandler shape
// grpc.ServiceDesc expects, since there is no generated server interface.
func subscribeHandler(srv any, stream grpc.ServerStream) error {
	return srv.(*Service).Subscribe(stream)
}

// ServiceDesc is registered against a *grpc.Server with
// grpcServer.RegisterService(&grpcbridge.ServiceDesc, service).
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "lvrpc.eventbus.EventBridge",
	HandlerType: (*any)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "eventbus/grpcbridge/service.go",
}

// Register attaches the bridge service to srv using codec name passed to
// grpc.CallContentSubtype via client dial options; the server itself picks
// up the codec automatically once registered through encoding.RegisterCodec
// in codec.go.
func Register(srv *grpc.Server, bus *eventbus.Bus) {
	logger.Info("grpcbridge: registering event bridge service")
	srv.RegisterService(&ServiceDesc, NewService(bus))
}
