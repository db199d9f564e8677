package grpcbridge

import (
	"context"

	"google.golang.org/grpc"

	"github.com/arterrin/lvrpc/eventbus"
)

// Subscribe opens the Subscribe stream against a bridge server reachable
// through cc and returns a channel of decoded RawEvent frames. The channel
// closes when the stream ends (server shutdown, cancelled ctx, or a
// transport error, which is dropped without logging since the caller only
// observes channel closure).
func Subscribe(ctx context.Context, cc grpc.ClientConnInterface) (<-chan RawEvent, error) {
	stream, err := cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+ServiceDesc.ServiceName+"/Subscribe",
		grpc.CallContentSubtype(jsonCodecName))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(RawEvent{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	out := make(chan RawEvent, eventbus.SubscriberBuffer)
	go func() {
		defer close(out)
		for {
			var ev RawEvent
			if err := stream.RecvMsg(&ev); err != nil {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
