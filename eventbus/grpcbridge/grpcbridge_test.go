package grpcbridge_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/arterrin/lvrpc/client"
	"github.com/arterrin/lvrpc/eventbus"
	"github.com/arterrin/lvrpc/eventbus/grpcbridge"
)

func TestSubscribeStreamsPublishedEvents(t *testing.T) {
	bus := eventbus.New()
	srv := grpc.NewServer()
	grpcbridge.Register(srv, bus)

	lis := bufconn.Listen(1024 * 1024)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := grpcbridge.Subscribe(ctx, cc)
	require.NoError(t, err)

	// Give the server goroutine a moment to register its subscription
	// before publishing, since Subscribe's stream setup happens
	// asynchronously relative to this call returning.
	time.Sleep(50 * time.Millisecond)
	bus.Publish(client.Event{Procedure: 314, Raw: []byte("payload")})

	select {
	case ev := <-events:
		require.EqualValues(t, 314, ev.Procedure)
		require.Equal(t, []byte("payload"), ev.Raw)
	case <-ctx.Done():
		t.Fatal("timed out waiting for bridged event")
	}
}
