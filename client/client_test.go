package client_test

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arterrin/lvrpc/client"
	"github.com/arterrin/lvrpc/procedure"
	"github.com/arterrin/lvrpc/testutil/mockserver"
	"github.com/arterrin/lvrpc/wire"
	"github.com/arterrin/lvrpc/xdr"
)

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestCallRoundTripSuccess(t *testing.T) {
	srv := mockserver.New(t)

	var domBody bytes.Buffer
	require.NoError(t, (procedure.Domain{Name: "web01", ID: 7}).Encode(&domBody))
	srv.ScriptReply(procedure.ProcDomainLookupByName, mockserver.Reply{Status: wire.StatusOK, Body: domBody.Bytes()})

	go srv.Serve()
	conn := dial(t, srv.Addr())
	c := client.New(conn, client.Options{})

	reply, err := c.Call(context.Background(), procedure.ProcDomainLookupByName, procedure.DomainLookupByNameArgs{Name: "web01"})
	require.NoError(t, err)
	assert.Equal(t, procedure.DomainLookupByNameReply{Domain: procedure.Domain{Name: "web01", ID: 7}}, reply)
}

func TestCallRemoteFailureSurfacesRemoteError(t *testing.T) {
	srv := mockserver.New(t)

	msg := "no domain with matching name 'ghost'"
	var errBody bytes.Buffer
	require.NoError(t, (&procedure.RemoteError{Code: 42, Message_: &msg}).Encode(&errBody))
	srv.ScriptReply(procedure.ProcDomainLookupByName, mockserver.Reply{Status: wire.StatusError, Body: errBody.Bytes()})

	go srv.Serve()
	conn := dial(t, srv.Addr())
	c := client.New(conn, client.Options{})

	_, err := c.Call(context.Background(), procedure.ProcDomainLookupByName, procedure.DomainLookupByNameArgs{Name: "ghost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestCallUnknownProcedureIsUsageError(t *testing.T) {
	srv := mockserver.New(t)
	go srv.Serve()
	conn := dial(t, srv.Addr())
	c := client.New(conn, client.Options{})

	_, err := c.Call(context.Background(), 999999, nil)
	require.Error(t, err)
}

func TestMessagePacketDuringCallIsQueuedNotErrored(t *testing.T) {
	srv := mockserver.New(t)

	lifecycleBody := bytes.Buffer{}
	dom := procedure.Domain{Name: "web01", ID: 1}
	require.NoError(t, dom.Encode(&lifecycleBody))
	// DomainLifecycleEvent: Domain, Event, Detail, CallbackID
	require.NoError(t, xdr.WriteInt32(&lifecycleBody, 1))
	require.NoError(t, xdr.WriteInt32(&lifecycleBody, 0))
	require.NoError(t, xdr.WriteInt32(&lifecycleBody, 0))
	srv.PushEvent(procedure.EventDomainLifecycle, lifecycleBody.Bytes())

	var infoBody bytes.Buffer
	require.NoError(t, xdr.WriteUint32(&infoBody, 1))   // state
	require.NoError(t, xdr.WriteUint64(&infoBody, 1024)) // maxmem
	require.NoError(t, xdr.WriteUint64(&infoBody, 512))  // memory
	require.NoError(t, xdr.WriteUint32(&infoBody, 2))    // nrVirtCPU
	require.NoError(t, xdr.WriteUint64(&infoBody, 99))   // cpuTime
	srv.ScriptReply(procedure.ProcDomainGetInfo, mockserver.Reply{Status: wire.StatusOK, Body: infoBody.Bytes()})

	go srv.Serve()
	conn := dial(t, srv.Addr())
	c := client.New(conn, client.Options{})

	reply, err := c.Call(context.Background(), procedure.ProcDomainGetInfo, procedure.DomainGetInfoArgs{Domain: dom})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), reply.(procedure.DomainGetInfoReply).State)

	select {
	case ev := <-c.Events():
		assert.Equal(t, procedure.EventDomainLifecycle, ev.Procedure)
		payload, ok := ev.Payload.(procedure.DomainLifecycleEvent)
		require.True(t, ok)
		assert.Equal(t, "web01", payload.Domain.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("expected lifecycle event to be queued")
	}
}
