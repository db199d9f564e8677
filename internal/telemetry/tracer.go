package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on lvrpc spans. These follow OpenTelemetry semantic
// convention naming (dotted, lowercase) without tying to any particular
// network protocol's vocabulary.
const (
	AttrClientAddr  = "client.address"
	AttrRPCProgram  = "rpc.program"
	AttrRPCVersion  = "rpc.version"
	AttrRPCProc     = "rpc.procedure"
	AttrRPCSerial   = "rpc.serial"
	AttrRPCAuthType = "rpc.auth_type"
	AttrUID         = "user.uid"
	AttrGID         = "user.gid"
)

// Span names for the two kinds of round trip the client makes.
const (
	// SpanCall covers one request/reply CALL.
	SpanCall = "lvrpc.call"
	// SpanStream covers the lifetime of a stream sub-protocol transfer,
	// from the initiating CALL through the final stream packet.
	SpanStream = "lvrpc.stream"
)

// ClientAddr returns an attribute for the connection's dial target, e.g.
// "qemu+unix:///system".
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// RPCProgram returns an attribute for the wire protocol's program number.
func RPCProgram(program uint32) attribute.KeyValue {
	return attribute.Int64(AttrRPCProgram, int64(program))
}

// RPCVersion returns an attribute for the wire protocol's version number.
func RPCVersion(version uint32) attribute.KeyValue {
	return attribute.Int64(AttrRPCVersion, int64(version))
}

// RPCProcedure returns an attribute for the procedure name being called.
func RPCProcedure(name string) attribute.KeyValue {
	return attribute.String(AttrRPCProc, name)
}

// RPCSerial returns an attribute for the packet serial number a call or
// stream is using.
func RPCSerial(serial uint32) attribute.KeyValue {
	return attribute.Int64(AttrRPCSerial, int64(serial))
}

// AuthMethod returns an attribute for the SASL/auth mechanism negotiated
// on a connection.
func AuthMethod(method string) attribute.KeyValue {
	return attribute.String(AttrRPCAuthType, method)
}

// UID returns an attribute for a remote node's reported user ID.
func UID(uid uint32) attribute.KeyValue {
	return attribute.Int64(AttrUID, int64(uid))
}

// GID returns an attribute for a remote node's reported group ID.
func GID(gid uint32) attribute.KeyValue {
	return attribute.Int64(AttrGID, int64(gid))
}

// StartCallSpan starts a span for one CALL/REPLY round trip.
func StartCallSpan(ctx context.Context, procedureName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{RPCProcedure(procedureName)}, attrs...)
	return StartSpan(ctx, SpanCall, trace.WithAttributes(allAttrs...))
}

// StartStreamSpan starts a span covering a stream sub-protocol transfer
// initiated by procedureName (e.g. "STORAGE_VOL_UPLOAD").
func StartStreamSpan(ctx context.Context, procedureName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{RPCProcedure(procedureName)}, attrs...)
	return StartSpan(ctx, SpanStream, trace.WithAttributes(allAttrs...))
}
