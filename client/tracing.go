package client

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/arterrin/lvrpc/internal/telemetry"
)

// callSpan wraps the span started for one Call so Call's error paths stay
// readable instead of threading *trace.Span checks everywhere.
type callSpan struct {
	span trace.Span
}

func startCallSpan(ctx context.Context, procedureName string) (context.Context, *callSpan) {
	ctx, span := telemetry.StartCallSpan(ctx, procedureName)
	return ctx, &callSpan{span: span}
}

// setSerial tags the span with the wire serial once Call has assigned one;
// it isn't known yet when startCallSpan runs.
func (s *callSpan) setSerial(serial uint32) {
	s.span.SetAttributes(telemetry.RPCSerial(serial))
}

func (s *callSpan) setOK() {
	s.span.SetStatus(codes.Ok, "")
}

func (s *callSpan) recordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *callSpan) end() {
	s.span.End()
}

// streamSpan wraps the span covering a stream sub-protocol transfer, from
// the initiating CALL (UploadVolume/DownloadVolume) through Close/Abort or
// the terminating io.EOF.
type streamSpan struct {
	span trace.Span
}

func startStreamSpan(ctx context.Context, procedureName string) (context.Context, *streamSpan) {
	ctx, span := telemetry.StartStreamSpan(ctx, procedureName)
	return ctx, &streamSpan{span: span}
}

func (s *streamSpan) setSerial(serial uint32) {
	s.span.SetAttributes(telemetry.RPCSerial(serial))
}

func (s *streamSpan) recordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *streamSpan) end() {
	s.span.End()
}
