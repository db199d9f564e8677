package stream

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arterrin/lvrpc/procedure"
)

var (
	streamBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lvrpc_stream_bytes_total",
		Help: "Bytes transferred over the stream sub-protocol, by direction.",
	}, []string{"direction"})

	streamHoles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lvrpc_stream_holes_total",
		Help: "STREAM_HOLE markers sent or received.",
	})
)

func init() {
	prometheus.MustRegister(streamBytes, streamHoles)
}

func recordStreamBytes(direction string, n int) {
	streamBytes.WithLabelValues(direction).Add(float64(n))
}

func recordStreamHole() {
	streamHoles.Inc()
}

func holeBody(length int64, flags uint32) []byte {
	var buf bytes.Buffer
	_ = (procedure.StreamHole{Length: length, Flags: flags}).Encode(&buf)
	return buf.Bytes()
}

func decodeHoleBody(body []byte) (procedure.StreamHole, error) {
	return procedure.DecodeStreamHole(bytes.NewReader(body))
}

func mustEncodeRemoteError(re *procedure.RemoteError) []byte {
	var buf bytes.Buffer
	_ = re.Encode(&buf)
	return buf.Bytes()
}
