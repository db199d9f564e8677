package sasl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arterrin/lvrpc/auth/sasl"
	"github.com/arterrin/lvrpc/procedure"
)

// fakeCaller scripts one reply per procedure, in call order, so Negotiate's
// CALL sequence can be exercised without a real connection.
type fakeCaller struct {
	replies []any
	calls   []int32
}

func (f *fakeCaller) Call(_ context.Context, procNum int32, _ any) (any, error) {
	f.calls = append(f.calls, procNum)
	if len(f.replies) == 0 {
		return nil, assert.AnError
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

type stubMechanism struct {
	steps int
}

func (m *stubMechanism) Name() string { return "PLAIN" }
func (m *stubMechanism) Start() ([]byte, error) {
	return []byte("initial"), nil
}
func (m *stubMechanism) Step(challenge []byte) ([]byte, bool, error) {
	m.steps++
	return []byte("step"), true, nil
}

func TestNegotiateSingleStepMechanism(t *testing.T) {
	fc := &fakeCaller{replies: []any{
		procedure.AuthListReply{Types: []int32{0, 2}},
		procedure.AuthSaslInitReply{Mechanism: "PLAIN"},
		procedure.AuthSaslReply{Complete: true},
	}}
	mech := &stubMechanism{}

	err := sasl.Negotiate(context.Background(), fc, mech)
	require.NoError(t, err)
	assert.Equal(t, []int32{
		procedure.ProcAuthList,
		procedure.ProcAuthSaslInit,
		procedure.ProcAuthSaslStart,
	}, fc.calls)
	assert.Zero(t, mech.steps)
}

func TestNegotiateRunsStepLoopUntilComplete(t *testing.T) {
	fc := &fakeCaller{replies: []any{
		procedure.AuthListReply{Types: []int32{2}},
		procedure.AuthSaslInitReply{Mechanism: "PLAIN"},
		procedure.AuthSaslReply{Complete: false, Data: []byte("challenge-1")},
		procedure.AuthSaslReply{Complete: true},
	}}
	mech := &stubMechanism{}

	err := sasl.Negotiate(context.Background(), fc, mech)
	require.NoError(t, err)
	assert.Equal(t, 1, mech.steps)
	assert.Contains(t, fc.calls, procedure.ProcAuthSaslStep)
}

func TestPlainMechanismStartEncodesRFC4616(t *testing.T) {
	m := &sasl.PlainMechanism{Authcid: "alice", Password: "hunter2"}
	got, err := m.Start()
	require.NoError(t, err)
	assert.Equal(t, "\x00alice\x00hunter2", string(got))
}
