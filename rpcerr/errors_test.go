package rpcerr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arterrin/lvrpc/procedure"
	"github.com/arterrin/lvrpc/rpcerr"
	"github.com/arterrin/lvrpc/xdr"
)

func TestErrorIsMatchesKindSentinels(t *testing.T) {
	err := rpcerr.New(rpcerr.KindTransportClosed, fmt.Errorf("eof"))
	assert.True(t, errors.Is(err, rpcerr.ErrTransportClosed))
	assert.False(t, errors.Is(err, rpcerr.ErrProtocol))
	assert.False(t, errors.Is(err, rpcerr.ErrUsage))
}

func TestErrorUnwrapReachesCause(t *testing.T) {
	cause := errors.New("short write")
	err := rpcerr.New(rpcerr.KindTransportClosed, cause)
	assert.ErrorIs(t, err, cause)
}

func TestRemoteErrorMessage(t *testing.T) {
	re := &procedure.RemoteError{Code: 1, Domain: 10}
	err := rpcerr.Remote(re)
	assert.Equal(t, rpcerr.KindRemoteFailure, err.Kind)
	assert.Contains(t, err.Error(), "RemoteFailure")
	assert.Contains(t, err.Error(), "code=1")
}

func TestFromDecodeErrorClassifiesMalformed(t *testing.T) {
	wrapped := fmt.Errorf("short read: %w", xdr.ErrMalformed)
	got := rpcerr.FromDecodeError(wrapped)
	assert.Equal(t, rpcerr.KindMalformed, got.Kind)
}

func TestFromDecodeErrorClassifiesTransportClosed(t *testing.T) {
	wrapped := fmt.Errorf("read: %w", rpcerr.ErrTransportClosed)
	got := rpcerr.FromDecodeError(wrapped)
	assert.Equal(t, rpcerr.KindTransportClosed, got.Kind)
}

func TestFromDecodeErrorDefaultsToProtocol(t *testing.T) {
	got := rpcerr.FromDecodeError(errors.New("unexpected serial"))
	assert.Equal(t, rpcerr.KindProtocol, got.Kind)
}

func TestFromDecodeErrorPassesThroughExistingError(t *testing.T) {
	original := rpcerr.New(rpcerr.KindUsage, errors.New("stream already open"))
	got := rpcerr.FromDecodeError(original)
	assert.Same(t, original, got)
}

func TestFromDecodeErrorNil(t *testing.T) {
	assert.Nil(t, rpcerr.FromDecodeError(nil))
}
