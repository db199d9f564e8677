package xdr_test

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arterrin/lvrpc/xdr"
)

func TestPrimitivesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xdr.WriteUint32(&buf, 0xDEADBEEF))
	require.NoError(t, xdr.WriteInt32(&buf, -1))
	require.NoError(t, xdr.WriteUint64(&buf, 0x0102030405060708))
	require.NoError(t, xdr.WriteInt64(&buf, -42))
	require.NoError(t, xdr.WriteDouble(&buf, 3.5))
	require.NoError(t, xdr.WriteBool(&buf, true))
	require.NoError(t, xdr.WriteBool(&buf, false))

	u32, err := xdr.DecodeUint32(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	i32, err := xdr.DecodeInt32(&buf)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), i32)

	u64, err := xdr.DecodeUint64(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)

	i64, err := xdr.DecodeInt64(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(-42), i64)

	f, err := xdr.DecodeDouble(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3.5, f)

	b1, err := xdr.DecodeBool(&buf)
	require.NoError(t, err)
	assert.True(t, b1)

	b2, err := xdr.DecodeBool(&buf)
	require.NoError(t, err)
	assert.False(t, b2)
}

func TestDoubleBitPattern(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xdr.WriteDouble(&buf, math.Inf(1)))
	f, err := xdr.DecodeDouble(&buf)
	require.NoError(t, err)
	assert.True(t, math.IsInf(f, 1))
}

func TestStringAndOpaquePadding(t *testing.T) {
	cases := []struct {
		data     string
		wantLen  int // total wire length: 4 + len + pad
	}{
		{"", 4},
		{"a", 8},
		{"ab", 8},
		{"abc", 8},
		{"abcd", 8},
		{"abcde", 12},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		require.NoError(t, xdr.WriteString(&buf, c.data))
		assert.Equal(t, c.wantLen, buf.Len(), "data=%q", c.data)
		assert.Zero(t, buf.Len()%4, "must be 4-byte aligned for %q", c.data)

		got, err := xdr.DecodeString(&buf, xdr.DefaultMaxStringLen)
		require.NoError(t, err)
		assert.Equal(t, c.data, got)
	}
}

func TestStringCapEnforced(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xdr.WriteString(&buf, strings.Repeat("x", 16)))
	_, err := xdr.DecodeString(&buf, 8)
	require.Error(t, err)
	assert.ErrorIs(t, err, xdr.ErrMalformed)
}

func TestDecodeOpaqueShortRead(t *testing.T) {
	// Declares a length longer than what's actually present.
	var buf bytes.Buffer
	require.NoError(t, xdr.WriteUint32(&buf, 100))
	buf.WriteByte(0x01)

	_, err := xdr.DecodeOpaque(&buf, xdr.DefaultMaxOpaqueLen)
	require.Error(t, err)
	assert.ErrorIs(t, err, xdr.ErrMalformed)
}

func TestFixedOpaqueRoundTrip(t *testing.T) {
	uuid := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	var buf bytes.Buffer
	require.NoError(t, xdr.WriteFixedOpaque(&buf, uuid))
	assert.Zero(t, buf.Len()%4)

	got, err := xdr.DecodeFixedOpaque(&buf, 16)
	require.NoError(t, err)
	assert.Equal(t, uuid, got)
}

func TestOptionalRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xdr.WriteOptional(&buf, true, "hello", xdr.WriteString))
	require.NoError(t, xdr.WriteOptional[string](&buf, false, "", xdr.WriteString))

	decodeStr := func(r io.Reader) (string, error) {
		return xdr.DecodeString(r, xdr.DefaultMaxStringLen)
	}

	v, ok, err := xdr.DecodeOptional(&buf, decodeStr)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", v)

	v2, ok2, err := xdr.DecodeOptional(&buf, decodeStr)
	require.NoError(t, err)
	assert.False(t, ok2)
	assert.Equal(t, "", v2)
}

func TestArrayRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	nums := []int32{1, -2, 3, -4}
	require.NoError(t, xdr.WriteArray(&buf, nums, xdr.WriteInt32))

	got, err := xdr.DecodeArray(&buf, xdr.DefaultMaxArrayLen, xdr.DecodeInt32)
	require.NoError(t, err)
	assert.Equal(t, nums, got)
}

func TestArrayCountCapEnforced(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xdr.WriteUint32(&buf, 1000))
	_, err := xdr.DecodeArray(&buf, 10, xdr.DecodeInt32)
	require.Error(t, err)
	assert.ErrorIs(t, err, xdr.ErrMalformed)
}

func TestUnionDispatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xdr.EncodeUnionDiscriminant(&buf, 2))
	require.NoError(t, xdr.WriteInt32(&buf, 7))

	arms := xdr.UnionDecoders[int32]{
		1: func(r io.Reader) (int32, error) { return 0, nil },
		2: xdr.DecodeInt32,
	}
	disc, v, err := xdr.DecodeUnion[int32](&buf, arms)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), disc)
	assert.Equal(t, int32(7), v)
}

func TestUnionUnknownDiscriminant(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xdr.EncodeUnionDiscriminant(&buf, 99))
	_, _, err := xdr.DecodeUnion[int32](&buf, xdr.UnionDecoders[int32]{1: xdr.DecodeInt32})
	require.Error(t, err)
	assert.ErrorIs(t, err, xdr.ErrMalformed)
}
