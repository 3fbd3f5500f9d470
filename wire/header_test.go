package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := header{
		id: 0xABCD, qr: true, opcode: 0, aa: true, tc: false, rd: true, ra: true,
		z: 0, rcode: RcodeNoError, qd: 1, an: 2, ns: 3, ar: 4,
	}

	buf := encodeHeader(h)
	require.Len(t, buf, 12)

	got, err := decodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestDecodeHeaderTooShort(t *testing.T) {
	_, err := decodeHeader([]byte{1, 2, 3})
	require.Error(t, err)
}
