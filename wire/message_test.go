package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpwilder/delegaudit/rrdata"
)

func TestEncodeDecodeQueryRoundTrip(t *testing.T) {
	buf, err := EncodeQuery(0x1234, Question{Name: "example.com.", Type: rrdata.TypeA, Class: rrdata.ClassIN}, false)
	require.NoError(t, err)

	// EncodeQuery writes a complete message (header counts included), so
	// Decode parses the question we just wrote with nothing appended.
	msg, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), msg.ID)
	assert.False(t, msg.RD)
	require.Len(t, msg.Question, 1)
	assert.Equal(t, "example.com.", msg.Question[0].Name)
	assert.Equal(t, rrdata.TypeA, msg.Question[0].Type)
}

func TestNameCompressionPointer(t *testing.T) {
	// Hand-build a minimal message: header + one question "example.com." +
	// one answer RR whose owner name is a compression pointer back to the
	// question's name at offset 12.
	header := make([]byte, 12)
	putBE16(header[0:], 7)
	header[2] = 0x80 // QR=1
	putBE16(header[4:], 1) // qdcount
	putBE16(header[6:], 1) // ancount

	qname, err := encodeName("example.com.")
	require.NoError(t, err)

	msg := append([]byte{}, header...)
	msg = append(msg, qname...)
	msg = appendBE16(msg, rrdata.TypeA)
	msg = appendBE16(msg, rrdata.ClassIN)

	answerStart := len(msg)
	_ = answerStart
	msg = append(msg, 0xC0, 0x0C) // pointer to offset 12 (start of qname)
	msg = appendBE16(msg, rrdata.TypeA)
	msg = appendBE16(msg, rrdata.ClassIN)
	msg = append(msg, 0, 0, 0x0E, 0x10) // ttl
	msg = appendBE16(msg, 4)            // rdlength
	msg = append(msg, 10, 0, 0, 1)

	decoded, err := Decode(msg)
	require.NoError(t, err)
	require.Len(t, decoded.Answer, 1)
	assert.Equal(t, "example.com.", decoded.Answer[0].Name)

	a, ok := decoded.Answer[0].RDATA.(*rrdata.A)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", a.IP.String())
}

func TestDecodeSkipsMalformedTrailingRR(t *testing.T) {
	header := make([]byte, 12)
	putBE16(header[4:], 0) // qdcount
	putBE16(header[6:], 1) // ancount

	msg := append([]byte{}, header...)
	// A single byte is not a valid RR (name+type+class+ttl+rdlength needs
	// at least a few bytes), so this record is unparsable.
	msg = append(msg, 0xFF)

	decoded, err := Decode(msg)
	require.NoError(t, err)
	assert.Empty(t, decoded.Answer)
}
