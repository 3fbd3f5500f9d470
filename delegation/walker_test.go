package delegation

import (
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpwilder/delegaudit/index"
	"github.com/bpwilder/delegaudit/wire"
)

func TestGetNameserversDeepestMatch(t *testing.T) {
	idx := index.NewRootIndex()
	idx.Insert(".", index.NewNameserversForZone(".", nil))
	idx.Insert("com.", index.NewNameserversForZone("com.", []index.Nameserver{
		{Hostname: "a.gtld-servers.net.", IP: net.ParseIP("192.5.6.30")},
	}))

	w := New(idx, &wire.Client{})

	nfz, zone, err := w.GetNameservers("example.com.")
	require.NoError(t, err)
	assert.Equal(t, "com.", zone)
	assert.Len(t, nfz.Servers(), 1)
}

func TestGetNameserversNotFound(t *testing.T) {
	idx := index.NewRootIndex()
	w := New(idx, &wire.Client{})

	_, _, err := w.GetNameservers("example.com.")
	assert.ErrorIs(t, err, ErrZoneNotFound)
}

func TestGetNameserversAndResolveSkipsReferralForShortDomain(t *testing.T) {
	idx := index.NewRootIndex()
	idx.Insert("com.", index.NewNameserversForZone("com.", []index.Nameserver{
		{Hostname: "a.gtld-servers.net.", IP: net.ParseIP("192.5.6.30")},
	}))

	w := New(idx, &wire.Client{})

	nfz, err := w.GetNameserversAndResolve(context.Background(), "example.com.")
	require.NoError(t, err)
	assert.Len(t, nfz.Servers(), 1)
}

// encodeNameRaw encodes name in label form without compression, for
// building hand-crafted test replies.
func encodeNameRaw(name string) []byte {
	trimmed := strings.TrimSuffix(name, ".")
	var buf []byte
	if trimmed != "" {
		for _, label := range strings.Split(trimmed, ".") {
			buf = append(buf, byte(len(label)))
			buf = append(buf, label...)
		}
	}
	return append(buf, 0)
}

func be16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func be32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// buildReferralReply hand-assembles a wire-format reply carrying a single
// question, one NS record in the authority section naming nsName, and one A
// glue record for nsName in the additional section.
func buildReferralReply(id uint16, qname, nsName string, nsIP net.IP) []byte {
	var msg []byte
	msg = append(msg, be16(id)...)
	msg = append(msg, 0x80, 0x00) // QR=1, rcode=0
	msg = append(msg, be16(1)...) // qdcount
	msg = append(msg, be16(0)...) // ancount
	msg = append(msg, be16(1)...) // nscount
	msg = append(msg, be16(1)...) // arcount

	msg = append(msg, encodeNameRaw(qname)...)
	msg = append(msg, be16(2)...) // type NS
	msg = append(msg, be16(1)...) // class IN

	rdata := encodeNameRaw(nsName)
	msg = append(msg, encodeNameRaw(qname)...)
	msg = append(msg, be16(2)...)
	msg = append(msg, be16(1)...)
	msg = append(msg, be32(3600)...)
	msg = append(msg, be16(uint16(len(rdata)))...)
	msg = append(msg, rdata...)

	ip4 := nsIP.To4()
	msg = append(msg, encodeNameRaw(nsName)...)
	msg = append(msg, be16(1)...) // type A
	msg = append(msg, be16(1)...)
	msg = append(msg, be32(3600)...)
	msg = append(msg, be16(4)...)
	msg = append(msg, ip4...)

	return msg
}

func decodeQName(msg []byte) string {
	var labels []string
	pos := 12
	for {
		n := int(msg[pos])
		if n == 0 {
			pos++
			break
		}
		labels = append(labels, string(msg[pos+1:pos+1+n]))
		pos += 1 + n
	}
	_ = pos
	return strings.Join(labels, ".") + "."
}

func TestGetNameserversAndResolveFollowsReferral(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	_, portStr, err := net.SplitHostPort(conn.LocalAddr().String())
	require.NoError(t, err)
	port, err := net.LookupPort("udp", portStr)
	require.NoError(t, err)

	const glueName = "ns1.www.example.com."
	glueIP := net.ParseIP("203.0.113.9")

	go func() {
		buf := make([]byte, 512)
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			return
		}
		query := buf[:n]
		id := uint16(query[0])<<8 | uint16(query[1])
		qname := decodeQName(query)

		reply := buildReferralReply(id, qname, glueName, glueIP)
		conn.WriteTo(reply, addr)
	}()

	idx := index.NewRootIndex()
	idx.Insert("example.com.", index.NewNameserversForZone("example.com.", []index.Nameserver{
		{Hostname: "parent-ns.example.com.", IP: net.ParseIP("127.0.0.1")},
	}))

	client := &wire.Client{Timeout: 2 * time.Second, Port: port}
	w := New(idx, client)

	nfz, err := w.GetNameserversAndResolve(context.Background(), "www.example.com.")
	require.NoError(t, err)

	servers := nfz.Servers()
	require.Len(t, servers, 1)
	assert.Equal(t, glueName, servers[0].Hostname)
	assert.Equal(t, glueIP.String(), servers[0].IP.String())

	// The learned zone is now in the index directly.
	again, ok := idx.Lookup("www.example.com.")
	require.True(t, ok)
	assert.Equal(t, servers, again.Servers())
}

func TestGetNameserversAndResolveNoNameserverWhenReferralFails(t *testing.T) {
	idx := index.NewRootIndex()
	idx.Insert("example.com.", index.NewNameserversForZone("example.com.", []index.Nameserver{
		{Hostname: "dead.example.com.", IP: net.ParseIP("203.0.113.1")},
	}))

	client := &wire.Client{Timeout: 100 * time.Millisecond, Port: mustFreeUDPPort(t)}
	w := New(idx, client)

	_, err := w.GetNameserversAndResolve(context.Background(), "www.example.com.")
	assert.ErrorIs(t, err, ErrNoNameserver)
}

func mustFreeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(conn.LocalAddr().String())
	require.NoError(t, err)
	conn.Close()
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return port
}
