package rank

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpwilder/delegaudit/index"
	"github.com/bpwilder/delegaudit/wire"
)

// startEchoServer answers every query it receives with a minimal NOERROR
// reply carrying no records, just enough for a probe to count as successful.
func startEchoServer(t *testing.T) (port int, stop func()) {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	_, portStr, err := net.SplitHostPort(conn.LocalAddr().String())
	require.NoError(t, err)
	p, err := net.LookupPort("udp", portStr)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		buf := make([]byte, 512)
		for {
			select {
			case <-done:
				return
			default:
			}
			n, addr, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			reply := make([]byte, 12)
			copy(reply, buf[:2]) // echo the id
			reply[2] = 0x80      // QR=1
			conn.WriteTo(reply, addr)
			_ = n
		}
	}()

	return p, func() {
		close(done)
		conn.Close()
	}
}

func TestRankMeasuresRespondingServer(t *testing.T) {
	port, stop := startEchoServer(t)
	defer stop()

	idx := index.NewRootIndex()
	idx.Insert("example.com.", index.NewNameserversForZone("example.com.", []index.Nameserver{
		{Hostname: "ns1.example.com.", IP: net.ParseIP("127.0.0.1")},
	}))

	client := &wire.Client{Timeout: time.Second, Port: port}
	r := New(client, 2, nil)
	r.Rank(context.Background(), idx)

	nfz, _ := idx.Lookup("example.com.")
	servers := nfz.Servers()
	require.Len(t, servers, 1)
	require.NotNil(t, servers[0].Latency)
	assert.GreaterOrEqual(t, *servers[0].Latency, time.Duration(0))
}

func TestRankOrdersMeasuredBeforeUnmeasured(t *testing.T) {
	port, stop := startEchoServer(t)
	defer stop()

	idx := index.NewRootIndex()
	idx.Insert("example.com.", index.NewNameserversForZone("example.com.", []index.Nameserver{
		{Hostname: "dead.example.com.", IP: net.ParseIP("203.0.113.1")}, // unreachable, no reply
		{Hostname: "ns1.example.com.", IP: net.ParseIP("127.0.0.1")},
	}))

	client := &wire.Client{Timeout: 100 * time.Millisecond, Port: port}
	r := New(client, 1, nil)
	r.Rank(context.Background(), idx)

	nfz, _ := idx.Lookup("example.com.")
	servers := nfz.Servers()
	require.Len(t, servers, 2)
	assert.NotNil(t, servers[0].Latency)
	assert.Nil(t, servers[1].Latency)
}

func TestRankSkipsEmptyIndex(t *testing.T) {
	idx := index.NewRootIndex()
	r := New(&wire.Client{}, 4, nil)
	r.Rank(context.Background(), idx) // must not panic or hang
}
