package wire

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/bpwilder/delegaudit/rrdata"
)

// DefaultTimeout is the round-trip timeout applied when Client.Timeout is
// zero.
const DefaultTimeout = 5 * time.Second

// maxUDPReply is the fixed receive buffer size; this tool never negotiates
// EDNS(0), so replies larger than a classic UDP response are truncated by
// the server, not by us.
const maxUDPReply = 512

// Client issues single-shot, non-recursive UDP queries. It keeps no state
// between calls: every Query opens its own ephemeral socket and closes it
// before returning.
type Client struct {
	// Timeout bounds the whole exchange (send + wait for reply). Zero means
	// DefaultTimeout.
	Timeout time.Duration

	// Port is the server port to dial. Zero means 53. Tests point this at an
	// ephemeral port so they don't need root to bind 53.
	Port int

	// Logger receives one debug line per exchange whose reply was received
	// and decoded, if set; failed exchanges are not logged here. Never
	// required; a nil Logger is the same as log.NewNopLogger().
	Logger log.Logger
}

// Query sends a single question to server (an IP address; the port is
// Client.Port, or 53 if unset) and returns the decoded reply. rd controls
// the query's RD bit; every other flag in the outgoing message is zero.
func (c *Client) Query(ctx context.Context, server string, name string, qtype uint16, rd bool) (*Message, error) {
	logger := c.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	port := c.Port
	if port == 0 {
		port = 53
	}

	addr := net.JoinHostPort(server, fmt.Sprintf("%d", port))

	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	id, err := randomID()
	if err != nil {
		return nil, fmt.Errorf("generate query id: %w", err)
	}

	q := Question{Name: name, Type: qtype, Class: rrdata.ClassIN}
	query, err := EncodeQuery(id, q, rd)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > timeout {
		deadline = time.Now().Add(timeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	start := time.Now()

	if _, err := conn.Write(query); err != nil {
		return nil, fmt.Errorf("send query to %s: %w", addr, err)
	}

	buf := make([]byte, maxUDPReply)
	n, err := conn.Read(buf)
	rtt := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("receive reply from %s: %w", addr, err)
	}

	msg, err := Decode(buf[:n])
	if err != nil {
		return nil, fmt.Errorf("decode reply from %s: %w", addr, err)
	}

	level.Debug(logger).Log(
		"server", server,
		"name", name,
		"qtype", rrdata.TypeToString(qtype),
		"rtt", rtt,
		"rcode", msg.Rcode,
	)

	return msg, nil
}

func randomID() (uint16, error) {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}
