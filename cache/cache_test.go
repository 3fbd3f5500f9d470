package cache

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpwilder/delegaudit/index"
)

func TestWriteReadRoundTrip(t *testing.T) {
	idx := index.NewRootIndex()
	latency := 12 * time.Millisecond
	idx.Insert("com.", index.NewNameserversForZone("com.", []index.Nameserver{
		{Hostname: "a.gtld-servers.net.", IP: net.ParseIP("192.5.6.30"), Latency: &latency},
		{Hostname: "b.gtld-servers.net.", IP: net.ParseIP("192.33.14.30")},
	}))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, idx))

	restored, err := Read(&buf)
	require.NoError(t, err)

	nfz, ok := restored.Lookup("com.")
	require.True(t, ok)

	servers := nfz.Servers()
	require.Len(t, servers, 2)

	byHost := map[string]index.Nameserver{}
	for _, s := range servers {
		byHost[s.Hostname] = s
	}

	measured := byHost["a.gtld-servers.net."]
	require.NotNil(t, measured.Latency)
	assert.Equal(t, latency, *measured.Latency)
	assert.Equal(t, "192.5.6.30", measured.IP.String())

	unmeasured := byHost["b.gtld-servers.net."]
	assert.Nil(t, unmeasured.Latency)
}

func TestReadEmptyDocument(t *testing.T) {
	idx, err := Read(bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}
