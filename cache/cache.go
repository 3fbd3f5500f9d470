// Package cache reads and writes the root index's cache JSON document: a
// stable, serializable snapshot of every zone's ranked nameserver list, so a
// ranking pass doesn't have to be repeated on every run. It is adapted from
// go-dns-resolver's cache.go LRU, which cached individual DNS responses keyed
// by question and server address; a load-once, save-once index snapshot has
// no use for that LRU's eviction machinery, so only its locking discipline
// (never let the map and its companion structure diverge) survives, carried
// forward as index.RootIndex.Snapshot/Restore.
package cache

import (
	"encoding/json"
	"io"
	"net"
	"time"

	"github.com/bpwilder/delegaudit/index"
)

type serverDoc struct {
	ServerName string         `json:"server_name"`
	IP         string         `json:"ip"`
	Speed      *time.Duration `json:"speed,omitempty"`
}

type zoneDoc struct {
	ZoneName string      `json:"zone_name"`
	Servers  []serverDoc `json:"servers"`
}

// Write serializes idx's current contents to w as a JSON object mapping each
// zone's fqdn to its server list.
func Write(w io.Writer, idx *index.RootIndex) error {
	snapshot := idx.Snapshot()

	doc := make(map[string]zoneDoc, len(snapshot))
	for zone, servers := range snapshot {
		zd := zoneDoc{ZoneName: zone, Servers: make([]serverDoc, 0, len(servers))}
		for _, s := range servers {
			zd.Servers = append(zd.Servers, serverDoc{
				ServerName: s.Hostname,
				IP:         s.IP.String(),
				Speed:      s.Latency,
			})
		}
		doc[zone] = zd
	}

	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}

// Read deserializes a cache JSON document from r into a fresh RootIndex.
func Read(r io.Reader) (*index.RootIndex, error) {
	var doc map[string]zoneDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}

	snapshot := make(map[string][]index.Nameserver, len(doc))
	for zone, zd := range doc {
		servers := make([]index.Nameserver, 0, len(zd.Servers))
		for _, s := range zd.Servers {
			servers = append(servers, index.Nameserver{
				Hostname: s.ServerName,
				IP:       net.ParseIP(s.IP),
				Latency:  s.Speed,
			})
		}
		snapshot[zone] = servers
	}

	idx := index.NewRootIndex()
	idx.Restore(snapshot)
	return idx, nil
}
