// Package index holds the in-memory map from zone name to its ranked
// nameserver list, built once from a parsed root zone and mutated only by
// performance ranking and by the delegation walker learning a zone through
// live referral.
package index

import (
	"net"
	"strings"
	"sync"
	"time"
)

// Nameserver is one authoritative server for a zone.
type Nameserver struct {
	Hostname string
	IP       net.IP

	// Latency is the average round-trip time measured by the ranker, or nil
	// if the server has not been measured (or measurement failed).
	Latency *time.Duration
}

// NameserversForZone is the nameserver list for one zone, individually
// lock-protected so the ranker and the delegation walker can update one
// zone's list without taking the whole RootIndex's lock.
type NameserversForZone struct {
	// ZoneName is immutable after construction.
	ZoneName string

	mu      sync.RWMutex
	servers []Nameserver
}

// NewNameserversForZone returns a NameserversForZone for zone holding a copy
// of servers.
func NewNameserversForZone(zone string, servers []Nameserver) *NameserversForZone {
	cp := make([]Nameserver, len(servers))
	copy(cp, servers)
	return &NameserversForZone{ZoneName: zone, servers: cp}
}

// Servers returns a copy of the current server list.
func (z *NameserversForZone) Servers() []Nameserver {
	z.mu.RLock()
	defer z.mu.RUnlock()

	out := make([]Nameserver, len(z.servers))
	copy(out, z.servers)
	return out
}

// SetServers replaces the server list, e.g. after ranking has sorted it.
func (z *NameserversForZone) SetServers(servers []Nameserver) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.servers = servers
}

// RootIndex maps a zone's fully qualified name to its NameserversForZone.
// Lookups are case-insensitive in ASCII; keys are stored in trailing-dot,
// lower-case form.
type RootIndex struct {
	mu    sync.RWMutex
	zones map[string]*NameserversForZone
}

// NewRootIndex returns an empty RootIndex.
func NewRootIndex() *RootIndex {
	return &RootIndex{zones: map[string]*NameserversForZone{}}
}

func normalizeZoneKey(name string) string {
	if !strings.HasSuffix(name, ".") {
		name += "."
	}
	return strings.ToLower(name)
}

// Lookup returns the NameserversForZone for zone, if present.
func (idx *RootIndex) Lookup(zone string) (*NameserversForZone, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	z, ok := idx.zones[normalizeZoneKey(zone)]
	return z, ok
}

// Insert adds or replaces the entry for zone. Used both by the initial
// root-zone build and by the delegation walker when it learns a new zone
// via live referral.
func (idx *RootIndex) Insert(zone string, nfz *NameserversForZone) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.zones[normalizeZoneKey(zone)] = nfz
}

// Zones returns every zone entry currently in the index. The slice order is
// unspecified.
func (idx *RootIndex) Zones() []*NameserversForZone {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*NameserversForZone, 0, len(idx.zones))
	for _, z := range idx.zones {
		out = append(out, z)
	}
	return out
}

// Len reports how many zones are currently indexed.
func (idx *RootIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.zones)
}

// Snapshot returns a point-in-time copy of every zone's nameserver list,
// keyed by zone name. It takes the outer lock only to list the zones, then
// each zone's own lock in turn to copy its servers — no lock is ever held
// across more than one zone.
func (idx *RootIndex) Snapshot() map[string][]Nameserver {
	idx.mu.RLock()
	zones := make([]*NameserversForZone, 0, len(idx.zones))
	for _, z := range idx.zones {
		zones = append(zones, z)
	}
	idx.mu.RUnlock()

	out := make(map[string][]Nameserver, len(zones))
	for _, z := range zones {
		out[z.ZoneName] = z.Servers()
	}
	return out
}

// Restore replaces idx's entire contents with snapshot under a single
// exclusive lock, the same all-or-nothing swap discipline go-dns-resolver's
// cache applied to its map-and-list pair so the two can never be observed
// half-updated.
func (idx *RootIndex) Restore(snapshot map[string][]Nameserver) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.zones = make(map[string]*NameserversForZone, len(snapshot))
	for zone, servers := range snapshot {
		idx.zones[normalizeZoneKey(zone)] = NewNameserversForZone(zone, servers)
	}
}
