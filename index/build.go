package index

import (
	"strings"

	"github.com/bpwilder/delegaudit/rrdata"
	"github.com/bpwilder/delegaudit/zonefile"
)

// BuildFromZone builds a RootIndex from a parsed zone file in two passes:
// first bucket NS records by the delegated zone's owner name and A/AAAA
// records by their owner (server host) name, then join an NS record's
// target against the address bucket to produce each zone's nameserver
// list. Glue missing from the file is silently dropped: the zone is still
// indexed, just without a usable address for that one nameserver.
func BuildFromZone(z *zonefile.Zone) *RootIndex {
	nsTargets := map[string][]string{}
	addrs := map[string][]Nameserver{}

	for _, rec := range z.Records {
		switch data := rec.RDATA.(type) {
		case *rrdata.NameRR:
			if data.RRType == rrdata.TypeNS {
				key := strings.ToLower(rec.Owner.FQDN)
				nsTargets[key] = append(nsTargets[key], data.Name)
			}
		case *rrdata.A:
			key := strings.ToLower(rec.Owner.FQDN)
			addrs[key] = append(addrs[key], Nameserver{Hostname: rec.Owner.FQDN, IP: data.IP})
		case *rrdata.AAAA:
			key := strings.ToLower(rec.Owner.FQDN)
			addrs[key] = append(addrs[key], Nameserver{Hostname: rec.Owner.FQDN, IP: data.IP})
		}
	}

	idx := NewRootIndex()

	for zone, targets := range nsTargets {
		var servers []Nameserver
		for _, target := range targets {
			for _, glue := range addrs[strings.ToLower(target)] {
				servers = append(servers, Nameserver{Hostname: target, IP: glue.IP})
			}
		}
		idx.Insert(zone, NewNameserversForZone(zone, servers))
	}

	return idx
}
