// Package delegation resolves a domain to the nameservers authoritative for
// it, using only the root index: no recursive resolution, at most one level
// of live referral beyond whatever the root zone file already covers.
package delegation

import (
	"context"
	"net"
	"strings"

	"github.com/bpwilder/delegaudit/index"
	"github.com/bpwilder/delegaudit/rrdata"
	"github.com/bpwilder/delegaudit/wire"
)

// Walker resolves domains against a RootIndex, optionally issuing live
// referral queries through Client to learn zones the index doesn't cover
// yet.
type Walker struct {
	Index  *index.RootIndex
	Client *wire.Client
}

// New returns a Walker over idx, issuing any referral queries through
// client.
func New(idx *index.RootIndex, client *wire.Client) *Walker {
	return &Walker{Index: idx, Client: client}
}

// GetNameservers returns the nameserver list for the deepest zone in the
// index that is a suffix of domain, and that zone's own name. It never
// issues a query; it is a pure lookup.
func (w *Walker) GetNameservers(domain string) (nfz *index.NameserversForZone, zone string, err error) {
	labels := splitLabels(domain)

	for drop := 0; drop <= len(labels); drop++ {
		candidate := suffixZone(labels, drop)
		if found, ok := w.Index.Lookup(candidate); ok {
			return found, candidate, nil
		}
	}

	return nil, "", ErrZoneNotFound
}

// GetNameserversAndResolve behaves like GetNameservers, but if the deepest
// match found is exactly one label shallower than domain itself (and domain
// has more than two labels), it attempts a single live referral query
// against the matched zone's servers to learn the missing sublevel,
// inserting the result into the index for subsequent lookups.
func (w *Walker) GetNameserversAndResolve(ctx context.Context, domain string) (*index.NameserversForZone, error) {
	nfz, zone, err := w.GetNameservers(domain)
	if err != nil {
		return nil, err
	}

	labels := splitLabels(domain)
	zoneLabels := splitLabels(zone)

	if len(labels) != len(zoneLabels)+1 || len(labels) <= 2 {
		return nfz, nil
	}

	resolved, err := w.referral(ctx, nfz, domain)
	if err != nil {
		return nil, ErrNoNameserver
	}

	w.Index.Insert(domain, resolved)
	return resolved, nil
}

func (w *Walker) referral(ctx context.Context, parent *index.NameserversForZone, domain string) (*index.NameserversForZone, error) {
	for _, ns := range parent.Servers() {
		msg, err := w.Client.Query(ctx, ns.IP.String(), domain, rrdata.TypeNS, false)
		if err != nil {
			continue
		}
		if msg.Rcode != wire.RcodeNoError {
			continue
		}

		nfz, err := w.buildFromReferral(ctx, msg, domain)
		if err != nil {
			continue
		}
		return nfz, nil
	}

	return nil, ErrNoNameserver
}

// buildFromReferral extracts a new zone's nameserver list from an NS
// query's reply: NS records in the authority section, addressed first by
// glue in the additional section, falling back to the system resolver for
// any NS target that had none.
func (w *Walker) buildFromReferral(ctx context.Context, msg *wire.Message, domain string) (*index.NameserversForZone, error) {
	var servers []index.Nameserver

	for _, rr := range msg.Authority {
		nameRR, ok := rr.RDATA.(*rrdata.NameRR)
		if !ok || nameRR.RRType != rrdata.TypeNS {
			continue
		}
		target := nameRR.Name

		glued := false
		for _, add := range msg.Additional {
			if !strings.EqualFold(add.Name, target) {
				continue
			}
			switch a := add.RDATA.(type) {
			case *rrdata.A:
				servers = append(servers, index.Nameserver{Hostname: target, IP: a.IP})
				glued = true
			case *rrdata.AAAA:
				servers = append(servers, index.Nameserver{Hostname: target, IP: a.IP})
				glued = true
			}
		}

		if glued {
			continue
		}

		addrs, err := net.DefaultResolver.LookupIPAddr(ctx, strings.TrimSuffix(target, "."))
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			servers = append(servers, index.Nameserver{Hostname: target, IP: addr.IP})
		}
	}

	if len(servers) == 0 {
		return nil, ErrNoNameserver
	}

	return index.NewNameserversForZone(domain, servers), nil
}
