package audit

import (
	"context"
	"net"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/bpwilder/delegaudit/delegation"
	"github.com/bpwilder/delegaudit/rrdata"
	"github.com/bpwilder/delegaudit/wire"
)

// LookupHost resolves a nameserver hostname to its addresses. The zero value
// of Executor uses net.DefaultResolver.LookupIPAddr; tests substitute a fake,
// the same way go-dns-resolver injects a TimeoutPolicy or CachePolicy func
// instead of calling net.DefaultResolver directly.
type LookupHost func(ctx context.Context, host string) ([]net.IPAddr, error)

func defaultLookupHost(ctx context.Context, host string) ([]net.IPAddr, error) {
	return net.DefaultResolver.LookupIPAddr(ctx, host)
}

// Executor runs audits against real authoritative servers, fanned out across
// a fixed-size worker pool.
type Executor struct {
	Walker  *delegation.Walker
	Client  *wire.Client
	Lookup  LookupHost
	Workers int
	Logger  log.Logger
}

// New returns an Executor that resolves delegations through walker, issues
// queries through client, and partitions work across workers goroutines.
// workers <= 0 is treated as 1.
func New(walker *delegation.Walker, client *wire.Client, workers int, logger log.Logger) *Executor {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Executor{Walker: walker, Client: client, Workers: workers, Logger: logger}
}

func (e *Executor) lookup() LookupHost {
	if e.Lookup != nil {
		return e.Lookup
	}
	return defaultLookupHost
}

// Run audits every target, partitioning the slice evenly (ceiling split)
// across e.Workers goroutines. Result order is not guaranteed to match
// target order.
func (e *Executor) Run(ctx context.Context, targets []Target) []Result {
	if len(targets) == 0 {
		return nil
	}

	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(targets) {
		workers = len(targets)
	}

	chunk := (len(targets) + workers - 1) / workers

	var mu sync.Mutex
	var results []Result
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= len(targets) {
			break
		}
		end := start + chunk
		if end > len(targets) {
			end = len(targets)
		}

		wg.Add(1)
		go func(slice []Target) {
			defer wg.Done()
			for _, target := range slice {
				res := e.Audit(ctx, target)
				mu.Lock()
				results = append(results, *res)
				mu.Unlock()
			}
		}(targets[start:end])
	}

	wg.Wait()
	return results
}

// Audit runs the full check for one target: resolve the parent nameservers,
// confirm the observed NS set against target.ExpectedNS, then (only if
// target.ExpectedIPs is set) resolve each observed nameserver's own address
// and confirm the observed A/AAAA set.
func (e *Executor) Audit(ctx context.Context, target Target) *Result {
	res := &Result{Domain: target.Domain}

	observedNS := e.observeNameservers(ctx, target.Domain)
	res.ObservedNS = observedNS

	if target.ExpectedNS != nil {
		switch {
		case len(observedNS) == 0:
			res.Flags = append(res.Flags, FlagNoAuthoritative)
			res.Reasons = append(res.Reasons, "no authoritative nameservers observed")
		case !nsSetMatches(observedNS, target.ExpectedNS):
			res.Flags = append(res.Flags, FlagAuthoritativeFail)
			res.Reasons = append(res.Reasons, "observed nameservers do not match expected set")
		}
	}

	if target.ExpectedIPs != nil {
		observedIPs := e.observeAddresses(ctx, target.Domain, observedNS)
		res.ObservedIPs = observedIPs

		switch {
		case len(observedIPs) == 0:
			res.Flags = append(res.Flags, FlagNoResolve)
			res.Reasons = append(res.Reasons, "no addresses resolved")
		case ipSetMismatch(observedIPs, target.ExpectedIPs):
			res.Flags = append(res.Flags, FlagResolveIPNotMatch)
			res.Reasons = append(res.Reasons, "observed addresses do not match expected set")
		}
	}

	res.Success = len(res.Flags) == 0
	return res
}

// observeNameservers resolves domain's parent nameservers (resolving one
// missing sublevel by referral if needed) and queries them in order for an
// NS record at domain, stopping at the first reply obtained — not the first
// NOERROR reply, matching the ported behavior exactly.
func (e *Executor) observeNameservers(ctx context.Context, domain string) []string {
	nfz, err := e.Walker.GetNameserversAndResolve(ctx, domain)
	if err != nil {
		return nil
	}

	for _, ns := range nfz.Servers() {
		msg, err := e.Client.Query(ctx, ns.IP.String(), domain, rrdata.TypeNS, false)
		if err != nil {
			level.Debug(e.Logger).Log("msg", "NS query failed", "domain", domain, "server", ns.Hostname, "err", err)
			continue
		}

		var observed []string
		for _, rr := range msg.Authority {
			if nameRR, ok := rr.RDATA.(*rrdata.NameRR); ok && nameRR.RRType == rrdata.TypeNS {
				observed = append(observed, nameRR.Name)
			}
		}
		return observed
	}

	return nil
}

// observeAddresses resolves each nameserver's own address via the system
// resolver and queries it directly for A and then AAAA, stopping at the
// first nameserver that responded to either query.
func (e *Executor) observeAddresses(ctx context.Context, domain string, nameservers []string) []string {
	lookup := e.lookup()

	var observed []string

	for _, ns := range nameservers {
		addrs, err := lookup(ctx, strings.TrimSuffix(ns, "."))
		if err != nil || len(addrs) == 0 {
			continue
		}

		responded := false
		for _, addr := range addrs {
			server := addr.IP.String()

			if msg, err := e.Client.Query(ctx, server, domain, rrdata.TypeA, false); err == nil {
				responded = true
				for _, rr := range msg.Answer {
					if a, ok := rr.RDATA.(*rrdata.A); ok {
						observed = append(observed, a.IP.String())
					}
				}
			}

			if msg, err := e.Client.Query(ctx, server, domain, rrdata.TypeAAAA, false); err == nil {
				responded = true
				for _, rr := range msg.Answer {
					if aaaa, ok := rr.RDATA.(*rrdata.AAAA); ok {
						observed = append(observed, aaaa.IP.String())
					}
				}
			}
		}

		if responded {
			break
		}
	}

	return observed
}

// nsSetMatches reports whether observed and expected have equal length and
// expected (case-insensitively) is a subset of observed — the ported
// AuthoritativeFail rule.
func nsSetMatches(observed, expected []string) bool {
	if len(observed) != len(expected) {
		return false
	}
	for _, want := range expected {
		if !containsFold(observed, want) {
			return false
		}
	}
	return true
}

// ipSetMismatch reports the ported ResolveIpNotMatch rule: cardinalities
// differ, or any observed address is absent from expected. It does not, by
// design, detect an expected address that was never observed (see DESIGN.md).
func ipSetMismatch(observed, expected []string) bool {
	if len(observed) != len(expected) {
		return true
	}
	for _, got := range observed {
		if !contains(expected, got) {
			return true
		}
	}
	return false
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
