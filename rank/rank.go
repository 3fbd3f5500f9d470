// Package rank measures nameserver latency and orders each zone's server
// list accordingly: probing and sorting are the two halves of "performance
// ranking" and live together because neither is useful without the other.
package rank

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/bpwilder/delegaudit/index"
	"github.com/bpwilder/delegaudit/rrdata"
	"github.com/bpwilder/delegaudit/wire"
)

// probeCount is the number of SOA queries issued per server; an average is
// only reported if every one of them succeeds.
const probeCount = 5

// Ranker probes every nameserver in a RootIndex and reorders each zone's
// server list by measured latency.
type Ranker struct {
	Client  *wire.Client
	Workers int
	Logger  log.Logger
}

// New returns a Ranker that issues probes through client using workers
// concurrent workers. workers <= 0 is treated as 1.
func New(client *wire.Client, workers int, logger log.Logger) *Ranker {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Ranker{Client: client, Workers: workers, Logger: logger}
}

// Rank probes and reorders every zone currently in idx. Work is partitioned
// by zone, in a ceiling split across r.Workers goroutines, so each worker
// owns a disjoint set of NameserversForZone values and never contends with
// another worker for the same zone's lock.
func (r *Ranker) Rank(ctx context.Context, idx *index.RootIndex) {
	zones := idx.Zones()
	if len(zones) == 0 {
		return
	}

	workers := r.Workers
	if workers > len(zones) {
		workers = len(zones)
	}

	chunk := (len(zones) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= len(zones) {
			break
		}
		end := start + chunk
		if end > len(zones) {
			end = len(zones)
		}

		wg.Add(1)
		go func(slice []*index.NameserversForZone) {
			defer wg.Done()
			for _, nfz := range slice {
				r.rankZone(ctx, nfz)
			}
		}(zones[start:end])
	}
	wg.Wait()
}

func (r *Ranker) rankZone(ctx context.Context, nfz *index.NameserversForZone) {
	servers := nfz.Servers()
	if len(servers) == 0 {
		return
	}

	for i := range servers {
		avg := r.probe(ctx, nfz.ZoneName, servers[i].IP.String())
		servers[i].Latency = avg
		level.Debug(r.Logger).Log(
			"msg", "ranked nameserver",
			"zone", nfz.ZoneName,
			"server", servers[i].Hostname,
			"measured", avg != nil,
		)
	}

	sortByLatency(servers)
	nfz.SetServers(servers)
}

// probe issues probeCount non-recursive SOA queries for zone against server
// and returns the mean round trip time, or nil if any query failed.
func (r *Ranker) probe(ctx context.Context, zone, server string) *time.Duration {
	var total time.Duration

	for i := 0; i < probeCount; i++ {
		start := time.Now()
		_, err := r.Client.Query(ctx, server, zone, rrdata.TypeSOA, false)
		if err != nil {
			return nil
		}
		total += time.Since(start)
	}

	avg := total / probeCount
	return &avg
}

// sortByLatency orders measured servers ascending by latency, with every
// unmeasured server sorted after all measured ones.
func sortByLatency(servers []index.Nameserver) {
	sort.SliceStable(servers, func(i, j int) bool {
		a, b := servers[i].Latency, servers[j].Latency
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}
