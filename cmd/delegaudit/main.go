// Command delegaudit audits DNS delegations: given a root zone file and a
// list of target domains with their expected authoritative nameservers and
// addresses, it confirms the delegation and address resolution without
// recursing through a public resolver.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/pflag"

	"github.com/bpwilder/delegaudit/audit"
	"github.com/bpwilder/delegaudit/cache"
	"github.com/bpwilder/delegaudit/delegation"
	"github.com/bpwilder/delegaudit/index"
	"github.com/bpwilder/delegaudit/rank"
	"github.com/bpwilder/delegaudit/wire"
	"github.com/bpwilder/delegaudit/zonefile"
)

type config struct {
	rootZonePath string
	targetsPath  string
	cacheOutPath string
	cacheInPath  string
	outPath      string
	watch        time.Duration
	all          bool
	verbosity    int
	threads      int
	help         bool
}

func parseFlags(args []string) (*config, error) {
	fs := pflag.NewFlagSet("delegaudit", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &config{}
	var watchSeconds int

	fs.StringVar(&cfg.rootZonePath, "root-zone", "", "bind-format root zone file (required)")
	fs.StringVarP(&cfg.targetsPath, "targets", "c", "", `JSON audit target list, "-" for stdin`)
	fs.StringVar(&cfg.cacheOutPath, "cache-out", "", "rank servers and write the ranked JSON index here")
	fs.StringVar(&cfg.cacheInPath, "cache-in", "", "load a previously ranked JSON index, skipping ranking")
	fs.StringVarP(&cfg.outPath, "out", "o", "", `JSON result sink, "-" for stdout`)
	fs.IntVarP(&watchSeconds, "watch", "w", 0, "seconds between re-runs while all audits pass")
	fs.BoolVar(&cfg.all, "all", false, "emit every result, not just failures")
	fs.CountVarP(&cfg.verbosity, "verbose", "v", "increase verbosity (repeatable)")
	fs.IntVar(&cfg.threads, "threads", 1, "worker count")
	fs.BoolVarP(&cfg.help, "help", "h", false, "show usage")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.watch = time.Duration(watchSeconds) * time.Second

	if cfg.help {
		return cfg, nil
	}
	if cfg.rootZonePath == "" {
		return nil, fmt.Errorf("--root-zone is required")
	}
	if cfg.threads <= 0 {
		cfg.threads = 1
	}

	return cfg, nil
}

func usage() string {
	return `usage: delegaudit --root-zone PATH [-c FILE] [--cache-out FILE] [--cache-in FILE] [-o FILE] [-w N] [--all] [-v] [--threads N]`
}

func loggerForVerbosity(v int) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	var allowed level.Option
	switch {
	case v >= 2:
		allowed = level.AllowDebug()
	case v == 1:
		allowed = level.AllowInfo()
	default:
		allowed = level.AllowWarn()
	}

	return level.NewFilter(logger, allowed)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, usage())
		return 1
	}
	if cfg.help {
		fmt.Fprintln(stderr, usage())
		return 1
	}

	logger := loggerForVerbosity(cfg.verbosity)

	idx, err := buildIndex(context.Background(), cfg, logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed to build root index", "err", err)
		return 1
	}

	if cfg.targetsPath == "" {
		return 0
	}

	targets, err := loadTargets(cfg.targetsPath, stdin)
	if err != nil {
		level.Error(logger).Log("msg", "failed to load audit targets", "err", err)
		return 1
	}

	client := &wire.Client{Logger: logger}
	walker := delegation.New(idx, client)
	executor := audit.New(walker, client, cfg.threads, logger)

	for {
		results := executor.Run(context.Background(), targets)

		failed := false
		for _, r := range results {
			if !r.Success {
				failed = true
			}
		}

		if err := writeResults(cfg.outPath, stdout, results, cfg.all); err != nil {
			level.Error(logger).Log("msg", "failed to write results", "err", err)
			return 1
		}

		if failed {
			return 2
		}
		if cfg.watch <= 0 {
			return 0
		}

		time.Sleep(cfg.watch)
	}
}

// buildIndex parses the root zone and either ranks its nameservers fresh or
// loads an already-ranked index from --cache-in, skipping ranking. When
// --cache-in is given it wins outright: the freshly parsed root zone is
// still required (so delegation referrals for zones the cache doesn't cover
// can still be resolved against reachable servers), but the ranked order in
// the cache is trusted over a fresh, unranked build.
func buildIndex(ctx context.Context, cfg *config, logger log.Logger) (*index.RootIndex, error) {
	f, err := os.Open(cfg.rootZonePath)
	if err != nil {
		return nil, fmt.Errorf("open root zone: %w", err)
	}
	defer f.Close()

	zone, err := zonefile.Parse(f, ".")
	if err != nil {
		return nil, fmt.Errorf("parse root zone: %w", err)
	}

	idx := index.BuildFromZone(zone)

	if cfg.cacheInPath != "" {
		cf, err := os.Open(cfg.cacheInPath)
		if err != nil {
			return nil, fmt.Errorf("open cache-in: %w", err)
		}
		defer cf.Close()

		cached, err := cache.Read(cf)
		if err != nil {
			return nil, fmt.Errorf("read cache-in: %w", err)
		}
		for _, nfz := range idx.Zones() {
			if _, ok := cached.Lookup(nfz.ZoneName); !ok {
				cached.Insert(nfz.ZoneName, nfz)
			}
		}
		return cached, nil
	}

	if cfg.cacheOutPath != "" {
		client := &wire.Client{Logger: logger}
		ranker := rank.New(client, cfg.threads, logger)
		ranker.Rank(ctx, idx)

		cf, err := os.Create(cfg.cacheOutPath)
		if err != nil {
			return nil, fmt.Errorf("create cache-out: %w", err)
		}
		defer cf.Close()

		if err := cache.Write(cf, idx); err != nil {
			return nil, fmt.Errorf("write cache-out: %w", err)
		}
	}

	return idx, nil
}

func loadTargets(path string, stdin io.Reader) ([]audit.Target, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var targets []audit.Target
	if err := json.NewDecoder(r).Decode(&targets); err != nil {
		return nil, err
	}
	for i := range targets {
		targets[i].Normalize()
	}
	return targets, nil
}

func writeResults(path string, stdout io.Writer, results []audit.Result, all bool) error {
	var w io.Writer
	if path == "" || path == "-" {
		w = stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	out := results
	if !all {
		out = nil
		for _, r := range results {
			if !r.Success {
				out = append(out, r)
			}
		}
	}

	return json.NewEncoder(w).Encode(out)
}
