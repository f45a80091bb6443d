// Package cmd is the czdbsearch entry point.  It reads the environment
// configuration, loads the database file, and resolves the addresses given
// as arguments or read from stdin.
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	czdb "github.com/cz88/czdb-go"
	"github.com/cz88/czdb-go/internal/metrics"
	"github.com/cz88/czdb-go/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Main is the entry point of czdbsearch.
func Main() {
	ctx := context.Background()

	envs := errors.Must(parseEnvironment())
	errors.Check(envs.Validate())

	lvl := errors.Must(slogutil.VerbosityToLevel(envs.Verbosity))
	baseLogger := slogutil.New(&slogutil.Config{
		// Don't use [slogutil.NewFormat] here, because the value is
		// validated.
		Format:       slogutil.Format(envs.LogFormat),
		AddTimestamp: bool(envs.LogTimestamp),
		Level:        lvl,
	})

	mainLogger := baseLogger.With(slogutil.KeyPrefix, "main")

	mainLogger.InfoContext(
		ctx,
		"czdbsearch starting",
		"version", version.Version(),
		"revision", version.Revision(),
		"commit_time", version.CommitTime(),
	)

	mode := errors.Must(czdb.NewSearchMode(envs.Mode))

	var mtrc czdb.Metrics
	if envs.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		mtrc = errors.Must(metrics.NewSearcher(metrics.Namespace, reg))

		go serveMetrics(ctx, mainLogger, envs.MetricsAddr, reg)
	}

	data := errors.Must(os.ReadFile(envs.DBPath))

	s := errors.Must(czdb.Open(data, &czdb.Config{
		Logger:     baseLogger.With(slogutil.KeyPrefix, "czdb"),
		Metrics:    mtrc,
		Key:        envs.Key,
		Mode:       mode,
		CacheCount: envs.CacheCount,
	}))
	defer func() { errors.Check(s.Close()) }()

	mainLogger.InfoContext(
		ctx,
		"database loaded",
		"path", envs.DBPath,
		"family", s.Family(),
		"mode", s.Mode(),
		"client_id", s.ClientID(),
		"expires_on", s.ExpiresOn().Format(time.DateOnly),
	)

	if len(os.Args) > 1 {
		resolveAll(ctx, mainLogger, s, os.Args[1:])

		return
	}

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			resolveAll(ctx, mainLogger, s, []string{line})
		}
	}

	errors.Check(sc.Err())
}

// resolveAll resolves addrs one by one and prints the results to stdout.
// Failed lookups are logged and skipped.
func resolveAll(
	ctx context.Context,
	logger *slog.Logger,
	s *czdb.Searcher,
	addrs []string,
) {
	for _, addr := range addrs {
		region, err := s.Search(addr)
		if err != nil {
			logger.ErrorContext(ctx, "resolving", "addr", addr, slogutil.KeyError, err)

			continue
		}

		fmt.Printf("%s\t%s\n", addr, region)
	}
}

// serveMetrics runs the Prometheus metrics listener on addr.
func serveMetrics(
	ctx context.Context,
	logger *slog.Logger,
	addr string,
	reg *prometheus.Registry,
) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.InfoContext(ctx, "metrics listener starting", "addr", addr)

	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.ErrorContext(ctx, "metrics listener", slogutil.KeyError, err)
	}
}
