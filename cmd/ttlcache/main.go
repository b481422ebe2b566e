// Runs a memoization demo on top of the ttl cache and optionally exposes its prometheus metrics.

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nobletooth/ttlcache/pkg/config"
	"github.com/nobletooth/ttlcache/pkg/memoize"
	"github.com/nobletooth/ttlcache/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	printVersion   = flag.Bool("print_version", false, "Print the version and exit.")
	metricsAddress = flag.String("metrics_address", "",
		"The ip:port serving /metrics; empty disables the endpoint and exits after the demo.")
)

// serveMetrics serves the default prometheus registry until ctx is done.
func serveMetrics(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down metrics server.", "error", err)
		}
	}()

	slog.Info("Serving metrics.", "address", address)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	config.InitFlags()
	utils.InitLogging()

	if *printVersion {
		slog.Info("ttlcache build info.", "version", utils.Version, "commit", utils.Commit, "build", utils.BuildTime,
			"uptime", utils.Uptime())
		return
	}

	// Cancelled on SIGINT/SIGTERM; every cache reaper below is bound to it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsErr := make(chan error, 1)
	if *metricsAddress != "" {
		go func() { metricsErr <- serveMetrics(ctx, *metricsAddress) }()
	}

	registry := memoize.NewRegistry()
	defer func() {
		if err := registry.Close(); err != nil {
			slog.Error("Failed to close memoized functions.", "error", err)
		}
	}()

	if _, err := runDemo(ctx, registry, demoSettingsFromFlags()); err != nil {
		slog.Error("Demo stopped.", "error", err)
	}

	if *metricsAddress == "" {
		slog.Info("Demo finished.", "uptime", utils.Uptime())
		return
	}
	slog.Info("Demo finished; serving metrics until interrupted.")
	select {
	case <-ctx.Done():
		slog.Info("Shutting down.", "uptime", utils.Uptime())
	case err := <-metricsErr:
		if err != nil {
			slog.Error("Metrics server stopped.", "error", err)
			stop()
			_ = registry.Close()
			os.Exit(1)
		}
	}
}
