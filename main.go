package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"asin-lister/api"
	"asin-lister/config"
	"asin-lister/events"
	"asin-lister/remote"
	"asin-lister/scraper/amazon"
	"asin-lister/services"
	"asin-lister/storage"
	"asin-lister/utils"
)

func main() {
	inputPath := flag.String("input", "", "CSV/TSV file of identifiers to run once")
	serve := flag.Bool("serve", false, "start the HTTP API")
	flag.Parse()

	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)

	if *inputPath == "" && !*serve {
		fmt.Fprintln(os.Stderr, "usage: asin-lister -input items.csv | -serve")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== ASIN Listing Pipeline starting ===")
	logger.Info("Config: enrich=%s | concurrency: %d | rate: %dms | retries: %d",
		cfg.EnrichSource, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.MaxRetries)

	settingsStore, err := storage.OpenSettingsStore(cfg.SettingsDBPath)
	if err != nil {
		logger.Error("Failed to open settings store: %v", err)
		os.Exit(1)
	}
	defer settingsStore.Close()

	itemStore, err := storage.NewPostgresStore(ctx, cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		os.Exit(1)
	}
	defer itemStore.Close()

	runner, cleanup := buildRunner(cfg, itemStore, logger)
	defer cleanup()
	defer runner.Wait()

	if *serve {
		if err := serveAPI(ctx, cfg, itemStore, settingsStore, runner, logger); err != nil {
			logger.Error("HTTP server failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := runOnce(ctx, cfg, *inputPath, itemStore, settingsStore, runner, logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// buildRunner wires the collaborators chosen by configuration. Redis and Kafka
// are optional and only used when their address is set.
func buildRunner(cfg *config.Config, itemStore *storage.PostgresStore, logger *utils.Logger) (*services.Runner, func()) {
	client := remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteAPIKey, cfg.RemoteTimeout, cfg.MaxRetries, logger)

	var enricher services.Enricher = client
	if cfg.EnrichSource == config.EnrichBrowser {
		enricher = amazon.New(cfg, logger)
	}

	var existence services.ExistenceChecker = client
	var closers []func() error
	var cache *storage.ExistingCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		closers = append(closers, rdb.Close)
		cache = storage.NewExistingCache(rdb, client, cfg.ExistingCacheTTL, logger)
		existence = cache
		logger.Info("Existing-listing cache enabled at %s (ttl %v)", cfg.RedisAddr, cfg.ExistingCacheTTL)
	}

	runner := services.NewRunner(enricher, existence, client, logger)
	runner.Recorders = append(runner.Recorders, itemStore)
	runner.Refreshers = append(runner.Refreshers, itemStore)
	if cache != nil {
		runner.Recorders = append(runner.Recorders, cache)
	}

	if cfg.KafkaBroker != "" {
		pub := events.NewPublisher(cfg.KafkaBroker, cfg.OutcomeTopic, logger)
		closers = append(closers, pub.Close)
		runner.Sinks = append(runner.Sinks, pub)
		logger.Info("Publishing outcomes to %s topic %s", cfg.KafkaBroker, cfg.OutcomeTopic)
	}

	return runner, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("close: %v", err)
			}
		}
	}
}

func runOnce(
	ctx context.Context,
	cfg *config.Config,
	path string,
	itemStore storage.ItemStore,
	settingsStore *storage.SettingsStore,
	runner *services.Runner,
	logger *utils.Logger,
) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	asins := services.NewExtractor(logger).Extract(string(data))
	if len(asins) == 0 {
		return errors.New("nothing importable in " + path)
	}

	settings, err := settingsStore.LoadOrDefault(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	candidates, err := storage.ResolveCandidates(ctx, itemStore, asins)
	if err != nil {
		logger.Warn("Item store: %v", err)
	}

	report := runner.Run(ctx, candidates, settings)
	runner.Wait()
	services.NewReportService(logger).Print(report)

	csvWriter, err := storage.NewCSVWriter(cfg.ReportCSVPath)
	if err != nil {
		return fmt.Errorf("create CSV writer: %w", err)
	}
	defer csvWriter.Close()

	if err := csvWriter.Write(report.Outcomes); err != nil {
		return fmt.Errorf("CSV write: %w", err)
	}
	logger.Info("Outcomes saved to %s", cfg.ReportCSVPath)
	return nil
}

func serveAPI(
	ctx context.Context,
	cfg *config.Config,
	itemStore storage.ItemStore,
	settingsStore *storage.SettingsStore,
	runner *services.Runner,
	logger *utils.Logger,
) error {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(itemStore, settingsStore, runner, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
