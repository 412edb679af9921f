package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sjsage522/dealpicker/config"
	"sjsage522/dealpicker/internal"
	"sjsage522/dealpicker/internal/aggregator"
	"sjsage522/dealpicker/internal/classifier"
	"sjsage522/dealpicker/internal/crawler"
	"sjsage522/dealpicker/internal/deal"
	"sjsage522/dealpicker/internal/history"
	"sjsage522/dealpicker/internal/metrics"
	"sjsage522/dealpicker/internal/pipeline"
	"sjsage522/dealpicker/internal/platform"
	"sjsage522/dealpicker/internal/refdata"
	"sjsage522/dealpicker/internal/report"
	"sjsage522/dealpicker/logger"
	"sjsage522/dealpicker/services/cache"
	"sjsage522/dealpicker/services/proxy"
	"sjsage522/dealpicker/services/publisher"
	"sjsage522/dealpicker/services/worker"
)

// app is the state shared by the subcommands
type app struct {
	cfg     *config.Config
	catalog *refdata.Catalog
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "dealpicker",
		Short:        "Compare a product's price across shopee, momo and pchome and pick the best card",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	root.AddCommand(
		a.compareCmd(),
		a.cardsCmd(),
		a.historyCmd(),
		a.watchCmd(),
	)
	return root
}

// load reads and validates configuration and reference data
func (a *app) load() error {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	catalog, err := refdata.Load(cfg.DataDir)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.catalog = catalog
	logger.Debug("loaded %d platform rules and %d cards", len(catalog.Rules()), len(catalog.Cards()))
	return nil
}

func (a *app) compareCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compare <product-url>",
		Short: "Compare prices for a product link and show the best deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, err := initializeServices(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer services.Close()

			outcome, err := a.newPipeline(services).Run(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return report.RenderJSON(cmd.OutOrStdout(), outcome)
			}
			return report.Render(cmd.OutOrStdout(), a.catalog, outcome)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON")
	return cmd
}

func (a *app) cardsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "cards <platform> <price>",
		Short: "Rank the credit cards for a purchase on one platform",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := platform.ID(strings.ToLower(args[0]))
			if !platform.IsSupported(id) {
				return fmt.Errorf("unknown platform %q, expected one of %s", args[0], strings.Join(platform.Names(), ", "))
			}
			price, err := strconv.Atoi(args[1])
			if err != nil || price < 0 {
				return fmt.Errorf("price must be a non-negative whole number, got %q", args[1])
			}

			selector := deal.NewSelector(a.catalog, a.catalog.Cards(), time.Now)
			cards := selector.BestCards(id, price, a.cfg.RecommendLimit)
			if asJSON {
				return report.RenderJSON(cmd.OutOrStdout(), cards)
			}
			return report.RenderCards(cmd.OutOrStdout(), cards)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the ranking as JSON")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the most recent searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(cmd.Context(), history.Config{Driver: a.cfg.HistoryDriver, DSN: a.cfg.HistoryDSN})
			if err != nil {
				return err
			}
			defer store.Close()

			searches, err := store.RecentSearches(cmd.Context())
			if err != nil {
				return err
			}
			return report.RenderSearches(cmd.OutOrStdout(), a.catalog, searches)
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <product-url>...",
		Short: "Re-run comparisons on an interval and publish the best deals",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, err := initializeServices(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer services.Close()

			if a.cfg.MetricsAddr != "" {
				srv := serveMetrics(a.cfg.MetricsAddr)
				defer srv.Shutdown(context.Background())
			}

			logger.Default.Info().
				Str("environment", a.cfg.Environment).
				Dur("watch_interval", a.cfg.WatchInterval).
				Int("links", len(args)).
				Msg("Starting watch")

			w := worker.NewWorker(a.newPipeline(services), args, services.Publisher, nil, a.cfg.WatchInterval)
			err = w.Start(ctx)
			logger.Info("Shutting down gracefully...")
			return err
		},
	}
}

// newPipeline wires the price sources and the pipeline for a query
func (a *app) newPipeline(services *internal.Dependencies) *pipeline.Pipeline {
	cfg := a.cfg
	fetcher := crawler.NewHTTPFetcher(nil, services.Relays, services.Cache, cfg.RateLimitBlock)

	source := crawler.NewSource(a.catalog, fetcher, crawler.Options{
		Mode:             cfg.PriceMode,
		EstimateDelayMin: cfg.EstimateDelayMin,
		EstimateDelayMax: cfg.EstimateDelayMax,
		Seed:             time.Now().UnixNano(),
		FetchTimeout:     cfg.FetchTimeout,
	})

	deps := pipeline.Deps{
		Catalog:        a.catalog,
		Aggregator:     aggregator.New(crawler.WithTimeout(source, cfg.FetchTimeout), cfg.ConcurrencyLimit),
		History:        services.History,
		Publisher:      services.Publisher,
		RecommendLimit: cfg.RecommendLimit,
	}
	// Estimate mode makes no network requests, so product pages are not read either
	if cfg.PriceMode != config.PriceModeEstimate {
		deps.Enricher = classifier.NewEnricher(a.catalog, fetcher, cfg.EnrichTimeout)
	}
	return pipeline.New(deps)
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*internal.Dependencies, error) {
	services := &internal.Dependencies{}

	// Initialize cache service
	services.Cache = cache.New(cfg.MemcacheAddr)
	if cfg.MemcacheAddr != "" {
		logger.Info("Using Memcache at %s for rate limit blocks", cfg.MemcacheAddr)
	}

	rotator := proxy.NewRotator(cfg.RelayURLs)
	logger.Debug("%d page relays configured", rotator.Len())
	services.Relays = rotator

	store, err := history.Open(ctx, history.Config{Driver: cfg.HistoryDriver, DSN: cfg.HistoryDSN})
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	services.History = store

	// Initialize publisher
	services.Publisher = publisher.Noop{}
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			logger.Warn("Redis at %s unreachable, deals will not be published: %v", cfg.RedisAddr, err)
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services, nil
}

// serveMetrics exposes the Prometheus registry on addr in the background
func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError("metrics", err, "metrics server stopped")
		}
	}()
	logger.Info("Serving metrics on %s/metrics", addr)
	return srv
}
