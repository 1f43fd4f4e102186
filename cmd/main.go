package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/dualsub/dualsub/internal/addon"
	"github.com/dualsub/dualsub/internal/cache"
	"github.com/dualsub/dualsub/internal/catalog"
	"github.com/dualsub/dualsub/internal/config"
	"github.com/dualsub/dualsub/internal/metrics"
	"github.com/dualsub/dualsub/internal/persistence"
	"github.com/dualsub/dualsub/internal/service"
	"github.com/dualsub/dualsub/internal/store"
	"github.com/dualsub/dualsub/pkg/icron"
	"github.com/dualsub/dualsub/pkg/log"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.Server.LogLevel))

	artifacts, err := buildStore(cfg)
	if err != nil {
		log.Fatal("Failed to open artifact store: %v", err)
	}
	defer artifacts.Close()

	meta, err := persistence.NewSQLiteStore(cfg.Storage.MetaDBPath)
	if err != nil {
		log.Fatal("Failed to open metadata store: %v", err)
	}
	defer meta.Close()

	responses, err := cache.Open(cfg.Storage.CacheDir)
	if err != nil {
		log.Fatal("Failed to open response cache: %v", err)
	}
	defer responses.Close()

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.New(registry)

	primary := catalog.NewPrimaryCatalog(cfg.Upstream.PrimaryURL)
	fetcher := catalog.NewFetcher()

	opts := []service.Option{
		service.WithMetadata(meta),
		service.WithMetrics(pipelineMetrics),
		service.WithMergeThreshold(time.Duration(cfg.Pipeline.MergeThresholdMs) * time.Millisecond),
		service.WithMaxTranslations(cfg.Pipeline.MaxTranslationCandidates),
	}

	var fallback *catalog.FallbackCatalog
	if cfg.Upstream.FallbackSearchURL != "" {
		fallback = catalog.NewFallbackCatalog(cfg.Upstream.FallbackLandingURL, cfg.Upstream.FallbackSearchURL)
		opts = append(opts, service.WithFallbackCatalog(fallback))
	}
	if cfg.Upstream.JapaneseURL != "" {
		opts = append(opts, service.WithJapaneseCatalog(catalog.NewJapaneseCatalog(cfg.Upstream.JapaneseURL)))
	}

	svc := service.New(primary, fetcher, artifacts, opts...)

	server := addon.NewServer(svc,
		addon.WithResponseCache(responses),
		addon.WithFileStore(artifacts),
		addon.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	)

	scheduler := cron.New()
	if fallback != nil {
		if _, err := scheduler.AddFunc(cfg.Jobs.SessionRefreshCron, fallback.RefreshSession); err != nil {
			log.Fatal("Failed to schedule session refresh: %v", err)
		}
	}
	if _, err := scheduler.AddFunc(cfg.Jobs.StoreGCCron, func() {
		responses.RunGC()
		if bs, ok := artifacts.(*store.BadgerStore); ok {
			bs.RunGC()
		}
	}); err != nil {
		log.Fatal("Failed to schedule store GC: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	for _, expr := range []string{cfg.Jobs.SessionRefreshCron, cfg.Jobs.StoreGCCron} {
		if info, err := icron.GetTriggerInfo(expr, time.Now()); err == nil {
			log.Info("Job %q next fires at %s", expr, info.Next.Format(time.RFC3339))
		}
	}

	go func() {
		log.Info("Listening on %s", cfg.Server.ListenAddr)
		if err := server.ListenAndServe(cfg.Server.ListenAddr); err != nil {
			log.Error("HTTP server stopped: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Shutdown: %v", err)
	}
}

func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "badger":
		return store.NewBadgerStore(cfg.Storage.DBDir, cfg.Server.BaseURL)
	case "blob":
		return store.NewBlobStore(cfg.Storage.BlobBaseURL)
	default:
		return store.NewLocalStore(cfg.Storage.Dir, cfg.Server.BaseURL)
	}
}
