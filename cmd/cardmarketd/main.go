package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"cardmarket-monitor/internal/components/chrono"
	"cardmarket-monitor/internal/components/telemetry"
	"cardmarket-monitor/internal/config"
	"cardmarket-monitor/internal/coordinator"
	"cardmarket-monitor/internal/httpapi"
	"cardmarket-monitor/internal/metrics"
	"cardmarket-monitor/internal/scrapers/cardmarket"
	"cardmarket-monitor/internal/services"
	"cardmarket-monitor/internal/tracking"
	"cardmarket-monitor/pkg/restyutil"
	"cardmarket-monitor/pkg/serviceutil"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", config.DefaultPath, "The json5 config file.")
	flag.Parse()

	ctx := serviceutil.SignalContext()
	tel := InitTelemetry(ctx, *verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if _, ok := cfg.GameOrDefault(); !ok {
		tel.ReportWarning("config.game", "unknown game, using default", cfg.Game, cardmarket.DefaultGame)
	}

	store, err := tracking.Open(ctx, cfg.Database, tel)
	if err != nil {
		serviceutil.Fatal("open tracking store", err)
	}
	defer store.Close()
	added, err := store.Seed(ctx, cfg.TrackedCards)
	if err != nil {
		serviceutil.Fatal("seed tracked cards", err)
	}
	if added > 0 {
		slog.Info("tracked cards from config", "added", added)
	}

	scraperOpts := cfg.ScraperOptions()
	if *verbose {
		output, err := restyutil.NewFilesystemOutput(".dev/resty/cardmarket")
		if err != nil {
			serviceutil.Fatal("create http dump dir", err)
		}
		scraperOpts.Client.Dump = output
	}
	scraper, err := cardmarket.NewScraper(scraperOpts, tel)
	if err != nil {
		serviceutil.Fatal("init scraper", err)
	}
	defer scraper.Close()

	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		serviceutil.Fatal("load timezone", err)
	}
	cron := chrono.NewStandardCron(clock.Location(), tel)
	defer cron.Stop()

	m := metrics.New()
	coord, err := coordinator.New(scraper, store, cron, clock, m, cfg.CoordinatorOptions(), tel)
	if err != nil {
		serviceutil.Fatal("init coordinator", err)
	}
	coord.Subscribe(func(state coordinator.State) {
		if state.Degraded {
			slog.Warn("serving stale data", "kind", state.ErrorKind, "err", state.LastError)
			return
		}
		slog.Info("refreshed", "tracked_cards", len(state.Tracked))
	})
	err = coord.Start(ctx)
	if err != nil {
		serviceutil.Fatal("start coordinator", err)
	}

	svc := services.NewService(scraper, store, coord, cfg.ServiceOptions(), tel)
	router := httpapi.NewRouter(coord, svc, httpapi.Options{
		Registry:       m.Registry,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: time.Duration(cfg.OperationTimeoutSeconds+60) * time.Second,
	}, tel)

	err = serviceutil.StartHttpServer(ctx, cfg.Listen, router)
	if err != nil {
		serviceutil.Fatal("serve http", err)
	}
}

func InitTelemetry(ctx context.Context, verbose bool) telemetry.API {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	otel, err := telemetry.SetupOtelFromEnv(ctx, "cardmarketd")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		otel.Shutdown(context.Background())
	}()

	tel := telemetry.SlogAPI{}
	telemetry.InstrumentPerfStats(ctx, 15*time.Second, tel)
	return tel
}
