// Package main is the entry point for the bioreactor telemetry service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwulff/bioreactor-go/internal/api"
	"github.com/jwulff/bioreactor-go/internal/config"
	"github.com/jwulff/bioreactor-go/internal/metrics"
	"github.com/jwulff/bioreactor-go/internal/reportdate"
	"github.com/jwulff/bioreactor-go/internal/scheduler"
	"github.com/jwulff/bioreactor-go/internal/storage"
	"github.com/jwulff/bioreactor-go/internal/storage/sqlite"
	"github.com/jwulff/bioreactor-go/internal/storage/supabase"
	"github.com/jwulff/bioreactor-go/internal/summary"
)

const summarizeTimeout = 2 * time.Minute

func main() {
	if len(os.Args) < 2 {
		showUsage()
		return
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	switch os.Args[1] {
	case "serve":
		if err := serve(cfg, log); err != nil {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	case "summarize":
		date := ""
		if len(os.Args) > 2 {
			date = os.Args[2]
		}
		if err := summarize(cfg, log, date); err != nil {
			log.Error("summary failed", "error", err)
			os.Exit(1)
		}
	case "yesterday":
		fmt.Println(reportdate.NewResolver(cfg.Location()).Yesterday())
	default:
		showUsage()
	}
}

func showUsage() {
	fmt.Println("Bioreactor - ESP32 telemetry backend")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bioreactor serve              - Run the HTTP API")
	fmt.Println("  bioreactor summarize [DATE]   - Write the daily summary for DATE (default: yesterday)")
	fmt.Println("  bioreactor yesterday          - Print the date the next summary will cover")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  SUPABASE_URL                  - Supabase project URL")
	fmt.Println("  SUPABASE_SERVICE_ROLE_KEY     - Supabase service role key")
	fmt.Println("  PORT                          - HTTP port (default 3000)")
	fmt.Println("  BIOREACTOR_STORE              - supabase or sqlite (default supabase)")
	fmt.Println("  BIOREACTOR_SQLITE_PATH        - SQLite database file")
	fmt.Println("  BIOREACTOR_SUMMARY_SCHEDULE   - cron expression for in-process summaries (optional)")
	fmt.Println("  BIOREACTOR_CONFIG             - TOML config file (default bioreactor.toml)")
	fmt.Println()
	fmt.Println("A .env file in the working directory is loaded when present.")
}

// openStore returns the configured backend. It returns a nil store and
// config.ErrMissingCredentials when Supabase is selected without credentials.
func openStore(cfg config.Config) (storage.Store, error) {
	switch cfg.Store {
	case config.BackendSQLite:
		store, err := sqlite.NewFileStore(cfg.SQLitePath, cfg.Location())
		if err != nil {
			return nil, fmt.Errorf("open sqlite store %s: %w", cfg.SQLitePath, err)
		}
		return store, nil
	default:
		if err := cfg.RequireCredentials(); err != nil {
			return nil, err
		}
		client, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func serve(cfg config.Config, log *slog.Logger) error {
	m := metrics.New()
	resolver := reportdate.NewResolver(cfg.Location())

	h := &api.Handlers{
		Log:                     log,
		Resolver:                resolver,
		Metrics:                 m,
		SamplingIntervalMinutes: cfg.SamplingIntervalMinutes,
		ExposeUpstreamErrors:    cfg.ExposeUpstreamErrors,
	}

	store, err := openStore(cfg)
	switch {
	case errors.Is(err, config.ErrMissingCredentials):
		log.Warn("store not configured, persistence endpoints will fail", "error", err)
	case err != nil:
		return err
	default:
		defer store.Close()
		h.Store = metrics.InstrumentStore(store, m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SummarySchedule != "" && h.Store != nil {
		sched := scheduler.New(cfg.Location(), log)
		err := sched.Add("daily_summary", cfg.SummarySchedule, func(jobCtx context.Context) {
			runSummary(jobCtx, h.Store, m, resolver.Yesterday(), log)
		})
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		log.Info("daily summary scheduled", "schedule", cfg.SummarySchedule, "next", sched.Next())
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           api.NewRouter(h, os.Stdout),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout.Duration,
		WriteTimeout:      cfg.WriteTimeout.Duration,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", "addr", srv.Addr, "store", cfg.Store, "timezone", cfg.Location().String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("http server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func summarize(cfg config.Config, log *slog.Logger, date string) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if date == "" {
		date = reportdate.NewResolver(cfg.Location()).Yesterday()
	}

	ctx, cancel := context.WithTimeout(context.Background(), summarizeTimeout)
	defer cancel()

	result, err := summary.Run(ctx, store, date, log)
	if err != nil {
		return err
	}
	if result.Empty() {
		fmt.Println(result.Message())
		return nil
	}
	fmt.Printf("Daily summary written for %s\n", result.Date)
	for _, row := range result.Rows {
		fmt.Printf("  total_energy_kwh: %.4f\n", row.TotalEnergyKWh)
	}
	return nil
}

func runSummary(ctx context.Context, store storage.Store, m *metrics.Metrics, date string, log *slog.Logger) {
	result, err := summary.Run(ctx, store, date, log)
	if err != nil {
		m.SummaryRun(summary.OutcomeFailed)
		log.Error("scheduled summary failed", "summary_date", date, "error", err)
		return
	}
	m.SummaryRun(result.Outcome())
}
