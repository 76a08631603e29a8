package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xaulosky/travel-suites-app/internal/api"
	"github.com/xaulosky/travel-suites-app/internal/calendar"
	"github.com/xaulosky/travel-suites-app/internal/catalog"
	"github.com/xaulosky/travel-suites-app/internal/config"
	"github.com/xaulosky/travel-suites-app/internal/dashboard"
	"github.com/xaulosky/travel-suites-app/internal/quote"
	"github.com/xaulosky/travel-suites-app/internal/report"
	"github.com/xaulosky/travel-suites-app/internal/websocket"
)

// Extra scheduler jobs.
const (
	jobCatalogRefresh = "catalog-refresh"
	jobDailyReport    = "daily-report"
	jobSessionExpiry  = "session-expiry"
	jobCachePurge     = "cache-purge"
)

// cacheMaxAge bounds how long any cache row is kept on disk.
const cacheMaxAge = 24 * time.Hour

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("addr", "", "HTTP listen address (overrides config)")
	return cmd
}

func serve(parent context.Context, cfg *config.Config) error {
	log.Info().Str("version", version).Str("environment", cfg.Server.Environment).Msg("Starting TravelSuites dashboard")

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub()
	events := websocket.NewEventBroadcaster(hub)

	formatter := quote.NewFormatter(cfg.Locale.Language, cfg.Locale.CurrencySymbol)
	sessions := dashboard.NewStore(
		dashboard.WithIdleTimeout(cfg.Server.SessionIdle.Std()),
		dashboard.WithFormatter(formatter),
	)
	defer sessions.Close()

	scheduler := calendar.NewScheduler(a.sync, hub, cfg.Schedule.RefreshInterval.Std())
	if err := addJobs(scheduler, a, events, sessions); err != nil {
		return err
	}

	router := api.NewRouter(api.Services{
		DB:          a.db,
		Hub:         hub,
		Catalog:     a.catalog,
		Loader:      a.loader,
		Sync:        a.sync,
		Scheduler:   scheduler,
		Feeds:       a.feeds,
		Fetcher:     a.fetcher,
		Bookings:    a.bookings,
		Orders:      a.shop,
		Sessions:    sessions,
		Formatter:   formatter,
		Language:    cfg.Language(),
		PhoneRegion: catalog.DefaultPhoneRegion,
		Now:         a.now,
		StaticDir:   cfg.Server.StaticDir,
		Version:     version,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		// Warm the catalog and calendars so the first page load is fast.
		scheduler.TriggerSync()
		<-ctx.Done()
		scheduler.Stop()
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}

// addJobs registers the jobs that run next to the calendar refresh.
func addJobs(s *calendar.Scheduler, a *app, events *websocket.EventBroadcaster, sessions *dashboard.Store) error {
	catalogEvery := "@every " + a.cfg.Cache.CatalogTTL.Std().String()
	if err := s.AddJob(jobCatalogRefresh, catalogEvery, func(ctx context.Context) {
		listing, err := a.catalog.Refresh(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Catalog refresh failed")
			return
		}
		events.BroadcastCatalogRefreshed(len(listing.Properties), listing.Degraded)
	}); err != nil {
		return err
	}

	if spec := a.cfg.Schedule.DailyReportCron; spec != "" {
		if err := s.AddJob(jobDailyReport, "CRON_TZ="+a.cfg.Locale.Timezone+" "+spec, func(ctx context.Context) {
			dailyReport(ctx, a, events)
		}); err != nil {
			return err
		}
	}

	if err := s.AddJob(jobSessionExpiry, "@every 5m", func(ctx context.Context) {
		sessions.Expire()
	}); err != nil {
		return err
	}

	return s.AddJob(jobCachePurge, "@every 1h", func(ctx context.Context) {
		n, err := a.store.Purge(ctx, cacheMaxAge)
		if err != nil {
			log.Warn().Err(err).Msg("Cache purge failed")
			return
		}
		log.Debug().Int64("entries", n).Msg("Cache purged")
	})
}

// dailyReport announces today's check-outs to connected dashboards.
func dailyReport(ctx context.Context, a *app, events *websocket.EventBroadcaster) {
	props, err := a.catalog.Properties(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Daily report: listing properties failed")
		return
	}
	loaded, err := a.sync.Events(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Daily report: loading occupancy failed")
		return
	}

	today := a.now()
	records := report.CheckoutsForDate(today, loaded.Events, props, report.WithLanguage(a.cfg.Language()))
	summary := report.Summarize(today, records)

	events.BroadcastDailyReport(websocket.DailyReportPayload{
		Date:        summary.Date,
		Checkouts:   summary.Checkouts,
		BackToBack:  summary.BackToBack,
		Departments: summary.Properties,
	})
	log.Info().Str("date", summary.Date).Int("checkouts", summary.Checkouts).Msg("Daily report sent")
}
