package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xaulosky/travel-suites-app/internal/cache"
	"github.com/xaulosky/travel-suites-app/internal/calendar"
	"github.com/xaulosky/travel-suites-app/internal/catalog"
	"github.com/xaulosky/travel-suites-app/internal/config"
	"github.com/xaulosky/travel-suites-app/internal/storage"
	"github.com/xaulosky/travel-suites-app/internal/travelsuites"
	"github.com/xaulosky/travel-suites-app/internal/upstream"
)

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	db       *storage.DB
	store    *cache.Store
	feeds    *storage.FeedRepository
	shop     *catalog.Client
	catalog  *catalog.Service
	fetcher  *upstream.Client
	bookings *travelsuites.Client
	loader   *calendar.Loader
	sync     *calendar.SyncService
}

// loadConfig reads the --config flag and sets up logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	setupLogger(cfg)
	return cfg, nil
}

func setupLogger(cfg *config.Config) {
	zerolog.SetGlobalLevel(cfg.Level())
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	zerolog.DefaultContextLogger = &log.Logger
}

// newApp opens the database and builds the upstream clients and calendar
// services.
func newApp(cfg *config.Config) (*app, error) {
	db, err := storage.Open(cfg.Server.DataDir)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		db:    db,
		store: cache.New(storage.NewCacheRepository(db)),
		feeds: storage.NewFeedRepository(db),
	}

	ua := upstream.WithUserAgent(cfg.Fetch.UserAgent)

	a.shop = catalog.NewClient(catalog.Credentials{
		URL:            cfg.WooCommerce.URL,
		ConsumerKey:    cfg.WooCommerce.ConsumerKey,
		ConsumerSecret: cfg.WooCommerce.ConsumerSecret,
	}, cfg.Fetch.CatalogTimeout.Std(), ua)
	a.catalog = catalog.NewService(a.shop, a.store, cfg.Cache.CatalogTTL.Std())

	a.fetcher = upstream.NewClient("ical", cfg.Fetch.ICalTimeout.Std(), ua)

	a.bookings = travelsuites.NewClient(travelsuites.Config{
		BaseURL: cfg.TravelSuites.URL,
		APIKey:  cfg.TravelSuites.APIKey,
		Timeout: cfg.Fetch.APITimeout.Std(),
		TTL:     cfg.Cache.APITTL.Std(),
	}, a.store)

	opts := []calendar.LoaderOption{
		calendar.WithCache(a.store, cfg.Cache.CalendarTTL.Std()),
		calendar.WithStatusRecorder(a.feeds),
		calendar.WithBatchSize(cfg.Fetch.BatchSize),
	}
	if a.bookings.Configured() {
		opts = append(opts, calendar.WithBookings(a.bookings))
	} else {
		log.Info().Msg("Bookings API not configured, using iCal feeds only")
	}
	a.loader = calendar.NewLoader(a.fetcher, opts...)
	a.sync = calendar.NewSyncService(a.loader, a.catalog)

	return a, nil
}

// now returns the current time in the configured zone, so that "today"
// follows the local calendar.
func (a *app) now() time.Time {
	return time.Now().In(a.cfg.Location())
}

func (a *app) Close() error {
	return a.db.Close()
}
