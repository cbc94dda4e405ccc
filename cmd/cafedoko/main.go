package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cafedoko/internal/api"
	"cafedoko/pkg/catalog"
	"cafedoko/pkg/config"
	"cafedoko/pkg/db"
	"cafedoko/pkg/db/maintenance"
	"cafedoko/pkg/geo"
	"cafedoko/pkg/logging"
	"cafedoko/pkg/probe"
	"cafedoko/pkg/provider"
	"cafedoko/pkg/provider/factory"
	"cafedoko/pkg/request"
	"cafedoko/pkg/store"
	"cafedoko/pkg/tracker"
	"cafedoko/pkg/version"
	"cafedoko/pkg/watcher"
)

var (
	configPath = flag.String("config", "configs/cafedoko.yaml", "Path to the config file")
	envPath    = flag.String("env", ".env", "Path to a .env file loaded before the config")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if err := config.LoadDotEnv(*envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envPath, err)
		os.Exit(1)
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("CafeDoko Started", "version", version.Version, "provider", appCfg.Provider.Kind)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := maintenance.Run(ctx, st, dbConn, appCfg.History.Retention.Std()); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	settings := config.NewSettings(appCfg, st)
	current, locator := initLocation(ctx, appCfg, settings)
	area := initServiceArea(appCfg)

	tr := tracker.New()
	rc := request.New(tr,
		request.WithTimeout(appCfg.Request.Timeout.Std()),
		request.WithGap(appCfg.Request.Gap.Std()),
	)
	prov := factory.New(&appCfg.Provider, factory.Deps{Client: rc, Locator: locator})
	cat := catalog.New(prov, catalog.WithFetchTimeout(appCfg.Catalog.FetchTimeout.Std()))
	cache, _ := provider.FindCacher(prov)

	results := probe.Run(ctx, startupProbes(appCfg, dbConn, locator))
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	go cat.Run(ctx, appCfg.Catalog.RefreshInterval.Std())
	if cache != nil {
		go provider.RunCacheSweep(ctx, cache, appCfg.Provider.Places.CacheTTL.Std())
	}
	if paths := watchedFiles(appCfg); len(paths) > 0 {
		w := watcher.NewService(paths)
		go w.Run(ctx, appCfg.Catalog.WatchInterval.Std(), func([]string) { cat.Reload(ctx) })
	}

	srv := api.NewServer(appCfg.Server.Address, api.Handlers{
		Chains:   api.NewChainsHandler(cat, st, settings),
		Location: api.NewLocationHandler(current, locator, area, settings, cat),
		User:     api.NewUserHandler(st, st, cat),
		Settings: api.NewSettingsHandler(settings),
		Stats:    api.NewStatsHandler(tr, cat, cache),
		Stream:   api.NewStreamHandler(cat),
	})
	srv.Handler = loggingMiddleware(srv.Handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return runServerLifecycle(ctx, srv, quit)
}

func initDB(cfg *config.Config) (*db.DB, *store.SQLiteStore, error) {
	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

// initLocation restores the last reported location and wraps it with the default city.
func initLocation(ctx context.Context, cfg *config.Config, settings *config.Settings) (*geo.CurrentLocation, geo.Locator) {
	current := &geo.CurrentLocation{}
	if lat, lon, ok := settings.LastLocation(ctx); ok {
		current.Update(geo.Point{Lat: lat, Lon: lon})
		slog.Info("Restored last location", "lat", lat, "lon", lon)
	}

	fallback := geo.Fallback{Primary: current}
	if dc := cfg.Location.DefaultCity; dc.Enabled {
		fallback.Default = &geo.Point{Lat: dc.Lat, Lon: dc.Lon}
		slog.Debug("Default city fallback", "name", dc.Name)
	}
	return current, fallback
}

func initServiceArea(cfg *config.Config) *geo.ServiceArea {
	if cfg.Location.ServiceArea == "" {
		return nil
	}
	area, err := geo.NewServiceArea(cfg.Location.ServiceArea)
	if err != nil {
		slog.Warn("Service area unavailable, accepting all locations", "error", err)
		return nil
	}
	return area
}

// watchedFiles lists the local data files whose edits should trigger a reload.
// Menus are read once at startup and are not watched.
func watchedFiles(cfg *config.Config) []string {
	if cfg.Provider.NormalizedKind() == config.KindFile && cfg.Provider.File.Path != "" {
		return []string{cfg.Provider.File.Path}
	}
	return nil
}

func startupProbes(cfg *config.Config, dbConn *db.DB, locator geo.Locator) []probe.Probe {
	probes := []probe.Probe{
		{
			Name:     "Database",
			Check:    dbConn.PingContext,
			Critical: true,
		},
	}
	if cfg.Provider.Menu.Enabled {
		probes = append(probes, probe.Probe{
			Name: "Chain Menu",
			Check: func(context.Context) error {
				_, err := os.Stat(cfg.Provider.Menu.Path)
				return err
			},
		})
	}
	if cfg.Provider.NormalizedKind() == config.KindPlaces {
		probes = append(probes, probe.Probe{
			Name: "Location",
			Check: func(context.Context) error {
				if _, ok := locator.Location(); !ok {
					return fmt.Errorf("no location until a client reports one")
				}
				return nil
			},
		})
	}
	return probes
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
