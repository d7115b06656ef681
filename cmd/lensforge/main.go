package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/Strob0t/LensForge/internal/adapter/filecache"
	lfhttp "github.com/Strob0t/LensForge/internal/adapter/http"
	"github.com/Strob0t/LensForge/internal/adapter/localfile"
	"github.com/Strob0t/LensForge/internal/adapter/memcache"
	lfotel "github.com/Strob0t/LensForge/internal/adapter/otel"
	"github.com/Strob0t/LensForge/internal/adapter/tiered"
	"github.com/Strob0t/LensForge/internal/config"
	"github.com/Strob0t/LensForge/internal/logger"
	"github.com/Strob0t/LensForge/internal/middleware"
	"github.com/Strob0t/LensForge/internal/port/cache"
	"github.com/Strob0t/LensForge/internal/service"
)

func main() {
	// .env is optional, used for local development credentials.
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"provider", cfg.Provider.ID,
		"cache_backend", cfg.Cache.Backend,
		"max_concurrent", cfg.Engine.MaxConcurrent,
	)

	shutdownTracer := lfotel.InitTracer(cfg.Logging.Service)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	metrics, err := lfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := metrics.WatchLogDrops(logCloser.Dropped); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Cache backend ---
	store, closeStore, err := newCacheStore(cfg.Cache)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer closeStore()

	// --- Provider ---
	prov, err := service.NewProvider(cfg.Provider, cfg.Breaker)
	if err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	slog.Info("provider ready", "provider", prov.Name(), "model", cfg.Provider.Model)

	// --- Services ---
	analyzer := service.NewAnalyzer(prov, localfile.New(), cfg.Engine.MaxConcurrent, log,
		service.WithCache(store, cfg.Cache.TTL),
		service.WithCallTimeout(cfg.Engine.CallTimeout),
		service.WithMetrics(metrics),
	)
	runner := service.NewSuiteRunner(analyzer, log)

	// --- HTTP ---
	handlers := lfhttp.NewHandlers(analyzer, runner, log)

	r := chi.NewRouter()
	r.Use(lfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(lfhttp.SecurityHeaders)
	r.Use(lfhttp.Logger)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(5 * time.Minute))

	lfhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// newCacheStore builds the configured cache backend. The returned close
// function releases backend resources on shutdown.
func newCacheStore(cfg config.Cache) (cache.Store, func(), error) {
	switch cfg.Backend {
	case "memory":
		mem, err := memcache.New(cfg.MaxEntries)
		if err != nil {
			return nil, nil, err
		}
		return mem, mem.Close, nil
	case "file":
		fs, err := filecache.New(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	case "tiered":
		fs, err := filecache.New(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		mem, err := memcache.New(cfg.MaxEntries)
		if err != nil {
			return nil, nil, err
		}
		return tiered.New(mem, fs), mem.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
