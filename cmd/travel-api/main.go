package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-travel-planner/internal/cache"
	"github.com/pribylovaa/go-travel-planner/internal/config"
	apihttp "github.com/pribylovaa/go-travel-planner/internal/http"
	"github.com/pribylovaa/go-travel-planner/internal/http/handlers"
	"github.com/pribylovaa/go-travel-planner/internal/http/middleware"
	"github.com/pribylovaa/go-travel-planner/internal/metrics"
	"github.com/pribylovaa/go-travel-planner/internal/password"
	"github.com/pribylovaa/go-travel-planner/internal/service"
	"github.com/pribylovaa/go-travel-planner/internal/session"
	"github.com/pribylovaa/go-travel-planner/internal/storage/postgres"
	"github.com/pribylovaa/go-travel-planner/internal/token"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting travel-api", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	if cfg.DB.AutoMigrate {
		migrateCtx, migrateCancel := context.WithTimeout(rootCtx, 30*time.Second)
		err := postgres.Migrate(migrateCtx, cfg.DB.DatabaseURL)
		migrateCancel()
		if err != nil {
			log.Error("postgres_migrate_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		log.Info("postgres_migrated")
	}

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer str.Close()
	log.Info("postgres_connected")

	codec, err := token.New(cfg.Auth)
	if err != nil {
		log.Error("token_codec_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	renewals, err := newRenewals(rootCtx, cfg)
	if err != nil {
		log.Error("renewals_cache_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := renewals.Close(); cerr != nil {
			log.Warn("renewals_cache_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	srvc := service.New(str, codec, password.New(cfg.Auth.BcryptCost))
	srvc.SetRenewals(renewals)
	log.Info("service_initialized")

	var upstream *url.URL
	if cfg.Web.UpstreamURL != "" {
		upstream, err = url.Parse(cfg.Web.UpstreamURL)
		if err != nil {
			log.Error("web_upstream_invalid", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	cookies := session.NewCookieStore(session.CookieOptionsFrom(cfg))

	apiHandler := apihttp.NewRouter(handlers.New(srvc, cookies), apihttp.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
		Metrics: m,
		Gate: middleware.GateOptions{
			Resolver: session.NewResolver(codec, renewals, cfg.Auth.RenewalDedupWindow),
			Cookies:  cookies,
			Routes:   middleware.RoutesFrom(cfg.Routes),
			Metrics:  m,
		},
		WebUpstream: upstream,
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("travel_api_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	log.Info("service_stopped")
}

// newRenewals выбирает кэш дедупликации продлений: Redis, если задан URL, иначе in-memory.
func newRenewals(ctx context.Context, cfg *config.Config) (cache.Renewals, error) {
	if cfg.Redis.RedisURL == "" {
		return cache.NewMemoryRenewals(), nil
	}

	redisCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return cache.NewRedisRenewals(redisCtx, cfg.Redis.RedisURL, cfg.Redis.Prefix)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
