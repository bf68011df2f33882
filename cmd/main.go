// review-service: application status workflow
//
// Owns the status of job applications and exposes:
//   - REST API (chi) used by the web dashboard: list, stats, recent, transition
//   - gRPC review.ReviewService for the gateway
//   - /ws notification stream feeding the dashboard toasts
//   - Prometheus metrics on a separate listener
//
// Publishes EVENT_APPLICATION_STATUS to Redis on every effective transition
// when REDIS_URL is set; every instance relays that channel to its websocket
// clients.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobboard/review-service/internal/config"
	"jobboard/review-service/internal/db"
	"jobboard/review-service/internal/grpcserver"
	"jobboard/review-service/internal/httpapi"
	"jobboard/review-service/internal/notify"
	"jobboard/review-service/internal/review"
	"jobboard/review-service/internal/scheduler"
	"jobboard/review-service/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("[review-service] .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[review-service] Config error: %v", err)
	}
	logger := newLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Store ────────────────────────────────────────────────────────────────
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[review-service] Store: %v", err)
	}
	defer closeStore()

	// ── Notifications ────────────────────────────────────────────────────────
	hub := notify.NewHub(logger)
	var notifier notify.Notifier = hub
	if cfg.RedisURL != "" {
		log.Println("[review-service] Connecting to Redis…")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("[review-service] Redis: %v", err)
		}
		defer rdb.Close()
		log.Println("[review-service] Redis connected ✓")

		notifier = notify.NewRedisNotifier(rdb)
		go func() {
			if err := hub.Relay(ctx, rdb); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("redis relay stopped", "err", err)
			}
		}()
	}

	opts := []review.Option{review.WithLogger(logger)}
	if cfg.StrictTransitions {
		opts = append(opts, review.WithPolicy(review.Strict))
	}
	svc := review.NewService(st, notifier, opts...)

	// ── Scheduler ────────────────────────────────────────────────────────────
	sched := scheduler.New(svc, cfg.StatsSchedule, logger)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[review-service] Scheduler: %v", err)
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      httpapi.NewHandler(svc, hub, logger, version).Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[review-service] v%s listening on :%s (store=%s)", version, cfg.Port, cfg.StoreMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[review-service] HTTP server error: %v", err)
		}
	}()

	// ── gRPC server ──────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatalf("[review-service] gRPC listen: %v", err)
	}
	gs := grpcserver.New(svc, logger)
	go func() {
		log.Printf("[review-service] gRPC listening on :%s", cfg.GRPCPort)
		if err := gs.Serve(lis); err != nil {
			log.Fatalf("[review-service] gRPC server error: %v", err)
		}
	}()

	// ── Metrics ──────────────────────────────────────────────────────────────
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.MetricsPort), Handler: metricsMux}
	go func() {
		log.Printf("[review-service] metrics on :%s/metrics", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "err", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[review-service] Shutting down…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[review-service] Shutdown error: %v", err)
	}
	_ = metricsSrv.Shutdown(shutdownCtx)
	gs.GracefulStop()
	log.Println("[review-service] Stopped.")
}

// openStore builds the configured store and seeds it.
func openStore(ctx context.Context, cfg *config.Config) (review.Store, func(), error) {
	switch cfg.StoreMode {
	case config.StorePostgres:
		log.Println("[review-service] Migrating PostgreSQL…")
		version, err := db.Migrate(db.Up, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[review-service] Schema at version %d ✓", version)
		log.Println("[review-service] Connecting to PostgreSQL…")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		log.Println("[review-service] PostgreSQL connected ✓")
		ps := store.NewPostgresStore(pool)
		if cfg.FixturesPath != "" {
			if err := seedFromFile(ctx, ps, cfg.FixturesPath); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return ps, pool.Close, nil

	default:
		ms := store.NewMemoryStore()
		var err error
		if cfg.FixturesPath != "" {
			err = seedFromFile(ctx, ms, cfg.FixturesPath)
		} else {
			var apps []review.Application
			if apps, err = store.DefaultFixtures(); err == nil {
				_, err = store.Seed(ctx, ms, apps)
			}
		}
		if err != nil {
			ms.Close()
			return nil, nil, err
		}
		return ms, ms.Close, nil
	}
}

func seedFromFile(ctx context.Context, s review.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixtures: %w", err)
	}
	apps, err := store.ParseFixtures(data)
	if err != nil {
		return err
	}
	n, err := store.Seed(ctx, s, apps)
	if err != nil {
		return err
	}
	log.Printf("[review-service] Seeded %d application(s) from %s", n, path)
	return nil
}

func newLogger(env string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return logger.With(slog.Group("service_info",
		slog.String("env", env),
		slog.String("service", "review-service"),
	))
}
