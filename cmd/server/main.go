package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"culturetrail/internal/activity"
	activityhandler "culturetrail/internal/activity/handler"
	"culturetrail/internal/catalog"
	"culturetrail/internal/checkin"
	checkinhandler "culturetrail/internal/checkin/handler"
	checkinmetrics "culturetrail/internal/checkin/metrics"
	"culturetrail/internal/favorites"
	favoriteshandler "culturetrail/internal/favorites/handler"
	"culturetrail/internal/identity"
	"culturetrail/internal/leaderboard"
	leaderboardhandler "culturetrail/internal/leaderboard/handler"
	"culturetrail/internal/migrate"
	"culturetrail/internal/platform/cache"
	"culturetrail/internal/platform/config"
	"culturetrail/internal/platform/httpserver"
	"culturetrail/internal/platform/logger"
	"culturetrail/internal/platform/metrics"
	"culturetrail/internal/platform/redis"
	"culturetrail/internal/progress"
	progresshandler "culturetrail/internal/progress/handler"
	transporthttp "culturetrail/internal/transport/http"
)

const shutdownGrace = 10 * time.Second

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log := logger.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// stores groups the persistence implementations selected at startup.
type stores struct {
	catalog   catalog.Store
	ledgers   checkin.LedgerStore
	ledgerTx  checkin.LedgerTx
	favorites favorites.Store
	directory identity.Directory
	activity  activity.Store
	health    map[string]transporthttp.HealthChecker
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	cacheLayer := cache.Cache(cache.Noop{})
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		// The cache is optional; a down Redis must not block startup.
		log.Warn("redis unavailable, running without cache", "error", err)
	} else if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		cacheLayer = cache.NewRedis(redisClient)
		st.health["redis"] = redisClient.Health
		log.Info("redis cache enabled")
	}

	tokens := identity.NewTokenService(cfg.JWTSigningKey, "culturetrail")
	httpMetrics := metrics.New()

	recorder := activity.NewRecorder(256, log)
	worker := activity.NewWorker(st.activity, recorder.Inbox(), log)

	checkinService, err := checkin.NewService(st.catalog, st.ledgerTx,
		checkin.WithActivity(recorder),
		checkin.WithCache(cacheLayer),
		checkin.WithMetrics(checkinmetrics.New()),
		checkin.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("build checkin service: %w", err)
	}

	progressService, err := progress.NewService(st.catalog, st.ledgers,
		progress.WithLedgerTx(st.ledgerTx),
		progress.WithFavorites(st.favorites),
		progress.WithCache(cacheLayer),
		progress.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("build progress service: %w", err)
	}

	leaderboardService, err := leaderboard.NewService(st.ledgers, st.directory,
		leaderboard.WithCache(cacheLayer),
		leaderboard.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("build leaderboard service: %w", err)
	}

	favoritesService, err := favorites.NewService(st.catalog, st.favorites)
	if err != nil {
		return fmt.Errorf("build favorites service: %w", err)
	}

	router := transporthttp.NewRouter(transporthttp.Dependencies{
		Logger:         log,
		Metrics:        httpMetrics,
		TokenValidator: tokens,
		Checkin:        checkinhandler.New(checkinService, log),
		Progress:       progresshandler.New(progressService, log),
		Favorites:      favoriteshandler.New(favoritesService, log),
		Leaderboard:    leaderboardhandler.New(leaderboardService, log),
		Activity:       activityhandler.New(st.activity, log),
		Health:         st.health,
	})

	server := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("activity worker: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// buildStores selects Postgres-backed stores when DATABASE_URL is set and
// falls back to in-memory stores for local development.
func buildStores(ctx context.Context, cfg config.Server, log *slog.Logger) (*stores, func(), error) {
	health := make(map[string]transporthttp.HealthChecker)

	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores; state is lost on restart")

		var sites []catalog.Site
		if cfg.CatalogSeedPath != "" {
			var err error
			sites, err = catalog.LoadGeoJSON(cfg.CatalogSeedPath)
			if err != nil {
				return nil, nil, fmt.Errorf("load catalog seed: %w", err)
			}
			log.Info("catalog seeded", "sites", len(sites))
		}

		ledgers := checkin.NewInMemoryLedgerStore()
		return &stores{
			catalog:   catalog.NewInMemoryStore(sites),
			ledgers:   ledgers,
			ledgerTx:  checkin.NewShardedLedgerTx(ledgers),
			favorites: favorites.NewInMemoryStore(),
			directory: identity.NewInMemoryDirectory(),
			activity:  activity.NewInMemoryStore(),
			health:    health,
		}, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	cleanup := func() { _ = db.Close() }

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate.Apply(ctx, db); err != nil {
		cleanup()
		return nil, nil, err
	}
	health["postgres"] = db.PingContext

	catalogStore := catalog.NewPostgresStore(db)
	if cfg.CatalogSeedPath != "" {
		sites, err := catalog.LoadGeoJSON(cfg.CatalogSeedPath)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("load catalog seed: %w", err)
		}
		if err := catalogStore.UpsertAll(ctx, sites); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("seed catalog: %w", err)
		}
		log.Info("catalog seeded", "sites", len(sites))
	}

	return &stores{
		catalog:   catalogStore,
		ledgers:   checkin.NewPostgresLedgerStore(db),
		ledgerTx:  checkin.NewPostgresLedgerTx(db),
		favorites: favorites.NewPostgresStore(db),
		directory: identity.NewPostgresDirectory(db),
		activity:  activity.NewPostgresStore(db),
		health:    health,
	}, cleanup, nil
}
