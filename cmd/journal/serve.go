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

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kjannette/trahn-journal/internal/api"
	"github.com/kjannette/trahn-journal/internal/auth"
	"github.com/kjannette/trahn-journal/internal/cache"
	"github.com/kjannette/trahn-journal/internal/config"
	"github.com/kjannette/trahn-journal/internal/db"
	"github.com/kjannette/trahn-journal/internal/events"
	"github.com/kjannette/trahn-journal/internal/gormstore"
	"github.com/kjannette/trahn-journal/internal/logger"
	"github.com/kjannette/trahn-journal/internal/notifications"
	"github.com/kjannette/trahn-journal/internal/repository"
	"github.com/kjannette/trahn-journal/internal/scheduler"
	"github.com/kjannette/trahn-journal/internal/store"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the journal API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print(banner)

			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			return serve(cmd.Context(), cfg, log)
		},
	}
}

// bootstrap loads and validates the configuration and builds the logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		return nil, nil, err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return nil, nil, err
	}

	if err := cfg.Validate(log); err != nil {
		log.Error("invalid configuration", zap.Error(err))
		return nil, nil, err
	}
	cfg.Print(log)
	return cfg, log, nil
}

// openStore connects to the configured database and brings its schema up to
// date. PostgreSQL goes through pgx; MySQL and SQLite through gorm.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, func(), error) {
	dbLog := log.Named("db")

	if cfg.DBDriver == config.DriverPostgres {
		dbLog.Info("connecting", zap.String("host", cfg.DBHost), zap.Int("port", cfg.DBPort), zap.String("name", cfg.DBName))
		pool, err := db.Connect(ctx, cfg.DSN(), db.PoolConfig{MaxConns: int32(cfg.DBMaxConns)}, dbLog)
		if err != nil {
			return store.Store{}, nil, fmt.Errorf("connect: %w", err)
		}
		if err := db.CheckConnection(ctx, pool, dbLog); err != nil {
			pool.Close()
			return store.Store{}, nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return store.Store{}, nil, fmt.Errorf("migrate: %w", err)
		}
		return repository.NewStore(pool), func() {
			pool.Close()
			dbLog.Info("connection pool closed")
		}, nil
	}

	dbLog.Info("opening", zap.String("driver", cfg.DBDriver))
	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return store.Store{}, nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return store.Store{}, nil, fmt.Errorf("database handle: %w", err)
	}
	return gormstore.New(gdb), func() {
		sqlDB.Close()
		dbLog.Info("connection closed")
	}, nil
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("database unavailable", zap.Error(err))
		return err
	}
	defer closeStore()

	// Stats cache
	var statsCache cache.StatsCache = cache.NewMemory()
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("redis unavailable", zap.Error(err))
			return err
		}
		defer rc.Close()
		statsCache = rc
	}
	layer := cache.NewLayer(statsCache, cfg.StatsCacheTTL, log.Named("cache"))

	// Events
	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		rp, err := events.DialRabbit(cfg.AMQPURL, cfg.AMQPExchange, log.Named("events"))
		if err != nil {
			log.Error("rabbitmq unavailable", zap.Error(err))
			return err
		}
		defer rp.Close()
		publisher = rp
	}

	// Notifications
	var notifier api.Notifier
	if sender := notifications.NewSender(cfg.WebhookURL, cfg.BotName, log.Named("notify")); sender.Enabled() {
		notifier = sender
	}

	refresher := scheduler.NewStrategyRefresher(st.Strategies, st.Trades, scheduler.StrategyRefresherConfig{
		Interval: cfg.StrategyRefreshInterval,
	}, log.Named("scheduler"))

	srv := api.NewServer(api.Deps{
		Store:     st,
		Issuer:    auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Cache:     layer,
		Events:    publisher,
		Notifier:  notifier,
		Refresher: refresher,
		Log:       log.Named("api"),
	}, api.Options{
		Port:                   cfg.Port,
		CORSAllowOrigin:        cfg.CORSAllowOrigin,
		BcryptCost:             cfg.BcryptCost,
		DefaultStartingBalance: cfg.DefaultStartingBalance,
		AuthRateLimit:          cfg.AuthRateLimit,
		AuthRateBurst:          cfg.AuthRateBurst,
	})

	refresher.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down gracefully")

		refresher.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("api shutdown", zap.Error(err))
		}
		log.Info("api server closed")
		return nil
	})

	log.Info("all services started")
	if err := g.Wait(); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	log.Info("shutdown complete")
	return nil
}
