package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PoolConfig tunes the pgx pool. Zero fields take the defaults below.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
	MaxConnLifetime time.Duration
	ConnectAttempts int
	RetryDelay      time.Duration
}

func (pc PoolConfig) withDefaults() PoolConfig {
	if pc.MaxConns <= 0 {
		pc.MaxConns = 20
	}
	if pc.MinConns <= 0 {
		pc.MinConns = 2
	}
	if pc.MinConns > pc.MaxConns {
		pc.MinConns = pc.MaxConns
	}
	if pc.MaxConnIdleTime <= 0 {
		pc.MaxConnIdleTime = 30 * time.Second
	}
	if pc.MaxConnLifetime <= 0 {
		pc.MaxConnLifetime = 5 * time.Minute
	}
	if pc.ConnectAttempts <= 0 {
		pc.ConnectAttempts = 5
	}
	if pc.RetryDelay <= 0 {
		pc.RetryDelay = time.Second
	}
	return pc
}

func poolConfig(dsn string, pc PoolConfig) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = pc.MaxConns
	cfg.MinConns = pc.MinConns
	cfg.MaxConnIdleTime = pc.MaxConnIdleTime
	cfg.MaxConnLifetime = pc.MaxConnLifetime
	return cfg, nil
}

// Connect opens the journal's PostgreSQL pool. The database often starts
// alongside the server, so the first ping is retried with a growing delay.
func Connect(ctx context.Context, dsn string, pc PoolConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	pc = pc.withDefaults()
	cfg, err := poolConfig(dsn, pc)
	if err != nil {
		return nil, err
	}

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	delay := pc.RetryDelay
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = p.Ping(pingCtx)
		cancel()
		if err == nil {
			return p, nil
		}
		if attempt == pc.ConnectAttempts {
			break
		}
		log.Warn("database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			p.Close()
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	p.Close()
	return nil, fmt.Errorf("ping after %d attempts: %w", pc.ConnectAttempts, err)
}

// CheckConnection logs the server clock and version so a misrouted DSN shows
// up in the startup log.
func CheckConnection(ctx context.Context, p *pgxpool.Pool, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		now     time.Time
		version string
	)
	if err := p.QueryRow(ctx, "SELECT NOW(), current_setting('server_version')").Scan(&now, &version); err != nil {
		return fmt.Errorf("check connection: %w", err)
	}
	log.Info("database connected", zap.Time("serverTime", now), zap.String("serverVersion", version))
	return nil
}
