package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/davidleathers/fraud-scoring-backend/internal/infrastructure/config"
)

// ConnectionPool wraps a pgx pool with a background health check.
type ConnectionPool struct {
	pool            *pgxpool.Pool
	logger          *zap.Logger
	healthCheckStop chan struct{}
}

// NewConnectionPool creates and pings a connection pool.
func NewConnectionPool(cfg *config.DatabaseConfig, logger *zap.Logger) (*ConnectionPool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second
	poolConfig.ConnConfig.RuntimeParams = map[string]string{
		"application_name":  "fraud_scoring_backend",
		"timezone":          "UTC",
		"statement_timeout": "30s",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cp := &ConnectionPool{
		pool:            pool,
		logger:          logger,
		healthCheckStop: make(chan struct{}),
	}

	go cp.healthCheckRoutine()

	logger.Info("database connection pool initialized",
		zap.Int("max_connections", int(poolConfig.MaxConns)))

	return cp, nil
}

// Pool returns the underlying pgx pool.
func (p *ConnectionPool) Pool() *pgxpool.Pool {
	return p.pool
}

// HealthCheck verifies the database is reachable.
func (p *ConnectionPool) HealthCheck(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Stat returns current pool statistics.
func (p *ConnectionPool) Stat() *pgxpool.Stat {
	return p.pool.Stat()
}

func (p *ConnectionPool) healthCheckRoutine() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := p.pool.Ping(ctx); err != nil {
				p.logger.Error("database health check failed", zap.Error(err))
			}
			cancel()
		case <-p.healthCheckStop:
			return
		}
	}
}

// Close stops the health check and closes all connections.
func (p *ConnectionPool) Close() error {
	close(p.healthCheckStop)
	p.pool.Close()
	p.logger.Info("database connection pool closed")
	return nil
}
