// Package gateway owns the database connection resource.
//
// Every persistence-touching component routes through the Gateway: it
// builds the pgx connection pool with a bounded retry loop, classifies
// query failures, and transparently rebuilds the pool and retries a
// query exactly once when the failure looks like a dropped connection.
// Semantic errors (constraint violations, bad statements) are passed
// through untouched.
package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Adam044/ProFormance/internal/config"
	loggerPkg "github.com/Adam044/ProFormance/internal/logger"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// pool is the slice of *pgxpool.Pool the gateway relies on.
// Narrowing it to an interface keeps the rebuild/retry logic testable.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// Gateway mediates all database access.
//
// The connection resource is shared process-wide state: at most one
// pool is current at a time. A request either observes a valid pool or
// triggers a lazy rebuild. Rebuilds are serialized with a mutex so
// concurrent transient failures produce one reconnect sequence, not
// several.
type Gateway struct {
	cfg  config.DatabaseConfig
	log  *zerolog.Logger
	dial func(ctx context.Context) (pool, error)

	mu      sync.Mutex // guards current
	current pool

	connectMu sync.Mutex // serializes connect attempts
}

// New constructs a Gateway. No connection is made until Connect or the
// first query.
func New(cfg *config.Config, logger *zerolog.Logger) *Gateway {
	g := &Gateway{
		cfg: cfg.Database,
		log: logger,
	}
	g.dial = func(ctx context.Context) (pool, error) {
		return newPgxPool(ctx, cfg, logger)
	}
	return g
}

// newPgxPool builds a pgx connection pool from the configured URL.
// In the local environment queries are traced through zerolog.
func newPgxPool(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing pgx pool config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)

	if cfg.Primary.Env == "local" {
		level := logger.GetLevel()
		pgxLogger := loggerPkg.NewPgxLogger(level)
		poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(pgxLogger),
			LogLevel: tracelog.LogLevel(loggerPkg.GetPgxTraceLogLevel(level)),
		}
	}

	p, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating pgx pool: %w", err)
	}
	return p, nil
}

// Connect establishes the connection resource with a bounded retry
// loop: cfg.ConnectAttempts attempts, increasing backoff capped at
// cfg.BackoffCap seconds, each attempt probed with a ping. If a pool is
// already current, Connect is a no-op. The next caller after a full
// failure triggers a fresh attempt sequence.
func (g *Gateway) Connect(ctx context.Context) error {
	g.connectMu.Lock()
	defer g.connectMu.Unlock()

	// Another caller may have connected while we waited for the lock.
	if g.snapshot() != nil {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= g.cfg.ConnectAttempts; attempt++ {
		p, err := g.dial(ctx)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, time.Duration(g.cfg.PingTimeout)*time.Second)
			err = p.Ping(pingCtx)
			cancel()
			if err == nil {
				g.mu.Lock()
				g.current = p
				g.mu.Unlock()
				g.log.Info().Int("attempt", attempt).Msg("connected to the database")
				return nil
			}
			p.Close()
		}

		lastErr = err
		g.log.Warn().Err(err).Int("attempt", attempt).Msg("database connect failed")

		if attempt < g.cfg.ConnectAttempts {
			delay := time.Duration(min(g.cfg.BackoffBase*attempt, g.cfg.BackoffCap)) * time.Second
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("all %d database connection attempts failed: %w", g.cfg.ConnectAttempts, lastErr)
}

// Ready reports whether a connection resource is currently established.
func (g *Gateway) Ready() bool {
	return g.snapshot() != nil
}

// Ping probes the current pool. It returns ErrUnavailable when no pool
// is established.
func (g *Gateway) Ping(ctx context.Context) error {
	p := g.snapshot()
	if p == nil {
		return ErrUnavailable
	}
	return p.Ping(ctx)
}

// Close tears down the connection resource at shutdown.
func (g *Gateway) Close() {
	g.mu.Lock()
	p := g.current
	g.current = nil
	g.mu.Unlock()

	if p != nil {
		g.log.Info().Msg("closing database connection pool")
		p.Close()
	}
}

// Exec runs a statement through the retry envelope and returns the
// number of rows affected.
func (g *Gateway) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	var affected int64
	err := g.run(ctx, func(p pool) error {
		tag, err := p.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}

// Query runs a query through the retry envelope. The scan callback
// consumes the result set; it must fully rebuild its output on each
// invocation because a transient failure causes the query (and the
// callback) to run a second time against the rebuilt pool.
func (g *Gateway) Query(ctx context.Context, scan func(rows pgx.Rows) error, sql string, args ...any) error {
	return g.run(ctx, func(p pool) error {
		rows, err := p.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		err = scan(rows)
		rows.Close()
		if err != nil {
			return err
		}
		return rows.Err()
	})
}

// run is the single retry envelope. On a classified-transient failure
// the current pool is discarded, rebuilt once (itself a bounded retry
// loop), and the operation retried exactly once. Non-transient errors
// surface unchanged inside a *QueryError; no retry loops beyond this
// point are permitted.
func (g *Gateway) run(ctx context.Context, op func(p pool) error) error {
	p, err := g.ensure(ctx)
	if err != nil {
		return ErrUnavailable
	}

	err = op(p)
	if err == nil {
		return nil
	}
	if !IsTransient(err) {
		return &QueryError{cause: err}
	}

	g.log.Warn().Err(err).Msg("transient database failure, rebuilding pool")
	g.discard(p)

	p, rebuildErr := g.ensure(ctx)
	if rebuildErr != nil {
		return ErrUnavailable
	}

	if err = op(p); err != nil {
		if IsTransient(err) {
			return &TransientError{cause: err}
		}
		return &QueryError{cause: err}
	}
	return nil
}

// ensure returns the current pool, lazily connecting when absent.
func (g *Gateway) ensure(ctx context.Context) (pool, error) {
	if p := g.snapshot(); p != nil {
		return p, nil
	}
	if err := g.Connect(ctx); err != nil {
		return nil, err
	}
	p := g.snapshot()
	if p == nil {
		return nil, ErrUnavailable
	}
	return p, nil
}

// discard drops p as the current pool and closes it. A racing request
// may already have replaced it; in that case only p itself is closed.
func (g *Gateway) discard(p pool) {
	g.mu.Lock()
	if g.current == p {
		g.current = nil
	}
	g.mu.Unlock()
	p.Close()
}

func (g *Gateway) snapshot() pool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}
