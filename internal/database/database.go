// Package database is the data access layer: it turns loosely-typed
// filter/update payloads into parameterized SQL, enforces allow-lists for
// every table, column, and operator that reaches generated statements, and
// executes through a pooled, transactional pgx connection manager.
//
// It handles:
//   - identifier/operator validation against fixed allow-lists
//   - condition normalization and WHERE clause construction
//   - SELECT/INSERT/UPDATE/DELETE/COUNT/bulk statement assembly
//   - pool lifecycle (create, scoped acquire, transactions, close)
//
// Callers above this package never construct SQL themselves.
package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/emupost/backend/internal/config"
	loggerPkg "github.com/emupost/backend/internal/logger"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// poolState tracks the manager lifecycle: Uninitialized -> Ready -> Closed.
type poolState int

const (
	stateUninitialized poolState = iota
	stateReady
	stateClosed
)

func (s poolState) String() string {
	switch s {
	case stateReady:
		return "ready"
	case stateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// querier is the subset of pgxpool.Pool (and pgx.Tx) the façade executes
// through. Keeping it narrow lets CRUD paths run against a fake in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pingTimeout bounds the connectivity check performed right after the pool
// is created, so startup fails fast when the database is down.
const pingTimeout = 10 * time.Second

// Database owns the connection pool and exposes the CRUD façade. It is
// constructed once by the server container and injected everywhere a
// query has to run; there is no package-level instance.
type Database struct {
	cfg *config.Config
	log zerolog.Logger

	mu    sync.Mutex
	state poolState
	pool  *pgxpool.Pool

	q     querier
	runTx func(ctx context.Context, fn func(q querier) error) error
}

// New returns an uninitialized Database. No connection is made until
// CreatePool.
func New(cfg *config.Config, logger *zerolog.Logger) *Database {
	d := &Database{
		cfg: cfg,
		log: logger.With().Str("component", "database").Logger(),
	}
	d.runTx = d.poolTx
	return d
}

// CreatePool transitions Uninitialized -> Ready: it builds the pgx pool
// from config (bounded size, connection recycling, statement timeout),
// registers the per-connection session initializer, and pings the
// database. Calling it on an already-ready Database is a no-op; calling it
// after Close fails with ErrClosed.
func (d *Database) CreatePool(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case stateReady:
		return nil
	case stateClosed:
		return ErrClosed
	}

	db := d.cfg.Database

	hostPort := net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		db.User,
		url.QueryEscape(db.Password),
		hostPort,
		db.Name,
		db.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	poolConfig.MinConns = int32(db.MinConns)
	poolConfig.MaxConns = int32(db.MaxConns)
	poolConfig.MaxConnLifetime = time.Duration(db.ConnMaxLifetime) * time.Second
	poolConfig.MaxConnIdleTime = time.Duration(db.ConnMaxIdleTime) * time.Second

	// Session-level defaults. statement_timeout bounds every statement;
	// idle_in_transaction_session_timeout reaps transactions that stall
	// holding a connection.
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "emupost"
	poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = strconv.Itoa(db.StatementTimeout * 1000)
	poolConfig.ConnConfig.RuntimeParams["idle_in_transaction_session_timeout"] = "60000"
	poolConfig.ConnConfig.RuntimeParams["jit"] = "off"

	// All timestamps are stored and compared in UTC regardless of the
	// server's locale.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET timezone = 'UTC'")
		return err
	}

	// SQL statement logging is noisy, so only in the local environment.
	if d.cfg.Primary.Env == "local" {
		level := d.log.GetLevel()
		poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(loggerPkg.NewPgxLogger(level)),
			LogLevel: loggerPkg.PgxTraceLevel(level),
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	d.pool = pool
	d.q = pool
	d.state = stateReady

	d.log.Info().
		Int("min_conns", db.MinConns).
		Int("max_conns", db.MaxConns).
		Int("statement_timeout_s", db.StatementTimeout).
		Msg("database pool created")

	return nil
}

// Close transitions Ready -> Closed and drains the pool. It is idempotent
// and never returns an error: shutdown sequences must be able to proceed
// past it.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == stateReady {
		d.log.Info().Msg("closing database connection pool")
		d.pool.Close()
		d.pool = nil
		d.q = nil
	}
	d.state = stateClosed
	return nil
}

// State reports the manager lifecycle state for status endpoints.
func (d *Database) State() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.String()
}

// Stat returns pool statistics, or nil when the pool is not ready.
func (d *Database) Stat() *pgxpool.Stat {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != stateReady {
		return nil
	}
	return d.pool.Stat()
}

// Ping verifies database connectivity.
func (d *Database) Ping(ctx context.Context) error {
	pool, err := d.readyPool()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// WithConn borrows one pooled connection for the duration of fn. The
// connection is released on every exit path, so a leak is structurally
// impossible.
func (d *Database) WithConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	pool, err := d.readyPool()
	if err != nil {
		return err
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()
	return fn(conn)
}

// WithTransaction composes a scoped acquire with a driver transaction:
// commit when fn returns nil, rollback otherwise.
func (d *Database) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	pool, err := d.readyPool()
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, pool, fn)
}

func (d *Database) poolTx(ctx context.Context, fn func(q querier) error) error {
	return d.WithTransaction(ctx, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

func (d *Database) readyPool() (*pgxpool.Pool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.state {
	case stateUninitialized:
		return nil, ErrNotInitialized
	case stateClosed:
		return nil, ErrClosed
	}
	return d.pool, nil
}

func (d *Database) querier() (querier, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.state {
	case stateUninitialized:
		return nil, ErrNotInitialized
	case stateClosed:
		return nil, ErrClosed
	}
	return d.q, nil
}
