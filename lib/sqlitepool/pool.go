// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// DefaultBusyTimeout is how long a connection waits for a lock held
// by another connection or process.
const DefaultBusyTimeout = 5 * time.Second

// Config holds the parameters for opening a pool. Path is required.
type Config struct {
	// Path is the database file path. ":memory:" works for tests with
	// PoolSize 1, since each in-memory connection is independent.
	Path string

	// PoolSize is the number of connections. Defaults to 4: the tool
	// runs one pass at a time and needs at most a reader alongside a
	// writer.
	PoolSize int

	// ReadOnly opens the database read-only. The file must exist.
	ReadOnly bool

	// BusyTimeout defaults to DefaultBusyTimeout.
	BusyTimeout time.Duration

	// Logger receives pool open/close messages. Nil discards them.
	Logger *slog.Logger

	// OnConnect runs once per connection after the pragmas, for
	// schema creation and similar setup. An error discards the
	// connection and is returned from Take.
	OnConnect func(conn *sqlite.Conn) error
}

// Pool is a fixed-size pool of SQLite connections. It is safe for
// concurrent use; the connections it hands out are not.
type Pool struct {
	inner    *sqlitex.Pool
	logger   *slog.Logger
	path     string
	readOnly bool
}

// Open creates the pool. Connections are opened lazily on first Take,
// so a missing or unreadable file surfaces as a Take error.
func Open(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlitepool: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}

	flags := sqlite.OpenReadWrite | sqlite.OpenCreate | sqlite.OpenWAL | sqlite.OpenURI
	if cfg.ReadOnly {
		flags = sqlite.OpenReadOnly | sqlite.OpenURI
	}

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		Flags:    flags,
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepareConnection(conn, cfg.ReadOnly, busyTimeout, cfg.OnConnect)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: opening %s: %w", cfg.Path, err)
	}

	logger.Debug("sqlite pool opened",
		"path", cfg.Path,
		"pool_size", poolSize,
		"read_only", cfg.ReadOnly,
	)
	return &Pool{
		inner:    inner,
		logger:   logger,
		path:     cfg.Path,
		readOnly: cfg.ReadOnly,
	}, nil
}

// Path returns the database path the pool was opened with.
func (p *Pool) Path() string { return p.path }

// ReadOnly reports whether the pool was opened read-only.
func (p *Pool) ReadOnly() bool { return p.readOnly }

// Take borrows a connection, blocking until one is free or ctx is
// done. ctx also bounds statements run on the connection until Put.
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: take: %w", err)
	}
	return conn, nil
}

// Put returns a connection to the pool. Put(nil) is a no-op.
func (p *Pool) Put(conn *sqlite.Conn) {
	p.inner.Put(conn)
}

// WithConn takes a connection, runs fn, and puts it back.
func (p *Pool) WithConn(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := p.Take(ctx)
	if err != nil {
		return err
	}
	defer p.Put(conn)
	return fn(conn)
}

// Close closes every connection, blocking until borrowed connections
// are returned.
func (p *Pool) Close() error {
	if err := p.inner.Close(); err != nil {
		p.logger.Error("sqlite pool close error",
			"path", p.path,
			"error", err,
		)
		return fmt.Errorf("sqlitepool: closing %s: %w", p.path, err)
	}
	p.logger.Debug("sqlite pool closed", "path", p.path)
	return nil
}

func prepareConnection(conn *sqlite.Conn, readOnly bool, busyTimeout time.Duration, onConnect func(*sqlite.Conn) error) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout.Milliseconds()),
		"PRAGMA cache_size=-8192",
		"PRAGMA temp_store=MEMORY",
	}
	if readOnly {
		pragmas = append(pragmas, "PRAGMA query_only=ON")
	} else {
		pragmas = append(pragmas,
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
		)
	}

	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitepool: %s: %w", pragma, err)
		}
	}

	if onConnect != nil {
		if err := onConnect(conn); err != nil {
			return fmt.Errorf("sqlitepool: OnConnect: %w", err)
		}
	}
	return nil
}
