// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package neutrondb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/yeungp/OpenStack-tools/lib/reconcile"
	"github.com/yeungp/OpenStack-tools/lib/sqlitepool"
)

// DefaultAgentTopic is the RPC topic of Neutron DHCP agents.
const DefaultAgentTopic = "dhcp_agent"

// Config holds the parameters for opening a Store.
type Config struct {
	// Path is the Neutron database file. Required.
	Path string

	// IdentityPath is the Keystone database file. Empty means the
	// project table lives in the Neutron database.
	IdentityPath string

	// ReadOnly opens both databases read-only. Begin and Init fail on
	// a read-only store.
	ReadOnly bool

	// AgentTopic selects which agents ListAgents returns.
	AgentTopic string

	BusyTimeout time.Duration

	Logger *slog.Logger
}

// Store is a Neutron database. It is safe for concurrent use.
type Store struct {
	pool     *sqlitepool.Pool
	identity *sqlitepool.Pool
	topic    string
	readOnly bool
	logger   *slog.Logger
}

// Open opens the Neutron database and, if configured separately, the
// identity database. The caller must call Close.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("neutrondb: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	topic := cfg.AgentTopic
	if topic == "" {
		topic = DefaultAgentTopic
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:        cfg.Path,
		ReadOnly:    cfg.ReadOnly,
		BusyTimeout: cfg.BusyTimeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("neutrondb: %w", err)
	}

	store := &Store{
		pool:     pool,
		identity: pool,
		topic:    topic,
		readOnly: cfg.ReadOnly,
		logger:   logger,
	}
	if cfg.IdentityPath != "" && cfg.IdentityPath != cfg.Path {
		identity, err := sqlitepool.Open(sqlitepool.Config{
			Path:        cfg.IdentityPath,
			ReadOnly:    cfg.ReadOnly,
			BusyTimeout: cfg.BusyTimeout,
			Logger:      logger,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("neutrondb: identity database: %w", err)
		}
		store.identity = identity
	}
	return store, nil
}

// Close closes the underlying pools.
func (s *Store) Close() error {
	var errs []error
	if s.identity != s.pool {
		errs = append(errs, s.identity.Close())
	}
	errs = append(errs, s.pool.Close())
	return errors.Join(errs...)
}

// Init creates the Neutron schema in the main database and the
// project table in the identity database.
func (s *Store) Init(ctx context.Context) error {
	if s.readOnly {
		return errors.New("neutrondb: cannot initialize a read-only store")
	}
	if err := s.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, Schema, nil)
	}); err != nil {
		return fmt.Errorf("neutrondb: creating schema: %w", err)
	}
	if err := s.identity.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, IdentitySchema, nil)
	}); err != nil {
		return fmt.Errorf("neutrondb: creating identity schema: %w", err)
	}
	s.logger.Info("schema initialized",
		"path", s.pool.Path(),
		"identity_path", s.identity.Path(),
	)
	return nil
}

// query runs fn on a connection from pool. A failure to obtain the
// connection becomes a *reconcile.StoreConnectionError.
func query(ctx context.Context, pool *sqlitepool.Pool, op string, fn func(conn *sqlite.Conn) error) error {
	conn, err := pool.Take(ctx)
	if err != nil {
		return &reconcile.StoreConnectionError{Op: op, Err: err}
	}
	defer pool.Put(conn)
	if err := fn(conn); err != nil {
		return fmt.Errorf("neutrondb: %s: %w", op, err)
	}
	return nil
}

// ListAgents returns enabled agents of the configured topic.
func (s *Store) ListAgents(ctx context.Context) ([]reconcile.Agent, error) {
	agents := []reconcile.Agent{}
	err := query(ctx, s.pool, "list agents", func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			SELECT id, host, heartbeat_timestamp
			FROM agents
			WHERE topic = ? AND admin_state_up = 1
			ORDER BY rowid`, &sqlitex.ExecOptions{
			Args: []any{s.topic},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id := stmt.ColumnText(0)
				heartbeat, err := ParseHeartbeat(stmt.ColumnText(2))
				if err != nil {
					return &reconcile.InvalidRecordError{Kind: "agent", ID: id, Reason: err.Error()}
				}
				agents = append(agents, reconcile.Agent{
					ID:            reconcile.AgentID(id),
					Host:          stmt.ColumnText(1),
					LastHeartbeat: heartbeat,
				})
				return nil
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return agents, nil
}

// ListResources returns enabled networks.
func (s *Store) ListResources(ctx context.Context) ([]reconcile.Resource, error) {
	resources := []reconcile.Resource{}
	err := query(ctx, s.pool, "list networks", func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			SELECT id, name FROM networks
			WHERE admin_state_up = 1
			ORDER BY rowid`, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				resources = append(resources, reconcile.Resource{
					ID:   reconcile.ResourceID(stmt.ColumnText(0)),
					Name: stmt.ColumnText(1),
				})
				return nil
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return resources, nil
}

// ListAssignments returns every network-to-agent binding.
func (s *Store) ListAssignments(ctx context.Context) ([]reconcile.Assignment, error) {
	assignments := []reconcile.Assignment{}
	err := query(ctx, s.pool, "list bindings", func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			SELECT dhcp_agent_id, network_id
			FROM networkdhcpagentbindings
			ORDER BY rowid`, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				assignments = append(assignments, reconcile.Assignment{
					Agent:    reconcile.AgentID(stmt.ColumnText(0)),
					Resource: reconcile.ResourceID(stmt.ColumnText(1)),
				})
				return nil
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListChildren returns every security group.
func (s *Store) ListChildren(ctx context.Context) ([]reconcile.Child, error) {
	children := []reconcile.Child{}
	err := query(ctx, s.pool, "list security groups", func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			SELECT id, tenant_id, name
			FROM securitygroups
			ORDER BY rowid`, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				children = append(children, reconcile.Child{
					ID:     reconcile.ChildID(stmt.ColumnText(0)),
					Parent: reconcile.ParentID(stmt.ColumnText(1)),
					Name:   stmt.ColumnText(2),
				})
				return nil
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

// ListParents returns every project from the identity database.
func (s *Store) ListParents(ctx context.Context) ([]reconcile.Parent, error) {
	parents := []reconcile.Parent{}
	err := query(ctx, s.identity, "list projects", func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT id, name FROM project ORDER BY rowid`, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				parents = append(parents, reconcile.Parent{
					ID:   reconcile.ParentID(stmt.ColumnText(0)),
					Name: stmt.ColumnText(1),
				})
				return nil
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return parents, nil
}
