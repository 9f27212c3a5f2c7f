// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package neutrondb

import (
	"context"
	"errors"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

var errTxDone = errors.New("neutrondb: transaction already finished")

// Begin borrows a connection and starts an immediate transaction on
// it. The connection goes back to the pool on Commit or Rollback. ctx
// bounds every statement in the transaction.
func (s *Store) Begin(ctx context.Context) (reconcile.Tx, error) {
	if s.readOnly {
		return nil, &reconcile.StoreConnectionError{Op: "begin transaction", Err: errors.New("store is read-only")}
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, &reconcile.StoreConnectionError{Op: "begin transaction", Err: err}
	}
	if err := sqlitex.ExecuteTransient(conn, "BEGIN IMMEDIATE", nil); err != nil {
		s.pool.Put(conn)
		return nil, &reconcile.StoreConnectionError{Op: "begin transaction", Err: err}
	}
	return &tx{store: s, conn: conn}, nil
}

type tx struct {
	store *Store
	conn  *sqlite.Conn
}

func (t *tx) DeleteAssignment(ctx context.Context, agent reconcile.AgentID, resource reconcile.ResourceID) (int64, error) {
	if t.conn == nil {
		return 0, errTxDone
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	err := sqlitex.Execute(t.conn, `
		DELETE FROM networkdhcpagentbindings
		WHERE rowid = (
			SELECT rowid FROM networkdhcpagentbindings
			WHERE network_id = ? AND dhcp_agent_id = ?
			ORDER BY rowid
			LIMIT 1
		)`, &sqlitex.ExecOptions{
		Args: []any{string(resource), string(agent)},
	})
	if err != nil {
		return 0, err
	}
	return int64(t.conn.Changes()), nil
}

func (t *tx) DeleteChildrenOfParent(ctx context.Context, parent reconcile.ParentID) (int64, error) {
	if t.conn == nil {
		return 0, errTxDone
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	err := sqlitex.Execute(t.conn, `DELETE FROM securitygroups WHERE tenant_id = ?`, &sqlitex.ExecOptions{
		Args: []any{string(parent)},
	})
	if err != nil {
		return 0, err
	}
	return int64(t.conn.Changes()), nil
}

func (t *tx) Commit() error {
	return t.finish("COMMIT")
}

func (t *tx) Rollback() error {
	return t.finish("ROLLBACK")
}

// finish ends the transaction and returns the connection. A failed
// COMMIT leaves the transaction open, so finish rolls it back before
// returning the connection to the pool.
func (t *tx) finish(statement string) error {
	if t.conn == nil {
		return errTxDone
	}
	conn := t.conn
	err := sqlitex.ExecuteTransient(conn, statement, nil)
	if err != nil && statement == "COMMIT" && !conn.AutocommitEnabled() {
		// Keep the transaction usable for the caller's Rollback.
		return err
	}
	t.conn = nil
	t.store.pool.Put(conn)
	return err
}
