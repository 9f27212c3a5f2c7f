// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool behind the
// Neutron and identity stores.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool with fixed pragmas.
// Callers [Pool.Take] a connection, do their work, and [Pool.Put] it
// back, or use [Pool.WithConn] for the common take-work-put shape.
// Connections are not safe for concurrent use.
//
// # Modes
//
// A read-write pool (the default) initializes every connection with:
//
//   - journal_mode=WAL, so report commands can read while a cleanup
//     pass holds the write lock;
//   - synchronous=NORMAL;
//   - busy_timeout from Config.BusyTimeout (5s by default), so a
//     removal transaction waits for a concurrent Neutron server write
//     instead of failing with SQLITE_BUSY;
//   - cache_size=-8192 and temp_store=MEMORY.
//
// A read-only pool (Config.ReadOnly) opens the file with
// SQLITE_OPEN_READONLY and sets query_only=ON. The brief, detail, and
// compare commands use it so they cannot modify the database even by
// mistake. The file must already exist.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   "/var/lib/neutron/neutron.sqlite",
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	err = pool.WithConn(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, "SELECT ...", &sqlitex.ExecOptions{...})
//	})
//
// The context passed to Take bounds the statements run on the borrowed
// connection: when it is done, SQLite interrupts the running query.
package sqlitepool
