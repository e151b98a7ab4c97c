// Package database manages the SQLite store for ID28 core.
//
// It wraps database/sql with connection setup (WAL mode, busy timeout,
// foreign keys), embedded schema migrations, and health checks. The
// single-writer connection pool matches SQLite's locking model.
package database
