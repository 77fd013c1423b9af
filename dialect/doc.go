// Package dialect provides the database dialect abstraction used by the
// link-table persister.
//
// The persister renders portable SQL with "?" placeholders and delegates the
// parts that differ between databases to a Dialect: identifier quoting,
// pagination and placeholder syntax.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL database (quoting via lib/pq, $n placeholders)
//   - MySQL: MySQL/MariaDB database (backtick quoting)
//   - SQLite: SQLite database
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Pagination
//
//	d, _ := dialect.Get(dialect.Postgres)
//	limit := 10
//	d.LimitClause("", &limit, nil) // " LIMIT 10"
//
// # Driver Interface
//
// The package defines the Driver interface for database operations:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The ExecQuerier interface is implemented by both Driver and Tx and is what
// the persister consumes, so link-table writes join the caller's transaction.
//
// # Sub-packages
//
//   - dialect/sql: database/sql backed driver, stats and debug decorators
//   - dialect/sql/sqlgraph: constraint error classification
package dialect
