package dialect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Dialect names for external usage.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for link-table clients.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// Dialect renders the dialect specific parts of a statement.
type Dialect interface {
	// Name returns the dialect name.
	Name() string
	// QuoteIdent quotes an identifier. Qualified names ("schema.table") are
	// quoted part by part.
	QuoteIdent(name string) string
	// LimitClause returns query with the pagination clause appended. A nil
	// limit or offset means the bound is not set.
	LimitClause(query string, limit, offset *int) string
	// Rebind rewrites "?" placeholders into the dialect's placeholder syntax.
	Rebind(query string) string
}

// Get returns the Dialect registered under the given name.
func Get(name string) (Dialect, error) {
	switch {
	case strings.HasPrefix(name, Postgres), name == "pgx":
		return postgres{}, nil
	case strings.HasPrefix(name, MySQL):
		return mysql{}, nil
	case strings.HasPrefix(name, SQLite):
		return sqlite{}, nil
	}
	return nil, fmt.Errorf("dialect: unsupported dialect %q", name)
}

type postgres struct{}

func (postgres) Name() string { return Postgres }

func (postgres) QuoteIdent(name string) string {
	return quoteParts(name, pq.QuoteIdentifier)
}

func (postgres) LimitClause(query string, limit, offset *int) string {
	if limit != nil {
		query += " LIMIT " + strconv.Itoa(*limit)
	}
	if offset != nil && *offset > 0 {
		query += " OFFSET " + strconv.Itoa(*offset)
	}
	return query
}

func (postgres) Rebind(query string) string {
	var (
		b  strings.Builder
		n  int
		sq bool // inside a single-quoted literal.
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			sq = !sq
			b.WriteByte(c)
		case c == '?' && !sq:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

type mysql struct{}

func (mysql) Name() string { return MySQL }

func (mysql) QuoteIdent(name string) string {
	return quoteParts(name, func(s string) string {
		return "`" + strings.ReplaceAll(s, "`", "``") + "`"
	})
}

// mysqlMaxRows is the documented way of expressing "no limit" with an offset.
const mysqlMaxRows = "18446744073709551615"

func (mysql) LimitClause(query string, limit, offset *int) string {
	switch {
	case limit != nil:
		query += " LIMIT " + strconv.Itoa(*limit)
	case offset != nil && *offset > 0:
		query += " LIMIT " + mysqlMaxRows
	}
	if offset != nil && *offset > 0 {
		query += " OFFSET " + strconv.Itoa(*offset)
	}
	return query
}

func (mysql) Rebind(query string) string { return query }

type sqlite struct{}

func (sqlite) Name() string { return SQLite }

func (sqlite) QuoteIdent(name string) string {
	return quoteParts(name, func(s string) string {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	})
}

func (sqlite) LimitClause(query string, limit, offset *int) string {
	switch {
	case limit != nil:
		query += " LIMIT " + strconv.Itoa(*limit)
	case offset != nil && *offset > 0:
		query += " LIMIT -1"
	}
	if offset != nil && *offset > 0 {
		query += " OFFSET " + strconv.Itoa(*offset)
	}
	return query
}

func (sqlite) Rebind(query string) string { return query }

func quoteParts(name string, quote func(string) string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = quote(parts[i])
	}
	return strings.Join(parts, ".")
}
