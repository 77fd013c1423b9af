// Package sql provides the database/sql backed implementation of the
// dialect.Driver interface used to execute link-table statements.
//
// Statements produced by the persister use "?" placeholders; Conn rebinds them
// for the connection's dialect before execution, so the same statement text
// runs on PostgreSQL ($n), MySQL and SQLite.
//
//	drv, err := sql.Open("pgx", "postgres://localhost/school")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	var res sql.Result
//	err = drv.Exec(ctx, "DELETE FROM student_course WHERE student_id = ?", []any{5}, &res)
//
// # Decorators
//
// StatsDriver records execution statistics and reports slow statements;
// StatsCollector exports those statistics to Prometheus. DebugDriver logs
// every statement through log/slog at debug level.
package sql
