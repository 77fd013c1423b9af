package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/linktable/dialect"
)

// TestOpenDB tests the OpenDB function with different dialects.
func TestOpenDB(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		dialect string
	}{
		{"Postgres", dialect.Postgres, dialect.Postgres},
		{"PGX", "pgx", dialect.Postgres},
		{"MySQL", dialect.MySQL, dialect.MySQL},
		{"SQLite", dialect.SQLite, dialect.SQLite},
		{"SQLite3", "sqlite3", dialect.SQLite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(tt.driver, db)
			assert.NotNil(t, drv)
			assert.Equal(t, tt.dialect, drv.Dialect())
			assert.Same(t, db, drv.DB())
		})
	}
}

// TestDriverQuery tests query operations.
func TestDriverQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	t.Run("rebinds_placeholders", func(t *testing.T) {
		mock.ExpectQuery(`SELECT 1 FROM student_course t WHERE t.student_id = \$1 AND t.course_id = \$2`).
			WithArgs(5, 9).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		rows := &Rows{}
		err := drv.Query(context.Background(), "SELECT 1 FROM student_course t WHERE t.student_id = ? AND t.course_id = ?", []any{5, 9}, rows)
		require.NoError(t, err)
		require.NoError(t, rows.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_error", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

		rows := &Rows{}
		err := drv.Query(context.Background(), "SELECT 1", []any{}, rows)
		require.EqualError(t, err, "dialect/sql: query: connection reset")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_args", func(t *testing.T) {
		err := drv.Query(context.Background(), "SELECT 1", "nope", &Rows{})
		require.EqualError(t, err, "dialect/sql: invalid type string. expect []any for args")

		var res Result
		err = drv.Query(context.Background(), "SELECT 1", []any{}, &res)
		require.Error(t, err)
	})
}

// TestDriverExec tests execute operations.
func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.MySQL, db)

	t.Run("affected_rows", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM student_course WHERE student_id = \\? AND course_id = \\?").
			WithArgs(5, 9).
			WillReturnResult(sqlmock.NewResult(0, 1))

		var res Result
		err := drv.Exec(context.Background(), "DELETE FROM student_course WHERE student_id = ? AND course_id = ?", []any{5, 9}, &res)
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_error", func(t *testing.T) {
		expectedErr := errors.New("constraint violation")
		mock.ExpectExec("INSERT").WillReturnError(expectedErr)

		err := drv.Exec(context.Background(), "INSERT INTO student_course (student_id, course_id) VALUES (?, ?)", []any{5, 9}, nil)
		require.ErrorIs(t, err, expectedErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_result", func(t *testing.T) {
		var n int
		err := drv.Exec(context.Background(), "DELETE FROM t", []any{}, &n)
		require.EqualError(t, err, "dialect/sql: invalid type *int. expect *sql.Result")
	})
}

// TestDriverTransaction tests transaction operations.
func TestDriverTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	t.Run("successful_commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO student_course \(student_id, course_id\) VALUES \(\$1, \$2\)`).
			WithArgs(5, 9).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)

		err = tx.Exec(context.Background(), "INSERT INTO student_course (student_id, course_id) VALUES (?, ?)", []any{5, 9}, nil)
		require.NoError(t, err)

		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT").WillReturnError(errors.New("error"))
		mock.ExpectRollback()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)

		err = tx.Exec(context.Background(), "INSERT INTO student_course (student_id, course_id) VALUES (?, ?)", []any{5, 9}, nil)
		require.Error(t, err)

		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestScanValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.SQLite, db)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		rows := &Rows{}
		require.NoError(t, drv.Query(context.Background(), "SELECT COUNT(*) FROM student_course t", []any{}, rows))
		var n NullInt64
		found, err := ScanValue(rows, &n)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(3), n.Int64)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}))

		rows := &Rows{}
		require.NoError(t, drv.Query(context.Background(), "SELECT 1 FROM student_course t", []any{}, rows))
		var n NullInt64
		found, err := ScanValue(rows, &n)
		require.NoError(t, err)
		assert.False(t, found)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
