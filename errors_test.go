package sqlkit

import (
	"database/sql"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

func TestEngineError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
		msg  string
		dup  bool
	}{
		{"mysql", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a' for key 'name'"}, "1062", "Duplicate entry 'a' for key 'name'", true},
		{"mysql other", &mysql.MySQLError{Number: 1146, Message: "Table 'x' doesn't exist"}, "1146", "Table 'x' doesn't exist", false},
		{"pq", &pq.Error{Code: "23505", Message: "duplicate key value"}, "23505", "duplicate key value", true},
		{"pgx", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, "42P01", "relation does not exist", false},
		{"wrapped pgx", errors.Wrap(&pgconn.PgError{Code: "23505", Message: "dup"}, "exec"), "23505", "dup", true},
		{"plain", errors.New("broken pipe"), "", "broken pipe", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := engineError("Query", "SELECT 1", c.err)
			assert.ErrorIs(t, err, dberr.ErrEngineFailure)
			assert.Equal(t, c.dup, IsDuplicateKey(err))

			var e *dberr.EngineError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, c.code, e.Code)
			assert.Equal(t, c.msg, e.Message)
			assert.Equal(t, "SELECT 1", e.Query)
			assert.Equal(t, c.err, errors.Unwrap(err))
		})
	}
}

func TestEngineErrorPassThrough(t *testing.T) {
	assert.NoError(t, engineError("Query", "", nil))
	assert.Equal(t, sql.ErrNoRows, engineError("Query", "", sql.ErrNoRows))

	first := engineError("Query", "q", errors.New("x"))
	assert.Same(t, first, engineError("Execute", "other", first))
}
