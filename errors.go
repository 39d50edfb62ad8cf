package sqlkit

import (
	"database/sql"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

// engineError wraps a driver failure into a *dberr.EngineError, keeping the
// driver's code and message. sql.ErrNoRows and errors that already carry a
// kind pass through.
func engineError(op, query string, err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) || errors.Is(err, dberr.ErrEngineFailure) {
		return err
	}
	code, msg := driverCode(err)
	return dberr.NewEngineError(op, query, code, msg, err)
}

// driverCode extracts the engine's error code and message.
func driverCode(err error) (string, string) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// 1062 唯一键冲突
		return strconv.Itoa(int(myErr.Number)), myErr.Message
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Message
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.Message
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return strconv.Itoa(int(liteErr.ExtendedCode)), liteErr.Error()
	}
	return "", err.Error()
}

// IsDuplicateKey reports whether err is a unique-constraint violation on any supported engine.
func IsDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
