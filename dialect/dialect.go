// Package dialect provides the MySQL, PostgreSQL and SQLite rules used by the
// builder compilers and the client.
package dialect

import (
	"strings"

	"github.com/duke-git/lancet/v2/slice"

	"github.com/preceeder/go.db.sqlkit/builder"
	"github.com/preceeder/go.db.sqlkit/dberr"
)

var (
	mysqlDrivers    = []string{"mysql", "nrmysql"}
	postgresDrivers = []string{"postgres", "postgresql", "pgx", "pq"}
	sqliteDrivers   = []string{"sqlite3", "sqlite"}
)

// ForDriver returns the dialect of a database/sql driver name.
func ForDriver(driver string) (builder.Dialect, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	switch {
	case slice.Contain(mysqlDrivers, name):
		return MySQL{}, nil
	case slice.Contain(postgresDrivers, name):
		return Postgres{}, nil
	case slice.Contain(sqliteDrivers, name):
		return SQLite{}, nil
	}
	return nil, dberr.NewUnsupportedFeatureError(driver, "dialect")
}

// Names lists the accepted driver names.
func Names() []string {
	return slice.Concat(mysqlDrivers, postgresDrivers, sqliteDrivers)
}
