// Package sqlkit executes SQL built by the builder package, or written by hand
// with :name and ? markers, against MySQL, PostgreSQL and SQLite through sqlx.
//
// A Client is the explicit connection context: it owns the pool, the dialect
// and the table-prefix rules. Every helper accepts an optional *sqlx.Tx; when
// given, the statement runs inside that transaction.
package sqlkit

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"unicode"

	"github.com/duke-git/lancet/v2/slice"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/preceeder/go.db.sqlkit/builder"
	"github.com/preceeder/go.db.sqlkit/dialect"
	"github.com/preceeder/go.db.sqlkit/placeholder"
)

type Client struct {
	Config   Config
	Db       *sqlx.DB
	dialect  builder.Dialect
	compiler *builder.Compiler
	prefix   tablePrefix
	logger   *slog.Logger
}

// execer is satisfied by both *sqlx.DB and *sqlx.Tx.
type execer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	PreparexContext(ctx context.Context, query string) (*sqlx.Stmt, error)
}

// NewClient opens and pings the database described by config.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("链接数据库", "driver", config.DriverName(), "host", config.Host, "db", config.Database)
	// 内部已经 ping 了
	db, err := sqlx.ConnectContext(ctx, config.DriverName(), config.DataSource())
	if err != nil {
		logger.Error("链接数据库失败", "error", err)
		return nil, engineError("Connect", "", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	c, err := NewClientWithDB(db, config)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// NewClientWithDB wraps an already open pool. The dialect follows db.DriverName().
func NewClientWithDB(db *sqlx.DB, config Config) (*Client, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	d, err := dialect.ForDriver(db.DriverName())
	if err != nil {
		return nil, err
	}
	c := &Client{
		Config: config,
		Db:     db,
		prefix: tablePrefix{prefix: config.TablePrefix, enclosure: config.enclosure()},
		logger: config.Logger,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if config.EscapePrefix {
		d = prefixDialect{Dialect: d, prefix: c.prefix}
	}
	c.dialect = d
	c.compiler = builder.New(d)
	return c, nil
}

func (c *Client) Close() error {
	err := c.Db.Close()
	if err != nil {
		c.logger.Error("关闭数据库错误", "error", err)
		return engineError("Close", "", err)
	}
	c.logger.Info("close sqlkit", "driver", c.Config.DriverName(), "db", c.Config.Database)
	return nil
}

// Dialect is the dialect used to render literals, including table-prefix escaping.
func (c *Client) Dialect() builder.Dialect {
	return c.dialect
}

// Compiler renders statements for this client's dialect.
func (c *Client) Compiler() *builder.Compiler {
	return c.compiler
}

// Escape escapes s for a string literal. Table-name placeholders inside s are
// protected when EscapePrefix is on.
func (c *Client) Escape(s string) (string, error) {
	return c.dialect.Escape(s)
}

// ResolveTableName substitutes the table prefix in a name or template.
// Escaped placeholders keep their @.
func (c *Client) ResolveTableName(table string) string {
	return c.prefix.apply(table, false)
}

// PrepareQuery is the text actually sent for query: the table prefix applied
// and, with EscapePrefix on, escaped placeholders restored.
func (c *Client) PrepareQuery(query string) string {
	return c.prefix.apply(query, c.Config.EscapePrefix)
}

func (c *Client) ext(tx []*sqlx.Tx) execer {
	if len(tx) > 0 && tx[0] != nil {
		return tx[0]
	}
	return c.Db
}

// bind resolves the table prefix, replaces :name and ? markers and expands list values.
func (c *Client) bind(query string, params map[string]any, args []any) (string, []any, error) {
	p := c.parse(query, sqlx.QUESTION)
	values, err := p.Args(params, args)
	if err != nil {
		return "", nil, err
	}
	return p.Expand(values, c.dialect.BindStyle())
}

// parse resolves the table prefix and scans query with the dialect's literal rules.
func (c *Client) parse(query string, bindType int) placeholder.Parsed {
	escapes := c.dialect.Capabilities().BackslashEscapes
	return placeholder.Parse(c.PrepareQuery(query), bindType, placeholder.BackslashEscapes(escapes))
}

// forcePrepare reports whether q starts with one of the force-prepare commands.
func (c *Client) forcePrepare(q string) bool {
	if !c.Config.ForcePrepare {
		return false
	}
	word := strings.TrimLeftFunc(q, func(r rune) bool { return !isWordRune(r) })
	if i := strings.IndexFunc(word, func(r rune) bool { return !isWordRune(r) }); i >= 0 {
		word = word[:i]
	}
	return slice.Contain(c.Config.prepareCommands(), strings.ToLower(word))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (c *Client) get(ctx context.Context, ext execer, dest any, q string, args []any) error {
	if !c.forcePrepare(q) {
		return ext.GetContext(ctx, dest, q, args...)
	}
	stmt, err := ext.PreparexContext(ctx, q)
	if err != nil {
		return err
	}
	defer stmt.Close()
	return stmt.GetContext(ctx, dest, args...)
}

func (c *Client) selectAll(ctx context.Context, ext execer, dest any, q string, args []any) error {
	if !c.forcePrepare(q) {
		return ext.SelectContext(ctx, dest, q, args...)
	}
	stmt, err := ext.PreparexContext(ctx, q)
	if err != nil {
		return err
	}
	defer stmt.Close()
	return stmt.SelectContext(ctx, dest, args...)
}

// queryx runs q and returns its rows; release closes the rows and any statement prepared for them.
func (c *Client) queryx(ctx context.Context, ext execer, q string, args []any) (rows *sqlx.Rows, release func(), err error) {
	if !c.forcePrepare(q) {
		rows, err = ext.QueryxContext(ctx, q, args...)
		if err != nil {
			return nil, nil, err
		}
		return rows, func() { _ = rows.Close() }, nil
	}
	stmt, err := ext.PreparexContext(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	rows, err = stmt.QueryxContext(ctx, args...)
	if err != nil {
		_ = stmt.Close()
		return nil, nil, err
	}
	return rows, func() {
		_ = rows.Close()
		_ = stmt.Close()
	}, nil
}

// Get scans the first row of query into dest. found is false when there is no row.
// query="select * from t_user where userId=:id" params: map[string]any{"id": "2222222"}
func (c *Client) Get(ctx context.Context, dest any, query string, params map[string]any, tx ...*sqlx.Tx) (found bool, err error) {
	q, args, err := c.bind(query, params, nil)
	if err != nil {
		return false, err
	}
	err = c.get(ctx, c.ext(tx), dest, q, args)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		c.logger.ErrorContext(ctx, "sqlkit Get failed", "error", err, "sql", q, "data", params)
		return false, engineError("Query", q, err)
	}
	return true, nil
}

// GetByArgs is Get with ? markers and positional args.
// query="select * from t_user where userId=?" args: []any{"2222222"}
func (c *Client) GetByArgs(ctx context.Context, dest any, query string, args []any, tx ...*sqlx.Tx) (bool, error) {
	q, values, err := c.bind(query, nil, args)
	if err != nil {
		return false, err
	}
	err = c.get(ctx, c.ext(tx), dest, q, values)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		c.logger.ErrorContext(ctx, "sqlkit Get failed", "error", err, "sql", q, "data", args)
		return false, engineError("Query", q, err)
	}
	return true, nil
}

// Select scans every row of query into dest, a pointer to a slice.
func (c *Client) Select(ctx context.Context, dest any, query string, params map[string]any, tx ...*sqlx.Tx) error {
	q, args, err := c.bind(query, params, nil)
	if err != nil {
		return err
	}
	if err = c.selectAll(ctx, c.ext(tx), dest, q, args); err != nil {
		c.logger.ErrorContext(ctx, "sqlkit Select failed", "error", err, "sql", q, "data", params)
		return engineError("Query", q, err)
	}
	return nil
}

// SelectByArgs is Select with ? markers and positional args.
func (c *Client) SelectByArgs(ctx context.Context, dest any, query string, args []any, tx ...*sqlx.Tx) error {
	q, values, err := c.bind(query, nil, args)
	if err != nil {
		return err
	}
	if err = c.selectAll(ctx, c.ext(tx), dest, q, values); err != nil {
		c.logger.ErrorContext(ctx, "sqlkit Select failed", "error", err, "sql", q, "data", args)
		return engineError("Query", q, err)
	}
	return nil
}

// QueryRow returns the first row of query as a column->value map, or nil when there is none.
func (c *Client) QueryRow(ctx context.Context, query string, params map[string]any, tx ...*sqlx.Tx) (map[string]any, error) {
	rows, err := c.QueryRows(ctx, query, params, tx...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// QueryRows returns every row of query as column->value maps. []byte values become strings.
func (c *Client) QueryRows(ctx context.Context, query string, params map[string]any, tx ...*sqlx.Tx) ([]map[string]any, error) {
	q, args, err := c.bind(query, params, nil)
	if err != nil {
		return nil, err
	}
	rows, release, err := c.queryx(ctx, c.ext(tx), q, args)
	if err == nil {
		defer release()
		var out []map[string]any
		if out, err = scanMaps(rows, 0); err == nil {
			return out, nil
		}
	}
	c.logger.ErrorContext(ctx, "sqlkit Query failed", "error", err, "sql", q, "data", params)
	return nil, engineError("Query", q, err)
}

// QueryScalar returns the first column of the first row, or nil when there is no row.
func (c *Client) QueryScalar(ctx context.Context, query string, params map[string]any, tx ...*sqlx.Tx) (any, error) {
	q, args, err := c.bind(query, params, nil)
	if err != nil {
		return nil, err
	}
	rows, release, err := c.queryx(ctx, c.ext(tx), q, args)
	if err == nil {
		defer release()
		var value any
		if value, err = scanScalar(rows); err == nil {
			return value, nil
		}
	}
	c.logger.ErrorContext(ctx, "sqlkit QueryScalar failed", "error", err, "sql", q, "data", params)
	return nil, engineError("Query", q, err)
}

// Execute runs a statement that returns no rows.
func (c *Client) Execute(ctx context.Context, query string, params map[string]any, tx ...*sqlx.Tx) (sql.Result, error) {
	q, args, err := c.bind(query, params, nil)
	if err != nil {
		return nil, err
	}
	rs, err := c.ext(tx).ExecContext(ctx, q, args...)
	if err != nil {
		c.logger.ErrorContext(ctx, "sqlkit Execute failed", "error", err, "sql", q, "data", params)
		return nil, engineError("Execute", q, err)
	}
	return rs, nil
}

// ExecRaw sends query unchanged: no table prefix, no marker rewriting.
func (c *Client) ExecRaw(ctx context.Context, query string, tx ...*sqlx.Tx) (sql.Result, error) {
	rs, err := c.ext(tx).ExecContext(ctx, query)
	if err != nil {
		c.logger.ErrorContext(ctx, "sqlkit Execute failed", "error", err, "sql", query)
		return nil, engineError("Execute", query, err)
	}
	return rs, nil
}

// Begin starts a transaction.
func (c *Client) Begin(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := c.Db.BeginTxx(ctx, nil)
	if err != nil {
		c.logger.ErrorContext(ctx, "begin trans failed", "error", err)
		return nil, engineError("Begin", "", err)
	}
	return tx, nil
}

func (c *Client) Commit(tx *sqlx.Tx) error {
	return engineError("Commit", "", tx.Commit())
}

func (c *Client) Rollback(tx *sqlx.Tx) error {
	return engineError("Rollback", "", tx.Rollback())
}

// Transaction runs fn inside a transaction. It commits when fn returns nil and
// rolls back when fn returns an error or panics; a panic is re-raised after the rollback.
func (c *Client) Transaction(ctx context.Context, fn func(ctx context.Context, c *Client, tx *sqlx.Tx) error) (err error) {
	tx, err := c.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.ErrorContext(ctx, "事务回滚失败", "error", rbErr)
			}
			c.logger.ErrorContext(ctx, "事务回滚", "panic", p)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.ErrorContext(ctx, "事务回滚失败", "error", rbErr)
			}
			c.logger.ErrorContext(ctx, "事务回滚", "error", err)
			return
		}
		if err = tx.Commit(); err != nil {
			c.logger.ErrorContext(ctx, "提交失败", "error", err)
			err = engineError("Commit", "", err)
		}
	}()
	err = fn(ctx, c, tx)
	return
}

func scanMaps(rows *sqlx.Rows, limit int) ([]map[string]any, error) {
	out := make([]map[string]any, 0)
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			row[k] = normalize(v)
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, rows.Err()
}

func scanScalar(rows *sqlx.Rows) (any, error) {
	if !rows.Next() {
		return nil, rows.Err()
	}
	values, err := rows.SliceScan()
	if err != nil || len(values) == 0 {
		return nil, err
	}
	return normalize(values[0]), nil
}

// normalize turns the []byte the MySQL driver returns for text columns into strings.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
