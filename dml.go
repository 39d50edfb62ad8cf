package sqlkit

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/preceeder/go.db.sqlkit/builder"
)

// Insert builds and runs INSERT for records: one field->value map or a list of them.
// flags accepts builder.FlagIgnore.
//
//	c.Insert(ctx, "#pre#user", builder.Map{{"name", "nick"}, {"id", 1}}, builder.FlagNone)
func (c *Client) Insert(ctx context.Context, table any, records any, flags builder.Flag, tx ...*sqlx.Tx) (sql.Result, error) {
	q, err := c.compiler.BuildInsert(table, records, flags)
	if err != nil {
		c.logger.ErrorContext(ctx, "sqlkit build insert failed", "error", err, "table", table)
		return nil, err
	}
	args, err := builder.CollectArgs(records)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, q, args, tx...)
}

// InsertOrUpdate builds and runs an upsert. An empty update degrades to an ignoring insert.
func (c *Client) InsertOrUpdate(ctx context.Context, table any, insert any, update any, tx ...*sqlx.Tx) (sql.Result, error) {
	q, err := c.compiler.BuildInsertOrUpdate(table, insert, update, builder.FlagNone)
	if err != nil {
		c.logger.ErrorContext(ctx, "sqlkit build upsert failed", "error", err, "table", table)
		return nil, err
	}
	args, err := builder.CollectArgs(insert, update)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, q, args, tx...)
}

// Update builds and runs UPDATE and returns the number of affected rows.
//
//	c.Update(ctx, "t_user", builder.Map{{"nick", "nihao"}}, builder.Map{{"userId", "1111"}})
func (c *Client) Update(ctx context.Context, table any, data any, where any, tx ...*sqlx.Tx) (int64, error) {
	return c.UpdateWithFlags(ctx, table, data, where, builder.FlagNone, tx...)
}

// UpdateWithFlags is Update with IGNORE / SINGLE-ROW flags.
func (c *Client) UpdateWithFlags(ctx context.Context, table any, data any, where any, flags builder.Flag, tx ...*sqlx.Tx) (int64, error) {
	q, err := c.compiler.BuildUpdate(table, data, where, flags)
	if err != nil {
		c.logger.ErrorContext(ctx, "sqlkit build update failed", "error", err, "table", table)
		return -1, err
	}
	args, err := builder.CollectArgs(data, where)
	if err != nil {
		return -1, err
	}
	return c.affected(ctx, q, args, tx)
}

// Delete builds and runs DELETE and returns the number of affected rows.
func (c *Client) Delete(ctx context.Context, table any, where any, flags builder.Flag, tx ...*sqlx.Tx) (int64, error) {
	q, err := c.compiler.BuildDelete(table, where, flags)
	if err != nil {
		c.logger.ErrorContext(ctx, "sqlkit build delete failed", "error", err, "table", table)
		return -1, err
	}
	args, err := builder.CollectArgs(where)
	if err != nil {
		return -1, err
	}
	return c.affected(ctx, q, args, tx)
}

func (c *Client) affected(ctx context.Context, q string, params map[string]any, tx []*sqlx.Tx) (int64, error) {
	rs, err := c.Execute(ctx, q, params, tx...)
	if err != nil {
		return -1, err
	}
	n, err := rs.RowsAffected()
	if err != nil {
		return -1, engineError("RowsAffected", q, err)
	}
	return n, nil
}

// QueryByBuilder runs the SELECT of b and scans the first row into dest.
func (c *Client) QueryByBuilder(ctx context.Context, b *builder.SqlBuilder, dest any, tx ...*sqlx.Tx) (bool, error) {
	q, params, err := b.Query(c.compiler)
	if err != nil {
		c.logger.ErrorContext(ctx, "sqlkit build query failed", "error", err)
		return false, err
	}
	return c.Get(ctx, dest, q, params, tx...)
}

// FetchByBuilder runs the SELECT of b and scans every row into dest.
func (c *Client) FetchByBuilder(ctx context.Context, b *builder.SqlBuilder, dest any, tx ...*sqlx.Tx) error {
	q, params, err := b.Query(c.compiler)
	if err != nil {
		c.logger.ErrorContext(ctx, "sqlkit build query failed", "error", err)
		return err
	}
	return c.Select(ctx, dest, q, params, tx...)
}

// ExecByBuilder runs a statement produced by the SqlBuilder Insert/Update/Delete methods.
func (c *Client) ExecByBuilder(ctx context.Context, q string, params map[string]any, tx ...*sqlx.Tx) (sql.Result, error) {
	return c.Execute(ctx, q, params, tx...)
}
