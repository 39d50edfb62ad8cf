package sqlkit

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/preceeder/go.db.sqlkit/builder"
	"github.com/preceeder/go.db.sqlkit/dberr"
	"github.com/preceeder/go.db.sqlkit/placeholder"
)

// Statement is a prepared statement whose :name and ? markers were replaced by
// the driver's positional markers. Values are bound per slot; a name used
// several times fills all of its slots. Unbound slots are sent as NULL.
//
// The marker map is fixed at Prepare, so the statement can be rebound and
// executed any number of times. A Statement is not safe for concurrent use.
type Statement struct {
	client *Client
	parsed placeholder.Parsed
	stmt   *sqlx.Stmt
	values []any
	types  []builder.BindType
	rows   *sqlx.Rows
}

// Prepare parses query and prepares it on the server.
func (c *Client) Prepare(ctx context.Context, query string, tx ...*sqlx.Tx) (*Statement, error) {
	p := c.parse(query, c.dialect.BindStyle())
	stmt, err := c.ext(tx).PreparexContext(ctx, p.Text)
	if err != nil {
		c.logger.ErrorContext(ctx, "sqlkit Prepare failed", "error", err, "sql", p.Text)
		return nil, engineError("Prepare", p.Text, err)
	}
	return &Statement{
		client: c,
		parsed: p,
		stmt:   stmt,
		values: make([]any, p.Slots),
		types:  make([]builder.BindType, p.Slots),
	}, nil
}

// Text is the statement as sent to the server.
func (s *Statement) Text() string {
	return s.parsed.Text
}

// Named maps each marker name to its slots. The map must not be modified.
func (s *Statement) Named() map[string][]int {
	return s.parsed.Named
}

// BindAll clears every binding and binds values by marker name.
func (s *Statement) BindAll(values map[string]any) error {
	s.Free()
	s.reset()
	for name, v := range values {
		if err := s.bindName(name, v); err != nil {
			return err
		}
	}
	return nil
}

// BindOne binds v to every slot of the marker name.
func (s *Statement) BindOne(name string, v any) error {
	s.Free()
	return s.bindName(name, v)
}

// BindAt binds v to the i-th ? marker.
func (s *Statement) BindAt(i int, v any) error {
	s.Free()
	if i < 0 || i >= len(s.parsed.Positional) {
		return dberr.Spec(dberr.ErrPositionMismatch, "position %d out of range, statement has %d positional markers", i, len(s.parsed.Positional))
	}
	s.set(s.parsed.Positional[i], v)
	return nil
}

// BindArgs clears every binding and binds args to the ? markers in order.
// The number of args must match the number of ? markers.
func (s *Statement) BindArgs(args ...any) error {
	s.Free()
	if len(args) != len(s.parsed.Positional) {
		return dberr.Spec(dberr.ErrPositionMismatch, "statement has %d positional markers, got %d values", len(s.parsed.Positional), len(args))
	}
	s.reset()
	for i, v := range args {
		s.set(s.parsed.Positional[i], v)
	}
	return nil
}

// BindTypes returns the bind type of every slot.
func (s *Statement) BindTypes() []builder.BindType {
	return append([]builder.BindType(nil), s.types...)
}

// BindTypeNames returns the dialect's name of every slot's bind type ("i", "d", "s" on MySQL).
func (s *Statement) BindTypeNames() []string {
	names := make([]string, len(s.types))
	for i, t := range s.types {
		names[i] = s.client.dialect.BindTypeName(t)
	}
	return names
}

func (s *Statement) bindName(name string, v any) error {
	slots, ok := s.parsed.Named[strings.TrimPrefix(name, ":")]
	if !ok {
		return dberr.Spec(dberr.ErrUnknownParameter, "undefined parameter :%s", strings.TrimPrefix(name, ":"))
	}
	for _, slot := range slots {
		s.set(slot, v)
	}
	return nil
}

func (s *Statement) set(slot int, v any) {
	s.types[slot], s.values[slot] = builder.BindValue(v)
}

func (s *Statement) reset() {
	for i := range s.values {
		s.values[i] = nil
		s.types[i] = builder.BindText
	}
}

// Materialized reports whether a result from Execute is still open.
func (s *Statement) Materialized() bool {
	return s.rows != nil
}

// Execute runs the statement and keeps its rows for Fetch / FetchAll.
func (s *Statement) Execute(ctx context.Context) error {
	s.Free()
	rows, err := s.stmt.QueryxContext(ctx, s.values...)
	if err != nil {
		s.client.logger.ErrorContext(ctx, "sqlkit statement failed", "error", err, "sql", s.parsed.Text, "data", s.values)
		return engineError("Execute", s.parsed.Text, err)
	}
	s.rows = rows
	return nil
}

// Exec runs a statement that returns no rows.
func (s *Statement) Exec(ctx context.Context) (sql.Result, error) {
	s.Free()
	rs, err := s.stmt.ExecContext(ctx, s.values...)
	if err != nil {
		s.client.logger.ErrorContext(ctx, "sqlkit statement failed", "error", err, "sql", s.parsed.Text, "data", s.values)
		return nil, engineError("Execute", s.parsed.Text, err)
	}
	return rs, nil
}

// Fetch returns the next row, executing first when there is no open result.
// At the end of the result it frees it and returns nil.
func (s *Statement) Fetch(ctx context.Context) (map[string]any, error) {
	if s.rows == nil {
		if err := s.Execute(ctx); err != nil {
			return nil, err
		}
	}
	rows, err := scanMaps(s.rows, 1)
	if err != nil {
		s.Free()
		return nil, engineError("Fetch", s.parsed.Text, err)
	}
	if len(rows) == 0 {
		s.Free()
		return nil, nil
	}
	return rows[0], nil
}

// FetchAll returns the remaining rows and frees the result.
func (s *Statement) FetchAll(ctx context.Context) ([]map[string]any, error) {
	if s.rows == nil {
		if err := s.Execute(ctx); err != nil {
			return nil, err
		}
	}
	defer s.Free()
	rows, err := scanMaps(s.rows, 0)
	if err != nil {
		return nil, engineError("Fetch", s.parsed.Text, err)
	}
	return rows, nil
}

// FirstRow executes the statement and returns its first row, or nil.
func (s *Statement) FirstRow(ctx context.Context) (map[string]any, error) {
	if err := s.Execute(ctx); err != nil {
		return nil, err
	}
	defer s.Free()
	return s.Fetch(ctx)
}

// FirstScalar executes the statement and returns the first column of its first row, or nil.
func (s *Statement) FirstScalar(ctx context.Context) (any, error) {
	if err := s.Execute(ctx); err != nil {
		return nil, err
	}
	defer s.Free()
	v, err := scanScalar(s.rows)
	if err != nil {
		return nil, engineError("Fetch", s.parsed.Text, err)
	}
	return v, nil
}

// Get scans the first row into dest. found is false when there is no row.
func (s *Statement) Get(ctx context.Context, dest any) (bool, error) {
	s.Free()
	err := s.stmt.GetContext(ctx, dest, s.values...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		s.client.logger.ErrorContext(ctx, "sqlkit statement failed", "error", err, "sql", s.parsed.Text, "data", s.values)
		return false, engineError("Query", s.parsed.Text, err)
	}
	return true, nil
}

// Select scans every row into dest, a pointer to a slice.
func (s *Statement) Select(ctx context.Context, dest any) error {
	s.Free()
	if err := s.stmt.SelectContext(ctx, dest, s.values...); err != nil {
		s.client.logger.ErrorContext(ctx, "sqlkit statement failed", "error", err, "sql", s.parsed.Text, "data", s.values)
		return engineError("Query", s.parsed.Text, err)
	}
	return nil
}

// Free releases the open result, if any.
func (s *Statement) Free() {
	if s.rows != nil {
		_ = s.rows.Close()
		s.rows = nil
	}
}

// Close frees the result and the server-side statement.
func (s *Statement) Close() error {
	s.Free()
	return engineError("Close", s.parsed.Text, s.stmt.Close())
}
