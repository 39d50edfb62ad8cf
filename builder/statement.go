package builder

import (
	"strings"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

// Flag alters how a statement is assembled.
type Flag uint

const (
	FlagNone      Flag = 0x00
	FlagDistinct  Flag = 0x01
	FlagIgnore    Flag = 0x100
	FlagSingleRow Flag = 0x400
)

func (f Flag) Has(o Flag) bool {
	return f&o != 0
}

// Select describes a SELECT statement. Every field takes the loose spec shapes
// accepted by the matching compiler; nil fields are omitted.
type Select struct {
	Columns any
	From    any
	Where   any
	Order   any
	Limit   any
	GroupBy any
	Having  any
	Flags   Flag
	// Command replaces the SELECT keyword when set.
	Command string
}

// Compiler renders specs into SQL text for one dialect. It holds no state
// besides the dialect and is safe to share.
type Compiler struct {
	d Dialect
}

func New(d Dialect) *Compiler {
	return &Compiler{d: d}
}

func (c *Compiler) Dialect() Dialect {
	return c.d
}

// Literal renders a single value as an SQL literal.
func (c *Compiler) Literal(v any) (string, error) {
	return renderOperand(c.d, v)
}

// Where compiles a condition spec for WHERE, HAVING or ON. Empty and boolean specs yield "".
func (c *Compiler) Where(spec any) (string, error) {
	node, err := NormalizeCond(spec)
	if err != nil {
		return "", err
	}
	return renderCond(c.d, node)
}

// Order compiles an ORDER BY or GROUP BY spec.
func (c *Compiler) Order(spec any) (string, error) {
	return renderOrder(c.d, spec)
}

// From compiles a table with its joins.
func (c *Compiler) From(spec any) (string, error) {
	return renderFrom(c.d, spec)
}

// Join compiles one join item.
func (c *Compiler) Join(item any) (string, error) {
	return renderJoin(c.d, item)
}

// Columns compiles a select list.
func (c *Compiler) Columns(spec any) (string, error) {
	return renderColumns(c.d, spec)
}

// Limit compiles a limit spec into the body of the dialect's LIMIT clause, or "".
func (c *Compiler) Limit(spec any) (string, error) {
	r, err := parseLimit(spec)
	if err != nil || r == nil {
		return "", err
	}
	return c.d.Limit(r.offset, r.count), nil
}

func (c *Compiler) BuildSelect(s Select) (string, error) {
	command := "SELECT"
	if s.Command != "" {
		command = s.Command
	}
	if s.Flags.Has(FlagDistinct) {
		command += " DISTINCT"
	}
	columns, err := c.Columns(s.Columns)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(command)
	b.WriteString(" ")
	b.WriteString(columns)

	if s.From != nil {
		from, err := c.From(s.From)
		if err != nil {
			return "", err
		}
		writeClause(&b, "FROM", from)
	}
	where, err := c.Where(s.Where)
	if err != nil {
		return "", err
	}
	writeClause(&b, "WHERE", where)
	group, err := c.Order(s.GroupBy)
	if err != nil {
		return "", err
	}
	writeClause(&b, "GROUP BY", group)
	having, err := c.Where(s.Having)
	if err != nil {
		return "", err
	}
	writeClause(&b, "HAVING", having)
	order, err := c.Order(s.Order)
	if err != nil {
		return "", err
	}
	writeClause(&b, "ORDER BY", order)

	r, err := parseLimit(s.Limit)
	if err != nil {
		return "", err
	}
	if s.Flags.Has(FlagSingleRow) {
		offset := "0"
		if r != nil {
			offset = r.offset
		}
		r = &limitRange{offset: offset, count: "1"}
	}
	if r != nil {
		writeClause(&b, "LIMIT", c.d.Limit(r.offset, r.count))
	}
	return b.String(), nil
}

func writeClause(b *strings.Builder, keyword, body string) {
	if body == "" {
		return
	}
	b.WriteString("\n")
	b.WriteString(keyword)
	b.WriteString(" ")
	b.WriteString(body)
}

// BuildInsert builds INSERT INTO. records is a single field->value mapping, or a
// sequence of mappings inserted as one multi-row VALUES list in input order.
// Rows share the field set of the first row.
func (c *Compiler) BuildInsert(table any, records any, flags Flag) (string, error) {
	body, err := c.insertBody(table, records)
	if err != nil {
		return "", err
	}
	command := "INSERT"
	suffix := ""
	if flags.Has(FlagIgnore) {
		caps := c.d.Capabilities()
		if caps.InsertIgnore == "" && caps.IgnoreSuffix == "" {
			return "", dberr.NewUnsupportedFeatureError(c.d.Name(), "INSERT IGNORE")
		}
		if caps.InsertIgnore != "" {
			command += " " + caps.InsertIgnore
		}
		if caps.IgnoreSuffix != "" {
			suffix = " " + caps.IgnoreSuffix
		}
	}
	return command + " " + body + suffix, nil
}

// BuildInsertOrUpdate builds an insert that updates the update fields when the
// row already exists. An empty update degrades to an ignoring insert.
func (c *Compiler) BuildInsertOrUpdate(table any, insert any, update any, flags Flag) (string, error) {
	if isEmpty(update) {
		return c.BuildInsert(table, insert, flags|FlagIgnore)
	}
	caps := c.d.Capabilities()
	if caps.Upsert == "" {
		return "", dberr.NewUnsupportedFeatureError(c.d.Name(), "INSERT ... ON DUPLICATE KEY UPDATE",
			"use BuildInsert with an explicit ON CONFLICT (...) DO UPDATE clause")
	}
	base, err := c.BuildInsert(table, insert, flags)
	if err != nil {
		return "", err
	}
	assignments, err := c.assignmentList(update)
	if err != nil {
		return "", err
	}
	return base + " " + caps.Upsert + " " + assignments, nil
}

// BuildUpdate builds UPDATE ... SET. data must hold at least one field.
func (c *Compiler) BuildUpdate(table any, data any, where any, flags Flag) (string, error) {
	name, err := renderNameItem(c.d, table)
	if err != nil {
		return "", err
	}
	assignments, err := c.assignmentList(data)
	if err != nil {
		return "", err
	}
	cond, err := c.Where(where)
	if err != nil {
		return "", err
	}
	command := "UPDATE"
	caps := c.d.Capabilities()
	if flags.Has(FlagIgnore) {
		if caps.UpdateIgnore == "" {
			return "", dberr.NewUnsupportedFeatureError(c.d.Name(), "UPDATE IGNORE")
		}
		command += " " + caps.UpdateIgnore
	}
	q := command + " " + name + " SET " + assignments
	if cond != "" {
		q += " WHERE " + cond
	}
	if flags.Has(FlagSingleRow) {
		if !caps.RowLimit {
			return "", dberr.NewUnsupportedFeatureError(c.d.Name(), "single-row UPDATE")
		}
		q += " LIMIT 1"
	}
	return q, nil
}

// BuildDelete builds DELETE FROM with an optional condition.
func (c *Compiler) BuildDelete(table any, where any, flags Flag) (string, error) {
	name, err := renderNameItem(c.d, table)
	if err != nil {
		return "", err
	}
	cond, err := c.Where(where)
	if err != nil {
		return "", err
	}
	command := "DELETE"
	caps := c.d.Capabilities()
	if flags.Has(FlagIgnore) {
		if caps.DeleteIgnore == "" {
			return "", dberr.NewUnsupportedFeatureError(c.d.Name(), "DELETE IGNORE")
		}
		command += " " + caps.DeleteIgnore
	}
	q := command + " FROM " + name
	if cond != "" {
		q += " WHERE " + cond
	}
	if flags.Has(FlagSingleRow) {
		if !caps.RowLimit {
			return "", dberr.NewUnsupportedFeatureError(c.d.Name(), "single-row DELETE")
		}
		q += " LIMIT 1"
	}
	return q, nil
}

func (c *Compiler) insertBody(table any, records any) (string, error) {
	name, err := renderNameItem(c.d, table)
	if err != nil {
		return "", err
	}
	rows, err := recordRows(records)
	if err != nil {
		return "", err
	}
	fields := rows[0].Keys()
	if len(fields) == 0 {
		return "", dberr.Spec(dberr.ErrInvalidSpec, "insert record has no fields")
	}
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = QuoteNameOrExpression(c.d, f)
	}
	tuples := make([]string, 0, len(rows))
	for _, row := range rows {
		values := make([]string, 0, len(fields))
		for _, f := range fields {
			v, _ := row.Get(f)
			s, err := renderOperand(c.d, v)
			if err != nil {
				return "", err
			}
			values = append(values, s)
		}
		tuples = append(tuples, "("+strings.Join(values, ",")+")")
	}
	return "INTO " + name + " (" + strings.Join(columns, ", ") + ") VALUES " + strings.Join(tuples, "\n,"), nil
}

// recordRows splits an insert payload into rows.
func recordRows(records any) ([]Map, error) {
	if m, ok := asMap(records); ok {
		if len(m) == 0 {
			return nil, dberr.Spec(dberr.ErrInvalidSpec, "empty insert record")
		}
		for _, e := range m {
			if e.Key == "" {
				return nil, dberr.Spec(dberr.ErrInvalidSpec, "insert record entries must be keyed")
			}
		}
		return []Map{m}, nil
	}
	items, ok := sequence(records)
	if !ok {
		return nil, dberr.Spec(dberr.ErrInvalidSpec, "unsupported insert records %T", records)
	}
	if len(items) == 0 {
		return nil, dberr.Spec(dberr.ErrInvalidSpec, "no records to insert")
	}
	rows := make([]Map, 0, len(items))
	for i, item := range items {
		m, ok := asMap(item)
		if !ok {
			return nil, dberr.Spec(dberr.ErrInvalidSpec, "record %d is %T, not a mapping", i, item)
		}
		rows = append(rows, m)
	}
	return rows, nil
}

func (c *Compiler) assignmentList(data any) (string, error) {
	m, ok := asMap(data)
	if !ok {
		return "", dberr.Spec(dberr.ErrInvalidSpec, "assignment list must be a mapping, got %T", data)
	}
	parts := make([]string, 0, len(m))
	for _, e := range m {
		if e.Key == "" {
			return "", dberr.Spec(dberr.ErrInvalidSpec, "assignment entries must be keyed")
		}
		v, err := renderOperand(c.d, e.Value)
		if err != nil {
			return "", err
		}
		parts = append(parts, QuoteNameOrExpression(c.d, e.Key)+" = "+v)
	}
	if len(parts) == 0 {
		return "", dberr.Spec(dberr.ErrInvalidSpec, "nothing to update")
	}
	return strings.Join(parts, ", "), nil
}

func (c *Compiler) CreateSelect(columns, from, where, order, limit any) (string, error) {
	return c.BuildSelect(Select{Columns: columns, From: from, Where: where, Order: order, Limit: limit})
}

func (c *Compiler) CreateSelectDistinct(columns, from, where, order, limit any) (string, error) {
	return c.BuildSelect(Select{Columns: columns, From: from, Where: where, Order: order, Limit: limit, Flags: FlagDistinct})
}

func (c *Compiler) CreateInsert(table, records any) (string, error) {
	return c.BuildInsert(table, records, FlagNone)
}

func (c *Compiler) CreateInsertIgnore(table, records any) (string, error) {
	return c.BuildInsert(table, records, FlagIgnore)
}

func (c *Compiler) CreateInsertUpdate(table, insert, update any) (string, error) {
	return c.BuildInsertOrUpdate(table, insert, update, FlagNone)
}

func (c *Compiler) CreateUpdate(table, data, where any) (string, error) {
	return c.BuildUpdate(table, data, where, FlagNone)
}

func (c *Compiler) CreateUpdateIgnore(table, data, where any) (string, error) {
	return c.BuildUpdate(table, data, where, FlagIgnore)
}

func (c *Compiler) CreateDelete(table, where any) (string, error) {
	return c.BuildDelete(table, where, FlagNone)
}
