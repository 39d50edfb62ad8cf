package builder

// SqlBuilder 链式构造查询, 最终生成 Select 并交给 Compiler 渲染。
// 条件中通过 key 绑定的参数 (Fd.Eq(v, "key")) 会和 SQL 一起返回。
type SqlBuilder struct {
	table    TableRef
	label    string // 设置后作为子查询使用, 整体用小括号包裹并加上别名
	fromSub  *SqlBuilder
	joins    []tableJoin
	fields   []any
	where    List
	group    []any
	having   List
	order    []any
	limit    int
	offset   int
	distinct bool
}

type tableJoin struct {
	kind  JoinKind
	table *SqlBuilder
	on    any
}

func Table(tbl string) *SqlBuilder {
	return &SqlBuilder{table: TableRef{Name: tbl}}
}

// As 设置表的别名
func (s *SqlBuilder) As(alias string) *SqlBuilder {
	s.table.Alias = alias
	return s
}

// Label 设置子查询的别名
// 注意：这个需要在子查询的最后使用，不要提前使用，不然会和上面的 As 有冲突
func (s *SqlBuilder) Label(label string) *SqlBuilder {
	s.label = label
	return s
}

// FromSub 将另一个构建器作为当前查询的 FROM 子查询来源
func (s *SqlBuilder) FromSub(sub *SqlBuilder) *SqlBuilder {
	s.fromSub = sub
	return s
}

// Select 设置查询的字段列表, 可以是 string, Fd, Expr 或 TableRef
func (s *SqlBuilder) Select(fields ...any) *SqlBuilder {
	s.fields = append(s.fields, fields...)
	return s
}

func (s *SqlBuilder) Distinct() *SqlBuilder {
	s.distinct = true
	return s
}

// Field 获取带表名 (或别名) 前缀的字段
func (s *SqlBuilder) Field(field string) Fd {
	prefix := s.label
	if prefix == "" {
		prefix = s.table.Alias
	}
	if prefix == "" {
		prefix, _ = s.table.Name.(string)
	}
	if prefix == "" {
		return NewField(field)
	}
	return NewField(prefix + "." + field)
}

// Where 追加条件, 多次调用之间用 AND 连接
func (s *SqlBuilder) Where(conds ...any) *SqlBuilder {
	s.where = append(s.where, conds...)
	return s
}

func (s *SqlBuilder) Group(fields ...any) *SqlBuilder {
	s.group = append(s.group, fields...)
	return s
}

func (s *SqlBuilder) Having(conds ...any) *SqlBuilder {
	s.having = append(s.having, conds...)
	return s
}

func (s *SqlBuilder) Order(items ...any) *SqlBuilder {
	s.order = append(s.order, items...)
	return s
}

func (s *SqlBuilder) Limit(limit int) *SqlBuilder {
	s.limit = limit
	return s
}

// Offset 设置查询的偏移量（用于分页）
func (s *SqlBuilder) Offset(offset int) *SqlBuilder {
	s.offset = offset
	return s
}

func (s *SqlBuilder) First() *SqlBuilder {
	s.limit = 1
	return s
}

func (s *SqlBuilder) join(kind JoinKind, table *SqlBuilder, on any) *SqlBuilder {
	s.joins = append(s.joins, tableJoin{kind: kind, table: table, on: on})
	return s
}

func (s *SqlBuilder) LeftJoin(table *SqlBuilder, on any) *SqlBuilder {
	return s.join(KindLeft, table, on)
}

func (s *SqlBuilder) InnerJoin(table *SqlBuilder, on any) *SqlBuilder {
	return s.join(KindInner, table, on)
}

func (s *SqlBuilder) CrossJoin(table *SqlBuilder) *SqlBuilder {
	return s.join(KindCross, table, nil)
}

// tableItem is the FROM/JOIN item of s: a plain table or, when labelled, a derived table.
func (s *SqlBuilder) tableItem(c *Compiler) (any, map[string]any, error) {
	if s.label == "" {
		args, err := CollectArgs(s.table)
		return s.table, args, err
	}
	q, args, err := s.Query(c)
	if err != nil {
		return nil, nil, err
	}
	return TableRef{Name: Raw(q), Alias: s.label}, args, nil
}

// build 生成 Select 描述和收集到的参数
func (s *SqlBuilder) build(c *Compiler) (Select, map[string]any, error) {
	args := map[string]any{}
	var main any = s.table
	if s.fromSub != nil {
		q, subArgs, err := s.fromSub.Query(c)
		if err != nil {
			return Select{}, nil, err
		}
		main = TableRef{Name: Raw(q), Alias: s.fromSub.label}
		if err := mergeArgs(args, subArgs); err != nil {
			return Select{}, nil, err
		}
	}
	from := List{main}
	for _, j := range s.joins {
		item, joinArgs, err := j.table.tableItem(c)
		if err != nil {
			return Select{}, nil, err
		}
		if err := mergeArgs(args, joinArgs); err != nil {
			return Select{}, nil, err
		}
		from = append(from, Join{Kind: j.kind, Table: item, On: j.on})
	}

	sel := Select{
		From:  from,
		Where: s.where,
		Order: List(s.order),
	}
	if len(s.fields) > 0 {
		sel.Columns = List(s.fields)
	}
	if len(s.group) > 0 {
		sel.GroupBy = List(s.group)
	}
	if len(s.having) > 0 {
		sel.Having = s.having
	}
	if s.limit > 0 {
		sel.Limit = List{s.offset, s.limit}
	}
	if s.distinct {
		sel.Flags |= FlagDistinct
	}
	selArgs, err := CollectArgs(sel)
	if err != nil {
		return Select{}, nil, err
	}
	if err := mergeArgs(args, selArgs); err != nil {
		return Select{}, nil, err
	}
	return sel, args, nil
}

// Query 生成 SELECT 语句和 :name 参数
func (s *SqlBuilder) Query(c *Compiler) (string, map[string]any, error) {
	sel, args, err := s.build(c)
	if err != nil {
		return "", nil, err
	}
	q, err := c.BuildSelect(sel)
	if err != nil {
		return "", nil, err
	}
	return q, args, nil
}

// Delete 构建 DELETE 语句, 只使用表和 Where 条件
func (s *SqlBuilder) Delete(c *Compiler) (string, map[string]any, error) {
	q, err := c.BuildDelete(s.table, s.where, FlagNone)
	if err != nil {
		return "", nil, err
	}
	args, err := CollectArgs(s.where)
	if err != nil {
		return "", nil, err
	}
	return q, args, nil
}

// Insert 构建插入语句, records 为单行 map 或多行 slice
func (s *SqlBuilder) Insert(c *Compiler, records any, flags ...Flag) (string, map[string]any, error) {
	q, err := c.BuildInsert(s.table.Name, records, joinFlags(flags))
	if err != nil {
		return "", nil, err
	}
	args, err := CollectArgs(records)
	if err != nil {
		return "", nil, err
	}
	return q, args, nil
}

// InsertOrUpdate 构建 Upsert
func (s *SqlBuilder) InsertOrUpdate(c *Compiler, insert any, update any) (string, map[string]any, error) {
	q, err := c.BuildInsertOrUpdate(s.table.Name, insert, update, FlagNone)
	if err != nil {
		return "", nil, err
	}
	args, err := CollectArgs(insert, update)
	if err != nil {
		return "", nil, err
	}
	return q, args, nil
}

// Update 构建更新语句：UPDATE <table> SET `a` = ... WHERE ...
func (s *SqlBuilder) Update(c *Compiler, data any, flags ...Flag) (string, map[string]any, error) {
	q, err := c.BuildUpdate(s.table, data, s.where, joinFlags(flags))
	if err != nil {
		return "", nil, err
	}
	args, err := CollectArgs(data, s.where)
	if err != nil {
		return "", nil, err
	}
	return q, args, nil
}

func joinFlags(flags []Flag) Flag {
	var out Flag
	for _, f := range flags {
		out |= f
	}
	return out
}

func mergeArgs(dst, src map[string]any) error {
	for k, v := range src {
		if err := bindArg(dst, k, v); err != nil {
			return err
		}
	}
	return nil
}
