package cli

import (
	"fmt"
	"io"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/spf13/cobra"

	"github.com/preceeder/go.db.sqlkit/builder"
	"github.com/preceeder/go.db.sqlkit/dberr"
	"github.com/preceeder/go.db.sqlkit/dialect"
)

// RenderOptions holds flags for the render commands.
type RenderOptions struct {
	*RootOptions
	Distinct  bool
	Ignore    bool
	SingleRow bool
}

// RenderResult is the JSON payload of a render command.
type RenderResult struct {
	Kind    string `json:"kind"`
	Dialect string `json:"dialect"`
	SQL     string `json:"sql"`
}

type renderFunc func(c *builder.Compiler, spec any, flags builder.Flag) (string, error)

var renderers = map[string]struct {
	short string
	fn    renderFunc
}{
	"where": {"Render a WHERE condition", func(c *builder.Compiler, spec any, _ builder.Flag) (string, error) {
		return c.Where(spec)
	}},
	"order": {"Render an ORDER BY list", func(c *builder.Compiler, spec any, _ builder.Flag) (string, error) {
		return c.Order(spec)
	}},
	"from": {"Render a FROM clause with joins", func(c *builder.Compiler, spec any, _ builder.Flag) (string, error) {
		return c.From(spec)
	}},
	"columns": {"Render a column list", func(c *builder.Compiler, spec any, _ builder.Flag) (string, error) {
		return c.Columns(spec)
	}},
	"select": {"Render a SELECT statement", renderSelect},
	"insert": {"Render an INSERT statement", renderInsert},
	"update": {"Render an UPDATE statement", renderUpdate},
	"delete": {"Render a DELETE statement", renderDelete},
}

// RenderKinds lists the render subcommands.
var RenderKinds = []string{"where", "order", "from", "columns", "select", "insert", "update", "delete"}

// NewRenderCommand creates the render command and one subcommand per kind.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render SQL from a YAML or JSON spec",
		Long: `Render SQL text from a YAML or JSON spec read from a file or stdin.

Statement specs are mappings:
  select: {columns, from, where, order, group_by, having, limit}
  insert: {table, records, update}
  update: {table, set, where}
  delete: {table, where}

The tags !raw and !param insert raw SQL and named parameter markers.`,
	}
	cmd.PersistentFlags().BoolVar(&opts.Distinct, "distinct", false, "SELECT DISTINCT")
	cmd.PersistentFlags().BoolVar(&opts.Ignore, "ignore", false, "INSERT/UPDATE IGNORE")
	cmd.PersistentFlags().BoolVar(&opts.SingleRow, "single-row", false, "limit the statement to one row")

	for _, kind := range RenderKinds {
		cmd.AddCommand(newRenderKindCommand(opts, kind))
	}
	return cmd
}

func newRenderKindCommand(opts *RenderOptions, kind string) *cobra.Command {
	r := renderers[kind]
	return &cobra.Command{
		Use:          kind + " [spec-file]",
		Short:        r.short,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, kind, args, cmd)
		},
	}
}

func runRender(opts *RenderOptions, kind string, args []string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	data, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return out.Error(err)
	}
	spec, err := builder.DecodeYAML(data)
	if err != nil {
		return out.Error(err)
	}
	d, err := dialect.ForDriver(opts.Driver)
	if err != nil {
		return out.Error(err)
	}

	var flags builder.Flag
	if opts.Distinct {
		flags |= builder.FlagDistinct
	}
	if opts.Ignore {
		flags |= builder.FlagIgnore
	}
	if opts.SingleRow {
		flags |= builder.FlagSingleRow
	}

	sql, err := renderers[kind].fn(builder.New(d), spec, flags)
	if err != nil {
		return out.Error(err)
	}
	return out.Success(RenderResult{Kind: kind, Dialect: d.Name(), SQL: sql}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, sql)
		return err
	})
}

// statementSpec checks that spec is a mapping with only the allowed keys.
func statementSpec(spec any, kind string, allowed ...string) (builder.Map, error) {
	m, ok := spec.(builder.Map)
	if !ok {
		return nil, dberr.Spec(dberr.ErrInvalidSpec, "%s spec must be a mapping", kind)
	}
	for _, e := range m {
		if !slice.Contain(allowed, e.Key) {
			return nil, dberr.Spec(dberr.ErrInvalidSpec, "unknown %s key %q", kind, e.Key)
		}
	}
	return m, nil
}

func get(m builder.Map, key string) any {
	v, _ := m.Get(key)
	return v
}

func renderSelect(c *builder.Compiler, spec any, flags builder.Flag) (string, error) {
	m, err := statementSpec(spec, "select", "columns", "from", "where", "order", "group_by", "having", "limit")
	if err != nil {
		return "", err
	}
	return c.BuildSelect(builder.Select{
		Columns: get(m, "columns"),
		From:    get(m, "from"),
		Where:   get(m, "where"),
		Order:   get(m, "order"),
		GroupBy: get(m, "group_by"),
		Having:  get(m, "having"),
		Limit:   get(m, "limit"),
		Flags:   flags,
	})
}

func renderInsert(c *builder.Compiler, spec any, flags builder.Flag) (string, error) {
	m, err := statementSpec(spec, "insert", "table", "records", "update")
	if err != nil {
		return "", err
	}
	if update := get(m, "update"); update != nil {
		return c.BuildInsertOrUpdate(get(m, "table"), get(m, "records"), update, flags)
	}
	return c.BuildInsert(get(m, "table"), get(m, "records"), flags)
}

func renderUpdate(c *builder.Compiler, spec any, flags builder.Flag) (string, error) {
	m, err := statementSpec(spec, "update", "table", "set", "where")
	if err != nil {
		return "", err
	}
	return c.BuildUpdate(get(m, "table"), get(m, "set"), get(m, "where"), flags)
}

func renderDelete(c *builder.Compiler, spec any, flags builder.Flag) (string, error) {
	m, err := statementSpec(spec, "delete", "table", "where")
	if err != nil {
		return "", err
	}
	return c.BuildDelete(get(m, "table"), get(m, "where"), flags)
}
