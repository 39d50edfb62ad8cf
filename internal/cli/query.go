package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/duke-git/lancet/v2/maputil"
	"github.com/spf13/cobra"

	"github.com/preceeder/go.db.sqlkit"
	"github.com/preceeder/go.db.sqlkit/internal/config"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Params []string // name=value
	Exec   bool
}

// ExecResult is the JSON payload of query --exec.
type ExecResult struct {
	RowsAffected int64 `json:"rows_affected"`
	LastInsertId int64 `json:"last_insert_id"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a query against the configured database",
		Long: `Run a query against the database described by the config file and
SQLKIT_* environment variables. Table placeholders and :name markers are
resolved the same way the client library resolves them.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "named parameter as name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Exec, "exec", false, "run as a statement and report affected rows")

	return cmd
}

func runQuery(opts *QueryOptions, query string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	params, err := parseParams(opts.Params)
	if err != nil {
		return out.Error(err)
	}
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return out.Error(err)
	}
	if cmd.Flags().Changed("driver") {
		cfg.Driver = opts.Driver
	}
	cfg.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

	ctx := cmd.Context()
	client, err := sqlkit.NewClient(ctx, cfg)
	if err != nil {
		return out.Error(err)
	}
	defer client.Close()

	if opts.Exec {
		rs, err := client.Execute(ctx, query, params)
		if err != nil {
			return out.Error(err)
		}
		var res ExecResult
		res.RowsAffected, _ = rs.RowsAffected()
		res.LastInsertId, _ = rs.LastInsertId()
		return out.Success(res, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "rows affected: %d\n", res.RowsAffected)
			return err
		})
	}

	rows, err := client.QueryRows(ctx, query, params)
	if err != nil {
		return out.Error(err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return out.Success(rows, func(w io.Writer) error {
		return writeRows(w, rows)
	})
}

func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid param %q: want name=value", p)
		}
		params[strings.TrimPrefix(name, ":")] = value
	}
	return params, nil
}

// writeRows prints one line per row as tab separated column=value pairs.
func writeRows(w io.Writer, rows []map[string]any) error {
	for _, row := range rows {
		cols := maputil.Keys(row)
		sort.Strings(cols)
		parts := make([]string, len(cols))
		for i, c := range cols {
			parts[i] = fmt.Sprintf("%s=%v", c, row[c])
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, "\t")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return err
}
