package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/preceeder/go.db.sqlkit/dialect"
	"github.com/preceeder/go.db.sqlkit/placeholder"
)

// RewriteResult is the JSON payload of the rewrite command.
type RewriteResult struct {
	Text       string           `json:"text"`
	Named      map[string][]int `json:"named,omitempty"`
	Positional []int            `json:"positional,omitempty"`
	Slots      int              `json:"slots"`
}

// NewRewriteCommand creates the rewrite command.
func NewRewriteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rewrite <query>",
		Short: "Rewrite :name markers into driver placeholders",
		Long: `Rewrite :name and ? markers into the placeholders of the selected driver
and print the slot of every name. Markers inside string literals, quoted
identifiers, comments and :: casts are left alone. Slots are 1-based.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(opts, args[0], cmd)
		},
	}
}

func runRewrite(opts *RootOptions, query string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd.OutOrStdout())

	d, err := dialect.ForDriver(opts.Driver)
	if err != nil {
		return out.Error(err)
	}
	p := placeholder.Parse(query, d.BindStyle(), placeholder.BackslashEscapes(d.Capabilities().BackslashEscapes))

	res := RewriteResult{Text: p.Text, Slots: p.Slots}
	if p.HasNamed() {
		res.Named = make(map[string][]int, len(p.Named))
		for name, slots := range p.Named {
			res.Named[name] = oneBased(slots)
		}
	}
	res.Positional = oneBased(p.Positional)

	return out.Success(res, func(w io.Writer) error {
		fmt.Fprintln(w, p.Text)
		for _, name := range p.Names() {
			fmt.Fprintf(w, ":%s -> %s\n", name, joinInts(res.Named[name]))
		}
		if len(res.Positional) > 0 {
			fmt.Fprintf(w, "? -> %s\n", joinInts(res.Positional))
		}
		return nil
	})
}

func oneBased(slots []int) []int {
	if len(slots) == 0 {
		return nil
	}
	out := make([]int, len(slots))
	for i, s := range slots {
		out[i] = s + 1
	}
	return out
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ",")
}
