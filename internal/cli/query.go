package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rubythings/ruport/internal/query"
	"github.com/rubythings/ruport/internal/sqltext"
	"github.com/rubythings/ruport/internal/table"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Source  string
	File    string
	SQL     string
	Params  []string
	Raw     bool
	Each    bool
	Uniform bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [sql | file.sql]",
		Short: "Run SQL against a data source",
		Long: `Run SQL against a data source from the sources file.

The SQL comes from exactly one of: a positional argument (read as a file
when it ends in .sql), --file, or --sql. Scripts may hold several
statements separated by ";" and a newline; every statement runs and the
rows of the last statement are printed. With --each those rows are
streamed as they arrive. With --each --uniform the rows of every
statement are streamed and --param binds to every statement.

In JSON mode a failure is also written to stdout as an error response
carrying the run id as trace_id.

Example:
  ruport query "select * from people"
  ruport query --source warehouse reports/monthly.sql
  ruport query --sql "select * from people where id = ?" --param 42
  ruport query --each --format json --file dump.sql`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Source, "source", "s", "", "source name (default \"default\")")
	cmd.Flags().StringVar(&opts.File, "file", "", "read SQL from this file")
	cmd.Flags().StringVar(&opts.SQL, "sql", "", "SQL text, used verbatim")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "positional statement parameter (repeatable)")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "produce raw rows without column names")
	cmd.Flags().BoolVar(&opts.Each, "each", false, "stream rows instead of materializing the result")
	cmd.Flags().BoolVar(&opts.Uniform, "uniform", false, "bind params to every statement and stream every statement")

	return cmd
}

func runQuery(opts *QueryOptions, args []string, cmd *cobra.Command) (err error) {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	defer func() {
		if err != nil {
			_ = out.Error(err)
		}
	}()

	src, err := sqlSource(opts, args)
	if err != nil {
		return err
	}

	reg, err := loadRegistry(opts.RootOptions)
	if err != nil {
		return err
	}

	qopts := query.Options{
		Registry: reg,
		Source:   opts.Source,
		Params:   make([]any, len(opts.Params)),
	}
	for i, p := range opts.Params {
		qopts.Params[i] = p
	}
	if opts.Raw {
		qopts.RowMode = table.Raw
	}
	if opts.Uniform {
		qopts.Policy = query.PolicyUniform
	}

	q, err := query.New(src, qopts)
	if err != nil {
		return wrapQueryError("failed to prepare query", err)
	}
	slog.Debug("query prepared", "source", q.SourceName(), "policy", qopts.Policy, "row_mode", qopts.RowMode)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Each {
		if err := streamRows(ctx, q, out, opts.Uniform); err != nil {
			return wrapQueryError("query failed", err)
		}
		return nil
	}

	t, err := q.ToTable(ctx)
	if err != nil {
		return wrapQueryError("query failed", err)
	}
	return out.Table(t)
}

// sqlSource picks the SQL source from exactly one of the positional
// argument, --file and --sql.
func sqlSource(opts *QueryOptions, args []string) (sqltext.Source, error) {
	given := 0
	for _, set := range []bool{len(args) == 1, opts.File != "", opts.SQL != ""} {
		if set {
			given++
		}
	}
	if given != 1 {
		return sqltext.Source{}, NewExitError(ExitCommandError, "exactly one of a SQL argument, --file or --sql is required")
	}

	if len(args) == 1 {
		return sqltext.PathGuess(args[0]), nil
	}
	src, err := query.FromDirective(query.Directive{File: opts.File, String: opts.SQL})
	if err != nil {
		return sqltext.Source{}, WrapExitError(ExitCommandError, "invalid SQL source", err)
	}
	return src, nil
}

// streamRows writes rows as they arrive: CSV records (with a header ahead
// of the first structured row) or one JSON array per line. Under the compat
// policy a single Each call runs the whole script and streams the last
// statement.
func streamRows(ctx context.Context, q *query.Query, out *OutputFormatter, uniform bool) error {
	if n := q.StatementCount(); !uniform && n > 0 {
		if err := q.Seek(n - 1); err != nil {
			return err
		}
	}

	if out.Format == "json" {
		enc := json.NewEncoder(out.Writer)
		return q.Each(ctx, func(row table.Row) error {
			return enc.Encode(jsonRows([][]any{row.Values()})[0])
		})
	}

	w := csv.NewWriter(out.Writer)
	wroteHeader := false
	err := q.Each(ctx, func(row table.Row) error {
		if !wroteHeader && !row.Raw() {
			if err := w.Write(row.Columns()); err != nil {
				return err
			}
		}
		wroteHeader = true

		record := make([]string, row.Len())
		for i := range record {
			record[i] = table.FormatValue(row.At(i))
		}
		return w.Write(record)
	})
	w.Flush()
	if err != nil {
		return err
	}
	return w.Error()
}
