package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	json "github.com/go-json-experiment/json"
	"github.com/spf13/cobra"

	"github.com/jacentio/tessera/query"
	"github.com/jacentio/tessera/value"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	PartitionKey   []string
	ClusteringKey  []string
	Columns        []string
	Wheres         []string
	Limit          int
	PageSize       int
	Page           int
	Token          string
	AllowFiltering bool
	Cursor         bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Run a query and print rows as JSON lines",
		Long: `Run a query plan against a table and print each row as a JSON object.

By default every page is fetched. --page selects a single 1-indexed page and
--cursor fetches one page starting at --token, printing the next token to
stderr.

Example:
  tessera query users --partition-key tenant --where tenant=acme
  tessera query users --where age>=30 --allow-filtering --page-size 50
  tessera query users --cursor --page-size 10 --token "$NEXT"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringSliceVar(&opts.PartitionKey, "partition-key", nil, "partition key columns")
	cmd.Flags().StringSliceVar(&opts.ClusteringKey, "clustering-key", nil, "clustering key columns")
	cmd.Flags().StringSliceVar(&opts.Columns, "select", nil, "columns to return (default all)")
	cmd.Flags().StringArrayVar(&opts.Wheres, "where", nil, "predicate such as col=value or col>=10 (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows to return")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "rows per round trip")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "return only this 1-indexed page")
	cmd.Flags().StringVar(&opts.Token, "token", "", "continuation token to resume from")
	cmd.Flags().BoolVar(&opts.AllowFiltering, "allow-filtering", false, "allow predicates that need a scan")
	cmd.Flags().BoolVar(&opts.Cursor, "cursor", false, "fetch a single page")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, table string) error {
	ctx := cmd.Context()

	b := query.From(table).
		Keys(opts.PartitionKey, opts.ClusteringKey).
		Select(opts.Columns...).
		Limit(opts.Limit).
		AllowFiltering(opts.AllowFiltering).
		SetPageSize(opts.PageSize).
		SetPaginationStateToken(opts.Token)
	for _, w := range opts.Wheres {
		p, err := parsePredicate(w)
		if err != nil {
			return err
		}
		b.Where(p.Column, p.Op, p.Value)
	}
	plan := b.Build()

	st, err := newStore(ctx, opts.RootOptions)
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}
	engine := query.NewEngine(st, nil, slog.Default())

	var coll *query.Collection
	switch {
	case opts.Cursor:
		coll, err = engine.Cursor(ctx, plan)
	case opts.Page > 0:
		coll, err = engine.ExecutePage(ctx, plan, opts.Page)
	default:
		coll, err = engine.Execute(ctx, plan)
	}
	if err != nil {
		return err
	}

	if err := writeRows(cmd.OutOrStdout(), coll.Rows()); err != nil {
		return err
	}
	if opts.Cursor {
		fmt.Fprintln(cmd.ErrOrStderr(), "next token:", coll.NextToken())
	}
	return nil
}

var predicateOps = []string{query.OpLte, query.OpGte, query.OpNe, query.OpEq, query.OpLt, query.OpGt}

// parsePredicate parses "col<op>value". Integer values are bound as numbers.
func parsePredicate(s string) (query.Predicate, error) {
	best, at := "", -1
	for _, op := range predicateOps {
		if i := strings.Index(s, op); i > 0 && (at == -1 || i < at || (i == at && len(op) > len(best))) {
			best, at = op, i
		}
	}
	if at == -1 {
		return query.Predicate{}, fmt.Errorf("invalid predicate %q: expected col<op>value", s)
	}

	raw := s[at+len(best):]
	var v any = raw
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		v = n
	}
	return query.Predicate{Column: strings.TrimSpace(s[:at]), Op: best, Value: v}, nil
}

// writeRows prints each row as a JSON object with sorted keys.
func writeRows(w io.Writer, rows []query.Row) error {
	for _, row := range rows {
		obj := make(map[string]any, len(row))
		for col, av := range row {
			v, err := value.Decode(av, value.KindOther)
			if err != nil {
				return fmt.Errorf("decode %s: %w", col, err)
			}
			obj[col] = plain(v)
		}
		line, err := json.Marshal(obj, json.Deterministic(true))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(line)); err != nil {
			return err
		}
	}
	return nil
}

// plain replaces attributevalue.Number with int64 or float64.
func plain(v any) any {
	switch n := v.(type) {
	case attributevalue.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return string(n)
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, e := range n {
			out[k] = plain(e)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = plain(e)
		}
		return out
	}
	return v
}
