package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/syssam/linktable/dialect"
	"github.com/syssam/linktable/dialect/sql"
	"github.com/syssam/linktable/mapping"
	"github.com/syssam/linktable/persister"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

// connFlags are the flags of the commands querying a database.
type connFlags struct {
	driver  string
	dsn     string
	where   []string
	slow    time.Duration
	debug   bool
	metrics bool
}

func (c *connFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&c.driver, "driver", "", "database/sql driver: sqlite, mysql, postgres or pgx (env LINKTABLE_DRIVER, default sqlite)")
	flags.StringVar(&c.dsn, "dsn", "", "data source name (env LINKTABLE_DSN)")
	flags.StringArrayVar(&c.where, "filter", nil, "SQL condition on the element table; {alias} is replaced by its alias")
	flags.DurationVar(&c.slow, "slow", 200*time.Millisecond, "slow statement threshold")
	flags.BoolVar(&c.debug, "debug", false, "log every statement")
	flags.BoolVar(&c.metrics, "metrics", false, "print statement metrics when done")
}

func newCountCmd(opts *options) *cobra.Command {
	conn := &connFlags{}
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count the elements of the owner's collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCollection(cmd.Context(), cmd.OutOrStdout(), opts, conn, func(ctx context.Context, p *persister.Persister, ex dialect.ExecQuerier, coll *persister.Collection) error {
				n, err := p.Count(ctx, ex, coll)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
	conn.register(cmd)
	return cmd
}

func newContainsCmd(opts *options) *cobra.Command {
	var (
		conn    = &connFlags{}
		element string
	)
	cmd := &cobra.Command{
		Use:   "contains",
		Short: "Report whether the owner's collection contains an element",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCollection(cmd.Context(), cmd.OutOrStdout(), opts, conn, func(ctx context.Context, p *persister.Persister, ex dialect.ExecQuerier, coll *persister.Collection) error {
				elem, err := parseIdentifier(coll.Relation.Entity(mapping.ElementSide), element)
				if err != nil {
					return err
				}
				ok, err := p.Contains(ctx, ex, coll, elem)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ok)
				return nil
			})
		},
	}
	conn.register(cmd)
	cmd.Flags().StringVar(&element, "element", "", "element identifier, e.g. 9 or code=admin,region=eu")
	_ = cmd.MarkFlagRequired("element")
	return cmd
}

type collectionFunc func(context.Context, *persister.Persister, dialect.ExecQuerier, *persister.Collection) error

// withCollection opens the database and runs fn on the owner's collection.
func withCollection(ctx context.Context, w io.Writer, opts *options, conn *connFlags, fn collectionFunc) error {
	if conn.driver == "" {
		conn.driver = envOr("LINKTABLE_DRIVER", dialect.SQLite)
	}
	if conn.dsn == "" {
		conn.dsn = os.Getenv("LINKTABLE_DSN")
	}
	if conn.dsn == "" {
		return fmt.Errorf("no data source: set --dsn or LINKTABLE_DSN")
	}
	rel, err := opts.relationship()
	if err != nil {
		return err
	}
	owner, err := parseIdentifier(rel.Entity(mapping.OwnerSide), opts.owner)
	if err != nil {
		return err
	}
	drv, err := sql.Open(conn.driver, conn.dsn)
	if err != nil {
		return err
	}
	defer drv.Close()
	d, err := dialect.Get(drv.Dialect())
	if err != nil {
		return err
	}
	stats := sql.NewStatsDriver(drv, sql.WithSlowThreshold(conn.slow), sql.WithSlowQueryLog(opts.logger))
	var ex dialect.ExecQuerier = stats
	if conn.debug {
		ex = sql.NewDebugDriver(stats, sql.DebugWithLogger(opts.logger))
	}
	coll := &persister.Collection{Relation: rel, Owner: owner, Filters: filters(conn.where)}
	if err := fn(ctx, persister.New(d, persister.WithLogger(opts.logger)), ex, coll); err != nil {
		return err
	}
	if conn.metrics {
		return printMetrics(w, stats.QueryStats())
	}
	return nil
}

// filters turns --filter conditions into a filter context.
func filters(conds []string) *persister.FilterContext {
	if len(conds) == 0 {
		return nil
	}
	fc := persister.NewFilterContext()
	for i, cond := range conds {
		fc.Enable(fmt.Sprintf("flag%d", i), persister.FilterFunc(func(_ *mapping.Entity, alias string) string {
			return strings.ReplaceAll(cond, "{alias}", alias)
		}))
	}
	return fc
}

func printMetrics(w io.Writer, stats *sql.QueryStats) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(sql.NewStatsCollector("linktable", stats)); err != nil {
		return err
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(w, "%s %g\n", mf.GetName(), m.GetCounter().GetValue())
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
