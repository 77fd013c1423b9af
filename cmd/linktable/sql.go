package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/syssam/linktable/dialect"
	"github.com/syssam/linktable/mapping"
	"github.com/syssam/linktable/persister"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func newSQLCmd(opts *options) *cobra.Command {
	var (
		dialectName string
		element     string
		key         string
		watch       bool
	)
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the statements of a relationship",
		Example: `  linktable sql -m school.yaml -r Student.courses --owner 5 --element 9
  linktable sql -m school.yaml -r Course.students --dialect postgres --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := dialect.Get(dialectName)
			if err != nil {
				return err
			}
			show := func() error {
				return render(cmd.OutOrStdout(), d, opts, element, key)
			}
			if err := show(); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watchFile(ctx, opts.mapping, opts.logger, func() {
				if err := show(); err != nil {
					opts.logger.Error("render mapping", "error", err)
				}
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&dialectName, "dialect", "d", dialect.SQLite, "SQL dialect (postgres, mysql, sqlite)")
	flags.StringVar(&element, "element", "", "element identifier, e.g. 9 or code=admin,region=eu")
	flags.StringVar(&key, "key", "", "index key for the contains-key statement")
	flags.BoolVarP(&watch, "watch", "w", false, "re-render when the mapping file changes")
	return cmd
}

// render prints every statement of the relationship, rebound for d.
func render(w io.Writer, d dialect.Dialect, opts *options, element, key string) error {
	rel, err := opts.relationship()
	if err != nil {
		return err
	}
	owner, err := parseIdentifier(rel.Entity(mapping.OwnerSide), opts.owner)
	if err != nil {
		return err
	}
	elem, err := parseIdentifier(rel.Entity(mapping.ElementSide), element)
	if err != nil {
		return err
	}
	p := persister.New(d, persister.WithLogger(opts.logger))
	out := &printer{w: w, d: d}
	out.header(rel)

	if query, types := p.BuildDeleteAll(rel); query != "" {
		args, err := p.DeleteAllParams(rel, owner)
		if err != nil {
			return err
		}
		out.print("delete all", persister.Statement{SQL: query, Args: args, Types: types})
	}
	rowArgs, err := p.RowParams(rel, owner, elem)
	if err != nil {
		return err
	}
	for _, kind := range []struct {
		name string
		kind persister.RowKind
	}{{"insert row", persister.RowInsert}, {"delete row", persister.RowDelete}} {
		query, types := p.BuildRowStatement(kind.kind, rel)
		out.print(kind.name, persister.Statement{SQL: query, Args: rowArgs, Types: types})
	}
	stmt, err := p.BuildCount(rel, owner, nil)
	if err != nil {
		return err
	}
	out.print("count", stmt)
	if stmt, err = p.BuildContains(rel, owner, elem, nil); err != nil {
		return err
	}
	out.print("contains", stmt)
	if rel.Indexed() {
		var k any
		if key != "" {
			k = key
		}
		if stmt, err = p.BuildContainsKey(rel, owner, k, nil); err != nil {
			return err
		}
		out.print("contains key", stmt)
	}
	if stmt, err = p.BuildRemoveElement(rel, owner, elem); err != nil {
		return err
	}
	out.print("remove element", stmt)
	if stmt, _, err = p.BuildCriteriaLoad(rel, owner, &persister.Criteria{OrderBy: rel.Association.OrderBy}, nil); err != nil {
		return err
	}
	out.print("load", stmt)
	return nil
}

// printer writes titled statements rebound for a dialect.
type printer struct {
	w io.Writer
	d dialect.Dialect
}

func (p *printer) header(rel *mapping.Relationship) {
	side := "owning"
	if !rel.IsOwningSide() {
		side = "inverse"
	}
	fmt.Fprintf(p.w, "-- %s (%s side, join table %s, dialect %s)\n", rel.Name, side, rel.Table, p.d.Name())
}

func (p *printer) print(name string, stmt persister.Statement) {
	fmt.Fprintf(p.w, "\n-- %s\n%s\n-- args: %v types: %v\n", name, p.d.Rebind(stmt.SQL), stmt.Args, stmt.Types)
}

// watchFile calls fn whenever path is written or re-created, until ctx is done.
func watchFile(ctx context.Context, path string, logger *slog.Logger, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer w.Close()
	// Editors often replace the file, so the directory is watched.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	logger.Info("watching mapping", "path", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(path) || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("mapping changed", "op", event.Op.String())
			fn()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch mapping", "error", err)
		}
	}
}
