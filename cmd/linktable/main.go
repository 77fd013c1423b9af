// Command linktable renders and runs the join table statements of the
// many-to-many relationships declared in a YAML mapping file.
//
//	linktable sql --mapping school.yaml --relation Student.courses --owner id=5 --element id=9
//	linktable count --mapping school.yaml --relation Student.courses --owner id=5 --dsn school.db
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/syssam/linktable/mapping"
	"github.com/syssam/linktable/schema/field"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options are the flags shared by every command.
type options struct {
	mapping  string
	relation string
	owner    string
	envFile  string
	logLevel string
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "linktable",
		Short: "Render and run many-to-many join table statements",
		Long: `linktable reads entity mappings from a YAML file and works on the join
table of one many-to-many relationship, named "<Entity>.<association>".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel)
			if err != nil {
				return err
			}
			opts.logger = logger
			loadEnv(opts.envFile, logger)
			return nil
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&opts.mapping, "mapping", "m", "mapping.yaml", "YAML mapping file")
	flags.StringVarP(&opts.relation, "relation", "r", "", "relationship as <Entity>.<association>")
	flags.StringVarP(&opts.owner, "owner", "o", "", "owner identifier, e.g. 5 or tenant=acme,id=7")
	flags.StringVarP(&opts.envFile, "env-file", "e", ".env", "path to .env file")
	flags.StringVarP(&opts.logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	_ = root.MarkPersistentFlagRequired("relation")
	root.AddCommand(newSQLCmd(opts), newCountCmd(opts), newContainsCmd(opts))
	return root
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// loadEnv loads the .env file, if any. Variables already set win.
func loadEnv(path string, logger *slog.Logger) {
	if _, err := os.Stat(path); err != nil {
		logger.Debug("no env file, using the environment", "path", path)
		return
	}
	if err := godotenv.Load(path); err != nil {
		logger.Warn("load env file", "path", path, "error", err)
		return
	}
	logger.Debug("loaded env file", "path", path)
}

// relationship loads the mapping and resolves the relationship flag.
func (o *options) relationship() (*mapping.Relationship, error) {
	entity, assoc, ok := strings.Cut(o.relation, ".")
	if !ok || entity == "" || assoc == "" {
		return nil, fmt.Errorf("invalid relation %q: expect <Entity>.<association>", o.relation)
	}
	reg, err := mapping.LoadFile(o.mapping)
	if err != nil {
		return nil, err
	}
	return reg.Relationship(entity, assoc)
}

// parseIdentifier parses "field=value" pairs separated by commas into an
// identifier of e. A bare value is accepted for single-field identifiers.
// An empty string yields an identifier with nil values.
func parseIdentifier(e *mapping.Entity, s string) (mapping.Identifier, error) {
	id := make(mapping.Identifier, 0, len(e.Identifier))
	if s == "" {
		for _, name := range e.Identifier {
			id = append(id, mapping.IDValue{Field: name})
		}
		return id, nil
	}
	if !strings.Contains(s, "=") {
		if len(e.Identifier) != 1 {
			return nil, fmt.Errorf("%s has a composite identifier: use field=value pairs", e.Name)
		}
		s = e.Identifier[0] + "=" + s
	}
	for _, pair := range strings.Split(s, ",") {
		name, raw, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("invalid identifier pair %q", pair)
		}
		f, err := e.Field(name)
		if err != nil {
			return nil, err
		}
		v, err := convert(f.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", e.Name, name, err)
		}
		id = append(id, mapping.IDValue{Field: name, Value: v})
	}
	return id, nil
}

// convert parses a flag value according to the field type.
func convert(t field.Type, s string) (any, error) {
	switch {
	case t == field.TypeUUID:
		return uuid.Parse(s)
	case t == field.TypeBool:
		return strconv.ParseBool(s)
	case t == field.TypeFloat32, t == field.TypeFloat64:
		return strconv.ParseFloat(s, 64)
	case t.Numeric():
		return strconv.ParseInt(s, 10, 64)
	}
	return s, nil
}
