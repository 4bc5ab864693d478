package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/ops"
	"github.com/hpungsan/threads/internal/query"
	"github.com/hpungsan/threads/internal/thread"
	"github.com/hpungsan/threads/internal/web"
)

// maxStdinBytes bounds a body read from stdin.
const maxStdinBytes = 1 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, logger *zap.Logger) *cli.App {
	app := &cli.App{
		Name:    "threads",
		Usage:   "Threads, checks and codemods with a query language",
		Version: Version,
		Commands: []*cli.Command{
			createCmd(db, cfg),
			fetchCmd(db),
			updateCmd(db, cfg),
			statusCmd(db, "close", thread.StatusClosed),
			statusCmd(db, "reopen", thread.StatusOpen),
			statusCmd(db, "ignore", thread.StatusIgnored),
			deleteCmd(db),
			listCmd(db, cfg),
			bulkStatusCmd(db),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			purgeCmd(db),
			queryCmd(),
			serveCmd(db, cfg, logger),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func bodyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "Markdown body"},
		&cli.BoolFlag{Name: "stdin", Usage: "Read the body from stdin"},
	}
}

// createCmd creates the create command.
func createCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a thread, check or codemod",
		ArgsUsage: "<title>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "thread|check|codemod (default from config)"},
			&cli.StringFlag{Name: "labels", Aliases: []string{"l"}, Usage: "Comma-separated labels"},
			&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "Author handle"},
		}, bodyFlags()...),
		Action: func(c *cli.Context) error {
			body, _, err := readBody(c)
			if err != nil {
				return outputError(err)
			}

			input := ops.CreateInput{
				Kind:   c.String("kind"),
				Title:  strings.Join(c.Args().Slice(), " "),
				Body:   body,
				Labels: parseList(c.String("labels")),
			}
			if author := c.String("author"); author != "" {
				input.Author = &author
			}

			output, err := ops.Create(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a thread by ID",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted threads"},
			&cli.BoolFlag{Name: "no-body", Usage: "Exclude the body from output"},
		},
		Action: func(c *cli.Context) error {
			input := ops.FetchInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
			}
			if c.Bool("no-body") {
				includeBody := false
				input.IncludeBody = &includeBody
			}

			output, err := ops.Fetch(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update the title, body, labels or author of a thread",
		ArgsUsage: "<id>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "labels", Aliases: []string{"l"}, Usage: "New comma-separated labels (empty clears)"},
			&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "New author (empty clears)"},
		}, bodyFlags()...),
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{ID: c.Args().First()}

			body, ok, err := readBody(c)
			if err != nil {
				return outputError(err)
			}
			if ok {
				input.Body = &body
			}
			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}
			if c.IsSet("labels") {
				labels := parseList(c.String("labels"))
				input.Labels = &labels
			}
			if c.IsSet("author") {
				author := c.String("author")
				input.Author = &author
			}

			output, err := ops.Update(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// statusCmd creates a command that moves a thread to status.
func statusCmd(db *sql.DB, name string, status thread.Status) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     fmt.Sprintf("Mark a thread as %s", status),
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.SetStatus(c.Context, db, ops.SetStatusInput{
				ID:     c.Args().First(),
				Status: string(status),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a thread",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List threads matching a query (default: open items of the kind)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Threads query; an empty value matches everything"},
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Restrict rows to one kind"},
			&cli.IntFlag{Name: "limit", Value: ops.DefaultListLimit, Usage: "Page size (max 100)"},
			&cli.IntFlag{Name: "offset", Usage: "Page offset"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted threads"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ListInput{
				Kind:           c.String("kind"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			}
			if c.IsSet("query") {
				q := c.String("query")
				input.Query = &q
			}

			output, err := ops.List(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// bulkStatusCmd creates the bulk-status command.
func bulkStatusCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "bulk-status",
		Usage: "Set the status of every thread matching a query",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Required: true, Usage: "Threads query (must not be empty)"},
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Required: true, Usage: "open|closed|ignored"},
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Restrict rows to one kind"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.BulkSetStatus(c.Context, db, ops.BulkSetStatusInput{
				Query:  c.String("query"),
				Kind:   c.String("kind"),
				Status: c.String("status"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export threads to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default ~/.threads/exports/...)"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Only export threads matching this query"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted threads"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, db, cfg, ops.ExportInput{
				Path:           c.String("path"),
				Query:          c.String("query"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import threads from a JSONL export file",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, db, cfg, ops.ImportInput{
				Path: c.Args().First(),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted threads",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// queryCmd creates the query command group. Its subcommands work on query
// strings alone and never touch the database.
func queryCmd() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Parse, rewrite and test threads queries",
		Subcommands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "Split a query into terms",
				ArgsUsage: "<query>",
				Action: func(c *cli.Context) error {
					return outputJSON(c, ops.ParseQuery(ops.ParseQueryInput{Query: c.Args().First()}))
				},
			},
			{
				Name:      "with",
				Usage:     "Replace field values, e.g. `threads query with 'is:open bug' is=thread,closed`",
				ArgsUsage: "<query> <field=v1,v2>...",
				Action: func(c *cli.Context) error {
					updates := query.Updates{}
					for _, arg := range c.Args().Tail() {
						field, values, err := parseAssignment(arg)
						if err != nil {
							return outputError(errors.NewInvalidRequest(err.Error()))
						}
						updates = updates.And(field, parseList(values)...)
					}
					return outputJSON(c, ops.QueryWithValues(ops.QueryWithValuesInput{
						Query:   c.Args().First(),
						Updates: updates,
					}))
				},
			},
			{
				Name:      "match",
				Usage:     "Report whether a query holds every field=value",
				ArgsUsage: "<query> <field=value>...",
				Action: func(c *cli.Context) error {
					values := query.Predicate{}
					for _, arg := range c.Args().Tail() {
						field, value, err := parseAssignment(arg)
						if err != nil {
							return outputError(errors.NewInvalidRequest(err.Error()))
						}
						values[field] = value
					}
					if len(values) == 0 {
						return outputError(errors.NewInvalidRequest("at least one field=value is required"))
					}
					return outputJSON(c, ops.QueryMatches(ops.QueryMatchesInput{
						Query:  c.Args().First(),
						Values: values,
					}))
				},
			},
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: cfg.WebBind, Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: cfg.WebPort, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest("port must be between 1 and 65535"))
			}
			srv, err := web.NewServer(db, cfg, logger, Version, c.String("bind"), port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := web.Run(c.Context, srv, logger); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON writes v to the app's writer as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if tErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// readBody returns the body from --body or, with --stdin, from the app's
// reader. ok is false when neither was given.
func readBody(c *cli.Context) (body string, ok bool, err error) {
	if c.Bool("stdin") {
		if c.IsSet("body") {
			return "", false, errors.NewInvalidRequest("use either --body or --stdin, not both")
		}
		body, err := readLimited(c.App.Reader, maxStdinBytes)
		if err != nil {
			return "", false, err
		}
		return body, true, nil
	}
	if c.IsSet("body") {
		return c.String("body"), true, nil
	}
	return "", false, nil
}

// readLimited reads all of r, failing when it holds more than limit bytes.
func readLimited(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("input exceeds %d bytes", limit))
	}
	return strings.TrimSpace(string(data)), nil
}

// parseList splits a comma-separated string, dropping empty entries.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// parseAssignment splits "field=value".
func parseAssignment(s string) (string, string, error) {
	field, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(field) == "" {
		return "", "", fmt.Errorf("expected field=value, got %q", s)
	}
	return strings.TrimSpace(field), value, nil
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
