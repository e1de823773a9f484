package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/TD21forever/buling/internal/analyzer"
	"github.com/TD21forever/buling/internal/config"
	"github.com/TD21forever/buling/internal/errors"
	"github.com/TD21forever/buling/internal/mcp"
	"github.com/TD21forever/buling/internal/ops"
	"github.com/TD21forever/buling/internal/upstream"
	"github.com/TD21forever/buling/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "buling",
		Usage:   "Conversational inspiration capture",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(db, cfg),
			mcpCmd(db, cfg),
			analyzeCmd(cfg),
			saveCmd(db),
			listCmd(db),
			deleteCmd(db),
			purgeCmd(db),
			exportCmd(db),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// newUpstreamClient builds the completion client from config.
func newUpstreamClient(cfg *config.Config) *upstream.Client {
	return upstream.NewClient(cfg.APIKey,
		upstream.WithBaseURL(cfg.BaseURL),
		upstream.WithModel(cfg.Model),
		upstream.WithTimeout(time.Duration(cfg.UpstreamTimeoutSecs)*time.Second),
	)
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8787, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			api := newUpstreamClient(cfg)
			an := analyzer.New(api, cfg.Model)
			srv := web.NewServer(db, cfg, api, an, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start the MCP server on stdio",
		Action: func(c *cli.Context) error {
			if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
				return outputError(errors.NewInvalidRequest(
					fmt.Sprintf("unknown disabled tools: %s", strings.Join(unknown, ", "))))
			}
			an := analyzer.New(newUpstreamClient(cfg), cfg.Model)
			return mcp.Run(db, cfg, an, Version)
		},
	}
}

// analyzeCmd creates the analyze command. Works offline: without a working
// API key the heuristic fallback still produces a result.
func analyzeCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Analyze content from stdin into a structured inspiration",
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("content must be piped via stdin"))
			}
			content, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if content == "" {
				return outputError(errors.NewInvalidRequest("content is required"))
			}

			an := analyzer.New(newUpstreamClient(cfg), cfg.Model)
			return outputJSON(an.Analyze(c.Context, content))
		},
	}
}

// saveCmd creates the save command (reads content from stdin).
func saveCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Save an inspiration (reads content from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Inspiration title"},
			&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Usage: "Short summary"},
			&cli.StringFlag{Name: "categories", Usage: "Comma-separated categories: work|life|creation|learning"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags (up to 5)"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("content must be piped via stdin"))
			}
			content, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := ops.SaveInspiration(c.Context, db, ops.SaveInspirationInput{
				Title:      c.String("title"),
				Content:    content,
				Summary:    c.String("summary"),
				Categories: parseList(c.String("categories")),
				Tags:       parseList(c.String("tags")),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List inspirations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category"},
			&cli.StringFlag{Name: "tag", Usage: "Filter by tag"},
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Search title, content, and summary"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListInspirations(c.Context, db, ops.ListInput{
				Category: c.String("category"),
				Tag:      c.String("tag"),
				Search:   c.String("search"),
				Limit:    c.Int("limit"),
				Offset:   c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete inspirations by ID",
		ArgsUsage: "<id> [id...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("at least one id is required"))
			}

			count, err := ops.DeleteInspirations(c.Context, db, c.Args().Slice())
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"deleted": count})
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete all inspirations",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip confirmation"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidRequest("purge deletes everything; pass --yes to confirm"))
			}

			count, err := ops.PurgeInspirations(c.Context, db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"purged": count})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export inspirations as a markdown document to stdout",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category"},
			&cli.StringFlag{Name: "tag", Usage: "Filter by tag"},
		},
		Action: func(c *cli.Context) error {
			doc, err := ops.ExportInspirations(c.Context, db, ops.ListInput{
				Category: c.String("category"),
				Tag:      c.String("tag"),
			})
			if err != nil {
				return outputError(err)
			}

			fmt.Fprintln(os.Stdout, doc)
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if bErr, ok := err.(*errors.BulingError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", bErr.Code, bErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseList splits a comma-separated string, dropping empty entries.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			items = append(items, t)
		}
	}
	return items
}
