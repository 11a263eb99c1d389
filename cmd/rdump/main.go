// Command rdump is the CLI adapter of §6: flag parsing, output
// formatting, and preset-file management, all external-collaborator
// concerns left out of the core per §1. It wires urfave/cli flags into
// internal/config and internal/orchestrator, the way the teacher's
// cmd/lci/main.go wires its own flags into internal/config and
// internal/indexing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/rdump-dev/rdump/internal/config"
	"github.com/rdump-dev/rdump/internal/debug"
	"github.com/rdump-dev/rdump/internal/lang"
	"github.com/rdump-dev/rdump/internal/mcpserve"
	"github.com/rdump-dev/rdump/internal/orchestrator"
	"github.com/rdump-dev/rdump/internal/predicate"
	"github.com/rdump-dev/rdump/internal/semantic"
	"github.com/rdump-dev/rdump/internal/watchmode"
)

func main() {
	app := &cli.App{
		Name:                   "rdump",
		Usage:                  "find and dump source files matching a boolean query over metadata, content, and syntax",
		UseShortOptionHandling: true,
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "log per-file and ignore-file diagnostics to stderr"},
		}, searchFlags()...),
		Commands: []*cli.Command{
			searchCommand(),
			mcpCommand(),
			presetCommand(),
		},
		// rdump's primary action is search; a bare "rdump 'query'" (no
		// subcommand) behaves like "rdump search 'query'", matching the
		// original tool's Search-is-the-default-command design.
		Action: func(c *cli.Context) error {
			return searchAction(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "rdump: %v\n", err)
		os.Exit(1)
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:    "search",
		Aliases: []string{"s"},
		Usage:   "search for files matching a query",
		Flags:   searchFlags(),
		Action:  searchAction,
	}
}

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "preset", Aliases: []string{"p"}, Usage: "AND a named preset query onto the search (repeatable)"},
		&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Value: ".", Usage: "directory to search"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write results to this file instead of stdout"},
		&cli.BoolFlag{Name: "line-numbers", Aliases: []string{"l"}, Usage: "prefix each content line with its line number"},
		&cli.BoolFlag{Name: "no-headers", Usage: "omit the File:/--- separators in plain output"},
		&cli.StringFlag{Name: "format", Value: "plain", Usage: "output format: plain, paths, or json"},
		&cli.BoolFlag{Name: "no-ignore", Usage: "disable built-in, global, and .gitignore exclusions (.rdumpignore still applies)"},
		&cli.BoolFlag{Name: "hidden", Usage: "include dot-prefixed files and directories"},
		&cli.IntFlag{Name: "max-depth", Value: -1, Usage: "maximum directory depth below root (0 = root's direct children only)"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Value: 0, Usage: "evaluator worker count (0 = one per logical CPU)"},
		&cli.BoolFlag{Name: "watch", Usage: "continuously re-run the search as files change"},
	}
}

func searchAction(c *cli.Context) error {
	if c.Bool("verbose") {
		debug.Enable(os.Stderr)
	}

	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return err
	}
	if format != FormatPlain && c.Bool("no-headers") {
		return fmt.Errorf("--no-headers only applies to the plain format")
	}

	root := c.String("root")
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	query := c.Args().First()
	if query == "" {
		return fmt.Errorf("a query is required")
	}
	for _, name := range c.StringSlice("preset") {
		query = fmt.Sprintf("@%s and (%s)", name, query)
	}
	query = config.ResolvePreset(cfg.Presets, query)

	profiles, err := lang.Load()
	if err != nil {
		return fmt.Errorf("failed to load language profiles: %w", err)
	}
	registry := predicate.New(semantic.NewEngine(profiles))

	workers := c.Int("workers")
	if workers <= 0 {
		workers = cfg.Workers
	}
	maxDepth := c.Int("max-depth")

	opts := orchestrator.Options{
		Query:         query,
		Root:          absRoot,
		IncludeHidden: c.Bool("hidden"),
		NoIgnore:      c.Bool("no-ignore"),
		MaxDepth:      maxDepth,
		Workers:       workers,
	}

	out := os.Stdout
	if outputPath := c.String("output"); outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file %q: %w", outputPath, err)
		}
		defer f.Close()
		out = f
	}

	runOnce := func(ctx context.Context) error {
		records, err := orchestrator.Run(ctx, opts, registry)
		if err != nil {
			return err
		}
		if format != FormatPaths {
			loadMissingContent(records)
		}
		return WriteResults(out, records, format, c.Bool("no-headers"), c.Bool("line-numbers"))
	}

	if !c.Bool("watch") {
		return runOnce(context.Background())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return watchmode.Watch(ctx, watchmode.Options{Root: absRoot}, runOnce)
}

// loadMissingContent reads file content for records a metadata-only
// query left unpopulated, since the plain and JSON formats always dump
// content regardless of which predicates ran. Read failures are ignored:
// the record is emitted with empty content, the same non-fatal handling
// §7 gives any other per-file access failure.
func loadMissingContent(records []orchestrator.Record) {
	for i, r := range records {
		if len(r.Content) > 0 {
			continue
		}
		if content, err := os.ReadFile(r.Path); err == nil {
			records[i].Content = content
		}
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "serve the search core as an MCP tool over stdio",
		Action: func(c *cli.Context) error {
			root, err := filepath.Abs(".")
			if err != nil {
				return err
			}
			cfg, err := config.Load(root)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			profiles, err := lang.Load()
			if err != nil {
				return fmt.Errorf("failed to load language profiles: %w", err)
			}
			registry := predicate.New(semantic.NewEngine(profiles))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				cancel()
			}()

			server := mcpserve.New(registry, cfg.Presets)
			return server.Serve(ctx)
		},
	}
}

func presetCommand() *cli.Command {
	return &cli.Command{
		Name:    "preset",
		Aliases: []string{"p"},
		Usage:   "manage saved presets in the global config file",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list all available presets",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(".")
					if err != nil {
						return err
					}
					names := make([]string, 0, len(cfg.Presets))
					for name := range cfg.Presets {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						fmt.Printf("%s: %s\n", name, cfg.Presets[name])
					}
					return nil
				},
			},
			{
				Name:      "add",
				Usage:     "add or update a preset in the global config file",
				ArgsUsage: "<name> <query>",
				Action: func(c *cli.Context) error {
					name := c.Args().Get(0)
					query := c.Args().Get(1)
					if name == "" || query == "" {
						return fmt.Errorf("usage: rdump preset add <name> <query>")
					}
					return config.SetGlobalPreset(name, query)
				},
			},
			{
				Name:      "remove",
				Usage:     "remove a preset from the global config file",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					name := c.Args().Get(0)
					if name == "" {
						return fmt.Errorf("usage: rdump preset remove <name>")
					}
					return config.RemoveGlobalPreset(name)
				},
			},
		},
	}
}
