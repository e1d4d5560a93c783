// Package main is the entry point for the suggest CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	suggestcli "github.com/dshills/suggest/internal/cli"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "suggest",
		Usage:   "Aggregate completion candidates from several providers",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file (TOML, YAML or JSON); may be repeated",
			},
			&cli.StringFlag{
				Name:    "workspace",
				Aliases: []string{"w"},
				Value:   ".",
				Usage:   "Directory searched for .suggest.{toml,yaml,json} and provider files",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error); overrides the configuration",
				Sources: cli.EnvVars("SUGGEST_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  "color",
				Value: suggestcli.ColorAuto,
				Usage: "Color output: auto, always or never",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "complete",
				Usage:     "List completions for a file position",
				ArgsUsage: "FILE LINE:COLUMN",
				Flags: append(queryFlags(),
					&cli.IntFlag{
						Name:  "resolve",
						Usage: "Resolve item N of the result and print it",
					},
					&cli.IntFlag{
						Name:  "accept",
						Usage: "Accept item N of the result",
					},
					&cli.BoolFlag{
						Name:  "stats",
						Usage: "Print completion metrics after the result",
					},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 2 {
						return fmt.Errorf("complete needs FILE and LINE:COLUMN")
					}
					p := completeParams(cmd)
					p.Resolve = int(cmd.Int("resolve"))
					p.Accept = int(cmd.Int("accept"))
					p.Stats = cmd.Bool("stats")
					return suggestcli.Complete(ctx, p)
				},
			},
			{
				Name:      "resolve",
				Usage:     "Query a file position and resolve item N of the result",
				ArgsUsage: "FILE LINE:COLUMN N",
				Flags:     queryFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					n, err := itemArg(cmd, "resolve")
					if err != nil {
						return err
					}
					p := completeParams(cmd)
					p.Resolve = n
					return suggestcli.Complete(ctx, p)
				},
			},
			{
				Name:      "accept",
				Usage:     "Query a file position and accept item N of the result",
				ArgsUsage: "FILE LINE:COLUMN N",
				Flags:     queryFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					n, err := itemArg(cmd, "accept")
					if err != nil {
						return err
					}
					p := completeParams(cmd)
					p.Accept = n
					return suggestcli.Complete(ctx, p)
				},
			},
			{
				Name:  "providers",
				Usage: "List the registered providers",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return suggestcli.Providers(ctx, commonParams(cmd))
				},
			},
			{
				Name:  "config",
				Usage: "Show the effective configuration",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return suggestcli.Config(ctx, commonParams(cmd))
				},
			},
		},
	}
}

// queryFlags are shared by the subcommands that run a completion query.
func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "lang",
			Aliases: []string{"l"},
			Usage:   "Language id; detected from the file extension when empty",
		},
		&cli.StringFlag{
			Name:    "trigger",
			Aliases: []string{"t"},
			Usage:   "Treat the query as triggered by this character",
		},
		&cli.IntFlag{
			Name:  "limit",
			Value: -1,
			Usage: "Maximum number of items; overrides completion.entriesLimit",
		},
		&cli.BoolFlag{
			Name:  "no-fuzzy",
			Usage: "Return items unfiltered and unscored",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print JSON instead of a table",
		},
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "Write trace spans to stderr",
		},
	}
}

func completeParams(cmd *cli.Command) suggestcli.CompleteParams {
	return suggestcli.CompleteParams{
		CommonParams: commonParams(cmd),
		File:         cmd.Args().Get(0),
		Position:     cmd.Args().Get(1),
		Language:     cmd.String("lang"),
		Trigger:      cmd.String("trigger"),
		Limit:        int(cmd.Int("limit")),
		NoFuzzy:      cmd.Bool("no-fuzzy"),
		JSON:         cmd.Bool("json"),
		Trace:        cmd.Bool("trace"),
	}
}

// itemArg parses the 1-based item number of resolve and accept.
func itemArg(cmd *cli.Command, name string) (int, error) {
	if cmd.Args().Len() != 3 {
		return 0, fmt.Errorf("%s needs FILE, LINE:COLUMN and N", name)
	}
	n, err := strconv.Atoi(cmd.Args().Get(2))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s: invalid item number %q", name, cmd.Args().Get(2))
	}
	return n, nil
}

func commonParams(cmd *cli.Command) suggestcli.CommonParams {
	return suggestcli.CommonParams{
		ConfigFiles: cmd.StringSlice("config"),
		Workspace:   cmd.String("workspace"),
		LogLevel:    cmd.String("log-level"),
		Color:       cmd.String("color"),
		SessionID:   uuid.NewString(),
		Out:         os.Stdout,
		Err:         os.Stderr,
	}
}
