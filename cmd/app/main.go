package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/timemachine/internal"
	pkgconfig "github.com/starford/timemachine/pkg/config"
)

var version = "dev"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOrDefault(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// commonOptions turns the flags shared by show and browse into options.
func commonOptions(cmd *cli.Command, cfg *internal.Config) ([]internal.Option, error) {
	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithoutCache(cmd.Bool("no-cache")),
	}
	if at := cmd.String("at"); at != "" {
		ref, err := time.ParseInLocation("2006-01-02", at, time.Local)
		if err != nil {
			return nil, fmt.Errorf("--at must be YYYY-MM-DD: %w", err)
		}
		opts = append(opts, internal.WithReferenceDate(ref))
	}
	return opts, nil
}

func reportFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:  "at",
			Usage: "Reference date (YYYY-MM-DD), defaults to today",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Read the vault directly instead of the date cache",
		},
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func show(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := commonOptions(cmd, cfg)
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithJSON(cmd.Bool("json")))
	return internal.Show(ctx, opts...)
}

func browse(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := commonOptions(cmd, cfg)
	if err != nil {
		return err
	}
	return internal.Browse(ctx, opts...)
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func main() {
	cmd := &cli.Command{
		Name:    "timemachine",
		Usage:   "Resurface the notes you wrote a week, a month, a year ago",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with live updates",
				Flags:  []cli.Flag{configFlag()},
				Action: serve,
			},
			{
				Name:  "show",
				Usage: "Print the time machine report",
				Flags: append(reportFlags(), &cli.BoolFlag{
					Name:  "json",
					Usage: "Print the report as JSON",
				}),
				Action: show,
			},
			{
				Name:   "browse",
				Usage:  "Browse the report in the terminal and open notes in $EDITOR",
				Flags:  reportFlags(),
				Action: browse,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Flags:  []cli.Flag{configFlag()},
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
