package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/buildinspect/buildinspect/internal/config"
	"github.com/buildinspect/buildinspect/internal/facade"
	"github.com/buildinspect/buildinspect/internal/log"
	"github.com/buildinspect/buildinspect/internal/transport"
	"github.com/buildinspect/buildinspect/internal/version"
)

var Version = version.Version

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", c.String("config"), err)
	}
	if root := c.String("download-root"); root != "" {
		cfg.DownloadRoot = root
	}
	return cfg, nil
}

func rootContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	app := &cli.App{
		Name:    "buildinspect",
		Usage:   "inspect shipped Android builds of a game engine from the build artifacts alone",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   ".buildinspect.kdl",
			},
			&cli.StringFlag{
				Name:  "download-root",
				Usage: "Override the persisted-artifact root directory",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable component-tagged debug logging to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				log.SetOutput(os.Stderr)
				log.EnableDebug = "true"
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "run one analysis pass over the given archives and print a report",
				ArgsUsage: "<archive.apk> [expansion.obb ...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "output format: text or json",
						Value: "text",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("at least one archive path is required", 1)
					}
					cfg, err := loadConfig(c)
					if err != nil {
						return cli.Exit(err, 1)
					}

					ctx, cancel := rootContext()
					defer cancel()

					f := facade.New(cfg, transport.NullTransport{})
					result, err := f.Analyze(ctx, c.Args().Slice())
					if err != nil {
						return cli.Exit(err, 1)
					}

					switch c.String("format") {
					case "json":
						out, err := result.JSON()
						if err != nil {
							return cli.Exit(err, 1)
						}
						fmt.Println(string(out))
					default:
						fmt.Print(result.Text())
					}
					return nil
				},
			},
			{
				Name:      "extract",
				Usage:     "run an analysis and report only the two persisted artifact paths",
				ArgsUsage: "<archive.apk> [expansion.obb ...]",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("at least one archive path is required", 1)
					}
					cfg, err := loadConfig(c)
					if err != nil {
						return cli.Exit(err, 1)
					}

					ctx, cancel := rootContext()
					defer cancel()

					f := facade.New(cfg, transport.NullTransport{})
					result, err := f.Analyze(ctx, c.Args().Slice())
					if err != nil {
						return cli.Exit(err, 1)
					}

					fmt.Printf("metadata: %s\n", result.PersistedMetadataPath)
					fmt.Printf("manifest: %s\n", result.PersistedManifestPath)
					return nil
				},
			},
			{
				Name:      "watch",
				Usage:     "re-run analysis whenever the given archives change on disk",
				ArgsUsage: "<archive.apk> [expansion.obb ...]",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "how long to wait after a write before re-analyzing",
						Value: 500 * time.Millisecond,
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("at least one archive path is required", 1)
					}
					cfg, err := loadConfig(c)
					if err != nil {
						return cli.Exit(err, 1)
					}

					ctx, cancel := rootContext()
					defer cancel()

					archivePaths := c.Args().Slice()
					f := facade.New(cfg, transport.NullTransport{})

					runOnce := func() {
						result, err := f.Analyze(ctx, archivePaths)
						if err != nil {
							fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
							return
						}
						fmt.Print(result.Text())
					}
					runOnce()

					w, err := facade.NewWatcher(archivePaths, c.Duration("debounce"), func(string) {
						runOnce()
					})
					if err != nil {
						return cli.Exit(err, 1)
					}
					defer w.Close()

					if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						return cli.Exit(err, 1)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
