package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kriansa/isomount/internal/browser"
	"github.com/kriansa/isomount/internal/config"
	"github.com/kriansa/isomount/internal/lifecycle"
	"github.com/kriansa/isomount/internal/log"
	"github.com/kriansa/isomount/internal/mount"
	"github.com/kriansa/isomount/internal/version"
)

func main() {
	cmd := &cli.Command{
		Name:  "isomount",
		Usage: "Mount and unmount ISO disk images under your home directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-dir",
				Aliases: []string{"b"},
				Usage:   "Base directory for mount points",
			},
			&cli.StringFlag{
				Name:    "options",
				Aliases: []string{"o"},
				Usage:   "Options passed to mount",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file path",
				Value:   config.DefaultPath(),
			},
			&cli.BoolFlag{
				Name:    "no-open",
				Aliases: []string{"n"},
				Usage:   "Do not open the mount point in a file manager",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "version",
				Aliases: []string{"V"},
				Usage:   "Print version information",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "mount",
				Usage:     "Loop-mount an ISO image",
				ArgsUsage: "<image.iso>",
				Action:    runMount,
			},
			{
				Name:      "unmount",
				Usage:     "Unmount a previously mounted ISO image",
				ArgsUsage: "<image.iso>",
				Action:    runUnmount,
			},
		},
		Action: runRoot,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runRoot handles invocations without a valid action
func runRoot(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("version") {
		fmt.Println(version.String())
		return nil
	}

	if cmd.Args().Present() {
		return fmt.Errorf("unknown action %q, use 'mount' or 'unmount'", cmd.Args().First())
	}

	return fmt.Errorf("usage: isomount <mount|unmount> <image.iso>")
}

func runMount(ctx context.Context, cmd *cli.Command) error {
	lc, err := setup(cmd)
	if err != nil {
		return err
	}

	return lc.Mount(cmd.Args().First())
}

func runUnmount(ctx context.Context, cmd *cli.Command) error {
	lc, err := setup(cmd)
	if err != nil {
		return err
	}

	return lc.Unmount(cmd.Args().First())
}

// setup assembles the lifecycle from config file and CLI flags. Flags
// take precedence over the config file.
func setup(cmd *cli.Command) (*lifecycle.Lifecycle, error) {
	if cmd.Args().Len() != 1 {
		return nil, fmt.Errorf("usage: isomount %s <image.iso>", cmd.Name)
	}

	log.Setup(cmd.Bool("verbose"))

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.Merge(
		cmd.String("base-dir"),
		cmd.String("options"),
		cmd.Bool("no-open"),
	)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log.Debug("configuration resolved",
		"base_dir", cfg.BaseDir,
		"mount_options", cfg.MountOptions,
		"no_open", cfg.NoOpen,
	)

	mounter := mount.NewExecMounter(cfg.MountOptions)
	opener := browser.NewDesktopOpener()

	return lifecycle.New(
		cfg.BaseDir,
		mounter,
		opener,
		lifecycle.WithAutoOpen(!cfg.NoOpen),
	), nil
}
