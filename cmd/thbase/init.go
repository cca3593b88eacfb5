package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/thbase/internal/config"
	"github.com/vango-dev/thbase/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		format string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default config file",
		Long: `Write a thbase config file with the default settings and create the
image and base directories next to it.

Examples:
  thbase init
  thbase init ./deploy --format=yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(dir, format, force)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Config format: json or yaml")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func runInit(dir, format string, force bool) error {
	name := config.ConfigFileName
	switch format {
	case "json":
	case "yaml", "yml":
		name = "thbase.yaml"
	default:
		return errors.New("E120").
			WithDetail("Unknown format " + format).
			WithSuggestion("Use --format=json or --format=yaml")
	}

	if config.Exists(dir) && !force {
		return errors.New("E121").
			WithDetail("A config file already exists in " + dir).
			WithSuggestion("Pass --force to overwrite it")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	cfg := config.New()
	path := filepath.Join(dir, name)
	if err := cfg.SaveTo(path); err != nil {
		return err
	}
	success("Wrote %s", path)

	for _, d := range []string{cfg.ImagePath(), cfg.BasePath()} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
		info("Created %s", d)
	}
	return nil
}
