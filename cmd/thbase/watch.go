package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/thbase/internal/config"
	"github.com/vango-dev/thbase/internal/errors"
	"github.com/vango-dev/thbase/internal/watch"
	"github.com/vango-dev/thbase/pkg/records"
)

func watchCmd() *cobra.Command {
	var (
		configPath string
		debounce   time.Duration
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow category files as records are appended",
		Long: `Watch the base directory and print a line whenever a category file
changes, with its record count and newest record.

Only the file store keeps categories on disk; the command refuses
to run for other drivers.

Use --quiet to print only the town hall level.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.StoreFile {
				return errors.New("E120").
					WithDetail("watch needs the file store, config uses " + cfg.Store.Driver)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cfg.BasePath(), debounce, quiet)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a config file")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before reporting a change")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the changed th")

	return cmd
}

func runWatch(ctx context.Context, dir string, debounce time.Duration, quiet bool) error {
	store, err := records.NewFileStore(dir)
	if err != nil {
		return errors.New("E304").Wrap(err)
	}

	if !quiet {
		success("Watching %s", dir)
		info("Press Ctrl+C to stop")
		fmt.Println()
	}

	err = watch.Dir(ctx, dir, debounce, func(c watch.Change) {
		if quiet {
			fmt.Println(c.TH)
			return
		}
		if c.Removed {
			warn("th %d: category file removed", c.TH)
			return
		}

		list, err := store.Load(ctx, c.TH)
		if stderrors.Is(err, records.ErrNotFound) {
			warn("th %d: category file removed", c.TH)
			return
		}
		if err != nil {
			warn("th %d: %v", c.TH, err)
			return
		}
		if len(list) == 0 {
			info("th %d: empty", c.TH)
			return
		}
		last := list[len(list)-1]
		success("th %d: %d records, newest #%d %s", c.TH, len(list), last.ID, last.Link)
	})

	if !quiet {
		fmt.Println()
		info("Watch stopped")
	}
	return err
}
