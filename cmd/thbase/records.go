package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/thbase/internal/config"
	"github.com/vango-dev/thbase/internal/errors"
	"github.com/vango-dev/thbase/pkg/records"
)

func recordsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect stored records",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file")

	list := &cobra.Command{
		Use:   "list [th]",
		Short: "List categories, or the records of one category",
		Long: `Without an argument, list every town hall level with its record count.
With a th argument, print the records of that category.

Examples:
  thbase records list
  thbase records list 14`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if len(args) == 0 {
				return listCategories(ctx, store)
			}
			th, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.New("E120").WithDetail("th must be an integer, got " + strconv.Quote(args[0]))
			}
			return listRecords(ctx, store, th)
		},
	}

	cmd.AddCommand(list)
	return cmd
}

// openStore opens the configured record store read-write. The memory driver
// has nothing to inspect, so the file store is used instead.
func openStore(cfg *config.Config) (records.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreBadger:
		return records.OpenBadgerStore(cfg.BadgerPath())
	default:
		return records.NewFileStore(cfg.BasePath())
	}
}

func listCategories(ctx context.Context, store records.Store) error {
	ths, err := store.Categories(ctx)
	if err != nil {
		return errors.New("E304").Wrap(err)
	}
	if len(ths) == 0 {
		warn("No records yet")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TH\tRECORDS\tLAST ID")
	for _, th := range ths {
		list, err := store.Load(ctx, th)
		if err != nil {
			fmt.Fprintf(tw, "%d\t-\t%s\n", th, err)
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\n", th, len(list), records.NextID(list)-1)
	}
	return tw.Flush()
}

func listRecords(ctx context.Context, store records.Store, th int) error {
	list, err := store.Load(ctx, th)
	if stderrors.Is(err, records.ErrNotFound) {
		return errors.New("E303").WithDetail("No records for th " + strconv.Itoa(th))
	}
	if err != nil {
		return errors.New("E304").Wrap(err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLINK\tTYPES\tAUTHOR\tIMAGE")
	for _, r := range list {
		image := "-"
		if r.Image != nil {
			image = *r.Image
		}
		author := r.Author.Name
		if r.Author.Tag != "" {
			author += " " + r.Author.Tag
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.Link, strings.Join(r.BaseType, ","), author, image)
	}
	return tw.Flush()
}
