package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vango-dev/thbase/internal/config"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the thbase version, its build details and the storage
drivers and defaults compiled into this binary.`,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(version)
				return
			}

			printBanner()
			writeVersion(os.Stdout, config.New())
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}

// writeVersion prints the build details followed by the defaults of cfg.
func writeVersion(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Version:    %s (%s, built %s)\n", version, commit, date)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Records:    %s (available: %s)\n", cfg.Store.Driver,
		strings.Join([]string{config.StoreFile, config.StoreBadger, config.StoreMemory}, ", "))
	fmt.Fprintf(w, "  Images:     %s (available: %s)\n", cfg.Images.Driver,
		strings.Join([]string{config.ImagesDisk, config.ImagesS3}, ", "))
	fmt.Fprintf(w, "  Max upload: %s\n", humanize.IBytes(uint64(cfg.Upload.MaxFileSize)))
	fmt.Fprintf(w, "  Port:       %d\n", cfg.Port)
	fmt.Fprintln(w)
}
