package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/thbase/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┬ ┬┌┐ ┌─┐┌─┐┌─┐
   │ ├─┤├┴┐├─┤└─┐├┤
   ┴ ┴ ┴└─┘┴ ┴└─┘└─┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "thbase",
		Short: "Collect and serve base layouts by town hall level",
		Long: `thbase accepts base submissions (a share link, a town hall level,
optional tags and author, and a screenshot) and keeps them as JSON
records per town hall level.

  • Multipart upload form with image validation
  • One category per town hall level (base/baseth<N>.json)
  • File, badger or in-memory record stores
  • Disk or S3 image storage
  • Live feed of new records over WebSocket`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		recordsCmd(),
		watchCmd(),
		initCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if _, ok := errors.As(err); ok {
			errors.Fprint(os.Stderr, err)
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
