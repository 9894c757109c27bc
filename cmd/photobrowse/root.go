package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for photobrowse.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photobrowse",
		Short: "Page through photo galleries in the terminal",
		Long: `photobrowse pages through photo galleries in the terminal.

A gallery is a YAML manifest, a list of image URLs or files, a directory of
images, or the photos of an HTML page. Images are fetched asynchronously and
only the current page and its two neighbours are kept loaded.

Owner, likes and comments come from a photo API when one is configured and
are cached in a local SQLite database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewViewCmd())
	cmd.AddCommand(NewWarmCmd())
	cmd.AddCommand(NewInspectCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
