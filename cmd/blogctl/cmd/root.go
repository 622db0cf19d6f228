package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	configPath string
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "blogctl",
	Short: "Build and publish a Markdown blog",
	Long: `blogctl is the build-and-publish pipeline for a static blog. It validates
the Markdown content tree, drives the external static-site generator, and
mirrors the generated output into the hosting repository, committing and
pushing only when the published bytes actually change.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("blogctl %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "site.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "detailed output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "minimal output (errors only)")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
