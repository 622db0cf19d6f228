package cmd

import (
	"fmt"

	"github.com/byo/bswieckidev-blog/internal/engine"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare the live published site against a fresh local build",
	Long: `Clones the publish repository, builds the site locally, and diffs the two
trees by content hash. Mutates nothing. Exit 0 when in sync, non-zero when
the live site has drifted from the content tree.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}

		eng := &engine.StatusEngine{Config: *cfg, ProjectRoot: root}
		result, err := eng.Status(cmd.Context())
		if err != nil {
			return err
		}

		if result.InSync {
			info("Live site matches the content tree.")
			detail("tree hash %s", result.LocalHash)
			return nil
		}

		for _, p := range result.Delta.Added {
			info("  + %s", p)
		}
		for _, p := range result.Delta.Removed {
			info("  - %s", p)
		}
		for _, p := range result.Delta.Changed {
			info("  ~ %s", p)
		}

		return fmt.Errorf("live site has drifted: %s", result.Delta)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
