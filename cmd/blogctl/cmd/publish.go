package cmd

import (
	"github.com/byo/bswieckidev-blog/internal/engine"
	"github.com/spf13/cobra"
)

var (
	publishDryRun         bool
	publishAllowAnyBranch bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Regenerate the site and mirror it into the hosting repository",
	Long: `Clones the publish repository fresh, clears its working tree, writes the
custom-domain marker, regenerates the site into it, and commits and pushes
only if the generated tree differs from what is already published. Intended
as the trunk-only CI job; rerunning it without a content change is a
guaranteed no-op on the remote.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}

		eng := &engine.PublishEngine{Config: *cfg, ProjectRoot: root}
		opts := engine.PublishOptions{
			DryRun:         publishDryRun,
			AllowAnyBranch: publishAllowAnyBranch,
		}
		result, err := eng.Publish(cmd.Context(), opts)
		if err != nil {
			return err
		}

		detail("run %s on branch %s", result.RunID, result.Branch)

		if result.NoOp {
			info("Nothing to publish; the live site already matches the content tree.")
			return nil
		}

		for _, c := range result.Changes {
			detail("%-8s %s", c.Action, c.Path)
		}

		if result.DryRun {
			info("Dry run — %d change(s) detected, nothing committed.", len(result.Changes))
			return nil
		}

		info("Published %d change(s) as commit %s.", len(result.Changes), short(result.Commit))
		return nil
	},
}

func short(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func init() {
	publishCmd.Flags().BoolVar(&publishDryRun, "dry-run", false, "compute the diff but commit and push nothing")
	publishCmd.Flags().BoolVar(&publishAllowAnyBranch, "allow-any-branch", false, "publish even when not on the trunk branch")
	rootCmd.AddCommand(publishCmd)
}
