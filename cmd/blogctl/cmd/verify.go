package cmd

import (
	"fmt"

	"github.com/byo/bswieckidev-blog/internal/engine"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate the content tree and prove it builds reproducibly",
	Long: `Parses every content document (front matter must carry a title and a
parseable date), checks internal references, and runs the generator twice to
confirm the output is byte-identical across builds. Intended as the CI job
for every branch except the trunk; any failure blocks merge. Exit 0 only
when the tree is clean.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}

		eng := &engine.VerifyEngine{Config: *cfg, ProjectRoot: root}
		result, err := eng.Verify(cmd.Context())
		if err != nil {
			return err
		}

		for _, msg := range result.ContentErrors {
			errorf("content: %s", msg)
		}
		for _, p := range result.Problems {
			errorf("broken reference in %s: %s", p.Path, p.Ref)
		}

		if len(result.ContentErrors) > 0 || len(result.Problems) > 0 {
			return fmt.Errorf("%d content error(s), %d broken reference(s)",
				len(result.ContentErrors), len(result.Problems))
		}
		if !result.Reproducible {
			return fmt.Errorf("generator output is not reproducible: two builds of the same content differ; check for embedded timestamps")
		}

		info("  ✓ %d document(s) parsed (%d draft)", result.Documents, result.Drafts)
		info("  ✓ references resolve")
		info("  ✓ build reproducible, %d output file(s)", result.OutputFiles)
		detail("tree hash %s", result.TreeHash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
