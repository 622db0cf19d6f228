package cmd

import (
	"github.com/byo/bswieckidev-blog/internal/manifest"
	"github.com/byo/bswieckidev-blog/internal/site"
	"github.com/spf13/cobra"
)

var (
	buildOut          string
	buildManifestPath string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the site locally into the generator's output directory",
	Long: `Runs the generator once against the content tree, leaving the output in the
configured output directory (or copying it to --out). Useful for local
preview; publishing always regenerates from scratch and never reuses this
output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}

		gen := site.Generator{
			Command:   cfg.Generator.Command,
			Args:      cfg.Generator.Args,
			OutputDir: cfg.Generator.OutputDir,
		}
		out, err := gen.Build(cmd.Context(), root)
		if err != nil {
			return err
		}

		if buildOut != "" {
			if err := site.CopyTree(out, buildOut); err != nil {
				return err
			}
			out = buildOut
		}

		m, err := manifest.Build(out)
		if err != nil {
			return err
		}

		if buildManifestPath != "" {
			if err := manifest.Save(buildManifestPath, m); err != nil {
				return err
			}
			detail("manifest written to %s", buildManifestPath)
		}

		info("Built %d file(s) into %s.", len(m.Files), out)
		detail("tree hash %s", m.TreeHash)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildOut, "out", "", "copy the generated output into this directory")
	buildCmd.Flags().StringVar(&buildManifestPath, "manifest", "", "also write a content-hash manifest of the output tree")
	rootCmd.AddCommand(buildCmd)
}
