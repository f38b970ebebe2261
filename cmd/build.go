package cmd

import (
	"fmt"
	"os"

	"github.com/jcdickinson/ferrisdoc/internal/cargo"
	"github.com/jcdickinson/ferrisdoc/internal/docs"
	"github.com/jcdickinson/ferrisdoc/internal/output"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [package]",
	Short: "Generate rustdoc JSON for a package of a cargo workspace",
	Long: `Run "cargo +nightly rustdoc ... --output-format json" for a package and print
the path of the generated index. With --extract, print the doc comments under
that module path right away.`,
	Example: `  ferrisdoc build datafusion-expr
  ferrisdoc build --manifest-path ../datafusion/Cargo.toml --extract datafusion_expr::expr_fn datafusion-expr`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

var (
	buildManifest  string
	buildToolchain string
	buildExtract   string
)

func init() {
	buildCmd.Flags().StringVar(&buildManifest, "manifest-path", "", "path to Cargo.toml (default from config)")
	buildCmd.Flags().StringVar(&buildToolchain, "toolchain", "", "rustup toolchain emitting rustdoc JSON (default from config: nightly)")
	buildCmd.Flags().StringVar(&buildExtract, "extract", "", "module path to extract from the generated index")
}

func runBuild(cmd *cobra.Command, args []string) error {
	manifest := cfg.Build.ManifestPath
	if cmd.Flags().Changed("manifest-path") {
		manifest = buildManifest
	}
	toolchain := cfg.Build.Toolchain
	if cmd.Flags().Changed("toolchain") {
		toolchain = buildToolchain
	}

	var pkg string
	if len(args) == 1 {
		pkg = args[0]
	}

	b := cargo.NewBuilder(manifest, toolchain, cfg.Build.AllFeatures)
	path, err := b.Build(cmd.Context(), pkg)
	if err != nil {
		return fmt.Errorf("building rustdoc JSON: %w", err)
	}

	if buildExtract == "" {
		fmt.Println(path)
		return nil
	}

	kind, err := docs.ParseKind(cfg.Extract.Kind)
	if err != nil {
		return err
	}
	g, err := docs.Load(path)
	if err != nil {
		return err
	}
	entries, err := docs.Extract(g, docs.Query{
		Path:       buildExtract,
		Kind:       kind,
		Recursive:  cfg.Extract.Recursive,
		PublicOnly: cfg.Extract.PublicOnly,
	})
	if err != nil {
		return err
	}
	return output.NewPrinter(os.Stdout, cfg.Extract.Separator).Entries(entries)
}
