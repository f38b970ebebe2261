package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jcdickinson/ferrisdoc/internal/docs"
	"github.com/jcdickinson/ferrisdoc/internal/output"
	"github.com/spf13/cobra"
)

var reexportsCmd = &cobra.Command{
	Use:   "reexports <crate[@version] | index.json>",
	Short: "List the items a crate makes visible under another path",
	Example: `  ferrisdoc reexports datafusion_expr
  ferrisdoc reexports --json target/doc/mycrate.json`,
	Args: cobra.ExactArgs(1),
	RunE: runReexports,
}

var reexportsJSON bool

func init() {
	reexportsCmd.Flags().BoolVar(&reexportsJSON, "json", false, "output as JSON")
}

func runReexports(cmd *cobra.Command, args []string) error {
	runner := newRunner()

	path := args[0]
	if _, err := os.Stat(path); err != nil {
		name, version, _ := strings.Cut(path, "@")
		if path, err = runner.Locate(name, version); err != nil {
			return err
		}
	}
	g, err := runner.Load(path)
	if err != nil {
		return err
	}

	reexports := docs.CollectReexports(g)
	if reexportsJSON {
		return output.NewPrinter(os.Stdout, "").JSON(reexports)
	}
	if len(reexports) == 0 {
		fmt.Println("no re-exports")
		return nil
	}
	for _, re := range reexports {
		target := re.SourcePrefix
		if re.Glob {
			target += "::*"
		}
		state := ""
		if !re.Resolvable {
			state = " [not in index]"
		}
		fmt.Printf("  %s -> %s (%s)%s\n", re.LocalPrefix, target, re.SourceCrate, state)
	}
	return nil
}
