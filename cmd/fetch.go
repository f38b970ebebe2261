package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch crate[@version] ...",
	Short: "Download rustdoc JSON from docs.rs",
	Long:  `Download the rustdoc JSON docs.rs built for each crate and store it for "extract --crate". Version defaults to "latest".`,
	Example: `  ferrisdoc fetch serde
  ferrisdoc fetch datafusion-expr@43.0.0 tokio`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	runner := newRunner()

	var failed int
	for _, arg := range args {
		name, version, _ := strings.Cut(arg, "@")
		path, err := runner.Fetch(cmd.Context(), name, version)
		if err != nil {
			fmt.Printf("  %s: error: %v\n", arg, err)
			failed++
			continue
		}
		fmt.Printf("  %s: %s\n", arg, path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d fetches failed", failed, len(args))
	}
	return nil
}
