package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/jcdickinson/ferrisdoc/internal/docs"
	"github.com/jcdickinson/ferrisdoc/internal/extract"
	"github.com/jcdickinson/ferrisdoc/internal/output"
	"github.com/jcdickinson/ferrisdoc/internal/rpc"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <module::path>",
	Short: "Print the doc comments of the items under a module path",
	Long: `Print the doc comments of the items at and directly under a module path.
The index is read from --index, or from the stored index of --crate (by default
the first path segment) fetched with "ferrisdoc fetch".`,
	Example: `  ferrisdoc extract --index target/doc/datafusion_expr.json datafusion_expr::expr_fn
  ferrisdoc extract --kind struct serde::de
  ferrisdoc extract --crate tokio@1.40.0 --recursive tokio::sync
  ferrisdoc extract --fetch --json --kind any itertools::Itertools`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var (
	extractIndex      string
	extractCrate      string
	extractKind       string
	extractRecursive  bool
	extractPublicOnly bool
	extractJSON       bool
	extractFetch      bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractIndex, "index", "i", "", "rustdoc JSON file (plain or zstd)")
	extractCmd.Flags().StringVarP(&extractCrate, "crate", "c", "", "stored index to use, as name[@version]")
	extractCmd.Flags().StringVarP(&extractKind, "kind", "k", "", "item kind: "+strings.Join(docs.KindNames(), ", ")+" (default from config: function)")
	extractCmd.Flags().BoolVarP(&extractRecursive, "recursive", "r", false, "include items of nested modules")
	extractCmd.Flags().BoolVar(&extractPublicOnly, "public-only", true, "only include public items")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output as JSON")
	extractCmd.Flags().BoolVar(&extractFetch, "fetch", false, "download the index from docs.rs if it is not stored")
}

func runExtract(cmd *cobra.Command, args []string) error {
	job, err := extractJob(cmd, args[0])
	if err != nil {
		return err
	}

	res := newRunner().Extract(cmd.Context(), job)
	if res.Err != nil {
		return res.Err
	}

	p := output.NewPrinter(os.Stdout, cfg.Extract.Separator)
	if extractJSON {
		return p.JSON(rpc.NewExtractResponse(res))
	}
	return p.Entries(res.Entries)
}

// extractJob builds the job for path from the flags, falling back to the
// configured extract defaults for flags that were not given.
func extractJob(cmd *cobra.Command, path string) (extract.Job, error) {
	flags := cmd.Flags()
	if strings.TrimSpace(path) == "" {
		return extract.Job{}, docs.ErrEmptyPath
	}

	kindName := cfg.Extract.Kind
	if flags.Changed("kind") {
		kindName = extractKind
	}
	kind, err := docs.ParseKind(kindName)
	if err != nil {
		return extract.Job{}, err
	}

	q := docs.Query{
		Path:       path,
		Kind:       kind,
		Recursive:  cfg.Extract.Recursive,
		PublicOnly: cfg.Extract.PublicOnly,
	}
	if flags.Changed("recursive") {
		q.Recursive = extractRecursive
	}
	if flags.Changed("public-only") {
		q.PublicOnly = extractPublicOnly
	}

	job := extract.Job{Index: extractIndex, Fetch: extractFetch, Query: q}
	if job.Index == "" {
		crate := extractCrate
		if crate == "" {
			crate, _, _ = strings.Cut(path, docs.PathSeparator)
			crate = strings.TrimSpace(crate)
		}
		job.Crate, job.Version, _ = strings.Cut(crate, "@")
		if job.Crate == "" {
			return extract.Job{}, errors.New("no index: pass --index or --crate")
		}
	}
	return job, nil
}
