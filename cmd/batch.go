package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jcdickinson/ferrisdoc/internal/extract"
	"github.com/jcdickinson/ferrisdoc/internal/output"
	"github.com/jcdickinson/ferrisdoc/internal/rpc"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run every [[packages]] query from the config file",
	Long: `Run the [[packages]] queries of the config file concurrently, loading each
index once. Output is printed in config order; failed queries are reported on
stderr and make the command exit non-zero.`,
	Example: `  ferrisdoc batch --config catalog.toml
  ferrisdoc batch --json > docs.json`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

var (
	batchJSON  bool
	batchFetch bool
)

func init() {
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "output as JSON")
	batchCmd.Flags().BoolVar(&batchFetch, "fetch", false, "download missing indexes from docs.rs")
}

func runBatch(cmd *cobra.Command, args []string) error {
	jobs, err := extract.JobsFromConfig(cfg)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return errors.New("no [[packages]] configured")
	}
	for i := range jobs {
		jobs[i].Fetch = batchFetch
	}

	results := newRunner().Run(cmd.Context(), jobs)

	var failed []error
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", res.Job.Label(), res.Err))
			continue
		}
		slog.Debug("query done", "job", res.Job.Label(), "entries", len(res.Entries))
	}

	p := output.NewPrinter(os.Stdout, cfg.Extract.Separator)
	if batchJSON {
		out := make([]rpc.BatchResult, len(results))
		for i, res := range results {
			out[i] = rpc.NewBatchResult(res)
		}
		if err := p.JSON(out); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if res.Err != nil {
				continue
			}
			if err := p.Banner(res.Job.Label()); err != nil {
				return err
			}
			if err := p.Entries(res.Entries); err != nil {
				return err
			}
		}
	}

	switch len(failed) {
	case 0:
		return nil
	case 1:
		return failed[0]
	default:
		return fmt.Errorf("%d of %d queries failed: %w", len(failed), len(jobs), errors.Join(failed...))
	}
}
