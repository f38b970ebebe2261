package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jcdickinson/ferrisdoc/internal/config"
	"github.com/jcdickinson/ferrisdoc/internal/docs"
	"github.com/jcdickinson/ferrisdoc/internal/extract"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	verbose    bool
	configFile string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ferrisdoc",
	Short: "Extract Rust doc comments from rustdoc JSON",
	Long: `Extract the doc comments of the items under a module path from a crate's
rustdoc JSON, following re-exports. The first path segment is the crate name.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verbose)

		var err error
		cfg, err = config.LoadFile(configFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command and exits with the code of its error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ferrisdoc: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log resolution details to stderr")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./config.toml or $XDG_CONFIG_HOME/ferrisdoc/config.toml)")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(reexportsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(mcpCmd)
}

func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// exitCode maps the failure classes of an extraction onto distinct codes.
func exitCode(err error) int {
	var (
		loadErr     *docs.IndexLoadError
		schemaErr   *docs.SchemaMismatchError
		notFoundErr *docs.PathNotFoundError
	)
	switch {
	case errors.As(err, &schemaErr):
		return 3
	case errors.As(err, &loadErr):
		return 2
	case errors.As(err, &notFoundErr):
		return 4
	default:
		return 1
	}
}

func newRunner() *extract.Runner {
	fetcher := docs.NewFetcher(time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second)
	return extract.NewRunner(config.IndexDir(), cfg.Batch.Concurrency, fetcher)
}
