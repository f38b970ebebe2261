package cmd

import (
	"fmt"
	"os"

	"github.com/jcdickinson/ferrisdoc/internal/config"
	"github.com/jcdickinson/ferrisdoc/internal/docs"
	"github.com/jcdickinson/ferrisdoc/internal/output"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage indexes downloaded with fetch",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show stored indexes",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [crate ...]",
	Short: "Delete stored indexes, all of them when no crate is given",
	RunE:  runCacheClear,
}

var cacheJSON bool

func init() {
	cacheListCmd.Flags().BoolVar(&cacheJSON, "json", false, "output as JSON")
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheList(cmd *cobra.Command, args []string) error {
	stored, err := docs.ListIndexes(config.IndexDir())
	if err != nil {
		return err
	}

	if cacheJSON {
		if stored == nil {
			stored = []docs.StoredIndex{}
		}
		return output.NewPrinter(os.Stdout, "").JSON(stored)
	}

	if len(stored) == 0 {
		fmt.Println("no indexes stored")
		return nil
	}
	for _, s := range stored {
		fmt.Printf("  %s@%s (%d KiB)\n", s.Crate, s.Version, s.Size/1024)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	n, err := docs.RemoveIndexes(config.IndexDir(), args...)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d index(es)\n", n)
	return nil
}
