// Command fetcher watches a folder for tabular data files and forwards
// their records to a configured backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fetcher",
	Short: "Watch a folder for data files and persist their records",
	Long: `fetcher monitors a folder for incoming CSV and Excel files, waits until
each file has finished writing, and forwards its parsed records to a
persistence backend.

A file is considered finished when two consecutive stability polls observe
identical size and modification time. Files re-dropped with identical
content are skipped via a content fingerprint, so upstream systems can
safely re-export without creating duplicates.

Supported backends: sqlite, postgres, mongodb, snowflake.

Example usage:
  fetcher watch --config fetcher.yaml     # Start watching
  fetcher watch --folder ./incoming --dry-run
  fetcher gen --dir ./incoming            # Drop a sample CSV file`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
