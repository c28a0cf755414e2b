package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/PenHsuanWang/file-data-fetcher/internal/gen"
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a sample data file in the watched folder",
	Long: `Create a sample CSV or Excel file for exercising the pipeline.

Files are named sample_<unix-timestamp>.<ext> and contain name, age and
city columns with randomized rows.

The --slow flag streams CSV output one row at a time with the given delay
between rows, which keeps the file unstable long enough to watch stability
polling hold it back until the write completes.

Example usage:
  fetcher gen --dir ./incoming                  # 3-row CSV
  fetcher gen --dir ./incoming --format xlsx --rows 100
  fetcher gen --dir ./incoming --slow 500ms     # Simulate a slow writer`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		rows, _ := cmd.Flags().GetInt("rows")
		formatName, _ := cmd.Flags().GetString("format")
		seed, _ := cmd.Flags().GetInt64("seed")
		slow, _ := cmd.Flags().GetDuration("slow")

		opts := gen.Options{
			Dir:        dir,
			Rows:       rows,
			Seed:       seed,
			ChunkDelay: slow,
		}

		var path string
		var err error
		switch formatName {
		case "csv":
			path, err = gen.CSV(opts)
		case "xlsx", "excel":
			if slow > 0 {
				fmt.Fprintln(os.Stderr, "Warning: --slow only applies to csv output")
			}
			path, err = gen.Excel(opts)
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown format %q (want csv or xlsx)\n", formatName)
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Sample file created at: %s\n", path)
	},
}

func init() {
	genCmd.Flags().String("dir", ".", "Destination directory")
	genCmd.Flags().Int("rows", 3, "Number of data rows")
	genCmd.Flags().String("format", "csv", "Output format: csv or xlsx")
	genCmd.Flags().Int64("seed", 0, "Random seed (0 seeds from the clock)")
	genCmd.Flags().Duration("slow", 0*time.Second, "Delay between CSV rows to simulate a slow writer")
	rootCmd.AddCommand(genCmd)
}
