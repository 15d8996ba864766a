package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	verbose bool

	// near
	nearFile         string
	nearLng, nearLat float64
	nearMaxMeters    float64

	// import
	importFile  string
	importBatch int

	// bench
	benchPoints  int
	benchQueries int
	benchRadius  float64
	benchWorkers int
)

var rootCmd = &cobra.Command{
	Use:   "sellerctl",
	Short: "Offline tools for the nearby sellers service",
	Long:  `Rank sellers from a file, bulk-import them into Postgres, or benchmark the in-memory index.`,
}

var nearCmd = &cobra.Command{
	Use:   "near",
	Short: "Rank sellers from a JSON file by distance to a point",
	Long:  `Load sellers from a JSON array into a fresh index and print those within --max-distance meters of --lng/--lat, nearest first. A negative --max-distance ranks every seller.`,
	RunE:  runNear,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-load sellers from a JSON file into Postgres",
	Long:  `Validate every seller in the file, assign missing IDs and insert them in batches. Rows whose ID already exists are skipped.`,
	RunE:  runImport,
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark index inserts and radius queries",
	Long:  `Insert random sellers concurrently, then run random radius queries and report throughput.`,
	RunE:  runBench,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	nearCmd.Flags().StringVarP(&nearFile, "file", "f", "sellers.json", "JSON file with an array of sellers")
	nearCmd.Flags().Float64Var(&nearLng, "lng", 0, "Query longitude")
	nearCmd.Flags().Float64Var(&nearLat, "lat", 0, "Query latitude")
	nearCmd.Flags().Float64VarP(&nearMaxMeters, "max-distance", "d", 5000, "Radius in meters, negative for no limit")
	_ = nearCmd.MarkFlagRequired("lng")
	_ = nearCmd.MarkFlagRequired("lat")

	importCmd.Flags().StringVarP(&importFile, "file", "f", "sellers.json", "JSON file with an array of sellers")
	importCmd.Flags().IntVarP(&importBatch, "batch", "b", 500, "Rows per batch")

	benchCmd.Flags().IntVarP(&benchPoints, "points", "p", 100000, "Number of sellers to generate")
	benchCmd.Flags().IntVarP(&benchQueries, "queries", "q", 10000, "Number of queries to run")
	benchCmd.Flags().Float64VarP(&benchRadius, "radius", "r", 50.0, "Search radius in km")
	benchCmd.Flags().IntVarP(&benchWorkers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines")

	rootCmd.AddCommand(nearCmd, importCmd, benchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
