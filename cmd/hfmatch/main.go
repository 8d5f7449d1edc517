package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hfmatch/internal/config"
	"github.com/hfmatch/internal/logging"
	"github.com/hfmatch/internal/match"
	"github.com/hfmatch/internal/pipeline"
	"github.com/hfmatch/internal/schema"
	"github.com/hfmatch/internal/store"
	"github.com/hfmatch/internal/table"
	"github.com/hfmatch/internal/web"
	"github.com/hfmatch/internal/web/handlers"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "hfmatch",
		Short: "Health facility record matching and standardization",
		Long:  `Fuzzy record linkage for Ethiopian administrative datasets: merge two facility lists on region, zone, woreda, and facility name, or standardize a dataset against a canonical reference`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")

	rootCmd.AddCommand(createMergeCmd())
	rootCmd.AddCommand(createCorrectCmd())
	rootCmd.AddCommand(createTuneCmd())
	rootCmd.AddCommand(createRegistryCmd())
	rootCmd.AddCommand(createServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to read .env file: %v", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func mustLogger(cfg *config.Config) *zap.Logger {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	return logger
}

// readInput loads a dataset by extension: workbooks through the Excel
// reader, everything else as CSV.
func readInput(path string) *table.Table {
	var tbl *table.Table
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		tbl, err = table.ReadExcelFile(path)
	default:
		tbl, err = table.ReadCSVFile(path)
	}
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}
	return tbl
}

func writeOutput(dir, name string, tbl *table.Table) {
	path := filepath.Join(dir, name)
	if err := table.WriteCSVFile(path, tbl); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
	fmt.Printf("Wrote %s (%d rows)\n", path, tbl.Len())
}

func createMergeCmd() *cobra.Command {
	var dataset1, dataset2, outDir string
	var threshold int
	var xlsx bool

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge two datasets on fuzzy composite keys",
		Long:  `Match every dataset 1 row against dataset 2 on the combined region, zone, woreda, and facility key, then write the merged rows and both unmatched remainders`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			if cmd.Flags().Changed("threshold") {
				cfg.Matching.Threshold = threshold
			}
			logger := mustLogger(cfg)
			defer logger.Sync()

			left := readInput(dataset1)
			right := readInput(dataset2)

			run, err := pipeline.New(cfg, logger).Merge(left, right)
			if err != nil {
				log.Fatalf("Merge failed: %v", err)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				log.Fatalf("Failed to create output directory: %v", err)
			}

			if xlsx {
				path := filepath.Join(outDir, "merged_data.xlsx")
				sheets := []table.Sheet{
					{Name: "Merged Data", Table: run.Output.Merged},
					{Name: "Unmatched (Dataset 1)", Table: run.Output.UnmatchedLeft},
					{Name: "Unmatched (Dataset 2)", Table: run.Output.UnmatchedRight},
				}
				if err := table.WriteExcelFile(path, sheets); err != nil {
					log.Fatalf("Failed to write %s: %v", path, err)
				}
				fmt.Printf("Wrote %s\n", path)
			} else {
				writeOutput(outDir, "merged_data.csv", run.Output.Merged)
				writeOutput(outDir, "unmatched_dataset1.csv", run.Output.UnmatchedLeft)
				writeOutput(outDir, "unmatched_dataset2.csv", run.Output.UnmatchedRight)
			}

			fmt.Printf("\n=== Merge Results ===\n")
			fmt.Printf("Dataset 1 Rows: %d\n", run.Stats.LeftRows)
			fmt.Printf("Dataset 2 Rows: %d\n", run.Stats.RightRows)
			fmt.Printf("Merged: %d\n", run.Stats.Matched)
			fmt.Printf("Unmatched (Dataset 1): %d\n", run.Stats.UnmatchedLeft)
			fmt.Printf("Unmatched (Dataset 2): %d\n", run.Stats.UnmatchedRight)
			fmt.Printf("Threshold: %d\n", run.Stats.Thresholds.Primary)
			if run.Stats.LeftRows > 0 {
				fmt.Printf("Match Rate: %.2f%%\n", float64(run.Stats.Matched)/float64(run.Stats.LeftRows)*100)
			}
			if run.Stats.EmptyPool {
				fmt.Printf("Warning: dataset 2 had no usable rows, nothing could match\n")
			}
			fmt.Printf("Duration: %s\n", run.Stats.Duration.Round(time.Millisecond))
		},
	}

	cmd.Flags().StringVar(&dataset1, "dataset1", "", "First dataset (CSV or Excel)")
	cmd.Flags().StringVar(&dataset2, "dataset2", "", "Second dataset (CSV or Excel)")
	cmd.Flags().StringVar(&outDir, "out", "out", "Output directory")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Primary match threshold, 0-100 (overrides config)")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "Write one Excel workbook instead of three CSV files")
	cmd.MarkFlagRequired("dataset1")
	cmd.MarkFlagRequired("dataset2")

	return cmd
}

func createCorrectCmd() *cobra.Command {
	var dataset, reference, outDir string
	var threshold, multiLevel int
	var useRegistry, xlsx bool

	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Standardize a dataset against a canonical reference",
		Long:  `Rewrite misspelled region, zone, and woreda values using a reference list: the region and zone pair must clear the multi-level threshold before the woreda is corrected within that pair`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			if cmd.Flags().Changed("threshold") {
				cfg.Matching.Threshold = threshold
			}
			if cmd.Flags().Changed("multi-level-threshold") {
				cfg.Matching.MultiLevelThreshold = multiLevel
			}
			logger := mustLogger(cfg)
			defer logger.Sync()

			input := readInput(dataset)

			var ref *table.Table
			switch {
			case useRegistry:
				ctx := context.Background()
				st, err := store.Open(ctx, cfg.Database, logger)
				if err != nil {
					log.Fatalf("Failed to connect to registry database: %v", err)
				}
				defer st.Close()

				ref, err = st.FetchAll(ctx)
				if err != nil {
					log.Fatalf("Failed to fetch registry: %v", err)
				}
			case reference != "":
				ref = readInput(reference)
			default:
				log.Fatalf("Either --reference or --registry is required")
			}

			run, err := pipeline.New(cfg, logger).Correct(input, ref)
			if err != nil {
				log.Fatalf("Correction failed: %v", err)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				log.Fatalf("Failed to create output directory: %v", err)
			}

			if xlsx {
				path := filepath.Join(outDir, "corrected_data.xlsx")
				sheets := []table.Sheet{
					{Name: "Corrected Data", Table: run.Output.Corrected},
					{Name: "Unmatched Rows", Table: run.Output.Unmatched},
				}
				if err := table.WriteExcelFile(path, sheets); err != nil {
					log.Fatalf("Failed to write %s: %v", path, err)
				}
				fmt.Printf("Wrote %s\n", path)
			} else {
				writeOutput(outDir, "corrected_data.csv", run.Output.Corrected)
				writeOutput(outDir, "unmatched_rows.csv", run.Output.Unmatched)
			}

			fmt.Printf("\n=== Correction Results ===\n")
			fmt.Printf("Input Rows: %d\n", run.Stats.LeftRows)
			fmt.Printf("Standardized: %d\n", run.Stats.Matched)
			fmt.Printf("Unmatched: %d\n", run.Stats.UnmatchedLeft)
			fmt.Printf("Region+Zone Threshold: %d\n", run.Stats.Thresholds.MultiLevel)
			fmt.Printf("Woreda Threshold: %d\n", run.Stats.Thresholds.Primary)
			if run.Stats.EmptyPool {
				fmt.Printf("Warning: the reference had no usable rows, nothing could match\n")
			}
			fmt.Printf("Duration: %s\n", run.Stats.Duration.Round(time.Millisecond))
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset to standardize (CSV or Excel)")
	cmd.Flags().StringVar(&reference, "reference", "", "Canonical reference list (CSV or Excel)")
	cmd.Flags().BoolVar(&useRegistry, "registry", false, "Correct against the loaded facility registry")
	cmd.Flags().StringVar(&outDir, "out", "out", "Output directory")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Woreda threshold, 0-100 (overrides config)")
	cmd.Flags().IntVar(&multiLevel, "multi-level-threshold", 0, "Region+zone threshold, 0-100 (overrides config)")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "Write one Excel workbook instead of two CSV files")
	cmd.MarkFlagRequired("dataset")

	return cmd
}

func createTuneCmd() *cobra.Command {
	var dataset1, dataset2 string
	var min, max, step int

	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Sweep the match threshold over a dataset pair",
		Long:  `Run the merge once per threshold setting and report match counts, so an operator can pick a threshold before committing to a merge`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			logger := mustLogger(cfg)
			defer logger.Sync()

			left := readInput(dataset1)
			right := readInput(dataset2)

			tuner := match.NewTuner(logger)
			tuner.Min, tuner.Max, tuner.Step = min, max, step

			points, err := pipeline.New(cfg, logger).Tune(left, right, tuner)
			if err != nil {
				log.Fatalf("Threshold sweep failed: %v", err)
			}

			fmt.Printf("\n=== Threshold Sweep ===\n")
			fmt.Println("Threshold | Matched | Unmatched 1 | Unmatched 2 | Match Rate | Mean Score | Time")
			fmt.Println("----------|---------|-------------|-------------|------------|------------|------")
			for _, p := range points {
				fmt.Printf("   %3d    | %7d |   %7d   |   %7d   |   %5.1f%%   |   %6.2f   | %s\n",
					p.Threshold,
					p.Matched,
					p.UnmatchedLeft,
					p.UnmatchedRight,
					p.MatchRate*100,
					p.MeanScore,
					p.Duration.Round(time.Millisecond))
			}
		},
	}

	cmd.Flags().StringVar(&dataset1, "dataset1", "", "First dataset (CSV or Excel)")
	cmd.Flags().StringVar(&dataset2, "dataset2", "", "Second dataset (CSV or Excel)")
	cmd.Flags().IntVar(&min, "min", 50, "Lowest threshold to test")
	cmd.Flags().IntVar(&max, "max", 100, "Highest threshold to test")
	cmd.Flags().IntVar(&step, "step", 5, "Threshold increment")
	cmd.MarkFlagRequired("dataset1")
	cmd.MarkFlagRequired("dataset2")

	return cmd
}

func createRegistryCmd() *cobra.Command {
	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the canonical facility registry",
		Long:  `Load and inspect the Postgres-backed gazetteer that registry corrections run against`,
	}

	registryCmd.AddCommand(createRegistryLoadCmd())
	registryCmd.AddCommand(createRegistryStatsCmd())

	return registryCmd
}

func createRegistryLoadCmd() *cobra.Command {
	var file string
	var replace bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a gazetteer file into the registry",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			logger := mustLogger(cfg)
			defer logger.Sync()

			tbl := readInput(file)

			ctx := context.Background()
			st, err := store.Open(ctx, cfg.Database, logger)
			if err != nil {
				log.Fatalf("Failed to connect to registry database: %v", err)
			}
			defer st.Close()

			if err := st.EnsureSchema(ctx); err != nil {
				log.Fatalf("Failed to prepare registry schema: %v", err)
			}

			n, err := st.Load(ctx, tbl, resolveRegistryColumns(cfg, tbl), replace)
			if err != nil {
				log.Fatalf("Failed to load registry: %v", err)
			}

			fmt.Printf("Loaded %d registry rows from %s\n", n, file)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Gazetteer file (CSV or Excel)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Truncate the registry before loading")
	cmd.MarkFlagRequired("file")

	return cmd
}

// resolveRegistryColumns requires region, zone, and woreda; the facility
// column loads only when the gazetteer has one.
func resolveRegistryColumns(cfg *config.Config, tbl *table.Table) schema.Mapping {
	rc := schema.DefaultResolverConfig()
	rc.Threshold = cfg.Matching.ColumnThreshold
	resolver := schema.NewResolver(rc)

	mapping, err := resolver.Resolve("registry", tbl.Headers, schema.CorrectionFields())
	if err != nil {
		log.Fatalf("Failed to resolve registry columns: %v", err)
	}
	if facility, err := resolver.Resolve("registry", tbl.Headers, []schema.LogicalField{schema.FieldFacility}); err == nil {
		mapping.Bindings = append(mapping.Bindings, facility.Bindings...)
	}
	return mapping
}

func createRegistryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show registry row counts",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			logger := mustLogger(cfg)
			defer logger.Sync()

			ctx := context.Background()
			st, err := store.Open(ctx, cfg.Database, logger)
			if err != nil {
				log.Fatalf("Failed to connect to registry database: %v", err)
			}
			defer st.Close()

			stats, err := st.Stats(ctx)
			if err != nil {
				log.Fatalf("Failed to read registry stats: %v", err)
			}

			fmt.Printf("\n=== Facility Registry ===\n")
			fmt.Printf("Rows: %d\n", stats.Rows)
			fmt.Printf("Distinct Region+Zone Areas: %d\n", stats.RegionZones)
			if stats.LastLoaded.IsZero() {
				fmt.Printf("Last Loaded: never\n")
			} else {
				fmt.Printf("Last Loaded: %s\n", stats.LastLoaded.Format(time.RFC3339))
			}
		},
	}
}

func createServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload and merge API server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			logger := mustLogger(cfg)
			defer logger.Sync()

			// The server runs without a database; only registry-backed
			// corrections need one.
			var registry handlers.RegistrySource
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			st, err := store.Open(ctx, cfg.Database, logger)
			cancel()
			if err != nil {
				logger.Warn("registry unavailable, corrections need an uploaded reference", zap.Error(err))
			} else {
				defer st.Close()
				if err := st.EnsureSchema(context.Background()); err != nil {
					log.Fatalf("Failed to prepare registry schema: %v", err)
				}
				registry = st
			}

			if err := web.NewServer(cfg, logger, registry).Start(); err != nil {
				log.Fatalf("Server failed: %v", err)
			}
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen address (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides config)")

	return cmd
}
