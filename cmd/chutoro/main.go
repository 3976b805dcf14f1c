package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	chutoro "github.com/leynos/chutoro-go"
	"github.com/leynos/chutoro-go/pkg/datasource"
	"github.com/leynos/chutoro-go/pkg/geo"
	"github.com/leynos/chutoro-go/pkg/store"
)

var (
	inputPath      string
	dbPath         string
	minClusterSize int
	maxConnections int
	efConstruction int
	seed           uint64
	metric         string
	format         string
	maxBytesMB     int64
	jsonOutput     bool
)

var rootCmd = &cobra.Command{
	Use:   "chutoro",
	Short: "Density-based clustering over a CSV of float vectors",
	Long:  `A command-line interface for running HDBSCAN*-style clustering and browsing stored run history.`,
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster the vectors in a CSV file and print the assignments",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := buildSource(inputPath, format, metric)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", inputPath, err)
		}

		cfg := chutoro.DefaultConfig()
		cfg.MinClusterSize = minClusterSize
		cfg.MaxConnections = maxConnections
		cfg.EfConstruction = efConstruction
		cfg.Seed = seed
		if maxBytesMB > 0 {
			limit := uint64(maxBytesMB) * 1 << 20
			cfg.MaxBytes = &limit
		}

		logLevel := chutoro.LevelInfo
		if verbose {
			logLevel = chutoro.LevelDebug
		}
		result, err := chutoro.RunWithLogger(cmd.Context(), src, cfg, chutoro.NewStdLogger(logLevel))
		if err != nil {
			return fmt.Errorf("clustering failed: %w", err)
		}

		printResult(result)

		if dbPath != "" {
			runID, err := persistRun(cmd.Context(), result)
			if err != nil {
				return fmt.Errorf("failed to persist run: %w", err)
			}
			fmt.Printf("Run %s saved to %s\n", runID, dbPath)
		}
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List or inspect persisted clustering runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every run ID stored in the history database",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openRunStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		ids, err := s.ListRuns(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a previously persisted run's assignments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openRunStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		run, err := s.LoadRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load run %q: %w", args[0], err)
		}
		fmt.Printf("run %s: %d clusters, %d items (saved %s)\n",
			run.RunID, run.ClusterCount, len(run.Assignments), run.CreatedAt.Format(time.RFC3339))
		for i, a := range run.Assignments {
			fmt.Printf("%d\t%d\n", i, a)
		}
		return nil
	},
}

func printResult(result chutoro.ClusteringResult) {
	if jsonOutput {
		fmt.Printf("{\"cluster_count\":%d,\"noise_exposed\":%t,\"assignments\":[",
			result.ClusterCount, result.NoiseExposed)
		for i, a := range result.Assignments {
			if i > 0 {
				fmt.Print(",")
			}
			fmt.Print(a)
		}
		fmt.Println("]}")
		return
	}
	fmt.Printf("clusters: %d (noise label %d, noise_exposed=%t)\n",
		result.ClusterCount, result.NoiseLabel(), result.NoiseExposed)
	for i, a := range result.Assignments {
		fmt.Printf("%d\t%d\n", i, a)
	}
}

func persistRun(ctx context.Context, result chutoro.ClusteringResult) (string, error) {
	s, err := openRunStore(ctx)
	if err != nil {
		return "", err
	}
	defer s.Close()

	runID := uuid.NewString()
	run := store.Run{
		RunID:        runID,
		ClusterCount: result.ClusterCount,
		Assignments:  result.Assignments,
	}
	if err := s.SaveRun(ctx, run); err != nil {
		return "", err
	}
	return runID, nil
}

func openRunStore(ctx context.Context) (*store.Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("--db is required for run history commands")
	}
	return store.Open(ctx, dbPath)
}

// buildSource constructs the DataSource a cluster run operates over,
// switching on --format: "vectors" reads equal-width numeric rows for
// datasource.Vectors (metric selects Euclidean vs. cosine); "geo" reads
// two-column lat,lng rows for a geo.Source over great-circle distance.
func buildSource(path, format, metric string) (chutoro.DataSource, error) {
	switch format {
	case "geo":
		points, err := readGeoCSV(path)
		if err != nil {
			return nil, err
		}
		return geo.NewSource(path, points), nil
	case "vectors", "":
		points, err := readVectorsCSV(path)
		if err != nil {
			return nil, err
		}
		switch metric {
		case "cosine":
			return datasource.NewCosine(points), nil
		case "euclidean":
			return datasource.NewEuclidean(points), nil
		default:
			return nil, fmt.Errorf("unknown metric %q (want euclidean or cosine)", metric)
		}
	default:
		return nil, fmt.Errorf("unknown format %q (want vectors or geo)", format)
	}
}

// readGeoCSV reads a CSV file of "lat,lng" rows into geo.Coordinate values.
// Blank lines and a leading header row containing any non-numeric field are
// skipped.
func readGeoCSV(path string) ([]geo.Coordinate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	var points []geo.Coordinate
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("row %d: expected at least 2 fields (lat,lng), got %d", len(points)+1, len(record))
		}
		lat, errLat := strconv.ParseFloat(record[0], 64)
		lng, errLng := strconv.ParseFloat(record[1], 64)
		if errLat != nil || errLng != nil {
			if len(points) == 0 {
				continue
			}
			return nil, fmt.Errorf("row %d: invalid lat/lng", len(points)+1)
		}
		points = append(points, geo.Coordinate{Lat: lat, Lng: lng})
	}
	return points, nil
}

// readVectorsCSV reads a CSV file of equal-width numeric rows into
// [][]float32, the shape pkg/datasource.Vectors expects. Blank lines and a
// leading header row containing any non-numeric field are skipped.
func readVectorsCSV(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	var points [][]float32
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]float32, len(record))
		skip := false
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				if len(points) == 0 {
					skip = true
					break
				}
				return nil, fmt.Errorf("row %d field %d: %w", len(points)+1, i, err)
			}
			row[i] = float32(v)
		}
		if skip {
			continue
		}
		points = append(points, row)
	}
	return points, nil
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Run history SQLite database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose (debug-level) logging")

	clusterCmd.Flags().StringVar(&inputPath, "input", "", "Path to a CSV file of vectors")
	clusterCmd.Flags().IntVar(&minClusterSize, "min-cluster-size", 5, "Minimum cluster size")
	clusterCmd.Flags().IntVar(&maxConnections, "max-connections", 16, "HNSW M parameter")
	clusterCmd.Flags().IntVar(&efConstruction, "ef-construction", 64, "HNSW ef_construction parameter")
	clusterCmd.Flags().Uint64Var(&seed, "seed", 0, "Deterministic build seed")
	clusterCmd.Flags().StringVar(&metric, "metric", "euclidean", "Distance metric: euclidean or cosine (ignored when --format=geo)")
	clusterCmd.Flags().StringVar(&format, "format", "vectors", "Input shape: vectors (float columns) or geo (lat,lng columns)")
	clusterCmd.Flags().Int64Var(&maxBytesMB, "max-memory-mb", 0, "Reject the run if its estimated peak exceeds this many MiB (0 disables the check)")
	clusterCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as a single JSON line")
	_ = clusterCmd.MarkFlagRequired("input")

	runsCmd.AddCommand(runsListCmd, runsShowCmd)

	rootCmd.AddCommand(clusterCmd, runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
