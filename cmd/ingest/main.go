package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"sheetsql/internal/materialize"
	"sheetsql/internal/metrics"
	"sheetsql/internal/metrics/datadog"
	"sheetsql/internal/storage"
	"sheetsql/internal/workbook"

	// register storage backends with the factory.
	_ "sheetsql/internal/storage/postgres"
	_ "sheetsql/internal/storage/sqlite"
)

// output is the JSON document printed after a successful run.
type output struct {
	Result *workbook.Result         `json:"result"`
	Tables []materialize.SheetTable `json:"tables,omitempty"`
}

// main reads a workbook file (xlsx or csv), runs the cleaning/inference
// pipeline per sheet, and materializes one table per sheet into the chosen
// database.
func main() {
	var (
		filePath       string
		dbKind         string
		dsn            string
		fileID         int64
		metricsBackend string
		dryRun         bool
	)

	flag.StringVar(&filePath, "file", "", "workbook path (.xlsx, .xlsm or .csv)")
	flag.StringVar(&dbKind, "db", "sqlite", "storage backend (sqlite, postgres)")
	flag.StringVar(&dsn, "dsn", "sheetsql.db", "database DSN (sqlite path or postgres URL)")
	flag.Int64Var(&fileID, "file-id", 1, "numeric upload id embedded in table names and rows")
	flag.StringVar(&metricsBackend, "metrics-backend", "none", "metrics backend to use (datadog, none)")
	flag.BoolVar(&dryRun, "dry-run", false, "process and report only, skip materialization")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	if filePath == "" {
		fmt.Fprintln(os.Stderr, "ingest: -file is required")
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	// Metrics backend precedence: flag, then METRICS_BACKEND env, then none.
	backendName := metricsBackend
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	var mb metrics.Backend = metrics.Nop{}
	switch backendName {
	case "datadog":
		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName: "sheetsql_ingest",
			Tags:    datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")),
		})
		if err != nil {
			logger.Printf("metrics: failed to init datadog backend: %v; using nop", err)
		} else {
			mb = b
			defer func() {
				if err := b.Close(); err != nil {
					logger.Printf("metrics: datadog close/flush error: %v", err)
				}
			}()
		}
	case "", "none":
		// metrics disabled
	default:
		logger.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	ctx := context.Background()
	start := time.Now()

	wb, err := workbook.ReadFile(filePath)
	if err != nil {
		fatalf("%v", err)
	}

	proc := &workbook.Processor{Metrics: mb}
	if *verbose {
		proc.Logger = logger
	}

	res, err := proc.Process(*wb)
	if err != nil {
		fatalf("%v", err)
	}

	out := output{Result: res}

	if !dryRun {
		repo, err := storage.New(ctx, storage.Config{Kind: dbKind, DSN: dsn})
		if err != nil {
			fatalf("storage: %v", err)
		}
		defer repo.Close()

		mat := &materialize.Materializer{Repo: repo, Metrics: mb}
		if *verbose {
			mat.Logger = logger
		}
		tables, err := mat.MaterializeWorkbook(ctx, res, fileID)
		if err != nil {
			fatalf("%v", err)
		}
		out.Tables = tables
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fatalf("encode output: %v", err)
	}

	if *verbose {
		logger.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
