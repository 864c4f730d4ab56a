package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"sheetsql/internal/safesql"
	"sheetsql/internal/storage"

	// register storage backends with the factory.
	_ "sheetsql/internal/storage/postgres"
	_ "sheetsql/internal/storage/sqlite"
)

// main runs one read-only query against a materialized table. The statement
// passes through the safety gate first: SELECT-only, forbidden keywords
// rejected, comments stripped, a row limit appended when missing.
func main() {
	var (
		dbKind    string
		dsn       string
		tableName string
		queryText string
	)

	flag.StringVar(&dbKind, "db", "sqlite", "storage backend (sqlite, postgres)")
	flag.StringVar(&dsn, "dsn", "sheetsql.db", "database DSN (sqlite path or postgres URL)")
	flag.StringVar(&tableName, "table", "", "physical table substituted for the FROM data placeholder")
	flag.StringVar(&queryText, "q", "", "SELECT statement to run")

	flag.Parse()

	if queryText == "" {
		fmt.Fprintln(os.Stderr, "query: -q is required")
		flag.Usage()
		os.Exit(2)
	}

	sqlText, err := safesql.Sanitize(queryText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query: %v\n", err)
		os.Exit(2)
	}
	if tableName != "" {
		sqlText = safesql.ReplaceTarget(sqlText, tableName)
	}

	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: dbKind, DSN: dsn})
	if err != nil {
		fatalf("storage: %v", err)
	}
	defer repo.Close()

	res, err := repo.Query(ctx, sqlText)
	if err != nil {
		fatalf("query: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fatalf("encode output: %v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
