package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/japaniel/shelfscan/pkg/analyze"
	"github.com/japaniel/shelfscan/pkg/db"
	"github.com/japaniel/shelfscan/pkg/ingest"
	"github.com/japaniel/shelfscan/pkg/listing"
	"github.com/japaniel/shelfscan/pkg/report"
	"github.com/japaniel/shelfscan/pkg/segment"
)

func main() {
	dirFlag := flag.String("dir", ".", "Directory with saved search result pages (*.html)")
	outFlag := flag.String("out", "", "Parent directory for per-page results (defaults to -dir)")
	schemaFlag := flag.String("schema", "", "YAML extraction schema (built-in schema when empty)")
	fontFlag := flag.String("font", "C:/Windows/Fonts/simhei.ttf", "TrueType font with CJK glyphs for charts and the word cloud")
	scopeFlag := flag.String("scope", string(analyze.ScopeCumulative), "Aggregation scope: cumulative or page")
	segFlag := flag.String("segmenter", segment.NameRegex, "Title word splitter: regex or kagome")
	workersFlag := flag.Int("workers", 4, "Number of pages loaded in parallel")
	sqliteFlag := flag.String("sqlite", "", "Also export the run to this SQLite file (replaced if present)")
	flag.Parse()

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	scope, err := analyze.ParseScope(*scopeFlag)
	if err != nil {
		log.Fatalf("Invalid -scope: %v", err)
	}
	seg, err := segment.New(*segFlag)
	if err != nil {
		log.Fatalf("Invalid -segmenter: %v", err)
	}

	// Fail before touching any page if the charts cannot be drawn.
	font, err := report.LoadFont(*fontFlag)
	if err != nil {
		log.Fatalf("Failed to load font: %v", err)
	}

	var schema *listing.Schema
	if *schemaFlag == "" {
		schema, err = listing.DefaultSchema()
	} else {
		schema, err = listing.LoadSchema(*schemaFlag)
	}
	if err != nil {
		log.Fatalf("Failed to load extraction schema: %v", err)
	}

	outDir := *outFlag
	if outDir == "" {
		outDir = *dirFlag
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)

	analyzer := analyze.New(seg, scope, outDir, font)
	analyzer.Logger = logger

	loader := ingest.NewPageLoader(schema)
	loader.Workers = *workersFlag
	loader.Logger = logger

	var exporter *ingest.Exporter
	if *sqliteFlag != "" {
		conn, err := db.Create(*sqliteFlag)
		if err != nil {
			log.Fatalf("Failed to create database: %v", err)
		}
		defer conn.Close()

		exporter = ingest.NewExporter(conn)
		exporter.Logger = logger
		if err := exporter.Begin(ctx, string(scope), *segFlag); err != nil {
			log.Fatalf("Failed to start export: %v", err)
		}
		fmt.Printf("Exporting run %s to %s\n", exporter.RunID, *sqliteFlag)
		analyzer.OnPage = func(r analyze.PageResult) error {
			return exporter.WritePage(r.Record())
		}
	}

	if _, err := analyzer.Run(ctx, loader, *dirFlag); err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	if exporter != nil {
		if err := exporter.Close(); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
	}
}
