package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/japaniel/shelfscan/pkg/db"
	"github.com/japaniel/shelfscan/pkg/freq"
	"github.com/japaniel/shelfscan/pkg/listing"
	"github.com/oklog/ulid/v2"
)

// PageRecord is what the export stores for one analysed page.
type PageRecord struct {
	File         string
	Title        string
	SiteName     string
	ItemCount    int
	PartialCount int
	Products     []listing.Product
	Keywords     freq.Table
	TitleWords   freq.Table
}

// Exporter writes one run of the search page analysis to SQLite.
type Exporter struct {
	DB *sql.DB
	// RunID identifies the run; its timestamp is the run's start time.
	RunID     ulid.ULID
	BatchSize int
	// Logger is used for informational messages. nil means no logging.
	Logger *log.Logger

	bw    *BatchWriter
	pages int
}

// NewExporter creates an Exporter with a fresh run id.
func NewExporter(conn *sql.DB) *Exporter {
	return &Exporter{
		DB:        conn,
		RunID:     ulid.Make(),
		BatchSize: 4,
	}
}

// Begin records the run and starts the batch writer. Writes stop being
// queued once ctx is done.
func (e *Exporter) Begin(ctx context.Context, scope, segmenter string) error {
	if e.bw != nil {
		return fmt.Errorf("export %s already started", e.RunID)
	}
	run := db.Run{
		ID:        e.RunID.String(),
		StartedAt: ulid.Time(e.RunID.Time()),
		Scope:     scope,
		Segmenter: segmenter,
	}
	if err := db.CreateRun(e.DB, run); err != nil {
		return err
	}
	e.bw = NewBatchWriter(ctx, e.DB, e.BatchSize)
	if e.Logger != nil {
		e.bw.OnError = func(err error) {
			e.Logger.Printf("Warning: export %s: %v", e.RunID, err)
		}
	}
	return nil
}

// WritePage queues a page with its products and term rankings. A page and
// its rows are written in the same transaction.
func (e *Exporter) WritePage(rec PageRecord) error {
	if e.bw == nil {
		return fmt.Errorf("export not started")
	}
	runID := e.RunID.String()
	err := e.bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
		pageID, err := db.CreatePage(tx, db.Page{
			RunID:        runID,
			File:         rec.File,
			Title:        rec.Title,
			SiteName:     rec.SiteName,
			ItemCount:    rec.ItemCount,
			PartialCount: rec.PartialCount,
		})
		if err != nil {
			return fmt.Errorf("page %s: %w", rec.File, err)
		}
		for i, p := range rec.Products {
			err := db.InsertProduct(tx, db.Product{
				PageID:   pageID,
				Position: i,
				SKU:      p.SKU,
				Title:    p.Title,
				Price:    p.Price,
				Shop:     p.Shop,
				Sales:    p.Sales,
				Keywords: strings.Join(p.Keywords, ", "),
			})
			if err != nil {
				return fmt.Errorf("page %s: %w", rec.File, err)
			}
		}
		if err := insertTable(tx, pageID, db.KindKeyword, rec.Keywords); err != nil {
			return fmt.Errorf("page %s: %w", rec.File, err)
		}
		if err := insertTable(tx, pageID, db.KindTitleWord, rec.TitleWords); err != nil {
			return fmt.Errorf("page %s: %w", rec.File, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.pages++
	return nil
}

func insertTable(tx *sql.Tx, pageID int64, kind string, t freq.Table) error {
	for i, entry := range t {
		err := db.InsertTermCount(tx, db.TermCount{
			PageID: pageID,
			Kind:   kind,
			Rank:   i + 1,
			Term:   entry.Term,
			Count:  entry.Count,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Close commits everything queued and returns the first write error.
func (e *Exporter) Close() error {
	if e.bw == nil {
		return nil
	}
	err := e.bw.Close()
	if err == nil && e.Logger != nil {
		e.Logger.Printf("Exported %d pages for run %s", e.pages, e.RunID)
	}
	return err
}
