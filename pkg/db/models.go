package db

import "time"

// Term kinds stored in term_counts.
const (
	KindKeyword   = "keyword"
	KindTitleWord = "title_word"
)

// Run is one execution of the search page analysis.
type Run struct {
	ID        string
	StartedAt time.Time
	Scope     string
	Segmenter string
}

// Page is one analysed HTML file of a run.
type Page struct {
	ID           int64
	RunID        string
	File         string
	Title        string
	SiteName     string
	ItemCount    int
	PartialCount int
}

// Product is a deduplicated product row as reported for a page.
type Product struct {
	ID       int64
	PageID   int64
	Position int
	SKU      string
	Title    string
	Price    *float64
	Shop     string
	Sales    string
	Keywords string
}

// TermCount is one entry of a page's keyword or title-word ranking.
type TermCount struct {
	ID     int64
	PageID int64
	Kind   string
	Rank   int
	Term   string
	Count  int
}
