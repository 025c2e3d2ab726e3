package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// CreateRun inserts a run row.
func CreateRun(db DBExecutor, r Run) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("run id must be non-empty")
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	_, err := db.Exec(`INSERT INTO runs (id, started_at, scope, segmenter) VALUES (?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC(), r.Scope, r.Segmenter)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// CreatePage inserts a page of a run and returns its id. Re-inserting the same
// file for a run updates the counts and returns the existing id.
func CreatePage(db DBExecutor, p Page) (int64, error) {
	if p.RunID == "" {
		return 0, fmt.Errorf("page run id must be non-empty")
	}
	if strings.TrimSpace(p.File) == "" {
		return 0, fmt.Errorf("page file must be non-empty")
	}
	var id int64
	err := db.QueryRow(`INSERT INTO pages (run_id, file, title, site_name, item_count, partial_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, file) DO UPDATE SET
		  title = excluded.title,
		  site_name = excluded.site_name,
		  item_count = excluded.item_count,
		  partial_count = excluded.partial_count
		RETURNING id`,
		p.RunID, p.File, nullableString(p.Title), nullableString(p.SiteName), p.ItemCount, p.PartialCount,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert page: %w", err)
	}
	return id, nil
}

// InsertProduct stores one product of a page at its report position.
func InsertProduct(db DBExecutor, p Product) error {
	if p.PageID <= 0 {
		return fmt.Errorf("pageID must be positive")
	}
	var price interface{}
	if p.Price != nil {
		price = *p.Price
	}
	_, err := db.Exec(`INSERT INTO products (page_id, position, sku, title, price, shop, sales, keywords)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PageID, p.Position, nullableString(p.SKU), p.Title, price, p.Shop, p.Sales, p.Keywords)
	if err != nil {
		return fmt.Errorf("insert product %d: %w", p.Position, err)
	}
	return nil
}

// InsertTermCount stores one ranked term of a page.
func InsertTermCount(db DBExecutor, tc TermCount) error {
	if tc.PageID <= 0 {
		return fmt.Errorf("pageID must be positive")
	}
	if tc.Kind != KindKeyword && tc.Kind != KindTitleWord {
		return fmt.Errorf("unknown term kind %q", tc.Kind)
	}
	_, err := db.Exec(`INSERT INTO term_counts (page_id, kind, rank, term, count) VALUES (?, ?, ?, ?, ?)`,
		tc.PageID, tc.Kind, tc.Rank, tc.Term, tc.Count)
	if err != nil {
		return fmt.Errorf("insert %s %q: %w", tc.Kind, tc.Term, err)
	}
	return nil
}

// nullableString returns nil for "" else the value.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// GetPagesByRun returns the pages of a run in insertion order.
func GetPagesByRun(db DBExecutor, runID string) ([]Page, error) {
	rows, err := db.Query(`SELECT id, run_id, file, title, site_name, item_count, partial_count FROM pages WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Page
	for rows.Next() {
		var p Page
		var title, site sql.NullString
		if err := rows.Scan(&p.ID, &p.RunID, &p.File, &title, &site, &p.ItemCount, &p.PartialCount); err != nil {
			return nil, err
		}
		p.Title = title.String
		p.SiteName = site.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProductsByPage returns the products of a page ordered by position.
func GetProductsByPage(db DBExecutor, pageID int64) ([]Product, error) {
	rows, err := db.Query(`SELECT id, page_id, position, sku, title, price, shop, sales, keywords FROM products WHERE page_id = ? ORDER BY position`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var p Product
		var sku, shop, sales, kw sql.NullString
		var price sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.PageID, &p.Position, &sku, &p.Title, &price, &shop, &sales, &kw); err != nil {
			return nil, err
		}
		p.SKU = sku.String
		p.Shop = shop.String
		p.Sales = sales.String
		p.Keywords = kw.String
		if price.Valid {
			v := price.Float64
			p.Price = &v
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTermCounts returns a page's ranking of the given kind, best first.
func GetTermCounts(db DBExecutor, pageID int64, kind string) ([]TermCount, error) {
	rows, err := db.Query(`SELECT id, page_id, kind, rank, term, count FROM term_counts WHERE page_id = ? AND kind = ? ORDER BY rank`, pageID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TermCount
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.ID, &tc.PageID, &tc.Kind, &tc.Rank, &tc.Term, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRun returns the run with the given id.
func GetRun(db DBExecutor, id string) (Run, error) {
	var r Run
	err := db.QueryRow(`SELECT id, started_at, scope, segmenter FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &r.StartedAt, &r.Scope, &r.Segmenter)
	if err != nil {
		return Run{}, err
	}
	return r, nil
}
