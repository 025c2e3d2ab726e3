package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func tableColumns(t *testing.T, conn *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := conn.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("pragmas: %v", err)
	}
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var colName, ctype string
		var notnull, pk int
		var dfltVal interface{}
		if err := rows.Scan(&cid, &colName, &ctype, &notnull, &dfltVal, &pk); err != nil {
			t.Fatalf("scan col: %v", err)
		}
		cols[colName] = true
	}
	return cols
}

// TestInitDBCreatesSchema verifies a fresh database gets every export table
// with the columns the exporter writes.
func TestInitDBCreatesSchema(t *testing.T) {
	dbConn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()
	dbConn.SetMaxOpenConns(1)

	if err := InitDB(dbConn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	// Migrations are idempotent.
	if err := InitDB(dbConn); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}

	want := map[string][]string{
		"runs":        {"id", "started_at", "scope", "segmenter"},
		"pages":       {"id", "run_id", "file", "title", "site_name", "item_count", "partial_count"},
		"products":    {"id", "page_id", "position", "sku", "title", "price", "shop", "sales", "keywords"},
		"term_counts": {"id", "page_id", "kind", "rank", "term", "count"},
	}
	for table, cols := range want {
		got := tableColumns(t, dbConn, table)
		for _, c := range cols {
			if !got[c] {
				t.Errorf("expected column %s in %s, got %v", c, table, got)
			}
		}
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	conn, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()
	var name string
	if err := conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='term_counts'").Scan(&name); err != nil {
		t.Fatalf("term_counts table missing: %v", err)
	}
	// Foreign keys are enforced on connections from Open.
	if _, err := CreatePage(conn, Page{RunID: "missing", File: "a.html"}); err == nil {
		t.Fatal("expected foreign key violation for unknown run")
	}
}
