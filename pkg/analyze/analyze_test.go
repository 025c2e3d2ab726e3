package analyze

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/golang/freetype/truetype"
	"github.com/japaniel/shelfscan/pkg/ingest"
	"github.com/japaniel/shelfscan/pkg/listing"
	"github.com/japaniel/shelfscan/pkg/report"
	"github.com/japaniel/shelfscan/pkg/segment"
	"github.com/xuri/excelize/v2"
	"golang.org/x/image/font/gofont/goregular"
)

func price(v float64) *float64 { return &v }

func item(title string, p *float64, keywords ...string) listing.Item {
	return listing.Item{Product: listing.Product{Title: title, Price: p, Keywords: keywords}}
}

func TestParseScope(t *testing.T) {
	cases := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"", ScopeCumulative, false},
		{"cumulative", ScopeCumulative, false},
		{"page", ScopePage, false},
		{"all", "", true},
	}
	for _, c := range cases {
		got, err := ParseScope(c.in)
		if (err != nil) != c.wantErr || got != c.want {
			t.Errorf("ParseScope(%q) = %q, %v", c.in, got, err)
		}
	}
}

func TestAddCumulative(t *testing.T) {
	a := New(segment.Regex{}, ScopeCumulative, "out", nil)
	first := a.Add("page1.html", listing.Meta{}, listing.Extraction{Items: []listing.Item{
		item("华为 Mate60", price(5999), "官方正品", "5G"),
		item("小米14", nil, "官方正品"),
	}})
	if first.OutDir != filepath.Join("out", "page1") {
		t.Errorf("OutDir = %q", first.OutDir)
	}
	if len(first.Products) != 2 || len(first.Prices) != 1 {
		t.Fatalf("unexpected first page %+v", first)
	}

	second := a.Add("page2.html", listing.Meta{}, listing.Extraction{Items: []listing.Item{
		item("华为 Mate60", price(5799), "次日达"),
	}})
	// The repeated title keeps only its latest listing.
	if len(second.Products) != 2 {
		t.Fatalf("expected 2 products after dedupe, got %d", len(second.Products))
	}
	if second.Products[0].Title != "小米14" || *second.Products[1].Price != 5799 {
		t.Errorf("unexpected products %+v", second.Products)
	}
	if !reflect.DeepEqual(second.Prices, []float64{5799}) {
		t.Errorf("Prices = %v", second.Prices)
	}
	// Keywords and title words count every listing across pages.
	if got := second.Keywords.Map(); got["官方正品"] != 2 || got["次日达"] != 1 || got["5G"] != 1 {
		t.Errorf("Keywords = %v", got)
	}
	if got := second.TitleWords.Map(); got["华为"] != 2 || got["Mate"] != 2 {
		t.Errorf("TitleWords = %v", got)
	}
}

func TestAddPageScope(t *testing.T) {
	a := New(nil, ScopePage, "out", nil)
	a.Add("page1.html", listing.Meta{}, listing.Extraction{Items: []listing.Item{item("A", nil, "x")}})
	r := a.Add("page2.html", listing.Meta{}, listing.Extraction{Items: []listing.Item{item("B", nil, "y")}})
	if len(r.Products) != 1 || r.Products[0].Title != "B" {
		t.Fatalf("page scope leaked products: %+v", r.Products)
	}
	if !reflect.DeepEqual(r.Keywords.Terms(), []string{"y"}) {
		t.Fatalf("page scope leaked keywords: %v", r.Keywords.Terms())
	}
}

func TestAddTopN(t *testing.T) {
	a := New(nil, ScopeCumulative, "out", nil)
	var items []listing.Item
	for i := 0; i < 40; i++ {
		items = append(items, item("x", nil, string(rune('A'+i))))
	}
	r := a.Add("p.html", listing.Meta{}, listing.Extraction{Items: items})
	if r.Keywords.Len() != 40 || r.TopKeywords.Len() != TopN {
		t.Fatalf("keywords %d, top %d", r.Keywords.Len(), r.TopKeywords.Len())
	}
}

func TestRecord(t *testing.T) {
	a := New(nil, ScopeCumulative, "out", nil)
	ex := listing.Extraction{Items: []listing.Item{
		item("A", price(1), "k"),
		{Product: listing.Product{Title: "B"}, Missing: []listing.Field{listing.FieldPrice}},
	}}
	rec := a.Add("p.html", listing.Meta{Title: "搜索", SiteName: "shop"}, ex).Record()
	if rec.File != "p.html" || rec.Title != "搜索" || rec.SiteName != "shop" {
		t.Errorf("unexpected record header %+v", rec)
	}
	if rec.ItemCount != 2 || rec.PartialCount != 1 || len(rec.Products) != 2 {
		t.Errorf("unexpected record counts %+v", rec)
	}
}

func copyFixture(t *testing.T, dir, name string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "listing", "testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func testFont(t *testing.T) *truetype.Font {
	t.Helper()
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		t.Fatalf("parse font: %v", err)
	}
	return f
}

func TestRun(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	copyFixture(t, in, "empty_page.html")
	copyFixture(t, in, "search_page.html")
	// A zero-byte page is read as a page without products.
	if err := os.WriteFile(filepath.Join(in, "blank.html"), nil, 0o644); err != nil {
		t.Fatalf("write blank page: %v", err)
	}

	schema, err := listing.DefaultSchema()
	if err != nil {
		t.Fatalf("DefaultSchema: %v", err)
	}
	var console, logs bytes.Buffer
	a := New(segment.Regex{}, ScopeCumulative, out, testFont(t))
	a.Out = &console
	a.Logger = log.New(&logs, "", 0)
	var exported []string
	a.OnPage = func(r PageResult) error {
		exported = append(exported, r.Record().File)
		return nil
	}

	results, err := a.Run(context.Background(), ingest.NewPageLoader(schema), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !reflect.DeepEqual(exported, []string{"blank.html", "empty_page.html", "search_page.html"}) {
		t.Fatalf("pages handed to OnPage: %v", exported)
	}

	// Pages without products still get their workbook but no charts.
	for _, name := range []string{"blank", "empty_page"} {
		emptyDir := filepath.Join(out, name)
		if _, err := os.Stat(filepath.Join(emptyDir, report.WorkbookName)); err != nil {
			t.Errorf("%s workbook missing: %v", name, err)
		}
		for _, chart := range []string{report.KeywordChartName, report.PriceChartName, report.WordCloudName} {
			if _, err := os.Stat(filepath.Join(emptyDir, chart)); !os.IsNotExist(err) {
				t.Errorf("%s should not have %s", name, chart)
			}
		}
	}
	if results[0].Extraction.Len() != 0 {
		t.Errorf("blank page yielded %d products", results[0].Extraction.Len())
	}

	pageDir := filepath.Join(out, "search_page")
	for _, name := range []string{report.WorkbookName, report.KeywordChartName, report.PriceChartName, report.WordCloudName} {
		if _, err := os.Stat(filepath.Join(pageDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	f, err := excelize.OpenFile(filepath.Join(pageDir, report.WorkbookName))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(report.SheetProducts)
	if err != nil {
		t.Fatalf("read products: %v", err)
	}
	// Four blocks, one repeated title: three products.
	if n := len(results[2].Products); n != 3 {
		t.Fatalf("expected 3 deduplicated products, got %d", n)
	}
	if len(rows) < 3 {
		t.Fatalf("expected product rows, got %q", rows)
	}
	if rows[1][0] != "小米手机14Pro 5G全网通" || rows[2][0] != "Apple iPhone15 128GB 黑色" || rows[2][1] != "5999.5" {
		t.Errorf("unexpected product rows %q", rows)
	}

	text := console.String()
	for _, want := range []string{
		"检测到 3 个 HTML 文件：[blank.html empty_page.html search_page.html]",
		"正在处理：search_page.html",
		"本页商品数量: 4",
		"✅ 数据分析完成，结果保存至 " + filepath.Join(pageDir, report.WorkbookName),
		"✅ 词云生成完成：" + filepath.Join(pageDir, report.WordCloudName),
		"📊 输出图表：",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("console output missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(logs.String(), "skipping word cloud") {
		t.Errorf("expected a skipped word cloud warning, got %q", logs.String())
	}
	if !strings.Contains(logs.String(), "missing fields") {
		t.Errorf("expected a partial extraction warning, got %q", logs.String())
	}
}

func TestRunMissingDir(t *testing.T) {
	schema, err := listing.DefaultSchema()
	if err != nil {
		t.Fatalf("DefaultSchema: %v", err)
	}
	a := New(nil, ScopeCumulative, t.TempDir(), nil)
	a.Out = &bytes.Buffer{}
	if _, err := a.Run(context.Background(), ingest.NewPageLoader(schema), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing input dir")
	}
}
