// Package analyze turns extracted search pages into per-page reports.
package analyze

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/freetype/truetype"
	"github.com/japaniel/shelfscan/pkg/freq"
	"github.com/japaniel/shelfscan/pkg/ingest"
	"github.com/japaniel/shelfscan/pkg/listing"
	"github.com/japaniel/shelfscan/pkg/report"
	"github.com/japaniel/shelfscan/pkg/segment"
)

// TopN is the length of the keyword and title-word rankings.
const TopN = 30

// Scope selects which pages feed a page's report.
type Scope string

const (
	// ScopeCumulative reports page N over pages 1..N.
	ScopeCumulative Scope = "cumulative"
	// ScopePage reports each page on its own.
	ScopePage Scope = "page"
)

// ParseScope validates a scope name. An empty name is ScopeCumulative.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeCumulative:
		return ScopeCumulative, nil
	case ScopePage:
		return ScopePage, nil
	}
	return "", fmt.Errorf("unknown scope %q (want %s or %s)", s, ScopeCumulative, ScopePage)
}

// PageResult is the aggregated view reported for one page.
type PageResult struct {
	File       string
	OutDir     string
	Meta       listing.Meta
	Extraction listing.Extraction
	// Products is the deduplicated product table in report order.
	Products      []listing.Product
	Keywords      freq.Table
	TitleWords    freq.Table
	TopKeywords   freq.Table
	TopTitleWords freq.Table
	Prices        []float64
}

// Record converts the result for the SQLite export.
func (r PageResult) Record() ingest.PageRecord {
	return ingest.PageRecord{
		File:         r.File,
		Title:        r.Meta.Title,
		SiteName:     r.Meta.SiteName,
		ItemCount:    r.Extraction.Len(),
		PartialCount: r.Extraction.Partial(),
		Products:     r.Products,
		Keywords:     r.Keywords,
		TitleWords:   r.TitleWords,
	}
}

// Analyzer accumulates pages in order and writes each page's workbook and
// charts into its own directory.
type Analyzer struct {
	Segmenter segment.Segmenter
	Scope     Scope
	// OutDir is the parent of the per-page output directories.
	OutDir    string
	Charts    report.Charts
	WordCloud *report.WordCloud
	// Out receives progress lines. nil means os.Stdout.
	Out io.Writer
	// Logger is used for warnings. nil means no logging.
	Logger *log.Logger
	// OnPage is called after a page's reports are written.
	OnPage func(PageResult) error

	products   []listing.Product
	keywords   []string
	titleWords []string
}

// New creates an Analyzer writing below outDir. Charts and word cloud use f;
// a nil font falls back to the chart library's default and skips the cloud.
func New(seg segment.Segmenter, scope Scope, outDir string, f *truetype.Font) *Analyzer {
	a := &Analyzer{
		Segmenter: seg,
		Scope:     scope,
		OutDir:    outDir,
	}
	if f != nil {
		a.Charts = report.Charts{Font: f}
		a.WordCloud = report.NewWordCloud(f)
	}
	return a
}

func (a *Analyzer) printf(format string, args ...interface{}) {
	out := a.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, format, args...)
}

func (a *Analyzer) warnf(format string, args ...interface{}) {
	if a.Logger != nil {
		a.Logger.Printf(format, args...)
	}
}

// Add folds one page into the accumulators and returns its aggregated view.
// It does no I/O.
func (a *Analyzer) Add(file string, meta listing.Meta, ex listing.Extraction) PageResult {
	if a.Scope == ScopePage {
		a.products, a.keywords, a.titleWords = nil, nil, nil
	}
	seg := a.Segmenter
	if seg == nil {
		seg = segment.Regex{}
	}
	for _, it := range ex.Items {
		a.keywords = append(a.keywords, it.Product.Keywords...)
		a.titleWords = append(a.titleWords, seg.Split(it.Product.Title)...)
		a.products = append(a.products, it.Product)
	}

	res := PageResult{
		File:       file,
		OutDir:     filepath.Join(a.OutDir, listing.OutputName(file)),
		Meta:       meta,
		Extraction: ex,
		Products:   listing.DedupeByTitle(a.products),
		Keywords:   freq.Count(a.keywords),
		TitleWords: freq.Count(a.titleWords),
	}
	res.TopKeywords = res.Keywords.Top(TopN)
	res.TopTitleWords = res.TitleWords.Top(TopN)
	for _, p := range res.Products {
		if p.Price != nil {
			res.Prices = append(res.Prices, *p.Price)
		}
	}
	return res
}

// Report writes the workbook and charts of r into r.OutDir, creating it if
// needed. Charts without data are skipped.
func (a *Analyzer) Report(r PageResult) error {
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	name := listing.OutputName(r.File)

	wbPath := filepath.Join(r.OutDir, report.WorkbookName)
	err := report.WriteWorkbook(wbPath, report.Workbook{
		Products:   r.Products,
		Keywords:   r.TopKeywords,
		TitleWords: r.TopTitleWords,
	})
	if err != nil {
		return err
	}
	a.printf("✅ 数据分析完成，结果保存至 %s\n", wbPath)

	var charts []string
	if r.TopKeywords.Len() > 0 {
		path := filepath.Join(r.OutDir, report.KeywordChartName)
		err := writeChart(path, func(w io.Writer) error {
			return a.Charts.Bars(w, name+" 商品关键词词频统计", r.TopKeywords)
		})
		if err != nil {
			return err
		}
		charts = append(charts, path)
	}
	if len(r.Prices) > 0 {
		path := filepath.Join(r.OutDir, report.PriceChartName)
		err := writeChart(path, func(w io.Writer) error {
			return a.Charts.Histogram(w, "价格分布", r.Prices)
		})
		if err != nil {
			return err
		}
		charts = append(charts, path)
	}
	switch {
	case a.WordCloud == nil:
		a.warnf("Warning: no font configured, skipping word cloud for %s", r.File)
	case r.Keywords.Len() == 0:
		a.warnf("Warning: no keywords on %s, skipping word cloud", r.File)
	default:
		a.printf("🎨 正在生成词云图...\n")
		path := filepath.Join(r.OutDir, report.WordCloudName)
		if err := writeChart(path, func(w io.Writer) error { return a.WordCloud.Render(w, r.Keywords) }); err != nil {
			return err
		}
		a.printf("✅ 词云生成完成：%s\n", path)
		charts = append(charts, path)
	}
	if len(charts) > 0 {
		a.printf("\n📊 输出图表：%s\n", strings.Join(charts, "、"))
	}
	return nil
}

func writeChart(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Process adds a loaded page, writes its reports and hands the result to OnPage.
func (a *Analyzer) Process(l ingest.Loaded) (PageResult, error) {
	a.printf("正在处理：%s\n", l.Page.Name)
	a.printf("本页商品数量: %d\n", l.Extraction.Len())
	if n := l.Extraction.Partial(); n > 0 {
		a.warnf("Warning: %s: %d of %d products are missing fields", l.Page.Name, n, l.Extraction.Len())
	}
	r := a.Add(l.Page.Name, l.Page.Meta, l.Extraction)
	if err := a.Report(r); err != nil {
		return r, fmt.Errorf("report %s: %w", r.File, err)
	}
	if a.OnPage != nil {
		if err := a.OnPage(r); err != nil {
			return r, err
		}
	}
	return r, nil
}

// Run analyses every page in dir in file-name order using loader.
func (a *Analyzer) Run(ctx context.Context, loader *ingest.PageLoader, dir string) ([]PageResult, error) {
	names, err := listing.FindPages(dir)
	if err != nil {
		return nil, err
	}
	a.printf("检测到 %d 个 HTML 文件：%v\n", len(names), names)
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	var results []PageResult
	err = loader.Each(ctx, paths, func(l ingest.Loaded) error {
		r, err := a.Process(l)
		if err != nil {
			return err
		}
		results = append(results, r)
		return nil
	})
	return results, err
}
