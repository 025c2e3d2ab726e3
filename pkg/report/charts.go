package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/golang/freetype/truetype"
	"github.com/japaniel/shelfscan/pkg/freq"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Chart file names.
const (
	PieChartName     = "配料材料占比.png"
	KeywordChartName = "关键词词频统计.png"
	PriceChartName   = "价格分布.png"
	WordCloudName    = "关键词词云.png"
)

// HistogramBins is the number of price buckets.
const HistogramBins = 20

var (
	cornflowerBlue = drawing.ColorFromHex("6495ED")
	lightGreen     = drawing.ColorFromHex("90EE90")
	black          = drawing.ColorFromHex("000000")
)

// Charts renders PNG charts. A nil Font uses go-chart's default font, which
// has no CJK glyphs.
type Charts struct {
	Font *truetype.Font
}

// Pie renders the share of every term, labelled with its percentage.
func (c Charts) Pie(w io.Writer, title string, t freq.Table) error {
	total := t.Total()
	if total == 0 {
		return ErrNoData
	}
	values := make([]chart.Value, 0, t.Len())
	for _, e := range t {
		pct := float64(e.Count) / float64(total) * 100
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", e.Term, pct),
			Value: float64(e.Count),
		})
	}
	pie := chart.PieChart{
		Title:  title,
		Width:  1600,
		Height: 1200,
		Font:   c.Font,
		Values: values,
	}
	if err := pie.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render pie chart: %w", err)
	}
	return nil
}

// Bars renders one bar per term with labels rotated so long keywords fit.
func (c Charts) Bars(w io.Writer, title string, t freq.Table) error {
	if t.Len() == 0 {
		return ErrNoData
	}
	style := chart.Style{FillColor: cornflowerBlue, StrokeColor: cornflowerBlue}
	bars := make([]chart.Value, 0, t.Len())
	maxCount := 0
	for _, e := range t {
		bars = append(bars, chart.Value{Label: e.Term, Value: float64(e.Count), Style: style})
		if e.Count > maxCount {
			maxCount = e.Count
		}
	}
	bc := chart.BarChart{
		Title:    title,
		Width:    2000,
		Height:   1000,
		Font:     c.Font,
		BarWidth: 40,
		XAxis:    chart.Style{TextRotationDegrees: 60},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount) * 1.1},
		},
		Bars: bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

// Histogram renders the distribution of values over HistogramBins buckets.
func (c Charts) Histogram(w io.Writer, title string, values []float64) error {
	bins := Bin(values, HistogramBins)
	if len(bins) == 0 {
		return ErrNoData
	}
	style := chart.Style{FillColor: lightGreen, StrokeColor: black, StrokeWidth: 1}
	bars := make([]chart.Value, 0, len(bins))
	maxCount := 0
	for _, b := range bins {
		bars = append(bars, chart.Value{
			Label: strconv.FormatFloat(b.Low, 'g', 5, 64),
			Value: float64(b.Count),
			Style: style,
		})
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	bc := chart.BarChart{
		Title:      title,
		Width:      1600,
		Height:     800,
		Font:       c.Font,
		BarWidth:   60,
		BarSpacing: 4,
		XAxis:      chart.Style{TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Name:  "商品数量",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount) * 1.1},
		},
		Bars: bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	return nil
}
