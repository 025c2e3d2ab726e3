package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/golang/freetype/truetype"
	"github.com/japaniel/shelfscan/pkg/freq"
	"github.com/japaniel/shelfscan/pkg/ingredients"
	"github.com/japaniel/shelfscan/pkg/report"
)

const (
	pieTitle    = "配料材料种类及占比"
	defaultFont = "C:/Windows/Fonts/simhei.ttf"
)

func main() {
	inputFlag := flag.String("input", "商品数据.xlsx", "Spreadsheet with an ingredient column")
	sheetFlag := flag.String("sheet", "", "Sheet to read (first sheet when empty)")
	columnFlag := flag.String("column", "配料", "Header of the ingredient column")
	outFlag := flag.String("out", report.PieChartName, "Path of the pie chart PNG")
	fontFlag := flag.String("font", defaultFont, "TrueType font with CJK glyphs for chart labels")
	flag.Parse()

	font, err := report.LoadFont(*fontFlag)
	if err != nil {
		// Only a missing default font is tolerated; labels then lose their CJK glyphs.
		if *fontFlag != defaultFont || !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("Failed to load font: %v", err)
		}
		log.Printf("Warning: %v, chart labels fall back to the built-in font", err)
	}

	rows, err := ingredients.LoadColumn(*inputFlag, *sheetFlag, *columnFlag)
	if err != nil {
		log.Fatalf("Failed to read ingredients: %v", err)
	}

	tokens := ingredients.NewNormalizer().Normalize(rows)
	counts := freq.Count(tokens)
	for _, e := range counts {
		fmt.Printf("%s\t%d\n", e.Term, e.Count)
	}
	fmt.Println(tokens)

	if counts.Len() == 0 {
		log.Printf("Warning: no ingredients in column %q, skipping %s", *columnFlag, *outFlag)
		return
	}
	if err := writePie(*outFlag, font, counts); err != nil {
		log.Fatalf("Failed to write chart: %v", err)
	}
	fmt.Printf("Chart saved to %s\n", *outFlag)
}

func writePie(path string, font *truetype.Font, counts freq.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := (report.Charts{Font: font}).Pie(f, pieTitle, counts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
