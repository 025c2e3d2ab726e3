package report

import (
	"fmt"
	"strings"

	"github.com/japaniel/shelfscan/pkg/freq"
	"github.com/japaniel/shelfscan/pkg/listing"
	"github.com/xuri/excelize/v2"
)

// Output file and sheet names.
const (
	WorkbookName = "商品分析结果.xlsx"

	SheetProducts   = "商品数据"
	SheetKeywords   = "高频关键词"
	SheetTitleWords = "标题词频"
)

var (
	productHeader   = []interface{}{"商品名称", "价格", "商家", "销量", "关键词列表"}
	keywordHeader   = []interface{}{"关键词", "出现次数"}
	titleWordHeader = []interface{}{"标题词", "出现次数"}
)

// Workbook is the content of the analysis spreadsheet.
type Workbook struct {
	Products   []listing.Product
	Keywords   freq.Table
	TitleWords freq.Table
}

// WriteWorkbook saves wb to path with one sheet each for products, keyword
// frequencies and title-word frequencies. Empty inputs still produce the
// sheets with their header rows.
func WriteWorkbook(path string, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetProducts); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetKeywords, SheetTitleWords} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	productRows := make([][]interface{}, 0, len(wb.Products))
	for _, p := range wb.Products {
		var price interface{}
		if p.Price != nil {
			price = *p.Price
		}
		productRows = append(productRows, []interface{}{
			p.Title, price, p.Shop, p.Sales, strings.Join(p.Keywords, ", "),
		})
	}
	if err := writeSheet(f, SheetProducts, productHeader, productRows); err != nil {
		return err
	}
	if err := writeSheet(f, SheetKeywords, keywordHeader, tableRows(wb.Keywords)); err != nil {
		return err
	}
	if err := writeSheet(f, SheetTitleWords, titleWordHeader, tableRows(wb.TitleWords)); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func tableRows(t freq.Table) [][]interface{} {
	rows := make([][]interface{}, 0, len(t))
	for _, e := range t {
		rows = append(rows, []interface{}{e.Term, e.Count})
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	h := header
	if err := f.SetSheetRow(sheet, "A1", &h); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
