package ingredients

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrColumnNotFound is returned when the requested header is absent from the sheet.
var ErrColumnNotFound = errors.New("column not found")

// LoadColumn reads every non-blank cell below the header named column.
// An empty sheet name selects the first sheet of the workbook.
func LoadColumn(path, sheet, column string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q (sheet %q is empty)", ErrColumnNotFound, column, sheet)
	}

	col := -1
	for i, header := range rows[0] {
		if strings.TrimSpace(header) == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: %q in sheet %q", ErrColumnNotFound, column, sheet)
	}

	var values []string
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		if strings.TrimSpace(row[col]) == "" {
			continue
		}
		values = append(values, row[col])
	}
	return values, nil
}
