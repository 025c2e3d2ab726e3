// Package report writes the spreadsheet and image outputs of an analysis run.
package report

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
)

var (
	// ErrNoData is returned when a chart has nothing to plot.
	ErrNoData = errors.New("no data to render")
	// ErrNoFont is returned when a renderer requires a font and none was loaded.
	ErrNoFont = errors.New("no font loaded")
)

// LoadFont reads a TrueType font. CJK labels need a font with CJK glyphs,
// e.g. SimHei on Windows.
func LoadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}
