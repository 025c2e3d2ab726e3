package report

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/japaniel/shelfscan/pkg/freq"
	"golang.org/x/image/font"
)

// viridis samples the viridis colormap from dark to light.
var viridis = []color.Color{
	color.RGBA{0x44, 0x01, 0x54, 0xff},
	color.RGBA{0x48, 0x28, 0x78, 0xff},
	color.RGBA{0x3e, 0x4a, 0x89, 0xff},
	color.RGBA{0x31, 0x68, 0x8e, 0xff},
	color.RGBA{0x26, 0x82, 0x8e, 0xff},
	color.RGBA{0x1f, 0x9e, 0x89, 0xff},
	color.RGBA{0x35, 0xb7, 0x79, 0xff},
	color.RGBA{0x6d, 0xcd, 0x59, 0xff},
	color.RGBA{0xb4, 0xde, 0x2c, 0xff},
	color.RGBA{0xfd, 0xe7, 0x25, 0xff},
}

// WordCloud lays words out on a spiral from the centre, larger words first.
// Layout is deterministic for a given table.
type WordCloud struct {
	Font        *truetype.Font
	Width       int
	Height      int
	MaxWords    int
	MinFontSize float64
	MaxFontSize float64
	Background  color.Color
	Colors      []color.Color
}

// NewWordCloud returns a 1000x600 cloud of at most 200 words on white.
func NewWordCloud(f *truetype.Font) *WordCloud {
	return &WordCloud{
		Font:        f,
		Width:       1000,
		Height:      600,
		MaxWords:    200,
		MinFontSize: 10,
		MaxFontSize: 110,
		Background:  color.White,
		Colors:      viridis,
	}
}

type placed struct {
	rect  image.Rectangle
	word  string
	size  float64
	color color.Color
}

// Render draws the table as a PNG to w.
func (wc *WordCloud) Render(w io.Writer, t freq.Table) error {
	if wc.Font == nil {
		return ErrNoFont
	}
	words := t.Top(wc.MaxWords)
	if words.Len() == 0 {
		return ErrNoData
	}

	dc := gg.NewContext(wc.Width, wc.Height)
	dc.SetColor(wc.Background)
	dc.Clear()

	faces := map[float64]font.Face{}
	face := func(size float64) font.Face {
		if f, ok := faces[size]; ok {
			return f
		}
		f := truetype.NewFace(wc.Font, &truetype.Options{Size: size})
		faces[size] = f
		return f
	}

	minSize := math.Max(wc.MinFontSize, 1)
	bounds := image.Rect(0, 0, wc.Width, wc.Height)
	maxCount := float64(words[0].Count)
	var layout []placed
	for i, e := range words {
		size := math.Max(wc.fontSize(float64(e.Count)/maxCount), minSize)
		for size >= minSize {
			dc.SetFontFace(face(size))
			tw, th := dc.MeasureString(e.Term)
			if r, ok := wc.findSpot(int(math.Ceil(tw)), int(math.Ceil(th)), bounds, layout); ok {
				layout = append(layout, placed{
					rect:  r,
					word:  e.Term,
					size:  size,
					color: wc.Colors[i%len(wc.Colors)],
				})
				break
			}
			size = math.Floor(size * 0.8)
		}
	}

	for _, p := range layout {
		dc.SetFontFace(face(p.size))
		dc.SetColor(p.color)
		cx := float64(p.rect.Min.X+p.rect.Max.X) / 2
		cy := float64(p.rect.Min.Y+p.rect.Max.Y) / 2
		dc.DrawStringAnchored(p.word, cx, cy, 0.5, 0.35)
	}
	return dc.EncodePNG(w)
}

func (wc *WordCloud) fontSize(rel float64) float64 {
	// Half of the size is fixed and half follows relative frequency.
	size := wc.MaxFontSize * (0.5 + 0.5*rel)
	return math.Max(math.Round(size), wc.MinFontSize)
}

// findSpot walks an Archimedean spiral out from the centre until a w x h box
// fits inside bounds without touching any placed word.
func (wc *WordCloud) findSpot(w, h int, bounds image.Rectangle, layout []placed) (image.Rectangle, bool) {
	if w <= 0 || h <= 0 || w > bounds.Dx() || h > bounds.Dy() {
		return image.Rectangle{}, false
	}
	cx, cy := float64(bounds.Dx())/2, float64(bounds.Dy())/2
	aspect := float64(bounds.Dy()) / float64(bounds.Dx())
	maxRadius := math.Hypot(cx, cy)
	for theta := 0.0; ; theta += 0.1 {
		radius := 2 * theta
		if radius > maxRadius {
			return image.Rectangle{}, false
		}
		x := int(cx + radius*math.Cos(theta) - float64(w)/2)
		y := int(cy + radius*math.Sin(theta)*aspect - float64(h)/2)
		r := image.Rect(x, y, x+w, y+h)
		if !r.In(bounds) {
			continue
		}
		if !overlaps(r, layout) {
			return r, true
		}
	}
}

func overlaps(r image.Rectangle, layout []placed) bool {
	for _, p := range layout {
		if r.Overlaps(p.rect.Inset(-1)) {
			return true
		}
	}
	return false
}
