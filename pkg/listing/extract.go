package listing

import (
	"errors"
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// Field identifies one extracted product attribute.
type Field string

const (
	FieldTitle    Field = "title"
	FieldKeywords Field = "keywords"
	FieldPrice    Field = "price"
	FieldSales    Field = "sales"
	FieldShop     Field = "shop"
)

// Fields lists every extracted field in report order.
var Fields = []Field{FieldTitle, FieldKeywords, FieldPrice, FieldSales, FieldShop}

// Product is one product block from a search-result page.
type Product struct {
	SKU      string
	Title    string
	Price    *float64
	Shop     string
	Sales    string // free text, e.g. "已售1万+"
	Keywords []string
}

// Item is a Product together with the fields its block did not provide.
type Item struct {
	Product Product
	Missing []Field
}

// Complete reports whether every field was found.
func (it Item) Complete() bool { return len(it.Missing) == 0 }

// Extraction is the best-effort result for one page.
type Extraction struct {
	Items []Item
}

// Len returns the number of product blocks found.
func (e Extraction) Len() int { return len(e.Items) }

// Products returns the extracted products in page order.
func (e Extraction) Products() []Product {
	out := make([]Product, len(e.Items))
	for i, it := range e.Items {
		out[i] = it.Product
	}
	return out
}

// Partial returns how many items are missing at least one field.
func (e Extraction) Partial() int {
	n := 0
	for _, it := range e.Items {
		if !it.Complete() {
			n++
		}
	}
	return n
}

// Extract finds every product block in doc and reads its fields. Missing
// fields never abort extraction; they are left empty and listed in Item.Missing.
func (s *Schema) Extract(doc *html.Node) (Extraction, error) {
	if !s.compiled {
		if err := s.Compile(); err != nil {
			return Extraction{}, err
		}
	}
	if doc == nil {
		return Extraction{}, errors.New("nil document")
	}
	var ex Extraction
	for _, block := range s.item.MatchAll(doc) {
		ex.Items = append(ex.Items, s.extractItem(block))
	}
	return ex, nil
}

func (s *Schema) extractItem(block *html.Node) Item {
	var it Item
	p := &it.Product
	if s.IDAttr != "" {
		p.SKU = strings.TrimSpace(dom.GetAttribute(block, s.IDAttr))
	}

	if n := s.first(FieldTitle, block); n != nil {
		p.Title = strippedText(n)
	} else {
		it.Missing = append(it.Missing, FieldTitle)
	}

	if nodes := s.all(FieldKeywords, block); len(nodes) > 0 {
		for _, n := range nodes {
			if kw := strippedText(n); kw != "" {
				p.Keywords = append(p.Keywords, kw)
			}
		}
	} else {
		it.Missing = append(it.Missing, FieldKeywords)
	}

	if n := s.first(FieldPrice, block); n != nil {
		p.Price = ParsePrice(priceText(n))
	}
	if p.Price == nil {
		it.Missing = append(it.Missing, FieldPrice)
	}

	if n := s.first(FieldSales, block); n != nil {
		p.Sales = strippedText(n)
	} else {
		it.Missing = append(it.Missing, FieldSales)
	}

	if n := s.first(FieldShop, block); n != nil {
		p.Shop = strippedText(n)
	} else {
		it.Missing = append(it.Missing, FieldShop)
	}
	return it
}

func (s *Schema) first(f Field, block *html.Node) *html.Node {
	sel, ok := s.fields[f]
	if !ok {
		return nil
	}
	return sel.MatchFirst(block)
}

func (s *Schema) all(f Field, block *html.Node) []*html.Node {
	sel, ok := s.fields[f]
	if !ok {
		return nil
	}
	return sel.MatchAll(block)
}

// textFragments returns the raw text nodes under n in document order.
func textFragments(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			out = append(out, n.Data)
			return
		}
		if n.Type == html.ElementNode {
			switch dom.TagName(n) {
			case "script", "style":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// strippedText trims every text fragment under n and concatenates them.
func strippedText(n *html.Node) string {
	var b strings.Builder
	for _, frag := range textFragments(n) {
		b.WriteString(strings.TrimSpace(frag))
	}
	return b.String()
}

// priceText concatenates the non-blank raw fragments under n, e.g.
// "¥", "199", ".", "00" becomes "¥199.00".
func priceText(n *html.Node) string {
	var b strings.Builder
	for _, frag := range textFragments(n) {
		if strings.TrimSpace(frag) == "" {
			continue
		}
		b.WriteString(frag)
	}
	return b.String()
}
