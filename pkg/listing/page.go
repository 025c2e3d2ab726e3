package listing

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-shiori/dom"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// PageExt is the suffix of saved search-result pages.
const PageExt = ".html"

// Meta is best-effort descriptive information about a page.
type Meta struct {
	Title    string
	SiteName string
}

// Page is a parsed, locally saved search-result page.
type Page struct {
	Path string
	Name string
	Meta Meta
	// MetaErr records why readability could not describe the page. It never
	// prevents extraction.
	MetaErr error
	Doc     *html.Node
}

// FindPages lists the regular files in dir whose names end in PageExt, sorted by name.
func FindPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), PageExt) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// OutputName is the per-page output directory name: the file name up to its first dot.
func OutputName(fileName string) string {
	base := filepath.Base(fileName)
	name, _, _ := strings.Cut(base, ".")
	if name == "" {
		return base
	}
	return name
}

// LoadPage reads, decodes and parses the page at path.
func LoadPage(path string) (*Page, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", path, err)
	}
	return ParsePage(path, raw)
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// ParsePage decodes raw to UTF-8 and parses it. An empty file parses as an
// empty document.
func ParsePage(path string, raw []byte) (*Page, error) {
	body, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	page := &Page{
		Path: path,
		Name: filepath.Base(path),
		Doc:  doc,
	}
	page.Meta, page.MetaErr = readMeta(path, body)
	if page.Meta.Title == "" {
		if titles := dom.GetElementsByTagName(doc, "title"); len(titles) > 0 {
			page.Meta.Title = strings.TrimSpace(dom.TextContent(titles[0]))
		}
	}
	return page, nil
}

// decode returns raw as UTF-8. Pages are UTF-8 unless a BOM says otherwise or
// the bytes are not valid UTF-8, in which case the meta charset (or the
// windows-1252 fallback) decides.
func decode(raw []byte) ([]byte, error) {
	if bytes.HasPrefix(raw, utf8BOM) {
		return raw[len(utf8BOM):], nil
	}
	e, name, certain := charset.DetermineEncoding(raw, "text/html")
	if !certain && utf8.Valid(raw) {
		return raw, nil
	}
	if name == "utf-8" {
		return raw, nil
	}
	return e.NewDecoder().Bytes(raw)
}

// readMeta runs readability on its own parse of body since it mutates the tree.
func readMeta(path string, body []byte) (Meta, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	pageURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return Meta{}, fmt.Errorf("readability %s: %w", path, err)
	}
	return Meta{
		Title:    strings.TrimSpace(article.Title),
		SiteName: strings.TrimSpace(article.SiteName),
	}, nil
}
