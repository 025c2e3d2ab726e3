// Package listing extracts product records from saved search-result pages.
package listing

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

//go:embed default_schema.yaml
var defaultSchemaYAML []byte

// ErrInvalidSchema is returned for schemas with a missing item selector or a
// selector that does not compile.
var ErrInvalidSchema = errors.New("invalid extraction schema")

// Schema names the structural selectors used to find product blocks and the
// fields inside them. Field selectors are evaluated relative to a block.
type Schema struct {
	Item     string `yaml:"item"`
	IDAttr   string `yaml:"id_attr"`
	Title    string `yaml:"title"`
	Keywords string `yaml:"keywords"`
	Price    string `yaml:"price"`
	Sales    string `yaml:"sales"`
	Shop     string `yaml:"shop"`

	item     cascadia.Selector
	fields   map[Field]cascadia.Selector
	compiled bool
}

// DefaultSchema returns the built-in schema for the bundled page layout.
func DefaultSchema() (*Schema, error) {
	return ParseSchema(defaultSchemaYAML)
}

// LoadSchema reads a YAML schema from path.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes and compiles a YAML schema.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if err := s.Compile(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Compile validates every selector. Empty field selectors are allowed and
// leave that field permanently missing.
func (s *Schema) Compile() error {
	if strings.TrimSpace(s.Item) == "" {
		return fmt.Errorf("%w: item selector is required", ErrInvalidSchema)
	}
	item, err := cascadia.Compile(s.Item)
	if err != nil {
		return fmt.Errorf("%w: item %q: %v", ErrInvalidSchema, s.Item, err)
	}
	s.item = item
	s.fields = make(map[Field]cascadia.Selector, len(Fields))
	for _, f := range Fields {
		raw := s.selector(f)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		sel, err := cascadia.Compile(raw)
		if err != nil {
			return fmt.Errorf("%w: %s %q: %v", ErrInvalidSchema, f, raw, err)
		}
		s.fields[f] = sel
	}
	s.compiled = true
	return nil
}

func (s *Schema) selector(f Field) string {
	switch f {
	case FieldTitle:
		return s.Title
	case FieldKeywords:
		return s.Keywords
	case FieldPrice:
		return s.Price
	case FieldSales:
		return s.Sales
	case FieldShop:
		return s.Shop
	}
	return ""
}
