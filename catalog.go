package labelgen

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Template – geometry of one sheet of die-cut labels
type Template struct {
	Name        string `json:"name"`
	Columns     int    `json:"columns"`
	Rows        int    `json:"rows"`
	LabelWidth  Length `json:"label_width"`
	LabelHeight Length `json:"label_height"`
	MarginLeft  Length `json:"margin_left"`
	MarginTop   Length `json:"margin_top"`
	HSpacing    Length `json:"h_spacing"`
	VSpacing    Length `json:"v_spacing"`
}

// PerPage returns the number of labels on one full sheet.
func (t Template) PerPage() int { return t.Columns * t.Rows }

// Validate checks the template is usable by the layout engine.
// Cells running past the page edge are allowed.
func (t Template) Validate() error {
	switch {
	case t.Name == "":
		return fmt.Errorf("template: empty name")
	case t.Columns <= 0:
		return fmt.Errorf("template %q: columns must be > 0, got %d", t.Name, t.Columns)
	case t.Rows <= 0:
		return fmt.Errorf("template %q: rows must be > 0, got %d", t.Name, t.Rows)
	case t.LabelWidth <= 0 || t.LabelHeight <= 0:
		return fmt.Errorf("template %q: label size must be positive", t.Name)
	case t.HSpacing < 0 || t.VSpacing < 0:
		return fmt.Errorf("template %q: spacing must not be negative", t.Name)
	}
	return nil
}

// builtinTemplates are the sheets known without any configuration.
var builtinTemplates = []Template{
	{
		Name:        "Avery 5160 (30 labels)",
		Columns:     3,
		Rows:        10,
		LabelWidth:  2.625 * Inch,
		LabelHeight: 1.0 * Inch,
		MarginLeft:  0.1875 * Inch,
		MarginTop:   0.5 * Inch,
	},
	{
		Name:        "Avery 6576 (20 labels)",
		Columns:     2,
		Rows:        10,
		LabelWidth:  4.0 * Inch,
		LabelHeight: 1.0 * Inch,
		MarginLeft:  0.25 * Inch,
		MarginTop:   0.5 * Inch,
	},
	{
		Name:        "Custom (one per page)",
		Columns:     1,
		Rows:        1,
		LabelWidth:  6.0 * Inch,
		LabelHeight: 1.5 * Inch,
		MarginLeft:  0.5 * Inch,
		MarginTop:   0.5 * Inch,
	},
}

// Catalog is an immutable, ordered set of templates looked up by name.
type Catalog struct {
	names  []string
	byName map[string]Template
}

// NewCatalog validates the templates and indexes them by name.
func NewCatalog(templates ...Template) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Template, len(templates))}
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[t.Name]; dup {
			return nil, fmt.Errorf("template %q registered twice", t.Name)
		}
		c.names = append(c.names, t.Name)
		c.byName[t.Name] = t
	}
	return c, nil
}

// DefaultCatalog returns the built-in label sheets.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(builtinTemplates...)
	if err != nil {
		panic(err) // built-ins are constant
	}
	return c
}

// Lookup returns the template registered under name.
func (c *Catalog) Lookup(name string) (Template, error) {
	t, ok := c.byName[name]
	if !ok {
		return Template{}, &UnknownTemplateError{Name: name}
	}
	return t, nil
}

// Names lists templates in registration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.names) }

// Merge returns a new catalog with templates added; an entry whose name is
// already present replaces the old geometry in place.
func (c *Catalog) Merge(templates ...Template) (*Catalog, error) {
	out := &Catalog{
		names:  append([]string(nil), c.names...),
		byName: make(map[string]Template, len(c.byName)+len(templates)),
	}
	for k, v := range c.byName {
		out.byName[k] = v
	}

	seen := map[string]bool{}
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("template %q registered twice", t.Name)
		}
		seen[t.Name] = true
		if _, ok := out.byName[t.Name]; !ok {
			out.names = append(out.names, t.Name)
		}
		out.byName[t.Name] = t
	}
	return out, nil
}

type catalogFile struct {
	Templates []Template `json:"templates"`
}

// LoadCatalog reads {"templates":[...]} and merges it over the built-ins.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var cf catalogFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return DefaultCatalog().Merge(cf.Templates...)
}

// LoadCatalogFile is LoadCatalog for a file on disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return LoadCatalog(f)
}
