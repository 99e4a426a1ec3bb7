package labelgen

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"strconv"

	"labelgen/metrics"

	"github.com/google/renameio/v2"
)

// LabelItem – one sequence number and the text encoded for it
type LabelItem struct {
	Number int
	Text   string
}

// NewLabelItem formats n as decimal text.
func NewLabelItem(n int) LabelItem {
	return LabelItem{Number: n, Text: strconv.Itoa(n)}
}

// Generator turns number ranges into label sheets.
type Generator struct {
	catalog    *Catalog
	rasterizer *Rasterizer
	fit        FitOptions
	page       PageSize
	font       FontChoice
	scale      float64
	fonts      *metrics.FontSet
	newSurface SurfaceFactory
	logger     *log.Logger
	dpi        float64
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger for per-page progress messages. nil keeps
// the generator silent.
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithFitOptions replaces the padding/shift constants.
func WithFitOptions(o FitOptions) Option {
	return func(g *Generator) { g.fit = o }
}

// WithDPI sets the resolution of both the barcode raster and the fitted
// image. It is applied after all other options, so it also overrides the
// DPI of WithFitOptions and WithRasterizer whatever their order.
func WithDPI(dpi float64) Option {
	return func(g *Generator) { g.dpi = dpi }
}

// WithScale sets the barcode module scale passed to the rasterizer.
func WithScale(scale float64) Option {
	return func(g *Generator) { g.scale = scale }
}

// WithFont selects the header and caption font.
func WithFont(f FontChoice) Option {
	return func(g *Generator) { g.font = f }
}

// WithPageSize overrides the Letter page.
func WithPageSize(p PageSize) Option {
	return func(g *Generator) { g.page = p }
}

// WithSurface replaces the PDF backend, mostly for tests.
func WithSurface(f SurfaceFactory) Option {
	return func(g *Generator) { g.newSurface = f }
}

// WithRasterizer replaces the barcode rasterizer.
func WithRasterizer(r *Rasterizer) Option {
	return func(g *Generator) { g.rasterizer = r }
}

// New creates a generator over catalog. A nil catalog means DefaultCatalog.
func New(catalog *Catalog, opts ...Option) (*Generator, error) {
	fonts, err := metrics.LoadGoFonts()
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	g := &Generator{
		catalog:    catalog,
		rasterizer: NewRasterizer(fonts),
		fit:        DefaultFitOptions(),
		page:       Letter,
		font:       FontHelvetica,
		scale:      1.0,
		fonts:      fonts,
		newSurface: NewPDFSurface,
		logger:     log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(g)
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard, "", 0)
	}
	if g.rasterizer == nil {
		g.rasterizer = NewRasterizer(fonts)
	}
	if g.dpi > 0 {
		g.fit.DPI = g.dpi
		g.rasterizer.DPI = g.dpi
	}
	return g, nil
}

// Catalog returns the templates the generator resolves names against.
func (g *Generator) Catalog() *Catalog { return g.catalog }

// Compose lays out start..end (inclusive) on the named template and draws
// every label. Nothing is written to disk.
func (g *Generator) Compose(start, end int, templateName, header string) (*Document, error) {
	if start > end {
		return nil, &RangeError{Start: start, End: end}
	}
	tpl, err := g.catalog.Lookup(templateName)
	if err != nil {
		return nil, err
	}

	layout := NewLayout(tpl, g.page)
	total := end - start + 1
	if total <= 0 {
		return nil, &RangeError{Start: start, End: end} // int overflow
	}
	pages := layout.PageCount(total)

	// only embed the TTF when it is drawn with
	var embed *metrics.FontSet
	if g.font == FontGo {
		embed = g.fonts
	}
	surface, err := g.newSurface(g.page, embed)
	if err != nil {
		return nil, err
	}

	open := -1
	onPage := 0
	for i := 0; i < total; i++ {
		p := layout.Place(i)
		if p.Page != open {
			if open >= 0 {
				if err := g.endPage(surface, open, pages, onPage); err != nil {
					return nil, err
				}
			}
			if err := surface.NewPage(); err != nil {
				return nil, fmt.Errorf("page %d: %w", p.Page+1, err)
			}
			open, onPage = p.Page, 0
		}

		item := NewLabelItem(start + i)
		if err := g.drawLabel(surface, tpl, p, item, header); err != nil {
			return nil, fmt.Errorf("label %s: %w", item.Text, err)
		}
		onPage++
	}
	if err := g.endPage(surface, open, pages, onPage); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := surface.Output(&buf); err != nil {
		return nil, err
	}
	return &Document{data: buf.Bytes(), PageCount: pages, LabelCount: total}, nil
}

func (g *Generator) endPage(s Surface, page, pages, labels int) error {
	if err := s.EndPage(); err != nil {
		return fmt.Errorf("page %d: %w", page+1, err)
	}
	g.logger.Printf("page %d/%d: %d labels", page+1, pages, labels)
	return nil
}

func (g *Generator) drawLabel(s Surface, tpl Template, p Placement, item LabelItem, header string) error {
	cellW, cellH := tpl.LabelWidth.Points(), tpl.LabelHeight.Points()
	centerX := p.X + cellW/2

	img, err := g.rasterizer.Rasterize(item.Text, g.scale)
	if err != nil {
		return err
	}
	fitted, err := Fit(img, cellW, cellH, header != "", g.fit)
	if err != nil {
		return err
	}

	if header != "" {
		if err := s.DrawText(centerX, p.Y+cellH-HeaderBaselineDrop, header, g.font, HeaderFontSize, true); err != nil {
			return fmt.Errorf("header: %w", err)
		}
	}
	if err := s.DrawImage(p.X+fitted.X, p.Y+fitted.Y, fitted.Width, fitted.Height, fitted.Image); err != nil {
		return fmt.Errorf("barcode: %w", err)
	}
	if err := s.DrawText(centerX, p.Y+CaptionBaselineRise, item.Text, g.font, CaptionFontSize, true); err != nil {
		return fmt.Errorf("caption: %w", err)
	}
	return nil
}

// Generate composes the sheet and saves it to path.
func (g *Generator) Generate(start, end int, templateName, header, path string) (*Document, error) {
	doc, err := g.Compose(start, end, templateName, header)
	if err != nil {
		return nil, err
	}
	if err := doc.Save(path); err != nil {
		return nil, err
	}
	return doc, nil
}

// Document – a composed label sheet, rendered to PDF bytes once
type Document struct {
	data       []byte
	PageCount  int
	LabelCount int
}

// WriteTo writes the document as PDF. It can be called any number of times.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	return bytes.NewReader(d.data).WriteTo(w)
}

// Bytes returns a copy of the rendered PDF.
func (d *Document) Bytes() []byte {
	return bytes.Clone(d.data)
}

// Save replaces path atomically, so a failed run never leaves a partial
// file at path.
func (d *Document) Save(path string) error {
	if err := renameio.WriteFile(path, d.data, 0644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
