package labelgen

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"labelgen/metrics"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// RasterImage is a two-tone grayscale bitmap tagged with the resolution it
// was rendered for.
type RasterImage struct {
	Pix *image.Gray
	DPI float64
}

// Size returns the bitmap size in pixels.
func (r *RasterImage) Size() (w, h int) {
	b := r.Pix.Bounds()
	return b.Dx(), b.Dy()
}

// Rasterizer draws Code 128 symbols. Module sizes, quiet zone and text
// distance are in millimeters, FontSize in points.
type Rasterizer struct {
	ModuleWidth  float64
	ModuleHeight float64
	QuietZone    float64
	TextDistance float64
	FontSize     float64 // 0 - bars only
	DPI          float64
	Fonts        *metrics.FontSet
}

// NewRasterizer returns a rasterizer with the default symbol geometry.
func NewRasterizer(fonts *metrics.FontSet) *Rasterizer {
	return &Rasterizer{
		ModuleWidth:  DefaultModuleWidth,
		ModuleHeight: DefaultModuleHeight,
		QuietZone:    DefaultQuietZone,
		TextDistance: DefaultTextDistance,
		FontSize:     DefaultFontSizePt,
		DPI:          DefaultDPI,
		Fonts:        fonts,
	}
}

// Rasterize renders text as a barcode. Module width and height grow with
// scale; font size and quiet zone do not.
func (r *Rasterizer) Rasterize(text string, scale float64) (*RasterImage, error) {
	if scale <= 0 {
		scale = 1
	}
	dpi := r.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	bc, err := code128.Encode(text)
	if err != nil {
		return nil, &EncodingError{Text: text, Err: err}
	}

	modules := bc.Bounds().Dx()
	modulePx := max(1, int(math.Round(mmToPx(r.ModuleWidth*scale, dpi))))
	barPx := max(1, int(math.Round(mmToPx(r.ModuleHeight*scale, dpi))))
	quietPx := int(math.Round(mmToPx(r.QuietZone, dpi)))
	padPx := int(math.Round(mmToPx(1, dpi)))

	var (
		face  font.Face
		textH int
		gapPx int
	)
	if r.FontSize > 0 {
		if r.Fonts == nil {
			return nil, fmt.Errorf("rasterize %q: no fonts for the caption", text)
		}
		face, err = r.Fonts.Face(metrics.Regular, r.FontSize, dpi)
		if err != nil {
			return nil, fmt.Errorf("rasterize %q: %w", text, err)
		}
		defer func() {
			_ = face.Close()
		}()
		m := face.Metrics()
		textH = (m.Ascent + m.Descent).Ceil()
		gapPx = int(math.Round(mmToPx(r.TextDistance, dpi)))
	}

	width := 2*quietPx + modules*modulePx
	height := padPx + barPx + gapPx + textH + padPx

	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	bars, err := barcode.Scale(bc, modules*modulePx, barPx)
	if err != nil {
		return nil, fmt.Errorf("rasterize %q: %w", text, err)
	}
	draw.Draw(img, image.Rect(quietPx, padPx, quietPx+modules*modulePx, padPx+barPx), bars, image.Point{}, draw.Src)

	if face != nil {
		wPt, err := r.Fonts.Measure(text, metrics.Regular, r.FontSize)
		if err != nil {
			return nil, fmt.Errorf("rasterize %q: %w", text, err)
		}
		x := (width - int(math.Round(ptToPx(wPt, dpi)))) / 2
		baseline := padPx + barPx + gapPx + face.Metrics().Ascent.Ceil()
		d := &font.Drawer{
			Dst:  img,
			Src:  image.Black,
			Face: face,
			Dot:  fixed.P(x, baseline),
		}
		d.DrawString(text)
		binarize(img)
	}

	return &RasterImage{Pix: img, DPI: dpi}, nil
}

// binarize snaps antialiased glyph pixels to black or white.
func binarize(img *image.Gray) {
	for i, v := range img.Pix {
		if v < 0x80 {
			img.Pix[i] = 0
		} else {
			img.Pix[i] = 0xff
		}
	}
}
