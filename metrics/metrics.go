package metrics

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

type Style int

const (
	Regular Style = iota
	Bold
	Italic
	BoldItalic
)

// FontSet holds the four faces of one family. The raw TTF bytes are kept
// so the same family can be embedded into the output document.
type FontSet struct {
	Regular    *sfnt.Font
	Bold       *sfnt.Font
	Italic     *sfnt.Font
	BoldItalic *sfnt.Font

	RegularTTF []byte
}

// FontMeasurer is anything that can measure a string.
type FontMeasurer interface {
	Measure(s string, style Style, sizePt float64) (float64, error)
}

// LoadGoFonts parses the Go fonts compiled into x/image.
func LoadGoFonts() (*FontSet, error) {
	return parseFonts(goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF)
}

// LoadFonts loads TTF files from disk.
func LoadFonts(pathRegular, pathBold, pathItalic, pathBoldItalic string) (*FontSet, error) {
	paths := []string{pathRegular, pathBold, pathItalic, pathBoldItalic}
	raw := make([][]byte, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", path, err)
		}
		raw[i] = data
	}
	return parseFonts(raw...)
}

func parseFonts(raw ...[]byte) (*FontSet, error) {
	var fonts [4]*sfnt.Font
	for i, data := range raw {
		f, err := sfnt.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %d: %w", i, err)
		}
		fonts[i] = f
	}
	return &FontSet{
		Regular:    fonts[0],
		Bold:       fonts[1],
		Italic:     fonts[2],
		BoldItalic: fonts[3],
		RegularTTF: raw[0],
	}, nil
}

func (fs *FontSet) font(style Style) (*sfnt.Font, error) {
	switch style {
	case Regular:
		return fs.Regular, nil
	case Bold:
		return fs.Bold, nil
	case Italic:
		return fs.Italic, nil
	case BoldItalic:
		return fs.BoldItalic, nil
	}
	return nil, fmt.Errorf("unknown style %d", style)
}

// Measure returns the advance width of text in points.
func (fs *FontSet) Measure(text string, style Style, sizePt float64) (float64, error) {
	f, err := fs.font(style)
	if err != nil {
		return 0, err
	}

	// advances are requested at ppem == unitsPerEm, i.e. in font units
	unitsPerEm := f.UnitsPerEm()
	ppem := fixed.I(int(unitsPerEm))

	buf := &sfnt.Buffer{}
	total := 0.0
	for _, r := range text {
		gid, err := f.GlyphIndex(buf, r)
		if err != nil {
			return 0, fmt.Errorf("glyphIndex: %w", err)
		}
		adv, err := f.GlyphAdvance(buf, gid, ppem, font.HintingNone)
		if err != nil {
			return 0, fmt.Errorf("glyphAdvance: %w", err)
		}
		total += float64(adv) / 64.0
	}

	return total * sizePt / float64(unitsPerEm), nil
}

// Face returns a rasterizing face of the given size at dpi.
func (fs *FontSet) Face(style Style, sizePt, dpi float64) (font.Face, error) {
	f, err := fs.font(style)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePt,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return face, nil
}
