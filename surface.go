package labelgen

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"errors"
	"fmt"
	"io"
	"time"

	"labelgen/metrics"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

// Surface is the page-drawing capability the composer renders onto.
// Coordinates are points with the origin at the bottom-left of the page.
type Surface interface {
	NewPage() error
	EndPage() error
	DrawText(x, y float64, text string, font FontChoice, size float64, centered bool) error
	DrawImage(x, y, w, h float64, img *RasterImage) error
	PageCount() int
	Output(w io.Writer) error
}

// SurfaceFactory creates an empty document of the given page size.
type SurfaceFactory func(page PageSize, fonts *metrics.FontSet) (Surface, error)

// FontChoice selects the font family used for header and caption text.
type FontChoice string

const (
	// FontHelvetica is the PDF core font; text must fit Windows-1252.
	FontHelvetica FontChoice = "helvetica"
	// FontGo embeds Go Regular, any UTF-8 text works.
	FontGo FontChoice = "go"
)

// ParseFontChoice maps a flag value to a FontChoice.
func ParseFontChoice(s string) (FontChoice, error) {
	switch FontChoice(s) {
	case FontHelvetica, "":
		return FontHelvetica, nil
	case FontGo:
		return FontGo, nil
	}
	return "", fmt.Errorf("unknown font %q (want %q or %q)", s, FontHelvetica, FontGo)
}

// documentEpoch is stamped as creation and modification date so identical
// input gives identical bytes.
var documentEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// PDFSurface draws onto a go-pdf/fpdf document.
type PDFSurface struct {
	pdf     *fpdf.Fpdf
	page    PageSize
	hasGo   bool
	written bool
	cp1252  *charmap.Charmap
	started bool
}

// NewPDFSurface creates an empty PDF with pages of the given size.
// fonts may be nil when only FontHelvetica is used.
func NewPDFSurface(page PageSize, fonts *metrics.FontSet) (Surface, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(documentEpoch)
	pdf.SetModificationDate(documentEpoch)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("labelgen", false)

	s := &PDFSurface{pdf: pdf, page: page, cp1252: charmap.Windows1252}
	if fonts != nil && len(fonts.RegularTTF) > 0 {
		pdf.AddUTF8FontFromBytes(string(FontGo), "", fonts.RegularTTF)
		s.hasGo = true
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("new pdf: %w", err)
	}
	return s, nil
}

// NewPage starts a new page.
func (s *PDFSurface) NewPage() error {
	s.pdf.AddPage()
	s.started = true
	return s.pdf.Error()
}

// EndPage closes the current page. fpdf finishes a page when the next one is
// added or the document is written, so there is only the error to report.
func (s *PDFSurface) EndPage() error {
	return s.pdf.Error()
}

// DrawText writes text with its baseline at y. With centered set, x is the
// middle of the string.
func (s *PDFSurface) DrawText(x, y float64, text string, font FontChoice, size float64, centered bool) error {
	switch font {
	case FontGo:
		if !s.hasGo {
			return fmt.Errorf("draw text: font %q not loaded", font)
		}
		s.pdf.SetFont(string(FontGo), "", size)
	default:
		s.pdf.SetFont("Helvetica", "", size)
		enc, err := s.cp1252.NewEncoder().String(text)
		if err != nil {
			return fmt.Errorf("draw text %q: not representable in Helvetica: %w", text, err)
		}
		text = enc
	}

	if centered {
		x -= s.pdf.GetStringWidth(text) / 2
	}
	s.pdf.Text(x, s.page.Height-y, text)
	return s.pdf.Error()
}

// DrawImage places img in the box whose lower-left corner is (x, y).
//
// The bitmap goes into the page content as an inline image. fpdf's image
// XObjects are emitted in map order, which would make two runs over the
// same input differ.
func (s *PDFSurface) DrawImage(x, y, w, h float64, img *RasterImage) error {
	if s.written {
		return errWritten
	}
	pxW, pxH, data, err := encodeInlineImage(img)
	if err != nil {
		return fmt.Errorf("draw image: %w", err)
	}
	// unit is pt, so page space needs no scaling
	s.pdf.RawWriteStr(fmt.Sprintf("q %.3f 0 0 %.3f %.3f %.3f cm", w, h, x, y))
	s.pdf.RawWriteStr(fmt.Sprintf("BI /W %d /H %d /CS /G /BPC 1 /F [/A85 /Fl] ID\n%s~>\nEI", pxW, pxH, data))
	s.pdf.RawWriteStr("Q")
	return s.pdf.Error()
}

// PageCount returns the number of pages started so far.
func (s *PDFSurface) PageCount() int {
	if !s.started {
		return 0
	}
	return s.pdf.PageCount()
}

// errWritten is returned when a surface is used after Output, fpdf closes
// the document when it writes it.
var errWritten = errors.New("pdf surface already written")

// Output writes the finished PDF. It can be called once.
func (s *PDFSurface) Output(w io.Writer) error {
	if s.written {
		return errWritten
	}
	s.written = true
	if err := s.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// encodeInlineImage packs img to one bit per pixel (1 is white), deflates
// it and returns the ASCII85 text without the "~>" terminator.
func encodeInlineImage(img *RasterImage) (w, h int, data []byte, err error) {
	if img == nil || img.Pix == nil {
		return 0, 0, nil, errors.New("nil image")
	}
	b := img.Pix.Bounds()
	w, h = b.Dx(), b.Dy()
	stride := (w + 7) / 8

	var out bytes.Buffer
	a85 := ascii85.NewEncoder(&out)
	zw, err := zlib.NewWriterLevel(a85, zlib.BestCompression)
	if err != nil {
		return 0, 0, nil, err
	}
	row := make([]byte, stride)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		clear(row)
		for x := 0; x < w; x++ {
			if img.Pix.GrayAt(b.Min.X+x, y).Y >= 0x80 {
				row[x/8] |= 0x80 >> (x % 8)
			}
		}
		if _, err := zw.Write(row); err != nil {
			return 0, 0, nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return 0, 0, nil, err
	}
	if err := a85.Close(); err != nil {
		return 0, 0, nil, err
	}
	return w, h, out.Bytes(), nil
}
