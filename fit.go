package labelgen

import (
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// FitOptions controls how a barcode is sized inside its cell. Paddings and
// shifts are in points.
type FitOptions struct {
	DPI          float64
	PadX         float64 // total horizontal padding
	PadY         float64 // total vertical padding, room for header and caption
	HeaderShift  float64 // moves the image down when a header is drawn
	CaptionShift float64 // moves the image up when there is no header
}

// DefaultFitOptions are tuned for Helvetica header/caption text.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		DPI:          DefaultDPI,
		PadX:         DefaultPadX,
		PadY:         DefaultPadY,
		HeaderShift:  DefaultHeaderShift,
		CaptionShift: DefaultCaptionShift,
	}
}

// Fitted is a resampled barcode and where to draw it, relative to the
// lower-left corner of the cell.
type Fitted struct {
	Image  *RasterImage
	X, Y   float64
	Width  float64
	Height float64
}

// TargetPixels converts an area in points to pixels at dpi, rounding up,
// never below one pixel.
func TargetPixels(wPt, hPt, dpi float64) (int, int) {
	px := func(v float64) int {
		n := math.Ceil(ptToPx(v, dpi))
		if n < 1 || math.IsNaN(n) {
			return 1
		}
		return int(n)
	}
	return px(wPt), px(hPt)
}

// Fit resamples img to fill the usable area of a cell at opts.DPI and
// returns the draw rectangle.
func Fit(img *RasterImage, cellW, cellH float64, hasHeader bool, opts FitOptions) (*Fitted, error) {
	if img == nil || img.Pix == nil {
		return nil, fmt.Errorf("fit: nil image")
	}
	if opts.DPI <= 0 {
		opts.DPI = DefaultDPI
	}

	availW := cellW - opts.PadX
	availH := cellH - opts.PadY
	pxW, pxH := TargetPixels(availW, availH, opts.DPI)

	dst := image.NewGray(image.Rect(0, 0, pxW, pxH))
	// nearest neighbour keeps bar edges hard
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img.Pix, img.Pix.Bounds(), xdraw.Src, nil)

	x := (cellW - availW) / 2
	y := (cellH - availH) / 2
	if hasHeader {
		y -= opts.HeaderShift
	} else {
		y += opts.CaptionShift
	}

	// degenerate cell: draw one target pixel instead of a negative box
	onePx := PointsPerInch / opts.DPI
	drawW, drawH := availW, availH
	if drawW <= 0 {
		drawW = onePx
	}
	if drawH <= 0 {
		drawH = onePx
	}

	return &Fitted{
		Image:  &RasterImage{Pix: dst, DPI: opts.DPI},
		X:      x,
		Y:      y,
		Width:  drawW,
		Height: drawH,
	}, nil
}
