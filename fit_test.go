package labelgen

import (
	"image"
	"testing"
)

func stripes(w, h, period int) *RasterImage {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/period)%2 == 0 {
				img.Pix[y*img.Stride+x] = 0xff
			}
		}
	}
	return &RasterImage{Pix: img, DPI: DefaultDPI}
}

func TestTargetPixels(t *testing.T) {
	tests := []struct {
		w, h, dpi    float64
		wantW, wantH int
	}{
		{179, 54, 300, 746, 225},
		{72, 72, 300, 300, 300},
		{72, 72, 72, 72, 72},
		{0.1, 0.1, 300, 1, 1},
		{-5, -10, 300, 1, 1},
	}
	for _, tt := range tests {
		w, h := TargetPixels(tt.w, tt.h, tt.dpi)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("TargetPixels(%v, %v, %v) = %d x %d, want %d x %d", tt.w, tt.h, tt.dpi, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestFitOffsets(t *testing.T) {
	src := stripes(200, 60, 3)

	tests := []struct {
		name      string
		hasHeader bool
		wantY     float64
	}{
		{"caption only", false, 15},
		{"with header", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Fit(src, 189, 72, tt.hasHeader, DefaultFitOptions())
			if err != nil {
				t.Fatalf("Fit: %v", err)
			}
			if f.X != 5 || f.Y != tt.wantY {
				t.Errorf("offset = (%v, %v), want (5, %v)", f.X, f.Y, tt.wantY)
			}
			if f.Width != 179 || f.Height != 54 {
				t.Errorf("draw size = %v x %v, want 179 x 54", f.Width, f.Height)
			}
			if w, h := f.Image.Size(); w != 746 || h != 225 {
				t.Errorf("pixels = %d x %d, want 746 x 225", w, h)
			}
			if f.Image.DPI != DefaultDPI {
				t.Errorf("DPI = %v, want %v", f.Image.DPI, DefaultDPI)
			}
		})
	}
}

func TestFitScalesWithDPI(t *testing.T) {
	src := stripes(120, 40, 2)
	cells := [][2]float64{{189, 72}, {288, 72}, {432, 108}, {100.3, 33.7}}
	for _, c := range cells {
		lo := DefaultFitOptions()
		hi := lo
		hi.DPI = 2 * lo.DPI

		a, err := Fit(src, c[0], c[1], false, lo)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Fit(src, c[0], c[1], false, hi)
		if err != nil {
			t.Fatal(err)
		}
		aw, ah := a.Image.Size()
		bw, bh := b.Image.Size()
		if bw < 2*aw-1 || bw > 2*aw || bh < 2*ah-1 || bh > 2*ah {
			t.Errorf("cell %v: %dx%d at %v dpi vs %dx%d at %v dpi", c, aw, ah, lo.DPI, bw, bh, hi.DPI)
		}
		if a.Width != b.Width || a.Height != b.Height {
			t.Errorf("cell %v: draw size depends on dpi", c)
		}
	}
}

func TestFitKeepsTwoTones(t *testing.T) {
	src := stripes(97, 31, 1)
	for _, dpi := range []float64{72, 150, 300, 600} {
		opts := DefaultFitOptions()
		opts.DPI = dpi
		f, err := Fit(src, 189, 72, false, opts)
		if err != nil {
			t.Fatal(err)
		}
		var black, white int
		for _, v := range f.Image.Pix.Pix {
			switch v {
			case 0:
				black++
			case 0xff:
				white++
			default:
				t.Fatalf("dpi %v: gray value %d in output", dpi, v)
			}
		}
		if black == 0 || white == 0 {
			t.Errorf("dpi %v: black=%d white=%d, want both", dpi, black, white)
		}
	}
}

func TestFitDegenerateCell(t *testing.T) {
	f, err := Fit(stripes(10, 10, 1), 5, 5, true, DefaultFitOptions())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if w, h := f.Image.Size(); w != 1 || h != 1 {
		t.Errorf("pixels = %d x %d, want 1 x 1", w, h)
	}
	if f.Width <= 0 || f.Height <= 0 {
		t.Errorf("draw size = %v x %v, want positive", f.Width, f.Height)
	}
}

func TestFitCustomOptions(t *testing.T) {
	opts := FitOptions{DPI: 72, PadX: 0, PadY: 0, HeaderShift: 3, CaptionShift: 4}
	f, err := Fit(stripes(10, 10, 1), 100, 50, true, opts)
	if err != nil {
		t.Fatal(err)
	}
	if f.X != 0 || f.Y != -3 || f.Width != 100 || f.Height != 50 {
		t.Errorf("got %+v", *f)
	}
	if w, h := f.Image.Size(); w != 100 || h != 50 {
		t.Errorf("pixels = %d x %d, want 100 x 50", w, h)
	}
}

func TestFitNilImage(t *testing.T) {
	if _, err := Fit(nil, 100, 100, false, DefaultFitOptions()); err == nil {
		t.Fatal("expected error for nil image")
	}
}
