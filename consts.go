package labelgen

// Units, all lengths in the package are PDF points
const (
	PointsPerInch = 72.0
	MMPerInch     = 25.4
	Inch          = PointsPerInch
	MM            = PointsPerInch / MMPerInch
	CM            = 10 * MM
)

// Letter is the 8.5x11 in page every built-in template is laid out on.
var Letter = PageSize{Width: 8.5 * Inch, Height: 11 * Inch}

// Label text
const (
	HeaderFontSize  = 9.0
	CaptionFontSize = 8.0

	// header baseline below the top edge of the cell
	HeaderBaselineDrop = 10.0
	// caption baseline above the bottom edge of the cell
	CaptionBaselineRise = 4.0
)

// Image fitting defaults, tuned for Helvetica at the sizes above
const (
	DefaultDPI          = 300.0
	DefaultPadX         = 10.0
	DefaultPadY         = 18.0
	DefaultHeaderShift  = 8.0
	DefaultCaptionShift = 6.0
)

// Barcode raster defaults, millimeters unless noted
const (
	DefaultModuleWidth  = 0.2
	DefaultModuleHeight = 15.0
	DefaultQuietZone    = 2.0
	DefaultTextDistance = 1.0
	DefaultFontSizePt   = 10.0
)
