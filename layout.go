package labelgen

// PageSize in points.
type PageSize struct {
	Width  float64
	Height float64
}

// Placement is the cell assigned to one item. X/Y is the lower-left corner
// of the cell in page coordinates (origin bottom-left, y upward).
type Placement struct {
	Page int
	Row  int
	Col  int
	X    float64
	Y    float64
}

// Positions returns the left edge of every column and the bottom edge of
// every row. Row 0 is the top row, so ys decreases with the row index.
func Positions(t Template, page PageSize) (xs, ys []float64) {
	w, h := t.LabelWidth.Points(), t.LabelHeight.Points()
	left, top := t.MarginLeft.Points(), t.MarginTop.Points()
	hs, vs := t.HSpacing.Points(), t.VSpacing.Points()

	xs = make([]float64, max(t.Columns, 0))
	for i := range xs {
		xs[i] = left + float64(i)*(w+hs)
	}
	ys = make([]float64, max(t.Rows, 0))
	for r := range ys {
		ys[r] = page.Height - top - float64(r+1)*h - float64(r)*vs
	}
	return xs, ys
}

// PageCount is ceil(total / (columns*rows)), zero for an empty run.
func PageCount(total, columns, rows int) int {
	perPage := columns * rows
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// PlacementForIndex maps the i-th item to its page and cell. Rows fill
// left to right, pages fill top to bottom before the next one starts.
func PlacementForIndex(i, columns, rows int) (page, row, col int) {
	perPage := columns * rows
	page = i / perPage
	inPage := i % perPage
	return page, inPage / columns, inPage % columns
}

// Layout caches the cell origins of one template on one page size.
type Layout struct {
	Template Template
	Page     PageSize
	xs, ys   []float64
}

// NewLayout computes the cell origins once.
func NewLayout(t Template, page PageSize) *Layout {
	xs, ys := Positions(t, page)
	return &Layout{Template: t, Page: page, xs: xs, ys: ys}
}

// Place returns the placement of the i-th item.
func (l *Layout) Place(i int) Placement {
	page, row, col := PlacementForIndex(i, l.Template.Columns, l.Template.Rows)
	return Placement{Page: page, Row: row, Col: col, X: l.xs[col], Y: l.ys[row]}
}

// Placements lays out total items.
func (l *Layout) Placements(total int) []Placement {
	if total <= 0 {
		return nil
	}
	out := make([]Placement, total)
	for i := range out {
		out[i] = l.Place(i)
	}
	return out
}

// PageCount returns the number of sheets total items need.
func (l *Layout) PageCount(total int) int {
	return PageCount(total, l.Template.Columns, l.Template.Rows)
}
