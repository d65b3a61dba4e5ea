package ui

const (
	MinCols = 60
	MinRows = 20
)

func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < MinCols || rows < MinRows {
		return LayoutTooSmall
	}
	if cols >= 100 && rows >= 28 {
		return LayoutWide
	}
	return LayoutMedium
}
