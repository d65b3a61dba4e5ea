package ui

import (
	"math"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"mindmaster/internal/gesture"
)

const hudWidth = 32

// Asset footprints are authored in pixels; a terminal cell is roughly 20x40 px.
const (
	pxPerCol = 20
	pxPerRow = 40
)

// playRect is the inner play area in absolute terminal cells.
func (r *Root) playRect() gesture.Rect {
	w := r.cols
	if DetermineLayoutMode(r.cols, r.rows) == LayoutWide {
		w = max(20, r.cols-hudWidth)
	}
	bodyH := max(3, r.rows-2)
	return gesture.Rect{X: 1, Y: 2, W: float64(max(1, w-2)), H: float64(max(1, bodyH-2))}
}

func assetGlyph(a AssetState) string {
	switch a.Kind {
	case "shape":
		switch {
		case strings.HasPrefix(a.Content, "shadow tilt-left"):
			return "◢▄▄"
		case strings.HasPrefix(a.Content, "shadow tilt-right"):
			return "▄▄◣"
		case strings.HasPrefix(a.Content, "shadow"):
			return "▄▄▄"
		case strings.HasPrefix(a.Content, "hand"):
			return "┃"
		case strings.HasPrefix(a.Content, "glow"):
			return "░"
		}
		return "■"
	case "image":
		return "▣"
	}
	return a.Content
}

// assetBox is the cell footprint of a, never narrower than its glyph.
func assetBox(a AssetState) (w, h float64) {
	gw := ansi.StringWidth(assetGlyph(a))
	return float64(max(gw, a.Width/pxPerCol)), float64(max(1, a.Height/pxPerRow))
}

func (r *Root) assetOffset(id string) gesture.Point {
	return r.offsets[id]
}

// assetCenter is where a is drawn, clamped to the play area.
func (r *Root) assetCenter(a AssetState, rect gesture.Rect) gesture.Point {
	if r.tracker.Active() && r.tracker.AssetID() == a.ID {
		return r.dragCenter
	}
	off := r.assetOffset(a.ID)
	c := rect.At(gesture.Point{X: a.X + off.X, Y: a.Y + off.Y})
	c.X = math.Min(math.Max(c.X, rect.X), rect.X+rect.W-1)
	c.Y = math.Min(math.Max(c.Y, rect.Y), rect.Y+rect.H-1)
	return c
}

// assetAt returns the topmost visible asset under p.
func (r *Root) assetAt(p gesture.Point) (AssetState, gesture.Point, bool) {
	rect := r.playRect()
	for i := len(r.play.Assets) - 1; i >= 0; i-- {
		a := r.play.Assets[i]
		if !a.Visible {
			continue
		}
		c := r.assetCenter(a, rect)
		w, h := assetBox(a)
		if gesture.Centered(c, w, h).Contains(p) {
			return a, c, true
		}
	}
	return AssetState{}, gesture.Point{}, false
}

// setOffset records that id now sits at (x,y) percent of the play area.
func (r *Root) setOffset(id string, x, y float64) {
	for _, a := range r.play.Assets {
		if a.ID == id {
			r.offsets[id] = gesture.Point{X: x - a.X, Y: y - a.Y}
			return
		}
	}
}

type canvasCell struct {
	s     string
	width int
	cont  bool
}

// canvas is a grid of terminal cells that understands double-width glyphs.
type canvas struct {
	w, h  int
	cells [][]canvasCell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: max(1, w), h: max(1, h)}
	c.cells = make([][]canvasCell, c.h)
	for y := range c.cells {
		c.cells[y] = make([]canvasCell, c.w)
	}
	return c
}

func (c *canvas) blank(x, y int) {
	row := c.cells[y]
	for x > 0 && row[x].cont {
		x--
	}
	span := max(1, row[x].width)
	for i := x; i < x+span && i < c.w; i++ {
		row[i] = canvasCell{}
	}
}

// put draws glyph with its left edge at column x. Glyphs that do not fit are clipped whole.
func (c *canvas) put(x, y int, glyph string, style *lipgloss.Style) {
	gw := ansi.StringWidth(glyph)
	if gw == 0 || y < 0 || y >= c.h || x < 0 || x+gw > c.w {
		return
	}
	for i := x; i < x+gw; i++ {
		if c.cells[y][i].s != "" || c.cells[y][i].cont {
			c.blank(i, y)
		}
	}
	if x+gw < c.w && c.cells[y][x+gw].cont {
		c.blank(x+gw, y)
	}
	s := glyph
	if style != nil {
		s = style.Render(glyph)
	}
	c.cells[y][x] = canvasCell{s: s, width: gw}
	for i := x + 1; i < x+gw; i++ {
		c.cells[y][i] = canvasCell{cont: true}
	}
}

func (c *canvas) lines() []string {
	out := make([]string, c.h)
	var b strings.Builder
	for y, row := range c.cells {
		b.Reset()
		for _, cell := range row {
			if cell.cont {
				continue
			}
			if cell.s == "" {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(cell.s)
		}
		out[y] = b.String()
	}
	return out
}

func (r *Root) renderPlayfield(rect gesture.Rect) []string {
	cv := newCanvas(int(rect.W), int(rect.H))
	for _, a := range r.play.Assets {
		if !a.Visible {
			continue
		}
		c := r.assetCenter(a, rect)
		w, h := assetBox(a)
		left := int(math.Floor(c.X-w/2+0.5)) - int(rect.X)
		top := int(math.Floor(c.Y-h/2+0.5)) - int(rect.Y)
		glyph := assetGlyph(a)

		var style *lipgloss.Style
		switch {
		case r.tracker.Active() && r.tracker.AssetID() == a.ID:
			style = &r.theme.Dragging
		case a.Filter == "heated":
			style = &r.theme.Heated
		case a.Kind == "shape":
			style = &r.theme.Muted
		}

		switch {
		case a.Kind == "shape" && strings.HasPrefix(a.Content, "glow"):
			if r.play.Dark {
				continue
			}
			for y := top; y < top+int(h); y++ {
				for x := left; x < left+int(w); x++ {
					cv.put(x, y, glyph, style)
				}
			}
		case a.Kind == "shape" && strings.HasPrefix(a.Content, "hand"):
			n := 2
			if strings.Contains(a.Content, "long") {
				n = 3
			}
			for y := 0; y < n; y++ {
				cv.put(left+int(w)/2, top+y, glyph, style)
			}
		default:
			gw := ansi.StringWidth(glyph)
			x := int(math.Floor(c.X-float64(gw)/2+0.5)) - int(rect.X)
			cv.put(x, int(math.Floor(c.Y)-rect.Y), glyph, style)
		}
	}
	lines := cv.lines()
	if r.play.Dark {
		for i, l := range lines {
			lines[i] = r.theme.Night.Render(l)
		}
	}
	return lines
}
