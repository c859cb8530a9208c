package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set sets a pixel at (x, y) in sub-pixel coordinates. The canvas is
// (Width*2) x (Height*4) sub-pixels; points outside are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Viewport maps data coordinates onto the canvas.
type Viewport struct {
	MinX, MaxX, MinY, MaxY float64
}

// Fit returns the viewport covering xs and ys, ignoring NaN values.
func Fit(xs, ys []float64) Viewport {
	v := Viewport{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for i := range xs {
		if math.IsNaN(ys[i]) {
			continue
		}
		v.MinX, v.MaxX = math.Min(v.MinX, xs[i]), math.Max(v.MaxX, xs[i])
		v.MinY, v.MaxY = math.Min(v.MinY, ys[i]), math.Max(v.MaxY, ys[i])
	}
	if v.MaxX <= v.MinX {
		v.MaxX = v.MinX + 1
	}
	if v.MaxY <= v.MinY {
		v.MaxY = v.MinY + 1
	}
	return v
}

func (c *Canvas) project(v Viewport, x, y float64) (int, int) {
	w, h := c.Width*2-1, c.Height*4-1
	px := int(math.Round((x - v.MinX) / (v.MaxX - v.MinX) * float64(w)))
	py := h - int(math.Round((y-v.MinY)/(v.MaxY-v.MinY)*float64(h)))
	return px, py
}

// PlotSeries draws ys against xs as connected segments. A NaN breaks the line.
func (c *Canvas) PlotSeries(v Viewport, xs, ys []float64) {
	havePrev := false
	var px, py int
	for i := range xs {
		if math.IsNaN(ys[i]) {
			havePrev = false
			continue
		}
		x, y := c.project(v, xs[i], ys[i])
		if havePrev {
			c.DrawLine(px, py, x, y)
		} else {
			c.Set(x, y)
		}
		px, py, havePrev = x, y, true
	}
}

// VLine draws a full-height vertical line at data coordinate x.
func (c *Canvas) VLine(v Viewport, x float64) {
	px, _ := c.project(v, x, v.MinY)
	for y := 0; y < c.Height*4; y += 2 {
		c.Set(px, y)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
