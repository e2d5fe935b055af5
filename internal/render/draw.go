package render

import (
	"image"
	"image/color"
	"image/draw"
)

const dashLength = 6

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func drawRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

func drawFrame(img *image.RGBA, area image.Rectangle) {
	drawRect(img, area.Inset(-1), color.Black)
}

func drawGrid(img *image.RGBA, area image.Rectangle, m mapper, xTicks, yTicks []float64) {
	for _, t := range xTicks {
		x := m.x(t)
		if x <= area.Min.X || x >= area.Max.X-1 {
			continue
		}
		for y := area.Min.Y; y < area.Max.Y; y++ {
			img.Set(x, y, gridColor)
		}
	}
	for _, t := range yTicks {
		y := m.y(t)
		if y <= area.Min.Y || y >= area.Max.Y-1 {
			continue
		}
		for x := area.Min.X; x < area.Max.X; x++ {
			img.Set(x, y, gridColor)
		}
	}
}

func drawDashedHLine(img *image.RGBA, area image.Rectangle, y int, c color.Color) {
	if y < area.Min.Y || y >= area.Max.Y {
		return
	}
	for x := area.Min.X; x < area.Max.X; x++ {
		if (x-area.Min.X)/dashLength%2 == 0 {
			img.Set(x, y, c)
		}
	}
}

// drawPolyline connects consecutive finite points. NaN or infinite samples
// break the line; everything is clipped to the area.
func drawPolyline(img *image.RGBA, area image.Rectangle, m mapper, xs, ys []float64, c color.Color, width int) {
	havePrev := false
	var px, py int
	for i := range xs {
		if !isFinite(xs[i]) || !isFinite(ys[i]) {
			havePrev = false
			continue
		}
		x, y := m.x(xs[i]), m.y(ys[i])
		if havePrev {
			drawLine(img, area, px, py, x, y, c, width)
		} else {
			plot(img, area, x, y, c, width)
		}
		px, py, havePrev = x, y, true
	}
}

// drawLine is Bresenham's algorithm with a square pen.
func drawLine(img *image.RGBA, area image.Rectangle, x0, y0, x1, y1 int, c color.Color, width int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		plot(img, area, x0, y0, c, width)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func plot(img *image.RGBA, area image.Rectangle, x, y int, c color.Color, width int) {
	half := width / 2
	for py := y - half; py < y-half+width; py++ {
		for px := x - half; px < x-half+width; px++ {
			if image.Pt(px, py).In(area) {
				img.Set(px, py, c)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
