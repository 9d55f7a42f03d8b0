package geom

import "math"

// Point is one grid cell.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Vec2 is a fractional pointer position in grid space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MaxCoord bounds pointer coordinates so rounding and cell arithmetic stay
// within int range on every platform.
const MaxCoord = 1 << 30

func (v Vec2) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// InRange reports whether v is finite and within MaxCoord on both axes.
func (v Vec2) InRange() bool {
	return v.Finite() && math.Abs(v.X) <= MaxCoord && math.Abs(v.Y) <= MaxCoord
}

// Round snaps to the nearest cell, halves away from zero.
func (v Vec2) Round() Point {
	return Point{X: int(math.Round(v.X)), Y: int(math.Round(v.Y))}
}

// Rect is an inclusive cell rectangle.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// RectAt returns the rect covered by a w*h footprint anchored at p.
func RectAt(p Point, w, h int) Rect {
	return Rect{Left: p.X, Top: p.Y, Right: p.X + w - 1, Bottom: p.Y + h - 1}
}

func (r Rect) Width() int  { return r.Right - r.Left + 1 }
func (r Rect) Height() int { return r.Bottom - r.Top + 1 }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

func (r Rect) Intersects(o Rect) bool {
	return r.Left <= o.Right && o.Left <= r.Right && r.Top <= o.Bottom && o.Top <= r.Bottom
}

// Cells lists every cell of r, x outer and y inner.
func (r Rect) Cells() []Point {
	if r.Right < r.Left || r.Bottom < r.Top {
		return nil
	}
	out := make([]Point, 0, r.Width()*r.Height())
	for x := r.Left; x <= r.Right; x++ {
		for y := r.Top; y <= r.Bottom; y++ {
			out = append(out, Point{X: x, Y: y})
		}
	}
	return out
}

// CenteredAnchor picks the top-left cell of a footprint of size d centred
// on pointer coordinate c. Odd sizes round, even sizes take the ceiling.
func CenteredAnchor(c float64, d int) int {
	if d%2 == 1 {
		return int(math.Round(c)) - (d-1)/2
	}
	return int(math.Ceil(c)) - d/2
}

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func Mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func AbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func MaxInt(a int, rest ...int) int {
	for _, v := range rest {
		if v > a {
			a = v
		}
	}
	return a
}

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func Hash2(seed int64, x, y int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xbf58476d1ce4e5b9)
	return mix64(v)
}
