package floorplan

import "math"

// 网格分辨率，每个方向的点数
type Resolution struct {
	Nx int `json:"nx"`
	Ny int `json:"ny"`
}

// Policy picks a resolution proportional to the room size, clamped to
// [MinPoints, MaxPoints] per axis so the cost of a simulation stays bounded.
type Policy struct {
	CellSize  float64
	MinPoints int
	MaxPoints int
}

func DefaultPolicy() Policy {
	return Policy{CellSize: 0.5, MinPoints: 20, MaxPoints: 100}
}

func (p Policy) Resolve(width, length float64) Resolution {
	return Resolution{
		Nx: p.points(width),
		Ny: p.points(length),
	}
}

func (p Policy) points(extent float64) int {
	n := p.MinPoints
	if p.CellSize > 0 && extent > 0 {
		n = int(math.Ceil(extent / p.CellSize))
	}
	if n < p.MinPoints {
		n = p.MinPoints
	}
	if p.MaxPoints > 0 && n > p.MaxPoints {
		n = p.MaxPoints
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Grid places one sample at the centre of each of Nx*Ny equal cells covering
// [0,Width]x[0,Length]. Index i runs along x (width), j along y (length).
type Grid struct {
	Width  float64
	Length float64
	Resolution
}

func NewGrid(width, length float64, res Resolution) Grid {
	return Grid{Width: width, Length: length, Resolution: res}
}

func (g Grid) Dx() float64 { return g.Width / float64(g.Nx) }

func (g Grid) Dy() float64 { return g.Length / float64(g.Ny) }

// 单元格实际面积
func (g Grid) CellArea() float64 { return g.Dx() * g.Dy() }

func (g Grid) X(i int) float64 { return (float64(i) + 0.5) * g.Dx() }

func (g Grid) Y(j int) float64 { return (float64(j) + 0.5) * g.Dy() }

func (g Grid) Xs() []float64 {
	xs := make([]float64, g.Nx)
	for i := range xs {
		xs[i] = g.X(i)
	}
	return xs
}

func (g Grid) Ys() []float64 {
	ys := make([]float64, g.Ny)
	for j := range ys {
		ys[j] = g.Y(j)
	}
	return ys
}

// Cell returns the cell containing (x, y); points on or beyond the boundary
// map to the nearest edge cell.
func (g Grid) Cell(x, y float64) (i, j int) {
	i = clamp(int(math.Floor(x/g.Dx())), 0, g.Nx-1)
	j = clamp(int(math.Floor(y/g.Dy())), 0, g.Ny-1)
	return i, j
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
