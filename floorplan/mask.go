package floorplan

import (
	"airflow/model"

	log "github.com/sirupsen/logrus"
)

// Mask marks which cells of a Grid lie inside the usable floor plan.
type Mask struct {
	Grid     Grid
	NetArea  float64
	cells    []bool // 按行存储，下标 j*Nx + i
	occupied int
}

func (m *Mask) Occupied(i, j int) bool {
	return m.cells[j*m.Grid.Nx+i]
}

func (m *Mask) OccupiedCount() int { return m.occupied }

// Rows returns the mask as [y][x] for rendering.
func (m *Mask) Rows() [][]bool {
	rows := make([][]bool, m.Grid.Ny)
	for j := range rows {
		rows[j] = append([]bool(nil), m.cells[j*m.Grid.Nx:(j+1)*m.Grid.Nx]...)
	}
	return rows
}

// Generate builds the occupancy mask for shape over a width x length bounding
// box sampled at res, and returns it with the net usable area.
func Generate(width, length float64, res Resolution, shape model.ShapeSpec) (*Mask, float64, error) {
	if width <= 0 || length <= 0 {
		return nil, 0, model.InvalidGeometry("bounding box must be positive, got %gx%g", width, length)
	}
	if res.Nx < 1 || res.Ny < 1 {
		return nil, 0, model.InvalidGeometry("grid resolution must be at least 1x1, got %dx%d", res.Nx, res.Ny)
	}
	if err := shape.Validate(width, length); err != nil {
		return nil, 0, err
	}

	g := NewGrid(width, length, res)
	inside := predicate(width, length, shape)
	m := &Mask{
		Grid:  g,
		cells: make([]bool, res.Nx*res.Ny),
	}
	for j := 0; j < res.Ny; j++ {
		y := g.Y(j)
		for i := 0; i < res.Nx; i++ {
			if inside(g.X(i), y) {
				m.cells[j*res.Nx+i] = true
				m.occupied++
			}
		}
	}

	// 矩形直接用精确面积，其余按网格求和
	if shape.Kind == "" || shape.Kind == model.ShapeRectangular {
		m.NetArea = width * length
	} else {
		m.NetArea = float64(m.occupied) * g.CellArea()
	}
	if m.NetArea <= 0 || m.occupied == 0 {
		return nil, 0, model.InvalidGeometry("shape %q leaves no usable floor area", shape.Kind)
	}

	log.WithFields(log.Fields{
		"shape":    shape.Kind,
		"nx":       res.Nx,
		"ny":       res.Ny,
		"occupied": m.occupied,
		"netArea":  m.NetArea,
	}).Debug("生成平面掩码")
	return m, m.NetArea, nil
}

func predicate(width, length float64, s model.ShapeSpec) func(x, y float64) bool {
	switch s.Kind {
	case model.ShapeLShape:
		// 去掉远端的矩形角
		return func(x, y float64) bool {
			return !(x > width-s.CutoutWidth && y > length-s.CutoutLength)
		}
	case model.ShapeComposite:
		cx, cy := s.RectWidth, s.RectLength/2
		r2 := s.CircleRadius * s.CircleRadius
		return func(x, y float64) bool {
			if x <= s.RectWidth && y <= s.RectLength {
				return true
			}
			// 三角形按外接矩形处理
			if x <= s.TriBase && y > s.RectLength && y <= s.RectLength+s.TriHeight {
				return true
			}
			dx, dy := x-cx, y-cy
			return dx*dx+dy*dy <= r2
		}
	default:
		return func(x, y float64) bool { return true }
	}
}
