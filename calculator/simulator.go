package calculator

import (
	"math"

	"airflow/floorplan"
	"airflow/model"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Result is one immutable simulation outcome.
type Result struct {
	Grid       floorplan.Grid
	Mask       *floorplan.Mask
	Field      *mat.Dense // 速度场，Ny 行 Nx 列，非占用单元为 0
	U, V       *mat.Dense // 仅向量模式
	Fans       []FanPosition
	FansPlaced int
	NetArea    float64
}

// Simulator evaluates the radial decay model. It holds only read-only
// parameters, so one Simulator may serve concurrent callers.
type Simulator struct {
	params Params
	e      *executor
}

func NewSimulator(p Params) (*Simulator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{params: p, e: newExecutor(p.Workers)}, nil
}

func (s *Simulator) Params() Params { return s.params }

// placedFan is a fan that passed the mask check, with its per-call constants.
type placedFan struct {
	x, y     float64
	strength float64
	decay    float64
}

// Simulate places fanCount fans on the packing grid, drops those that fall on
// unoccupied cells, sums the contributions of the rest over every occupied
// cell of mask, and zero-fills the unoccupied cells.
func (s *Simulator) Simulate(width, length, height float64, fanCount int, fan model.FanModel, mask *floorplan.Mask) (*Result, error) {
	if err := (model.RoomGeometry{Width: width, Length: length, Height: height}).Validate(); err != nil {
		return nil, err
	}
	if fanCount < 0 {
		return nil, model.InvalidConfiguration("fan count must not be negative, got %d", fanCount)
	}
	if fan.CFM <= 0 || fan.Radius <= 0 {
		return nil, model.InvalidConfiguration("fan %q needs positive flow rate and radius", fan.Name)
	}
	if mask == nil {
		return nil, model.InvalidGeometry("occupancy mask is required")
	}
	if mask.Grid.Width != width || mask.Grid.Length != length {
		return nil, model.InvalidGeometry("mask covers %gx%g, room is %gx%g", mask.Grid.Width, mask.Grid.Length, width, length)
	}

	g := mask.Grid
	fans := Positions(fanCount, width, length)
	hf := s.params.heightFactor(height)
	placed := make([]placedFan, 0, len(fans))
	for k := range fans {
		i, j := g.Cell(fans[k].X, fans[k].Y)
		if !mask.Occupied(i, j) {
			continue
		}
		fans[k].Placed = true
		placed = append(placed, placedFan{
			x:        fans[k].X,
			y:        fans[k].Y,
			strength: s.params.strength(fan) * hf,
			decay:    s.params.decayLength(fan),
		})
	}

	field := make([]float64, g.Nx*g.Ny)
	var u, v []float64
	if s.params.VectorMode {
		u = make([]float64, g.Nx*g.Ny)
		v = make([]float64, g.Nx*g.Ny)
	}

	cost := s.e.dispatchTask(0, g.Ny, func(t task) {
		for j := t.start; j < t.end; j++ {
			y := g.Y(j)
			for i := 0; i < g.Nx; i++ {
				if !mask.Occupied(i, j) {
					continue
				}
				idx := j*g.Nx + i
				if s.params.VectorMode {
					field[idx], u[idx], v[idx] = vectorAt(g.X(i), y, placed)
				} else {
					field[idx] = scalarAt(g.X(i), y, placed)
				}
			}
		}
	})

	res := &Result{
		Grid:       g,
		Mask:       mask,
		Field:      mat.NewDense(g.Ny, g.Nx, field),
		Fans:       fans,
		FansPlaced: len(placed),
		NetArea:    mask.NetArea,
	}
	if s.params.VectorMode {
		res.U = mat.NewDense(g.Ny, g.Nx, u)
		res.V = mat.NewDense(g.Ny, g.Nx, v)
	}

	log.WithFields(log.Fields{
		"fans":       fanCount,
		"fansPlaced": res.FansPlaced,
		"nx":         g.Nx,
		"ny":         g.Ny,
		"vector":     s.params.VectorMode,
		"cost":       cost,
	}).Debug("速度场计算完成")
	return res, nil
}

// 标量模式: 各风扇贡献直接相加
func scalarAt(x, y float64, fans []placedFan) float64 {
	sum := 0.0
	for _, f := range fans {
		d := math.Hypot(x-f.x, y-f.y)
		sum += f.strength * math.Exp(-d/f.decay)
	}
	return sum
}

// vectorAt decomposes each contribution into a component pointing away from
// the fan. At a fan centre the direction is undefined, so that magnitude is
// added to the speed without a direction.
func vectorAt(x, y float64, fans []placedFan) (speed, u, v float64) {
	still := 0.0
	for _, f := range fans {
		dx, dy := x-f.x, y-f.y
		d := math.Hypot(dx, dy)
		c := f.strength * math.Exp(-d/f.decay)
		if d < 1e-9 {
			still += c
			continue
		}
		u += c * dx / d
		v += c * dy / d
	}
	return math.Hypot(u, v) + still, u, v
}
