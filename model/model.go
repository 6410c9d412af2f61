package model

import "math"

// 尺寸单位均为 m，风量单位为 CFM

// 立方米到立方英尺的换算系数
const CubicFeetPerCubicMeter = 35.3147

// 房间尺寸
type RoomGeometry struct {
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Height float64 `json:"height"` // 层高，只作为衰减系数参与计算
}

func (r RoomGeometry) FloorArea() float64 {
	return r.Width * r.Length
}

func (r RoomGeometry) Volume() float64 {
	return r.Width * r.Length * r.Height
}

// 体积，立方英尺
func (r RoomGeometry) VolumeFt3() float64 {
	return r.Volume() * CubicFeetPerCubicMeter
}

func (r RoomGeometry) Validate() error {
	if !finite(r.Width, r.Length, r.Height) {
		return InvalidGeometry("room dimensions must be finite, got %gx%gx%g", r.Width, r.Length, r.Height)
	}
	if r.Width <= 0 || r.Length <= 0 || r.Height <= 0 {
		return InvalidGeometry("room dimensions must be positive, got %gx%gx%g", r.Width, r.Length, r.Height)
	}
	// 乘积溢出或下溢
	if a, v := r.FloorArea(), r.VolumeFt3(); !finite(a, v) || a <= 0 || v <= 0 {
		return InvalidGeometry("room %gx%gx%g has no representable floor area or volume", r.Width, r.Length, r.Height)
	}
	return nil
}

// finite reports whether no value is NaN or ±Inf.
func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// 平面形状
type ShapeKind string

const (
	ShapeRectangular ShapeKind = "rectangular"
	ShapeLShape      ShapeKind = "l_shape"   // 切掉远角的 L 形
	ShapeComposite   ShapeKind = "composite" // 矩形 + 三角形 + 圆形的并集
)

// ShapeSpec is a tagged variant over the supported floor plans. Only the
// fields of the selected Kind are read; an empty Kind means rectangular.
type ShapeSpec struct {
	Kind ShapeKind `json:"kind"`

	// L 形切角
	CutoutWidth  float64 `json:"cutout_width,omitempty"`
	CutoutLength float64 `json:"cutout_length,omitempty"`

	// 组合形状
	RectWidth    float64 `json:"rect_width,omitempty"`
	RectLength   float64 `json:"rect_length,omitempty"`
	TriBase      float64 `json:"tri_base,omitempty"`
	TriHeight    float64 `json:"tri_height,omitempty"`
	CircleRadius float64 `json:"circle_radius,omitempty"`
}

func (s ShapeSpec) Normalized() ShapeSpec {
	switch s.Kind {
	case ShapeLShape:
		return ShapeSpec{Kind: ShapeLShape, CutoutWidth: s.CutoutWidth, CutoutLength: s.CutoutLength}
	case ShapeComposite:
		s.CutoutWidth, s.CutoutLength = 0, 0
		return s
	case "", ShapeRectangular:
		return ShapeSpec{Kind: ShapeRectangular}
	default:
		// 未知类型原样返回，由 Validate 报错
		return s
	}
}

// Validate checks the sub-dimensions against the bounding box.
func (s ShapeSpec) Validate(width, length float64) error {
	switch s.Kind {
	case "", ShapeRectangular:
		return nil
	case ShapeLShape:
		if !finite(s.CutoutWidth, s.CutoutLength) {
			return InvalidGeometry("cutout dimensions must be finite")
		}
		if s.CutoutWidth < 0 || s.CutoutLength < 0 {
			return InvalidGeometry("cutout dimensions must not be negative")
		}
		if s.CutoutWidth > width || s.CutoutLength > length {
			return InvalidGeometry("cutout %gx%g exceeds bounding box %gx%g", s.CutoutWidth, s.CutoutLength, width, length)
		}
		return nil
	case ShapeComposite:
		if !finite(s.RectWidth, s.RectLength, s.TriBase, s.TriHeight, s.CircleRadius) {
			return InvalidGeometry("composite dimensions must be finite")
		}
		if s.RectWidth < 0 || s.RectLength < 0 || s.TriBase < 0 || s.TriHeight < 0 || s.CircleRadius < 0 {
			return InvalidGeometry("composite dimensions must not be negative")
		}
		if s.RectWidth > width || s.TriBase > width {
			return InvalidGeometry("composite width exceeds bounding width %g", width)
		}
		if s.RectLength+s.TriHeight > length {
			return InvalidGeometry("rect_length + tri_height = %g exceeds bounding length %g", s.RectLength+s.TriHeight, length)
		}
		if s.CircleRadius > width || s.CircleRadius > length {
			return InvalidGeometry("circle radius %g exceeds bounding box %gx%g", s.CircleRadius, width, length)
		}
		return nil
	default:
		return InvalidGeometry("unknown shape %q", s.Kind)
	}
}

// 风扇型号
type FanModel struct {
	Name        string  `json:"name" toml:"name"`
	Wattage     float64 `json:"wattage" toml:"wattage"` // W
	CFM         float64 `json:"cfm" toml:"cfm"`         // 额定风量
	Radius      float64 `json:"radius" toml:"radius"`   // 有效覆盖半径 m
	Description string  `json:"description,omitempty" toml:"description"`
	NoiseLevel  string  `json:"noise_level,omitempty" toml:"noise_level"`
	Mounting    string  `json:"mounting,omitempty" toml:"mounting"`
}

func (f FanModel) Validate() error {
	if !finite(f.CFM, f.Radius, f.Wattage) {
		return InvalidConfiguration("fan %q: ratings must be finite", f.Name)
	}
	if f.CFM <= 0 {
		return InvalidConfiguration("fan %q: flow rate must be positive", f.Name)
	}
	if f.Radius <= 0 {
		return InvalidConfiguration("fan %q: coverage radius must be positive", f.Name)
	}
	if f.Wattage <= 0 {
		return InvalidConfiguration("fan %q: wattage must be positive", f.Name)
	}
	// 每小时风量需可表示
	if !finite(f.CFM * 60) {
		return InvalidConfiguration("fan %q: flow rate %g is out of range", f.Name, f.CFM)
	}
	return nil
}

// 应用场景推荐
type Application struct {
	Name         string  `json:"name" toml:"name"`
	PrimaryFan   string  `json:"primary_fan" toml:"primary_fan"`
	SecondaryFan string  `json:"secondary_fan" toml:"secondary_fan"`
	MinACH       float64 `json:"min_ach" toml:"min_ach"`
	Notes        string  `json:"notes" toml:"notes"`
}

// LayoutRequest is one simulation input as sent by the dashboard.
type LayoutRequest struct {
	Room        RoomGeometry `json:"room"`
	Shape       ShapeSpec    `json:"shape"`
	FanName     string       `json:"fan_name,omitempty"`
	Fan         *FanModel    `json:"fan,omitempty"` // 自定义型号，优先于 FanName
	FanCount    int          `json:"fan_count"`
	Application string       `json:"application,omitempty"`

	// 运行时间，0 表示使用配置默认值
	HoursPerDay  float64 `json:"hours_per_day,omitempty"`
	DaysPerMonth float64 `json:"days_per_month,omitempty"`
}

// 前后端通信消息结构
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

const (
	MsgSimulate = "simulate"
	MsgResult   = "result"
	MsgCatalog  = "catalog"
	MsgError    = "error"
)
