package metrics

import (
	"math"

	"airflow/calculator"
	"airflow/model"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Standard is the fixed compliance target plus the thresholds used to
// classify the field. It is configuration, read-only after startup.
type Standard struct {
	TargetACH         float64
	ElectricityRate   float64 // 每 kWh 电价
	LowFlow           float64
	HighFlow          float64
	CoverageThreshold float64
	CostWarning       float64 // 月电费提醒阈值
	LowVelocity       float64
	GoodVelocity      float64
}

// SS 553 食品场所
func DefaultStandard() Standard {
	return Standard{
		TargetACH:         20,
		ElectricityRate:   0.32,
		LowFlow:           0.2,
		HighFlow:          0.5,
		CoverageThreshold: 0.5,
		CostWarning:       500,
		LowVelocity:       0.3,
		GoodVelocity:      0.8,
	}
}

// ACH counts only the fans that were actually placed.
func ACH(room model.RoomGeometry, fansPlaced int, fan model.FanModel) (float64, error) {
	if err := room.Validate(); err != nil {
		return 0, err
	}
	if fansPlaced < 0 {
		return 0, model.InvalidConfiguration("placed fan count must not be negative, got %d", fansPlaced)
	}
	if fan.CFM < 0 {
		return 0, model.InvalidConfiguration("fan %q has negative flow rate", fan.Name)
	}
	ach := float64(fansPlaced) * fan.CFM * 60 / room.VolumeFt3()
	if math.IsNaN(ach) || math.IsInf(ach, 0) {
		return 0, model.InvalidConfiguration("air change rate of %d x %q in a %gx%gx%g room is out of range", fansPlaced, fan.Name, room.Width, room.Length, room.Height)
	}
	return ach, nil
}

// AdditionalFansNeeded returns how many more fans of the same model bring ach
// up to target. It is an increment on top of the fans already placed, and 0
// when the target is already met.
func AdditionalFansNeeded(ach, target float64, fan model.FanModel, room model.RoomGeometry) (int, error) {
	vol := room.VolumeFt3()
	if vol <= 0 || math.IsNaN(vol) {
		return 0, model.InvalidConfiguration("room volume must be positive to estimate a fan deficit")
	}
	if fan.CFM <= 0 {
		return 0, model.InvalidConfiguration("fan %q has no flow rate", fan.Name)
	}
	if ach >= target {
		return 0, nil
	}
	perFan := fan.CFM * 60 / vol
	// 去掉浮点误差，避免整数边界多算一台
	return int(math.Ceil((target-ach)/perFan - 1e-9)), nil
}

// 速度统计，仅统计占用单元
type VelocityStats struct {
	Average       float64 `json:"average"`
	Peak          float64 `json:"peak"`
	Min           float64 `json:"min"`
	StdDev        float64 `json:"std_dev"`
	OccupiedCells int     `json:"occupied_cells"`
}

// 流速分布，占用单元百分比
type FlowBands struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

func occupiedValues(r *calculator.Result) []float64 {
	values := make([]float64, 0, r.Mask.OccupiedCount())
	for j := 0; j < r.Grid.Ny; j++ {
		for i := 0; i < r.Grid.Nx; i++ {
			if r.Mask.Occupied(i, j) {
				values = append(values, r.Field.At(j, i))
			}
		}
	}
	return values
}

func Velocity(r *calculator.Result) VelocityStats {
	values := occupiedValues(r)
	if len(values) == 0 {
		return VelocityStats{}
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return VelocityStats{
		Average:       mean,
		Peak:          floats.Max(values),
		Min:           floats.Min(values),
		StdDev:        std,
		OccupiedCells: len(values),
	}
}

// Coverage is the percentage of occupied cells faster than threshold.
func Coverage(r *calculator.Result, threshold float64) float64 {
	values := occupiedValues(r)
	if len(values) == 0 {
		return 0
	}
	n := 0
	for _, v := range values {
		if v > threshold {
			n++
		}
	}
	return float64(n) / float64(len(values)) * 100
}

// Bands splits occupied cells into < low, [low, high) and >= high.
func Bands(r *calculator.Result, low, high float64) FlowBands {
	values := occupiedValues(r)
	if len(values) == 0 {
		return FlowBands{}
	}
	var b FlowBands
	for _, v := range values {
		switch {
		case v < low:
			b.Low++
		case v < high:
			b.Medium++
		default:
			b.High++
		}
	}
	total := float64(len(values))
	b.Low = b.Low / total * 100
	b.Medium = b.Medium / total * 100
	b.High = b.High / total * 100
	return b
}
