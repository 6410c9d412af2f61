package metrics

import (
	"fmt"
	"math"

	"airflow/calculator"
	"airflow/model"
)

// 运行时间
type Usage struct {
	HoursPerDay  float64 `json:"hours_per_day"`
	DaysPerMonth float64 `json:"days_per_month"`
}

type Energy struct {
	TotalKW     float64 `json:"total_kw"`
	DailyKWh    float64 `json:"daily_kwh"`
	MonthlyKWh  float64 `json:"monthly_kwh"`
	MonthlyCost float64 `json:"monthly_cost"`
}

// EnergyCost is the running cost of the placed fans.
func EnergyCost(fansPlaced int, fan model.FanModel, usage Usage, rate float64) Energy {
	kw := float64(fansPlaced) * fan.Wattage / 1000
	daily := kw * usage.HoursPerDay
	monthly := daily * usage.DaysPerMonth
	return Energy{
		TotalKW:     kw,
		DailyKWh:    daily,
		MonthlyKWh:  monthly,
		MonthlyCost: monthly * rate,
	}
}

type Report struct {
	FansRequested        int           `json:"fans_requested"`
	FansPlaced           int           `json:"fans_placed"`
	FloorArea            float64       `json:"floor_area"`
	NetArea              float64       `json:"net_area"`
	Volume               float64       `json:"volume"`
	VolumeFt3            float64       `json:"volume_ft3"`
	TotalCFM             float64       `json:"total_cfm"`
	ACH                  float64       `json:"ach"`
	TargetACH            float64       `json:"target_ach"`
	Compliant            bool          `json:"compliant"`
	AdditionalFansNeeded int           `json:"additional_fans_needed"`
	Application          string        `json:"application,omitempty"`
	ApplicationMinACH    float64       `json:"application_min_ach,omitempty"`
	MeetsApplication     bool          `json:"meets_application"`
	Velocity             VelocityStats `json:"velocity"`
	CoverageThreshold    float64       `json:"coverage_threshold"`
	Coverage             float64       `json:"coverage"`
	Bands                FlowBands     `json:"bands"`
	Energy               Energy        `json:"energy"`
}

// Derive computes every metric of one simulation. app may be nil.
func Derive(r *calculator.Result, room model.RoomGeometry, fan model.FanModel, requested int, app *model.Application, std Standard, usage Usage) (*Report, error) {
	ach, err := ACH(room, r.FansPlaced, fan)
	if err != nil {
		return nil, err
	}
	rep := &Report{
		FansRequested:     requested,
		FansPlaced:        r.FansPlaced,
		FloorArea:         room.FloorArea(),
		NetArea:           r.NetArea,
		Volume:            room.Volume(),
		VolumeFt3:         room.VolumeFt3(),
		TotalCFM:          float64(r.FansPlaced) * fan.CFM,
		ACH:               ach,
		TargetACH:         std.TargetACH,
		Compliant:         ach >= std.TargetACH,
		Velocity:          Velocity(r),
		CoverageThreshold: std.CoverageThreshold,
		Coverage:          Coverage(r, std.CoverageThreshold),
		Bands:             Bands(r, std.LowFlow, std.HighFlow),
		Energy:            EnergyCost(r.FansPlaced, fan, usage, std.ElectricityRate),
	}
	if !finite(rep.TotalCFM, rep.Energy.MonthlyCost, rep.Velocity.Average, rep.Velocity.Peak, rep.Velocity.StdDev) {
		return nil, model.InvalidConfiguration("metrics for %d x %q are out of range", r.FansPlaced, fan.Name)
	}
	if !rep.Compliant {
		rep.AdditionalFansNeeded, err = AdditionalFansNeeded(ach, std.TargetACH, fan, room)
		if err != nil {
			return nil, err
		}
	}
	if app != nil {
		rep.Application = app.Name
		rep.ApplicationMinACH = app.MinACH
		rep.MeetsApplication = ach >= app.MinACH
	}
	return rep, nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Level string

const (
	LevelCritical Level = "critical"
	LevelWarning  Level = "warning"
	LevelGood     Level = "good"
	LevelTip      Level = "tip"
	LevelCost     Level = "cost"
)

type Recommendation struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Recommend turns a report into operator advice.
func Recommend(rep *Report, fan model.FanModel, app *model.Application, std Standard) []Recommendation {
	var recs []Recommendation
	if !rep.Compliant {
		recs = append(recs, Recommendation{
			Level: LevelCritical,
			Text:  fmt.Sprintf("Insufficient ACH (%.1f < %g) - add %d more %s unit(s)", rep.ACH, rep.TargetACH, rep.AdditionalFansNeeded, fan.Name),
		})
	}
	if unplaced := rep.FansRequested - rep.FansPlaced; unplaced > 0 {
		recs = append(recs, Recommendation{
			Level: LevelWarning,
			Text:  fmt.Sprintf("%d fan(s) fall outside the usable floor plan and were not counted", unplaced),
		})
	}
	switch avg := rep.Velocity.Average; {
	case avg < std.LowVelocity:
		recs = append(recs, Recommendation{Level: LevelWarning, Text: "Low average velocity - consider repositioning fans"})
	case avg > std.GoodVelocity:
		recs = append(recs, Recommendation{Level: LevelGood, Text: "Good air velocity achieved"})
	}
	if app != nil {
		recs = append(recs, Recommendation{Level: LevelTip, Text: fmt.Sprintf("%s tip: %s", app.Name, app.Notes)})
	}
	if rep.Energy.MonthlyCost > std.CostWarning {
		recs = append(recs, Recommendation{Level: LevelCost, Text: "High energy cost - consider more efficient fan models"})
	}
	return recs
}
