package service

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"airflow/cache"
	"airflow/config"
	"airflow/model"
	"airflow/store"
)

const (
	hvls    = "HVLS (High Volume Low Speed)"
	wallFan = "Wall Mount Fan"
)

var room = model.RoomGeometry{Width: 30, Length: 40, Height: 5}

func newService(t *testing.T, c cache.Cache, st Store) *Service {
	t.Helper()
	s, err := New(config.Default(), nil, c, st)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestEvaluateScenarios(t *testing.T) {
	s := newService(t, nil, nil)
	ctx := context.Background()

	t.Run("hvls compliant", func(t *testing.T) {
		ev, err := s.Evaluate(ctx, model.LayoutRequest{Room: room, FanName: hvls, FanCount: 6})
		if err != nil {
			t.Fatal(err)
		}
		m := ev.Metrics
		if m.FansPlaced != 6 || math.Abs(m.ACH-59.47) > 0.01 || !m.Compliant {
			t.Errorf("metrics = %+v", m)
		}
		if ev.Grid.Nx != 60 || ev.Grid.Ny != 80 || len(ev.Field) != 80 || len(ev.Field[0]) != 60 {
			t.Errorf("grid %dx%d, field %dx%d", ev.Grid.Nx, ev.Grid.Ny, len(ev.Field), len(ev.Field[0]))
		}
		if len(ev.Grid.Xs) != 60 || len(ev.Grid.Ys) != 80 || len(ev.Mask) != 80 {
			t.Errorf("axes/mask shape mismatch")
		}
		if ev.ID == "" || ev.Cached {
			t.Errorf("id=%q cached=%v", ev.ID, ev.Cached)
		}
		if ev.Request.Shape.Kind != model.ShapeRectangular {
			t.Errorf("shape not normalized: %q", ev.Request.Shape.Kind)
		}
	})

	t.Run("wall fan deficit", func(t *testing.T) {
		ev, err := s.Evaluate(ctx, model.LayoutRequest{Room: room, FanName: wallFan, FanCount: 1})
		if err != nil {
			t.Fatal(err)
		}
		if ev.Metrics.Compliant || ev.Metrics.AdditionalFansNeeded != 10 {
			t.Errorf("metrics = %+v", ev.Metrics)
		}
		if len(ev.Recommendations) == 0 {
			t.Error("expected recommendations")
		}
	})

	t.Run("l-shape net area", func(t *testing.T) {
		ev, err := s.Evaluate(ctx, model.LayoutRequest{
			Room:     room,
			Shape:    model.ShapeSpec{Kind: model.ShapeLShape, CutoutWidth: 12, CutoutLength: 16},
			FanName:  hvls,
			FanCount: 6,
		})
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(ev.Metrics.NetArea-1008) > 10.08 {
			t.Errorf("NetArea = %v, want 1008 within 1%%", ev.Metrics.NetArea)
		}
		if ev.Mask[79][59] || !ev.Mask[0][0] {
			t.Error("cutout should be the far corner")
		}
		if ev.Field[79][59] != 0 {
			t.Errorf("masked cell velocity = %v", ev.Field[79][59])
		}
	})
}

func TestEvaluateResolvesRequest(t *testing.T) {
	s := newService(t, nil, nil)
	ctx := context.Background()

	ev, err := s.Evaluate(ctx, model.LayoutRequest{
		Room:        room,
		Fan:         &model.FanModel{Wattage: 100, CFM: 9000, Radius: 1.2},
		FanCount:    4,
		Application: "Wet Market",
		HoursPerDay: 8,
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev.Fan.Name != "Custom" || ev.Request.FanName != "Custom" || ev.Request.Fan != nil {
		t.Errorf("inline fan not resolved: %+v / %+v", ev.Fan, ev.Request)
	}
	if ev.Application == nil || ev.Application.MinACH != 15 {
		t.Errorf("application = %+v", ev.Application)
	}
	if ev.Request.HoursPerDay != 8 || ev.Request.DaysPerMonth != 30 {
		t.Errorf("usage = %v h/d, %v d/m", ev.Request.HoursPerDay, ev.Request.DaysPerMonth)
	}
	if want := 4 * 0.1 * 8 * 30 * 0.32; math.Abs(ev.Metrics.Energy.MonthlyCost-want) > 1e-9 {
		t.Errorf("MonthlyCost = %v, want %v", ev.Metrics.Energy.MonthlyCost, want)
	}
}

func TestEvaluateErrors(t *testing.T) {
	s := newService(t, nil, nil)
	ctx := context.Background()
	tests := []struct {
		name string
		req  model.LayoutRequest
		code model.Code
	}{
		{"zero width", model.LayoutRequest{Room: model.RoomGeometry{Length: 40, Height: 5}, FanName: hvls, FanCount: 1}, model.CodeInvalidGeometry},
		{"cutout too big", model.LayoutRequest{Room: room, Shape: model.ShapeSpec{Kind: model.ShapeLShape, CutoutWidth: 31}, FanName: hvls, FanCount: 1}, model.CodeInvalidGeometry},
		{"full cutout", model.LayoutRequest{Room: room, Shape: model.ShapeSpec{Kind: model.ShapeLShape, CutoutWidth: 30, CutoutLength: 40}, FanName: hvls, FanCount: 1}, model.CodeInvalidGeometry},
		{"no fans", model.LayoutRequest{Room: room, FanName: hvls}, model.CodeInvalidConfiguration},
		{"negative fans", model.LayoutRequest{Room: room, FanName: hvls, FanCount: -2}, model.CodeInvalidConfiguration},
		{"unknown fan", model.LayoutRequest{Room: room, FanName: "Jet Engine", FanCount: 1}, model.CodeNotFound},
		{"zero flow", model.LayoutRequest{Room: room, Fan: &model.FanModel{Name: "x", Wattage: 1, Radius: 1}, FanCount: 1}, model.CodeInvalidConfiguration},
		{"unknown application", model.LayoutRequest{Room: room, FanName: hvls, FanCount: 1, Application: "Moon Base"}, model.CodeNotFound},
		{"too many hours", model.LayoutRequest{Room: room, FanName: hvls, FanCount: 1, HoursPerDay: 25}, model.CodeInvalidConfiguration},
		{"infinite width", model.LayoutRequest{Room: model.RoomGeometry{Width: math.Inf(1), Length: 40, Height: 5}, FanName: hvls, FanCount: 1}, model.CodeInvalidGeometry},
		{"nan height", model.LayoutRequest{Room: model.RoomGeometry{Width: 30, Length: 40, Height: math.NaN()}, FanName: hvls, FanCount: 1}, model.CodeInvalidGeometry},
		{"overflowing area", model.LayoutRequest{Room: model.RoomGeometry{Width: 1e200, Length: 1e200, Height: 5}, FanName: hvls, FanCount: 1}, model.CodeInvalidGeometry},
		{"nan cutout", model.LayoutRequest{Room: room, Shape: model.ShapeSpec{Kind: model.ShapeLShape, CutoutWidth: math.NaN()}, FanName: hvls, FanCount: 1}, model.CodeInvalidGeometry},
		{"overflowing flow", model.LayoutRequest{Room: room, Fan: &model.FanModel{Name: "x", Wattage: 1, CFM: 1e307, Radius: 1}, FanCount: 1}, model.CodeInvalidConfiguration},
		{"infinite wattage", model.LayoutRequest{Room: room, Fan: &model.FanModel{Name: "x", Wattage: math.Inf(1), CFM: 1000, Radius: 1}, FanCount: 1}, model.CodeInvalidConfiguration},
		{"overflowing total flow", model.LayoutRequest{Room: room, Fan: &model.FanModel{Name: "x", Wattage: 1, CFM: 1e306, Radius: 1}, FanCount: 1000}, model.CodeInvalidConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Evaluate(ctx, tt.req)
			if !model.IsCode(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestEvaluateCancelled(t *testing.T) {
	s := newService(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Evaluate(ctx, model.LayoutRequest{Room: room, FanName: hvls, FanCount: 1}); err == nil {
		t.Error("expected context error")
	}
}

func TestEvaluateMemoizes(t *testing.T) {
	c := cache.NewMemoryCache()
	s := newService(t, c, nil)
	ctx := context.Background()
	req := model.LayoutRequest{Room: room, FanName: hvls, FanCount: 6}

	first, err := s.Evaluate(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	// 等价请求：显式矩形 + 多余的形状参数
	req.Shape = model.ShapeSpec{Kind: model.ShapeRectangular, CutoutWidth: 3}
	second, err := s.Evaluate(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || !second.Cached {
		t.Errorf("cached flags = %v, %v", first.Cached, second.Cached)
	}
	if first.ID == second.ID {
		t.Error("cache hit must get a fresh id")
	}
	if c.Len() != 1 {
		t.Errorf("cache entries = %d, want 1", c.Len())
	}
	if first.Metrics.ACH != second.Metrics.ACH || first.Field[40][30] != second.Field[40][30] {
		t.Error("cached evaluation differs from computed one")
	}

	req.FanCount = 7
	third, _ := s.Evaluate(ctx, req)
	if third.Cached {
		t.Error("different fan count must miss")
	}
}

func TestEvaluateRecordsRuns(t *testing.T) {
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	s := newService(t, nil, st)
	ctx := context.Background()

	ev, err := s.Evaluate(ctx, model.LayoutRequest{Room: room, FanName: wallFan, FanCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	runs, err := s.Runs(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != ev.ID || runs[0].FanName != wallFan || runs[0].FansPlaced != 3 {
		t.Fatalf("runs = %+v", runs)
	}

	got, err := s.Run(ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Metrics.ACH != ev.Metrics.ACH || len(got.Field) != len(ev.Field) {
		t.Error("stored run does not match evaluation")
	}
	if _, err := s.Run(ctx, "missing"); !model.IsCode(err, model.CodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestNoStore(t *testing.T) {
	s := newService(t, nil, nil)
	runs, err := s.Runs(context.Background(), 5)
	if err != nil || len(runs) != 0 {
		t.Errorf("Runs() = %v, %v", runs, err)
	}
	if _, err := s.Run(context.Background(), "x"); !model.IsCode(err, model.CodeNotFound) {
		t.Errorf("error = %v", err)
	}
}
