package floorplan

import (
	"math"
	"testing"

	"airflow/model"
)

func TestPolicyResolve(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		name          string
		width, length float64
		want          Resolution
	}{
		{"proportional", 30, 40, Resolution{60, 80}},
		{"clamped low", 5, 5, Resolution{20, 20}},
		{"clamped high", 100, 60, Resolution{100, 100}},
		{"mixed", 8, 45.2, Resolution{20, 91}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Resolve(tt.width, tt.length); got != tt.want {
				t.Errorf("Resolve(%v, %v) = %+v, want %+v", tt.width, tt.length, got, tt.want)
			}
		})
	}
}

func TestGridCell(t *testing.T) {
	g := NewGrid(30, 40, Resolution{60, 80})
	tests := []struct {
		x, y   float64
		wi, wj int
	}{
		{0, 0, 0, 0},
		{15, 20, 30, 40},
		{14.99, 19.99, 29, 39},
		{30, 40, 59, 79},
		{-1, 41, 0, 79},
	}
	for _, tt := range tests {
		i, j := g.Cell(tt.x, tt.y)
		if i != tt.wi || j != tt.wj {
			t.Errorf("Cell(%v, %v) = (%d, %d), want (%d, %d)", tt.x, tt.y, i, j, tt.wi, tt.wj)
		}
	}
	if g.CellArea() != 0.25 {
		t.Errorf("CellArea() = %v, want 0.25", g.CellArea())
	}
	if xs := g.Xs(); xs[0] != 0.25 || xs[59] != 29.75 {
		t.Errorf("Xs() bounds = %v, %v", xs[0], xs[59])
	}
}

func TestGenerateRectangular(t *testing.T) {
	m, area, err := Generate(30, 40, Resolution{60, 80}, model.ShapeSpec{Kind: model.ShapeRectangular})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if area != 1200 {
		t.Errorf("net area = %v, want exactly 1200", area)
	}
	if m.OccupiedCount() != 60*80 {
		t.Errorf("OccupiedCount() = %d, want %d", m.OccupiedCount(), 60*80)
	}
}

func TestGenerateLShape(t *testing.T) {
	shape := model.ShapeSpec{Kind: model.ShapeLShape, CutoutWidth: 12, CutoutLength: 16}
	res := DefaultPolicy().Resolve(30, 40)
	m, area, err := Generate(30, 40, res, shape)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := 30.0*40 - 12*16
	if math.Abs(area-want)/want > 0.01 {
		t.Errorf("net area = %v, want %v within 1%%", area, want)
	}
	// 切掉的是远角
	if m.Occupied(res.Nx-1, res.Ny-1) {
		t.Error("far corner should be excluded")
	}
	if !m.Occupied(0, 0) || !m.Occupied(res.Nx-1, 0) || !m.Occupied(0, res.Ny-1) {
		t.Error("near corners should be occupied")
	}
}

func TestGenerateComposite(t *testing.T) {
	res := DefaultPolicy().Resolve(30, 40)

	shape := model.ShapeSpec{Kind: model.ShapeComposite, RectWidth: 20, RectLength: 30, TriBase: 10, TriHeight: 10}
	_, area, err := Generate(30, 40, res, shape)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if math.Abs(area-700) > 1e-9 {
		t.Errorf("rect+triangle area = %v, want 700", area)
	}

	shape.CircleRadius = 5
	m, area, err := Generate(30, 40, res, shape)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := 700 + math.Pi*25/2
	if math.Abs(area-want)/want > 0.02 {
		t.Errorf("with circle area = %v, want ~%v", area, want)
	}
	i, j := m.Grid.Cell(24, 15)
	if !m.Occupied(i, j) {
		t.Error("point inside the circle should be occupied")
	}
	i, j = m.Grid.Cell(28, 38)
	if m.Occupied(i, j) {
		t.Error("point outside every part should be excluded")
	}
}

func TestGenerateInvalid(t *testing.T) {
	res := Resolution{20, 20}
	tests := []struct {
		name          string
		width, length float64
		res           Resolution
		shape         model.ShapeSpec
	}{
		{"zero width", 0, 10, res, model.ShapeSpec{}},
		{"zero resolution", 10, 10, Resolution{0, 10}, model.ShapeSpec{}},
		{"cutout covers everything", 10, 10, res, model.ShapeSpec{Kind: model.ShapeLShape, CutoutWidth: 10, CutoutLength: 10}},
		{"empty composite", 10, 10, res, model.ShapeSpec{Kind: model.ShapeComposite}},
		{"cutout too big", 10, 10, res, model.ShapeSpec{Kind: model.ShapeLShape, CutoutWidth: 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, err := Generate(tt.width, tt.length, tt.res, tt.shape)
			if !model.IsCode(err, model.CodeInvalidGeometry) {
				t.Errorf("Generate() error = %v, want INVALID_GEOMETRY", err)
			}
			if m != nil {
				t.Error("no mask may be returned on failure")
			}
		})
	}
}

func TestMaskRows(t *testing.T) {
	shape := model.ShapeSpec{Kind: model.ShapeLShape, CutoutWidth: 5, CutoutLength: 5}
	m, _, err := Generate(10, 10, Resolution{20, 20}, shape)
	if err != nil {
		t.Fatal(err)
	}
	rows := m.Rows()
	if len(rows) != 20 || len(rows[0]) != 20 {
		t.Fatalf("Rows() shape = %dx%d", len(rows), len(rows[0]))
	}
	if rows[19][19] || !rows[0][19] {
		t.Errorf("Rows() orientation wrong")
	}
}
