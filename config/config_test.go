package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Compliance.TargetACH != 20 {
		t.Errorf("TargetACH = %v, want 20", cfg.Compliance.TargetACH)
	}
	if cfg.Grid.MinPoints != 20 || cfg.Grid.MaxPoints != 100 {
		t.Errorf("grid range = [%d, %d], want [20, 100]", cfg.Grid.MinPoints, cfg.Grid.MaxPoints)
	}
	if cfg.Model.StrengthDivisor != 10000 || cfg.Model.DecayFactor != 1.5 {
		t.Errorf("model = %+v", cfg.Model)
	}
	if cfg.Cache.Driver != "none" {
		t.Errorf("Cache.Driver = %q, want none", cfg.Cache.Driver)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	content := `
[server]
addr = :8088

[grid]
cell_size = 1
workers = 4

[model]
vector_mode = true

[compliance]
target_ach = 15

[cache]
driver = memory
ttl = 5m

[store]
path = runs.db
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":8088" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Grid.CellSize != 1 || cfg.Grid.Workers != 4 {
		t.Errorf("Grid = %+v", cfg.Grid)
	}
	if !cfg.Model.VectorMode {
		t.Errorf("VectorMode = false, want true")
	}
	if cfg.Compliance.TargetACH != 15 {
		t.Errorf("TargetACH = %v, want 15", cfg.Compliance.TargetACH)
	}
	if cfg.Cache.Driver != "memory" || cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Store.Path != "runs.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero target", "[compliance]\ntarget_ach = 0\n"},
		{"inverted grid range", "[grid]\nmin_points = 50\nmax_points = 10\n"},
		{"bad divisor", "[model]\nstrength_divisor = -1\n"},
		{"full attenuation", "[model]\nmax_height_attenuation = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.ini")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load() error = nil, want error")
			}
		})
	}
}

func TestLoadUnreadablePath(t *testing.T) {
	// 父路径是普通文件，stat 返回 ENOTDIR 而非不存在
	parent := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(parent, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(filepath.Join(parent, "config.ini")); err == nil {
		t.Error("Load() error = nil, want stat error")
	}
}
