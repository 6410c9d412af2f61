package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// Config is loaded once at startup and passed down; nothing mutates it afterwards.
type Config struct {
	Server     Server
	Grid       Grid
	Model      Model
	Compliance Compliance
	Catalog    Catalog
	Cache      Cache
	Store      Store
	Log        Log
}

type Server struct {
	Addr        string
	ReadTimeout time.Duration
}

// 网格划分
type Grid struct {
	CellSize  float64 // 期望网格尺寸 m
	MinPoints int     // 每个方向最少点数
	MaxPoints int     // 每个方向最多点数
	Workers   int     // 按行并行计算的协程数，1 为串行
}

// 衰减模型参数，均为可调参数，没有物理推导
type Model struct {
	StrengthDivisor      float64 // 强度 = CFM / StrengthDivisor
	DecayFactor          float64 // 衰减长度 = radius * DecayFactor
	HeightAttenuation    float64 // 每米层高的衰减
	MaxHeightAttenuation float64
	VectorMode           bool
}

// 合规目标与能耗参数
type Compliance struct {
	TargetACH         float64
	ElectricityRate   float64
	HoursPerDay       float64
	DaysPerMonth      float64
	LowFlow           float64
	HighFlow          float64
	CoverageThreshold float64
	CostWarning       float64
	LowVelocity       float64
	GoodVelocity      float64
}

type Catalog struct {
	Path string
}

type Cache struct {
	Driver string // none, memory, redis
	Addr   string
	DB     int
	TTL    time.Duration
}

type Store struct {
	Path string
}

type Log struct {
	Level string
}

// Load reads path; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	file := ini.Empty()
	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			file, err = ini.Load(path)
			if err != nil {
				return nil, fmt.Errorf("load config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			log.WithField("path", path).Warn("配置文件不存在，使用默认配置")
		default:
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	cfg := loadCfg(file)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"path":      path,
		"cellSize":  cfg.Grid.CellSize,
		"workers":   cfg.Grid.Workers,
		"targetACH": cfg.Compliance.TargetACH,
		"cache":     cfg.Cache.Driver,
	}).Debug("配置加载完成")
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return loadCfg(ini.Empty())
}

func loadCfg(file *ini.File) *Config {
	server := file.Section("server")
	grid := file.Section("grid")
	m := file.Section("model")
	compliance := file.Section("compliance")
	cache := file.Section("cache")

	return &Config{
		Server: Server{
			Addr:        server.Key("addr").MustString(":9000"),
			ReadTimeout: server.Key("read_timeout").MustDuration(10 * time.Second),
		},
		Grid: Grid{
			CellSize:  grid.Key("cell_size").MustFloat64(0.5),
			MinPoints: grid.Key("min_points").MustInt(20),
			MaxPoints: grid.Key("max_points").MustInt(100),
			Workers:   grid.Key("workers").MustInt(1),
		},
		Model: Model{
			StrengthDivisor:      m.Key("strength_divisor").MustFloat64(10000),
			DecayFactor:          m.Key("decay_factor").MustFloat64(1.5),
			HeightAttenuation:    m.Key("height_attenuation").MustFloat64(0.1),
			MaxHeightAttenuation: m.Key("max_height_attenuation").MustFloat64(0.5),
			VectorMode:           m.Key("vector_mode").MustBool(false),
		},
		Compliance: Compliance{
			TargetACH:         compliance.Key("target_ach").MustFloat64(20),
			ElectricityRate:   compliance.Key("electricity_rate").MustFloat64(0.32),
			HoursPerDay:       compliance.Key("hours_per_day").MustFloat64(12),
			DaysPerMonth:      compliance.Key("days_per_month").MustFloat64(30),
			LowFlow:           compliance.Key("low_flow").MustFloat64(0.2),
			HighFlow:          compliance.Key("high_flow").MustFloat64(0.5),
			CoverageThreshold: compliance.Key("coverage_threshold").MustFloat64(0.5),
			CostWarning:       compliance.Key("cost_warning").MustFloat64(500),
			LowVelocity:       compliance.Key("low_velocity").MustFloat64(0.3),
			GoodVelocity:      compliance.Key("good_velocity").MustFloat64(0.8),
		},
		Catalog: Catalog{
			Path: file.Section("catalog").Key("path").String(),
		},
		Cache: Cache{
			Driver: cache.Key("driver").In("none", []string{"none", "memory", "redis"}),
			Addr:   cache.Key("addr").MustString("localhost:6379"),
			DB:     cache.Key("db").MustInt(0),
			TTL:    cache.Key("ttl").MustDuration(time.Hour),
		},
		Store: Store{
			Path: file.Section("store").Key("path").String(),
		},
		Log: Log{
			Level: file.Section("log").Key("level").MustString("info"),
		},
	}
}

func (c *Config) Validate() error {
	if c.Grid.CellSize <= 0 {
		return fmt.Errorf("grid.cell_size must be positive, got %g", c.Grid.CellSize)
	}
	if c.Grid.MinPoints < 1 || c.Grid.MaxPoints < c.Grid.MinPoints {
		return fmt.Errorf("grid points range [%d, %d] is invalid", c.Grid.MinPoints, c.Grid.MaxPoints)
	}
	if c.Model.StrengthDivisor <= 0 || c.Model.DecayFactor <= 0 {
		return fmt.Errorf("model.strength_divisor and model.decay_factor must be positive")
	}
	if c.Model.MaxHeightAttenuation < 0 || c.Model.MaxHeightAttenuation >= 1 {
		return fmt.Errorf("model.max_height_attenuation must be in [0, 1), got %g", c.Model.MaxHeightAttenuation)
	}
	if c.Compliance.TargetACH <= 0 {
		return fmt.Errorf("compliance.target_ach must be positive, got %g", c.Compliance.TargetACH)
	}
	if c.Compliance.LowFlow > c.Compliance.HighFlow {
		return fmt.Errorf("compliance.low_flow %g is above high_flow %g", c.Compliance.LowFlow, c.Compliance.HighFlow)
	}
	return nil
}
