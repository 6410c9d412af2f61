// Package service runs the full evaluation pipeline: geometry checks, mask,
// field, metrics and recommendations, with memoization and run history.
package service

import (
	"context"
	"encoding/json"
	"time"

	"airflow/cache"
	"airflow/calculator"
	"airflow/catalog"
	"airflow/config"
	"airflow/floorplan"
	"airflow/metrics"
	"airflow/model"
	"airflow/store"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// 单次请求的风扇数上限，限制计算量
const maxFanCount = 1000

// Store is the run history. *store.SQLiteStore implements it.
type Store interface {
	SaveRun(ctx context.Context, r store.Run) (store.Run, error)
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
	GetRun(ctx context.Context, id string) (store.Run, error)
}

// GridAxes are the sample coordinates of the field, x along width.
type GridAxes struct {
	Nx int       `json:"nx"`
	Ny int       `json:"ny"`
	Xs []float64 `json:"xs"`
	Ys []float64 `json:"ys"`
}

// Evaluation is the rendered outcome of one LayoutRequest. Field, U, V and
// Mask are indexed [y][x].
type Evaluation struct {
	ID              string                   `json:"id"`
	CreatedAt       time.Time                `json:"created_at"`
	Request         model.LayoutRequest      `json:"request"`
	Fan             model.FanModel           `json:"fan"`
	Application     *model.Application       `json:"application,omitempty"`
	Grid            GridAxes                 `json:"grid"`
	Field           [][]float64              `json:"field"`
	U               [][]float64              `json:"u,omitempty"`
	V               [][]float64              `json:"v,omitempty"`
	Mask            [][]bool                 `json:"mask"`
	Fans            []calculator.FanPosition `json:"fans"`
	Metrics         *metrics.Report          `json:"metrics"`
	Recommendations []metrics.Recommendation `json:"recommendations"`
	Cached          bool                     `json:"cached"`
}

type Service struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	cache   cache.Cache
	store   Store
	sim     *calculator.Simulator
	policy  floorplan.Policy
	std     metrics.Standard
}

// New wires the pipeline. c and st may be nil: evaluations are then neither
// memoized nor recorded.
func New(cfg *config.Config, cat *catalog.Catalog, c cache.Cache, st Store) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	sim, err := calculator.NewSimulator(calculator.Params{
		StrengthDivisor:      cfg.Model.StrengthDivisor,
		DecayFactor:          cfg.Model.DecayFactor,
		HeightAttenuation:    cfg.Model.HeightAttenuation,
		MaxHeightAttenuation: cfg.Model.MaxHeightAttenuation,
		VectorMode:           cfg.Model.VectorMode,
		Workers:              cfg.Grid.Workers,
	})
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:     cfg,
		catalog: cat,
		cache:   c,
		store:   st,
		sim:     sim,
		policy: floorplan.Policy{
			CellSize:  cfg.Grid.CellSize,
			MinPoints: cfg.Grid.MinPoints,
			MaxPoints: cfg.Grid.MaxPoints,
		},
		std: metrics.Standard{
			TargetACH:         cfg.Compliance.TargetACH,
			ElectricityRate:   cfg.Compliance.ElectricityRate,
			LowFlow:           cfg.Compliance.LowFlow,
			HighFlow:          cfg.Compliance.HighFlow,
			CoverageThreshold: cfg.Compliance.CoverageThreshold,
			CostWarning:       cfg.Compliance.CostWarning,
			LowVelocity:       cfg.Compliance.LowVelocity,
			GoodVelocity:      cfg.Compliance.GoodVelocity,
		},
	}, nil
}

func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

func (s *Service) Standard() metrics.Standard { return s.std }

// resolved is a request with every default filled in; it is the cache key.
type resolved struct {
	Request     model.LayoutRequest
	Fan         model.FanModel
	Application *model.Application
	Usage       metrics.Usage
}

func (s *Service) resolve(req model.LayoutRequest) (*resolved, error) {
	if err := req.Room.Validate(); err != nil {
		return nil, err
	}
	req.Shape = req.Shape.Normalized()
	if err := req.Shape.Validate(req.Room.Width, req.Room.Length); err != nil {
		return nil, err
	}
	if req.FanCount < 1 || req.FanCount > maxFanCount {
		return nil, model.InvalidConfiguration("fan count must be in [1, %d], got %d", maxFanCount, req.FanCount)
	}

	var fan model.FanModel
	if req.Fan != nil {
		fan = *req.Fan
		if err := fan.Validate(); err != nil {
			return nil, err
		}
		if fan.Name == "" {
			fan.Name = "Custom"
		}
	} else {
		var ok bool
		if fan, ok = s.catalog.Fan(req.FanName); !ok {
			return nil, model.NotFound("fan model %q not found", req.FanName)
		}
	}
	req.FanName = fan.Name
	req.Fan = nil

	var app *model.Application
	if req.Application != "" {
		a, ok := s.catalog.Application(req.Application)
		if !ok {
			return nil, model.NotFound("application %q not found", req.Application)
		}
		app = &a
	}

	usage := metrics.Usage{HoursPerDay: s.cfg.Compliance.HoursPerDay, DaysPerMonth: s.cfg.Compliance.DaysPerMonth}
	if req.HoursPerDay != 0 {
		usage.HoursPerDay = req.HoursPerDay
	}
	if req.DaysPerMonth != 0 {
		usage.DaysPerMonth = req.DaysPerMonth
	}
	if usage.HoursPerDay < 0 || usage.HoursPerDay > 24 {
		return nil, model.InvalidConfiguration("hours per day must be in [0, 24], got %g", usage.HoursPerDay)
	}
	if usage.DaysPerMonth < 0 || usage.DaysPerMonth > 31 {
		return nil, model.InvalidConfiguration("days per month must be in [0, 31], got %g", usage.DaysPerMonth)
	}
	req.HoursPerDay, req.DaysPerMonth = usage.HoursPerDay, usage.DaysPerMonth

	return &resolved{Request: req, Fan: fan, Application: app, Usage: usage}, nil
}

// Evaluate validates req, simulates it and derives every metric. Identical
// requests are served from the cache; each call still gets its own id.
func (s *Service) Evaluate(ctx context.Context, req model.LayoutRequest) (*Evaluation, error) {
	start := time.Now()
	r, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cache.Key("evaluation", r, s.policy, s.cfg.Model, s.std)
	ev, hit := s.lookup(ctx, key)
	if !hit {
		if ev, err = s.compute(r); err != nil {
			return nil, err
		}
		s.remember(ctx, key, ev)
	}

	ev.ID = uuid.NewString()
	ev.CreatedAt = time.Now().UTC()
	ev.Cached = hit
	if err := s.record(ctx, ev); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"id":         ev.ID,
		"fan":        r.Fan.Name,
		"fans":       r.Request.FanCount,
		"fansPlaced": ev.Metrics.FansPlaced,
		"ach":        ev.Metrics.ACH,
		"compliant":  ev.Metrics.Compliant,
		"cached":     hit,
		"cost":       time.Since(start),
	}).Info("布局评估完成")
	return ev, nil
}

func (s *Service) compute(r *resolved) (*Evaluation, error) {
	room := r.Request.Room
	res := s.policy.Resolve(room.Width, room.Length)
	mask, _, err := floorplan.Generate(room.Width, room.Length, res, r.Request.Shape)
	if err != nil {
		return nil, err
	}
	result, err := s.sim.Simulate(room.Width, room.Length, room.Height, r.Request.FanCount, r.Fan, mask)
	if err != nil {
		return nil, err
	}
	rep, err := metrics.Derive(result, room, r.Fan, r.Request.FanCount, r.Application, s.std, r.Usage)
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		Request:     r.Request,
		Fan:         r.Fan,
		Application: r.Application,
		Grid: GridAxes{
			Nx: result.Grid.Nx,
			Ny: result.Grid.Ny,
			Xs: result.Grid.Xs(),
			Ys: result.Grid.Ys(),
		},
		Field:           rows(result.Field),
		U:               rows(result.U),
		V:               rows(result.V),
		Mask:            mask.Rows(),
		Fans:            result.Fans,
		Metrics:         rep,
		Recommendations: metrics.Recommend(rep, r.Fan, r.Application, s.std),
	}, nil
}

func rows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	out := make([][]float64, r)
	for j := range out {
		out[j] = mat.Row(nil, j, m)
	}
	return out
}

// 缓存故障只记日志，不影响计算
func (s *Service) lookup(ctx context.Context, key string) (*Evaluation, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("读取缓存失败")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var ev Evaluation
	if err := json.Unmarshal(data, &ev); err != nil {
		log.WithError(err).Warn("缓存内容无法解析，丢弃")
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}
	return &ev, true
}

func (s *Service) remember(ctx context.Context, key string, ev *Evaluation) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.WithError(err).Warn("序列化评估结果失败")
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cfg.Cache.TTL); err != nil {
		log.WithError(err).Warn("写入缓存失败")
	}
}

func (s *Service) record(ctx context.Context, ev *Evaluation) error {
	if s.store == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return model.Wrap(model.CodeInternal, err, "encode evaluation")
	}
	_, err = s.store.SaveRun(ctx, store.Run{
		ID:         ev.ID,
		CreatedAt:  ev.CreatedAt,
		FanName:    ev.Fan.Name,
		FanCount:   ev.Request.FanCount,
		FansPlaced: ev.Metrics.FansPlaced,
		ACH:        ev.Metrics.ACH,
		Compliant:  ev.Metrics.Compliant,
		Payload:    payload,
	})
	return err
}

// Runs lists stored runs, newest first. Without a store it is empty.
func (s *Service) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	if s.store == nil {
		return []store.Run{}, nil
	}
	return s.store.ListRuns(ctx, limit)
}

// Run loads a stored evaluation by id.
func (s *Service) Run(ctx context.Context, id string) (*Evaluation, error) {
	if s.store == nil {
		return nil, model.NotFound("run %q not found", id)
	}
	r, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	var ev Evaluation
	if err := json.Unmarshal(r.Payload, &ev); err != nil {
		return nil, model.Wrap(model.CodeInternal, err, "decode run %s", id)
	}
	return &ev, nil
}
