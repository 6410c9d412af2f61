package catalog

import (
	"fmt"
	"os"

	"airflow/model"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
)

// Catalog holds the named fan models and application profiles. It is read-only
// once constructed.
type Catalog struct {
	fans []model.FanModel
	apps []model.Application
}

// 常见工业风扇规格
var defaultFans = []model.FanModel{
	{
		Name: "HVLS (High Volume Low Speed)", Wattage: 1500, CFM: 35000, Radius: 4.5,
		Description: "Ideal for open-plan centers with high ceilings.",
		NoiseLevel:  "Low", Mounting: "Ceiling",
	},
	{
		Name: "Industrial Ceiling Fan", Wattage: 85, CFM: 12000, Radius: 1.5,
		Description: "Standard for high-density seating areas.",
		NoiseLevel:  "Medium", Mounting: "Ceiling",
	},
	{
		Name: "Wall Mount Fan", Wattage: 65, CFM: 6500, Radius: 0.8,
		Description: "Targeted spot cooling for stalls and food preparation areas.",
		NoiseLevel:  "Medium-High", Mounting: "Wall",
	},
	{
		Name: "Pedestal Fan", Wattage: 75, CFM: 8000, Radius: 1.0,
		Description: "Portable option for flexible positioning.",
		NoiseLevel:  "Medium", Mounting: "Floor",
	},
	{
		Name: "Misting Fan", Wattage: 200, CFM: 10000, Radius: 2.0,
		Description: "Provides cooling through evaporation, ideal for outdoor areas.",
		NoiseLevel:  "Medium", Mounting: "Floor/Stand",
	},
}

var defaultApps = []model.Application{
	{
		Name: "Hawker Center", PrimaryFan: "HVLS (High Volume Low Speed)", SecondaryFan: "Industrial Ceiling Fan",
		MinACH: 20, Notes: "Combine HVLS for general ventilation with spot fans at busy stalls",
	},
	{
		Name: "Wet Market", PrimaryFan: "Industrial Ceiling Fan", SecondaryFan: "Wall Mount Fan",
		MinACH: 15, Notes: "Focus on moisture control and targeted airflow at fish/meat stalls",
	},
	{
		Name: "Industrial Canteen", PrimaryFan: "HVLS (High Volume Low Speed)", SecondaryFan: "Pedestal Fan",
		MinACH: 18, Notes: "HVLS for main dining, portable fans for flexibility during peak hours",
	},
}

func Default() *Catalog {
	c, err := New(defaultFans, defaultApps)
	if err != nil {
		panic(err)
	}
	return c
}

// New copies fans and apps and validates every fan model.
func New(fans []model.FanModel, apps []model.Application) (*Catalog, error) {
	if len(fans) == 0 {
		return nil, model.InvalidConfiguration("catalog has no fan models")
	}
	seen := make(map[string]bool, len(fans))
	for _, f := range fans {
		if f.Name == "" {
			return nil, model.InvalidConfiguration("catalog fan without a name")
		}
		if seen[f.Name] {
			return nil, model.InvalidConfiguration("duplicate fan %q", f.Name)
		}
		seen[f.Name] = true
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	return &Catalog{
		fans: append([]model.FanModel(nil), fans...),
		apps: append([]model.Application(nil), apps...),
	}, nil
}

type file struct {
	Fans         []model.FanModel    `toml:"fan"`
	Applications []model.Application `toml:"application"`
}

// LoadFile reads a TOML catalog; an empty path returns the builtin catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	c, err := New(f.Fans, f.Applications)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"path":         path,
		"fans":         len(c.fans),
		"applications": len(c.apps),
	}).Info("加载风扇目录")
	return c, nil
}

func (c *Catalog) Fans() []model.FanModel {
	return append([]model.FanModel(nil), c.fans...)
}

func (c *Catalog) Applications() []model.Application {
	return append([]model.Application(nil), c.apps...)
}

func (c *Catalog) Fan(name string) (model.FanModel, bool) {
	for _, f := range c.fans {
		if f.Name == name {
			return f, true
		}
	}
	return model.FanModel{}, false
}

func (c *Catalog) Application(name string) (model.Application, bool) {
	for _, a := range c.apps {
		if a.Name == name {
			return a, true
		}
	}
	return model.Application{}, false
}
