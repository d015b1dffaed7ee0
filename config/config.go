package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/akmonengine/moreau/integration"
	"github.com/akmonengine/moreau/solver"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

const (
	DefaultGravity    = -9.81
	DefaultWorkers    = 1
	DefaultCellSize   = 2.0
	DefaultCells      = 1024
	DefaultPrediction = 0.05
	DefaultScene      = "stack"
	DefaultSteps      = 600
)

var (
	// ErrInvalidContact indicates contact model settings out of their range.
	ErrInvalidContact = errors.New("config: invalid contact settings")

	// ErrInvalidWorld indicates broad phase or world settings out of their range.
	ErrInvalidWorld = errors.New("config: invalid world settings")

	// ErrInvalidRun indicates an empty scene name or a non-positive step count.
	ErrInvalidRun = errors.New("config: invalid run settings")
)

type Config struct {
	Integration IntegrationConfig `yaml:"integration"`
	Contact     ContactConfig     `yaml:"contact"`
	World       WorldConfig       `yaml:"world"`
	Run         RunConfig         `yaml:"run"`
}

type IntegrationConfig struct {
	Dt                 float64 `yaml:"dt"`
	VelocityIterations int     `yaml:"velocity_iterations"`
	PositionIterations int     `yaml:"position_iterations"`
}

type ContactConfig struct {
	RestitutionThreshold float64 `yaml:"restitution_threshold"`
	WarmstartCoefficient float64 `yaml:"warmstart_coefficient"`
	AllowedLinearError   float64 `yaml:"allowed_linear_error"`
	MaxLinearCorrection  float64 `yaml:"max_linear_correction"`
	FrictionCombine      string  `yaml:"friction_combine"`
	RestitutionCombine   string  `yaml:"restitution_combine"`
}

type WorldConfig struct {
	Gravity    [3]float64 `yaml:"gravity"`
	Workers    int        `yaml:"workers"`
	CellSize   float64    `yaml:"cell_size"`
	Cells      int        `yaml:"cells"`
	Prediction float64    `yaml:"prediction"`
}

type RunConfig struct {
	Scene string `yaml:"scene"`
	Steps int    `yaml:"steps"`
	Plot  bool   `yaml:"plot"`
}

func DefaultConfig() *Config {
	params := integration.DefaultParameters()
	model := solver.NewSignoriniCoulomb()
	materials := solver.NewMaterialsCoefficientsTable()

	return &Config{
		Integration: IntegrationConfig{
			Dt:                 params.Dt,
			VelocityIterations: params.MaxVelocityIterations,
			PositionIterations: params.MaxPositionIterations,
		},
		Contact: ContactConfig{
			RestitutionThreshold: model.RestitutionThreshold,
			WarmstartCoefficient: model.WarmstartCoefficient,
			AllowedLinearError:   model.AllowedLinearError,
			MaxLinearCorrection:  model.MaxLinearCorrection,
			FrictionCombine:      materials.FrictionCombine.String(),
			RestitutionCombine:   materials.RestitutionCombine.String(),
		},
		World: WorldConfig{
			Gravity:    [3]float64{0, DefaultGravity, 0},
			Workers:    DefaultWorkers,
			CellSize:   DefaultCellSize,
			Cells:      DefaultCells,
			Prediction: DefaultPrediction,
		},
		Run: RunConfig{
			Scene: DefaultScene,
			Steps: DefaultSteps,
		},
	}
}

// Load reads a YAML file over the default configuration: missing keys keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Parameters().Validate(); err != nil {
		return err
	}
	if _, err := c.Materials(); err != nil {
		return err
	}

	contact := c.Contact
	switch {
	case contact.RestitutionThreshold < 0:
		return fmt.Errorf("%w: restitution threshold %v", ErrInvalidContact, contact.RestitutionThreshold)
	case contact.WarmstartCoefficient < 0 || contact.WarmstartCoefficient > 1:
		return fmt.Errorf("%w: warmstart coefficient %v not in [0, 1]", ErrInvalidContact, contact.WarmstartCoefficient)
	case contact.AllowedLinearError < 0:
		return fmt.Errorf("%w: allowed linear error %v", ErrInvalidContact, contact.AllowedLinearError)
	case !(contact.MaxLinearCorrection > 0):
		return fmt.Errorf("%w: max linear correction %v", ErrInvalidContact, contact.MaxLinearCorrection)
	}

	world := c.World
	switch {
	case world.Workers < 0:
		return fmt.Errorf("%w: %d workers", ErrInvalidWorld, world.Workers)
	case !(world.CellSize > 0):
		return fmt.Errorf("%w: cell size %v", ErrInvalidWorld, world.CellSize)
	case world.Cells <= 0:
		return fmt.Errorf("%w: %d cells", ErrInvalidWorld, world.Cells)
	case world.Prediction < 0:
		return fmt.Errorf("%w: prediction %v", ErrInvalidWorld, world.Prediction)
	}

	if c.Run.Scene == "" || c.Run.Steps <= 0 {
		return fmt.Errorf("%w: scene %q, %d steps", ErrInvalidRun, c.Run.Scene, c.Run.Steps)
	}

	return nil
}

func (c *Config) Parameters() integration.Parameters {
	return integration.Parameters{
		Dt:                    c.Integration.Dt,
		MaxVelocityIterations: c.Integration.VelocityIterations,
		MaxPositionIterations: c.Integration.PositionIterations,
	}
}

func (c *Config) ContactModel() *solver.SignoriniCoulomb {
	model := solver.NewSignoriniCoulomb()
	model.RestitutionThreshold = c.Contact.RestitutionThreshold
	model.WarmstartCoefficient = c.Contact.WarmstartCoefficient
	model.AllowedLinearError = c.Contact.AllowedLinearError
	model.MaxLinearCorrection = c.Contact.MaxLinearCorrection
	return model
}

func (c *Config) Materials() (*solver.MaterialsCoefficientsTable, error) {
	friction, err := solver.ParseCombineMode(c.Contact.FrictionCombine)
	if err != nil {
		return nil, fmt.Errorf("friction: %w", err)
	}
	restitution, err := solver.ParseCombineMode(c.Contact.RestitutionCombine)
	if err != nil {
		return nil, fmt.Errorf("restitution: %w", err)
	}
	return &solver.MaterialsCoefficientsTable{FrictionCombine: friction, RestitutionCombine: restitution}, nil
}

func (c *Config) Gravity() mgl64.Vec3 {
	return mgl64.Vec3(c.World.Gravity)
}
