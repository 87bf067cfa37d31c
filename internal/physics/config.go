package physics

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid physics config")

// Config is the immutable tuning record of a World.
type Config struct {
	Gravity          mgl64.Vec3 `yaml:"gravity"`
	FixedDt          float64    `yaml:"fixed_dt"`
	MaxSubsteps      int        `yaml:"max_substeps"`
	SolverIterations int        `yaml:"solver_iterations"`
	Baumgarte        float64    `yaml:"baumgarte"`
	Slop             float64    `yaml:"slop"`

	SleepLinear  float64 `yaml:"sleep_linear"`
	SleepAngular float64 `yaml:"sleep_angular"`
	SleepTime    float64 `yaml:"sleep_time"`

	CellSize          float64 `yaml:"cell_size"`
	CCDSpeedThreshold float64 `yaml:"ccd_speed_threshold"`
	MaxLinearSpeed    float64 `yaml:"max_linear_speed"`
	MaxAngularSpeed   float64 `yaml:"max_angular_speed"`

	// NarrowphaseWorkers > 1 tests candidate pairs concurrently.
	NarrowphaseWorkers int `yaml:"narrowphase_workers"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:           mgl64.Vec3{0, -9.81, 0},
		FixedDt:           1.0 / 120.0,
		MaxSubsteps:       8,
		SolverIterations:  10,
		Baumgarte:         0.2,
		Slop:              0.005,
		SleepLinear:       0.05,
		SleepAngular:      0.05,
		SleepTime:         0.5,
		CellSize:          2,
		CCDSpeedThreshold: 2,
		MaxLinearSpeed:    500,
		MaxAngularSpeed:   100,
	}
}

// LoadConfig decodes YAML over DefaultConfig, so omitted fields keep their defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode physics config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the step cannot run with. NaN and infinities fail
// every check.
func (c Config) Validate() error {
	switch {
	case !isFiniteVec(c.Gravity):
		return fmt.Errorf("%w: gravity must be finite, got %v", ErrInvalidConfig, c.Gravity)
	case !positive(c.FixedDt):
		return fmt.Errorf("%w: fixed_dt must be positive, got %v", ErrInvalidConfig, c.FixedDt)
	case c.MaxSubsteps < 1:
		return fmt.Errorf("%w: max_substeps must be at least 1, got %d", ErrInvalidConfig, c.MaxSubsteps)
	case c.SolverIterations < 1:
		return fmt.Errorf("%w: solver_iterations must be at least 1, got %d", ErrInvalidConfig, c.SolverIterations)
	case !(c.Baumgarte >= 0 && c.Baumgarte <= 1):
		return fmt.Errorf("%w: baumgarte must be in [0,1], got %v", ErrInvalidConfig, c.Baumgarte)
	case !nonNegative(c.Slop):
		return fmt.Errorf("%w: slop must not be negative, got %v", ErrInvalidConfig, c.Slop)
	case !positive(c.CellSize):
		return fmt.Errorf("%w: cell_size must be positive, got %v", ErrInvalidConfig, c.CellSize)
	case !nonNegative(c.SleepTime) || !nonNegative(c.SleepLinear) || !nonNegative(c.SleepAngular):
		return fmt.Errorf("%w: sleep thresholds must not be negative", ErrInvalidConfig)
	case !nonNegative(c.CCDSpeedThreshold):
		return fmt.Errorf("%w: ccd_speed_threshold must not be negative, got %v", ErrInvalidConfig, c.CCDSpeedThreshold)
	case !positive(c.MaxLinearSpeed) || !positive(c.MaxAngularSpeed):
		return fmt.Errorf("%w: speed limits must be positive", ErrInvalidConfig)
	case c.NarrowphaseWorkers < 0:
		return fmt.Errorf("%w: narrowphase_workers must not be negative, got %d", ErrInvalidConfig, c.NarrowphaseWorkers)
	}
	return nil
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

func nonNegative(x float64) bool {
	return x >= 0 && !math.IsInf(x, 1)
}
