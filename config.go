package hpfem

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/hpfem/sparse"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config holds the solver and adaptivity settings of a run.
type Config struct {
	Newton NewtonConfig `yaml:"newton"`
	Solver SolverConfig `yaml:"solver"`
	Adapt  AdaptConfig  `yaml:"adapt"`
	Output OutputConfig `yaml:"output"`
}

// NewtonConfig sets the residual tolerances of the coarse and reference
// solves and the iteration cap of both.
type NewtonConfig struct {
	Tol     float64 `yaml:"tol"`
	TolRef  float64 `yaml:"tol_ref"`
	MaxIter int     `yaml:"max_iter"`
}

// SolverConfig selects the linear solver; see sparse.NewSolver.
type SolverConfig struct {
	Name    string  `yaml:"name"`
	Tol     float64 `yaml:"tol"`
	MaxIter int     `yaml:"max_iter"`
}

// AdaptConfig configures the adaptivity loop; see Adaptivity.
type AdaptConfig struct {
	Type      AdaptType `yaml:"type"`
	RefMode   RefMode   `yaml:"ref_mode"`
	Norm      Norm      `yaml:"norm"`
	Threshold float64   `yaml:"threshold"`
	// TolErrRel is in percent.
	TolErrRel float64 `yaml:"tol_err_rel"`
	MaxSteps  int     `yaml:"max_steps"`
	Workers   int     `yaml:"workers"`
}

// OutputConfig controls the written solution files.
type OutputConfig struct {
	// Samples is the number of plot points per element.
	Samples int `yaml:"samples"`
}

// DefaultConfig returns the settings used for fields a config file omits.
func DefaultConfig() Config {
	return Config{
		Newton: NewtonConfig{Tol: 1e-5, TolRef: 1e-5, MaxIter: 150},
		Solver: SolverConfig{Name: "lu", Tol: 1e-10, MaxIter: 1000},
		Adapt: AdaptConfig{
			Type:      AdaptHP,
			RefMode:   RefGlobal,
			Norm:      NormH1,
			Threshold: 0.7,
			TolErrRel: 1e-3,
			MaxSteps:  50,
			Workers:   1,
		},
		Output: OutputConfig{Samples: 20},
	}
}

// ParseConfig decodes YAML data on top of DefaultConfig and validates the
// result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML config file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Newton.Tol <= 0 || c.Newton.TolRef <= 0:
		return fmt.Errorf("%w: newton tolerances must be positive", ErrBadConfig)
	case c.Newton.MaxIter < 1:
		return fmt.Errorf("%w: newton max_iter %v", ErrBadConfig, c.Newton.MaxIter)
	case c.Adapt.Threshold < 0 || c.Adapt.Threshold >= 1:
		return fmt.Errorf("%w: adapt threshold %v outside [0, 1)", ErrBadConfig, c.Adapt.Threshold)
	case c.Adapt.TolErrRel <= 0:
		return fmt.Errorf("%w: adapt tol_err_rel must be positive", ErrBadConfig)
	case c.Adapt.MaxSteps < 1:
		return fmt.Errorf("%w: adapt max_steps %v", ErrBadConfig, c.Adapt.MaxSteps)
	case c.Adapt.Workers < 0:
		return fmt.Errorf("%w: adapt workers %v", ErrBadConfig, c.Adapt.Workers)
	case c.Output.Samples < 2:
		return fmt.Errorf("%w: output samples %v", ErrBadConfig, c.Output.Samples)
	}
	if _, err := c.LinearSolver(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	return nil
}

// LinearSolver builds the configured linear solver.
func (c Config) LinearSolver() (sparse.Solver, error) {
	return sparse.NewSolver(c.Solver.Name, c.Solver.Tol, c.Solver.MaxIter)
}

// NewNewton builds a Newton driver with the coarse tolerance.
func (c Config) NewNewton(log *zap.Logger) (*Newton, error) {
	s, err := c.LinearSolver()
	if err != nil {
		return nil, err
	}
	return &Newton{Tol: c.Newton.Tol, MaxIter: c.Newton.MaxIter, Solver: s, Logger: log}, nil
}

// NewAdaptivity builds the adaptivity driver described by c.
func (c Config) NewAdaptivity(log *zap.Logger) (*Adaptivity, error) {
	coarse, err := c.NewNewton(log)
	if err != nil {
		return nil, err
	}
	ref := *coarse
	ref.Tol = c.Newton.TolRef
	ref.Solver = sparse.CloneSolver(coarse.Solver)
	return &Adaptivity{
		Type:      c.Adapt.Type,
		Mode:      c.Adapt.RefMode,
		Norm:      c.Adapt.Norm,
		Threshold: c.Adapt.Threshold,
		TolErrRel: c.Adapt.TolErrRel,
		MaxSteps:  c.Adapt.MaxSteps,
		Workers:   c.Adapt.Workers,
		Coarse:    *coarse,
		Ref:       ref,
		Logger:    log,
	}, nil
}

var (
	adaptTypeNames = map[AdaptType]string{AdaptHP: "hp", AdaptH: "h", AdaptP: "p"}
	refModeNames   = map[RefMode]string{RefGlobal: "global", RefFastTrial: "fast-trial"}
	normNames      = map[Norm]string{NormL2: "l2", NormH1: "h1"}
)

func lookupName[T comparable](names map[T]string, s, what string) (T, error) {
	for v, name := range names {
		if name == s {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: unknown %v %q", ErrBadConfig, what, s)
}

func (t AdaptType) String() string { return adaptTypeNames[t] }
func (r RefMode) String() string   { return refModeNames[r] }
func (n Norm) String() string      { return normNames[n] }

// ParseAdaptType parses "hp", "h" or "p".
func ParseAdaptType(s string) (AdaptType, error) { return lookupName(adaptTypeNames, s, "adapt type") }

// ParseRefMode parses "global" or "fast-trial".
func ParseRefMode(s string) (RefMode, error) { return lookupName(refModeNames, s, "reference mode") }

// ParseNorm parses "l2" or "h1".
func ParseNorm(s string) (Norm, error) { return lookupName(normNames, s, "norm") }

func (t AdaptType) MarshalYAML() (interface{}, error) { return t.String(), nil }
func (r RefMode) MarshalYAML() (interface{}, error)   { return r.String(), nil }
func (n Norm) MarshalYAML() (interface{}, error)      { return n.String(), nil }

func (t *AdaptType) UnmarshalYAML(value *yaml.Node) (err error) {
	*t, err = ParseAdaptType(value.Value)
	return err
}

func (r *RefMode) UnmarshalYAML(value *yaml.Node) (err error) {
	*r, err = ParseRefMode(value.Value)
	return err
}

func (n *Norm) UnmarshalYAML(value *yaml.Node) (err error) {
	*n, err = ParseNorm(value.Value)
	return err
}
