// Package config loads the YAML configuration shared by the apoptosim
// commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/apoptosim/ensemble"
	"github.com/njchilds90/apoptosim/loop"
	"github.com/njchilds90/apoptosim/ode"
	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/store"
	"github.com/njchilds90/apoptosim/telemetry"
)

// ErrUnsortedSaveAt indicates explicit save points out of order.
var ErrUnsortedSaveAt = errors.New("config: simulation.save_at must be sorted")

var validate = validator.New()

// Config is the root of a configuration file.
type Config struct {
	Model      ModelConfig           `json:"model" yaml:"model"`
	Simulation SimulationConfig      `json:"simulation" yaml:"simulation"`
	Logging    telemetry.LogConfig   `json:"logging" yaml:"logging"`
	Tracing    telemetry.TraceConfig `json:"tracing" yaml:"tracing"`
	Store      store.Config          `json:"store" yaml:"store"`
	Ensemble   ensemble.Config       `json:"ensemble" yaml:"ensemble"`
	Server     ServerConfig          `json:"server" yaml:"server"`
}

// ModelConfig selects what to simulate. A main network file takes
// precedence over the catalog name; with a loop file as well the pair is
// simulated as a loop system sharing the listed species.
type ModelConfig struct {
	Name         string   `json:"name" yaml:"name" validate:"required_without=Main"`
	Mitochondria int      `json:"mitochondria" yaml:"mitochondria" validate:"gte=0"`
	Main         string   `json:"main" yaml:"main" validate:"required_with=Loop"`
	Loop         string   `json:"loop" yaml:"loop"`
	Shared       []string `json:"shared,omitempty" yaml:"shared,omitempty"`
}

// SimulationConfig holds the deterministic run settings.
type SimulationConfig struct {
	TEnd   float64   `json:"t_end" yaml:"t_end" validate:"gt=0"`
	Points int       `json:"points" yaml:"points" validate:"gte=2"`
	SaveAt []float64 `json:"save_at,omitempty" yaml:"save_at,omitempty"`

	Solver   string  `json:"solver" yaml:"solver" validate:"omitempty,oneof=dopri5 DormandPrince bs3 BogackiShampine"`
	RTol     float64 `json:"rtol" yaml:"rtol" validate:"gt=0"`
	ATol     float64 `json:"atol" yaml:"atol" validate:"gt=0"`
	MaxSteps int     `json:"max_steps" yaml:"max_steps" validate:"gte=1"`

	Replicates int             `json:"replicates" yaml:"replicates" validate:"gte=0"`
	Output     string          `json:"output" yaml:"output" validate:"omitempty,oneof=ignore sum index_as_suffix"`
	Values     reaction.Values `json:"values,omitempty" yaml:"values,omitempty"`
	LoopValues loop.LoopValues `json:"loop_values,omitempty" yaml:"loop_values,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" validate:"required"`

	// RateLimit is the sustained solve rate in requests per second; zero
	// disables limiting.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	Burst     int     `json:"burst" yaml:"burst" validate:"gte=0"`

	// MaxSavePoints bounds the size of a single response.
	MaxSavePoints int `json:"max_save_points" yaml:"max_save_points" validate:"gte=1"`

	// SolveTimeout cancels a solve that runs longer; zero means no limit.
	SolveTimeout time.Duration `json:"solve_timeout" yaml:"solve_timeout" validate:"gte=0"`
}

// Default returns a configuration that simulates six hours of the looped
// cell with one mitochondrion.
func Default() *Config {
	opts := ode.DefaultOptions()
	return &Config{
		Model: ModelConfig{Name: "arm_loop"},
		Simulation: SimulationConfig{
			TEnd:       6 * 3600,
			Points:     361,
			Solver:     "dopri5",
			RTol:       opts.RTol,
			ATol:       opts.ATol,
			MaxSteps:   opts.MaxSteps,
			Replicates: 1,
			Output:     string(loop.Ignore),
		},
		Logging:  telemetry.DefaultLogConfig(),
		Tracing:  telemetry.DefaultTraceConfig(),
		Store:    store.DefaultConfig(),
		Ensemble: ensemble.DefaultConfig(),
		Server: ServerConfig{
			Addr:          ":8080",
			RateLimit:     10,
			Burst:         20,
			MaxSavePoints: 10000,
			SolveTimeout:  30 * time.Second,
		},
	}
}

// Load reads path over the defaults and validates the result. Unknown
// keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !sort.Float64sAreSorted(c.Simulation.SaveAt) {
		return ErrUnsortedSaveAt
	}
	return nil
}

// SaveTimes returns the explicit save points, or Points evenly spaced
// times over [0, TEnd].
func (s SimulationConfig) SaveTimes() []float64 {
	if len(s.SaveAt) > 0 {
		return append([]float64(nil), s.SaveAt...)
	}
	return ode.Linspace(0, s.TEnd, s.Points)
}

// ODEOptions returns the integrator settings.
func (s SimulationConfig) ODEOptions() *ode.Options {
	opts := ode.DefaultOptions()
	opts.RTol = s.RTol
	opts.ATol = s.ATol
	opts.MaxSteps = s.MaxSteps
	return opts
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
