package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvConfig is the on-disk environment configuration, loadable from YAML.
// It is the only serialized format of the simulator: a flat set of the
// generator options plus the state machine options.
type EnvConfig struct {
	Mode             string              `yaml:"mode"`
	NumItems         int                 `yaml:"num_items"`
	NumResources     int                 `yaml:"num_resources"`
	DemandLow        []int               `yaml:"demand_low,omitempty"`
	DemandHigh       []int               `yaml:"demand_high,omitempty"`
	ValueLow         int                 `yaml:"value_low,omitempty"`
	ValueHigh        int                 `yaml:"value_high,omitempty"`
	Capacity         []float64           `yaml:"capacity"`
	StaticInstance   *StaticInstanceSpec `yaml:"static_instance,omitempty"`
	Normalize        bool                `yaml:"normalize"`
	Reward           string              `yaml:"reward,omitempty"`
	MaxResetAttempts int                 `yaml:"max_reset_attempts,omitempty"`
	Seed             *int64              `yaml:"seed,omitempty"` // nil = not set in YAML
}

// StaticInstanceSpec lists the items of a static instance, one demand row per value.
type StaticInstanceSpec struct {
	Values  []float64   `yaml:"values"`
	Demands [][]float64 `yaml:"demands"`
}

// DefaultEnvConfig returns the configuration used when no file is given:
// ten items over two resources, integer demands and values in [1, 20),
// capacity 100 per resource, a fresh instance each episode.
func DefaultEnvConfig() *EnvConfig {
	return &EnvConfig{
		Mode:         string(ModeFresh),
		NumItems:     10,
		NumResources: 2,
		DemandLow:    []int{1, 1},
		DemandHigh:   []int{20, 20},
		ValueLow:     1,
		ValueHigh:    20,
		Capacity:     []float64{100, 100},
		Reward:       string(RewardValue),
	}
}

// LoadEnvConfig reads and parses a YAML environment configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadEnvConfig(path string) (*EnvConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading env config: %w", err)
	}
	return ParseEnvConfig(data)
}

// ParseEnvConfig parses YAML bytes with strict field checking.
func ParseEnvConfig(data []byte) (*EnvConfig, error) {
	var cfg EnvConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}
	return &cfg, nil
}

// Validate checks every field, returning a *ConfigError on the first problem.
func (c *EnvConfig) Validate() error {
	if !validRewardModes[RewardMode(c.Reward)] {
		return configErrorf("reward", "unknown reward mode %q; valid: value, utilization", c.Reward)
	}
	if c.MaxResetAttempts < 0 {
		return configErrorf("max_reset_attempts", "must be non-negative, got %d", c.MaxResetAttempts)
	}
	if s := c.StaticInstance; s != nil && len(s.Values) != len(s.Demands) {
		return configErrorf("static_instance", "%d values but %d demand rows", len(s.Values), len(s.Demands))
	}
	gc := c.GeneratorConfig()
	return gc.Validate()
}

// GeneratorConfig converts the file representation into a GeneratorConfig.
func (c *EnvConfig) GeneratorConfig() GeneratorConfig {
	gc := GeneratorConfig{
		Mode:         GeneratorMode(c.Mode),
		NumItems:     c.NumItems,
		NumResources: c.NumResources,
		DemandLow:    c.DemandLow,
		DemandHigh:   c.DemandHigh,
		ValueLow:     c.ValueLow,
		ValueHigh:    c.ValueHigh,
		Capacity:     c.Capacity,
	}
	if c.StaticInstance != nil {
		gc.Static = c.StaticInstance.instance()
	}
	return gc
}

// EnvOptions extracts the state machine options.
func (c *EnvConfig) EnvOptions() EnvOptions {
	return EnvOptions{
		Normalize:        c.Normalize,
		Reward:           RewardMode(c.Reward),
		MaxResetAttempts: c.MaxResetAttempts,
	}
}

// instance converts the listed values and demands into items. Extra demand rows are ignored;
// Validate rejects the mismatch before this matters.
func (s *StaticInstanceSpec) instance() *Instance {
	in := &Instance{Items: make([]Item, len(s.Values))}
	for i := range in.Items {
		in.Items[i].Value = s.Values[i]
		if i < len(s.Demands) {
			in.Items[i].Demand = append([]float64(nil), s.Demands[i]...)
		}
	}
	return in
}

// NewEnvironmentFromConfig validates cfg and builds a generator seeded with
// seed plus the Environment around it.
func NewEnvironmentFromConfig(cfg *EnvConfig, seed int64) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	gen, err := NewInstanceGenerator(cfg.GeneratorConfig(), seed)
	if err != nil {
		return nil, err
	}
	return NewEnvironment(gen, cfg.EnvOptions())
}
