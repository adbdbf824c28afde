package sim

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// GeneratorMode selects how instances are produced across episodes.
type GeneratorMode string

const (
	// ModeStatic returns the caller-supplied instance on every call.
	ModeStatic GeneratorMode = "static"
	// ModeShared samples once on the first call and reuses that instance for
	// the lifetime of the generator.
	ModeShared GeneratorMode = "shared"
	// ModeFresh samples a new instance on every call.
	ModeFresh GeneratorMode = "fresh"
)

// validModes maps accepted mode strings.
var validModes = map[GeneratorMode]bool{
	ModeStatic: true,
	ModeShared: true,
	ModeFresh:  true,
}

// IsValidMode returns true if the given string is a recognized generator mode.
func IsValidMode(mode string) bool {
	return validModes[GeneratorMode(mode)]
}

// GeneratorConfig holds everything the generator needs to produce instances.
// Sampling bounds are integers, low inclusive and high exclusive.
type GeneratorConfig struct {
	Mode         GeneratorMode
	NumItems     int
	NumResources int
	DemandLow    []int
	DemandHigh   []int
	ValueLow     int
	ValueHigh    int
	Capacity     []float64
	// Static supplies values and demands for ModeStatic. Its Capacity is
	// ignored; Capacity above always wins.
	Static *Instance
}

// Validate checks the configuration, returning a *ConfigError on the first problem.
func (c *GeneratorConfig) Validate() error {
	if !validModes[c.Mode] {
		return configErrorf("mode", "unknown mode %q; valid: static, shared, fresh", c.Mode)
	}
	if c.NumItems <= 0 {
		return configErrorf("num_items", "must be positive, got %d", c.NumItems)
	}
	if c.NumResources <= 0 {
		return configErrorf("num_resources", "must be positive, got %d", c.NumResources)
	}
	if len(c.Capacity) != c.NumResources {
		return configErrorf("capacity", "expected %d entries, got %d", c.NumResources, len(c.Capacity))
	}
	for r, capR := range c.Capacity {
		if !(capR > 0) || math.IsInf(capR, 0) {
			return configErrorf("capacity", "capacity[%d] must be positive and finite, got %v", r, capR)
		}
	}
	if c.Mode == ModeStatic {
		return c.validateStatic()
	}
	if len(c.DemandLow) != c.NumResources || len(c.DemandHigh) != c.NumResources {
		return configErrorf("demand_range", "expected %d low/high entries, got %d/%d",
			c.NumResources, len(c.DemandLow), len(c.DemandHigh))
	}
	for r := range c.DemandLow {
		if c.DemandLow[r] < 0 {
			return configErrorf("demand_range", "demand_low[%d] must be non-negative, got %d", r, c.DemandLow[r])
		}
		if c.DemandHigh[r] <= c.DemandLow[r] {
			return configErrorf("demand_range", "empty range [%d, %d) for resource %d", c.DemandLow[r], c.DemandHigh[r], r)
		}
	}
	if c.ValueLow < 0 {
		return configErrorf("value_range", "value_low must be non-negative, got %d", c.ValueLow)
	}
	if c.ValueHigh <= c.ValueLow {
		return configErrorf("value_range", "empty range [%d, %d)", c.ValueLow, c.ValueHigh)
	}
	return nil
}

func (c *GeneratorConfig) validateStatic() error {
	if c.Static == nil {
		return configErrorf("static_instance", "required in static mode")
	}
	if len(c.Static.Items) != c.NumItems {
		return configErrorf("static_instance", "expected %d items, got %d", c.NumItems, len(c.Static.Items))
	}
	for i, it := range c.Static.Items {
		if !nonNegativeFinite(it.Value) {
			return configErrorf("static_instance", "item %d value must be non-negative and finite, got %v", i, it.Value)
		}
		if len(it.Demand) != c.NumResources {
			return configErrorf("static_instance", "item %d: expected %d demands, got %d", i, c.NumResources, len(it.Demand))
		}
		for r, d := range it.Demand {
			if !nonNegativeFinite(d) {
				return configErrorf("static_instance", "item %d demand[%d] must be non-negative and finite, got %v", i, r, d)
			}
		}
	}
	return nil
}

// nonNegativeFinite rejects negatives, NaN and infinities. NaN in consumed
// capacity would make every fit comparison false.
func nonNegativeFinite(x float64) bool {
	return x >= 0 && !math.IsInf(x, 1)
}

// MaxValue returns the largest value an item can take under this configuration.
// Used as the value-column divisor by observation normalization.
func (c *GeneratorConfig) MaxValue() float64 {
	if c.Mode == ModeStatic && c.Static != nil {
		return c.Static.MaxValue()
	}
	return float64(c.ValueHigh)
}

// InstanceGenerator produces one problem instance per episode according to its mode.
//
// The random source is injected as a seed at construction and never reseeded,
// so the instance sequence is deterministic for a given seed.
// Thread-safety: NOT thread-safe. Owned by a single Environment.
type InstanceGenerator struct {
	cfg    GeneratorConfig
	src    *countingSource
	rng    *rand.Rand
	cached *Instance
}

// NewInstanceGenerator validates cfg and returns a generator drawing from a
// source seeded with seed.
func NewInstanceGenerator(cfg GeneratorConfig, seed int64) (*InstanceGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Capacity = append([]float64(nil), cfg.Capacity...)
	cfg.DemandLow = append([]int(nil), cfg.DemandLow...)
	cfg.DemandHigh = append([]int(nil), cfg.DemandHigh...)
	g := &InstanceGenerator{cfg: cfg}
	g.src = newCountingSource(seed)
	g.rng = rand.New(g.src)
	if cfg.Mode == ModeStatic {
		g.cached = cfg.Static.Clone()
		g.cached.Capacity = append([]float64(nil), cfg.Capacity...)
		g.cfg.Static = g.cached
	}
	return g, nil
}

// Mode returns the generator's mode.
func (g *InstanceGenerator) Mode() GeneratorMode { return g.cfg.Mode }

// Config returns a copy of the generator configuration.
func (g *InstanceGenerator) Config() GeneratorConfig {
	cfg := g.cfg
	cfg.Capacity = append([]float64(nil), g.cfg.Capacity...)
	cfg.DemandLow = append([]int(nil), g.cfg.DemandLow...)
	cfg.DemandHigh = append([]int(nil), g.cfg.DemandHigh...)
	cfg.Static = g.cfg.Static.Clone()
	return cfg
}

// Generate returns the instance for the next episode. The returned instance
// is a private copy the caller may keep.
func (g *InstanceGenerator) Generate() *Instance {
	switch g.cfg.Mode {
	case ModeStatic:
		return g.cached.Clone()
	case ModeShared:
		if g.cached == nil {
			g.cached = g.sample()
			logrus.Debugf("generator: sampled shared instance (%d items, %d resources)",
				g.cfg.NumItems, g.cfg.NumResources)
		}
		return g.cached.Clone()
	default:
		return g.sample()
	}
}

// sample draws every item's demand vector, then its value, uniformly from the
// configured integer ranges.
func (g *InstanceGenerator) sample() *Instance {
	in := &Instance{
		Items:    make([]Item, g.cfg.NumItems),
		Capacity: append([]float64(nil), g.cfg.Capacity...),
	}
	for i := range in.Items {
		demand := make([]float64, g.cfg.NumResources)
		for r := range demand {
			demand[r] = float64(g.cfg.DemandLow[r] + g.rng.Intn(g.cfg.DemandHigh[r]-g.cfg.DemandLow[r]))
		}
		value := float64(g.cfg.ValueLow + g.rng.Intn(g.cfg.ValueHigh-g.cfg.ValueLow))
		in.Items[i] = Item{Value: value, Demand: demand}
	}
	return in
}

// Clone returns an independent generator in the same position of its random
// stream, holding its own copy of any cached instance.
func (g *InstanceGenerator) Clone() *InstanceGenerator {
	c := &InstanceGenerator{cfg: g.cfg}
	c.cfg.Capacity = append([]float64(nil), g.cfg.Capacity...)
	c.cfg.DemandLow = append([]int(nil), g.cfg.DemandLow...)
	c.cfg.DemandHigh = append([]int(nil), g.cfg.DemandHigh...)
	c.src = g.src.clone()
	c.rng = rand.New(c.src)
	c.cached = g.cached.Clone()
	if c.cfg.Mode == ModeStatic {
		c.cfg.Static = c.cached
	}
	return c
}

// countingSource wraps the standard source and counts draws so the stream can
// be reproduced at the same position.
type countingSource struct {
	seed  int64
	src   rand.Source64
	draws uint64
}

func newCountingSource(seed int64) *countingSource {
	return &countingSource{seed: seed, src: rand.NewSource(seed).(rand.Source64)}
}

func (s *countingSource) Int63() int64 {
	s.draws++
	return s.src.Int63()
}

func (s *countingSource) Uint64() uint64 {
	s.draws++
	return s.src.Uint64()
}

func (s *countingSource) Seed(seed int64) {
	s.seed = seed
	s.draws = 0
	s.src.Seed(seed)
}

// clone replays the stream from the seed; every call on the standard source
// advances it by exactly one step.
func (s *countingSource) clone() *countingSource {
	c := newCountingSource(s.seed)
	for c.draws < s.draws {
		c.Int63()
	}
	return c
}
