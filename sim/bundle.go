package sim

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunBundle holds a run configuration loadable from a YAML file.
// Nil pointer fields mean "not set in YAML" and leave the caller's defaults
// alone. String fields use empty string for "not set".
type RunBundle struct {
	Philosophers   int            `yaml:"philosophers"`
	Capacities     []int          `yaml:"capacities"`
	Gate           GateConfig     `yaml:"gate"`
	Order          string         `yaml:"order"`
	Cycles         *int           `yaml:"cycles"`
	Delays         DelaysConfig   `yaml:"delays"`
	AcquireTimeout *time.Duration `yaml:"acquire_timeout"`
	PassTimeout    *time.Duration `yaml:"pass_timeout"`
	Output         string         `yaml:"output"`
}

// GateConfig holds admission gate configuration.
type GateConfig struct {
	Policy string `yaml:"policy"`
	Scope  string `yaml:"scope"`
}

// DelaysConfig holds think/eat delay configuration. Durations use Go syntax
// ("100ms", "1.5s").
type DelaysConfig struct {
	Think  *time.Duration `yaml:"think"`
	Eat    *time.Duration `yaml:"eat"`
	Jitter *float64       `yaml:"jitter"`
	Seed   *int64         `yaml:"seed"`
}

// LoadRunBundle reads and parses a YAML run configuration file.
// Unknown keys are rejected so typos surface as errors.
func LoadRunBundle(path string) (*RunBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var bundle RunBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	return &bundle, nil
}

// Validate checks that all names and parameter ranges in the bundle are valid.
// Zero-valued Philosophers means "not set".
func (b *RunBundle) Validate() error {
	if b.Philosophers != 0 && b.Philosophers < 2 {
		return configErr("philosophers", b.Philosophers, "a table needs at least 2 seats")
	}
	for _, c := range b.Capacities {
		if c < 1 {
			return configErr("capacities", b.Capacities, "every capacity must be at least 1")
		}
	}
	if !IsValidGatePolicy(b.Gate.Policy) {
		return configErr("gate policy", fmt.Sprintf("%q", b.Gate.Policy), "unknown policy")
	}
	if !IsValidGateScope(b.Gate.Scope) {
		return configErr("gate scope", fmt.Sprintf("%q", b.Gate.Scope), "unknown scope")
	}
	if !IsValidOrder(b.Order) {
		return configErr("acquisition order", fmt.Sprintf("%q", b.Order), "unknown order")
	}
	if b.Cycles != nil && *b.Cycles < 1 {
		return configErr("cycles", *b.Cycles, "must be at least 1")
	}
	if b.Delays.Think != nil && *b.Delays.Think < 0 {
		return configErr("think delay", *b.Delays.Think, "must be non-negative")
	}
	if b.Delays.Eat != nil && *b.Delays.Eat < 0 {
		return configErr("eat delay", *b.Delays.Eat, "must be non-negative")
	}
	if b.Delays.Jitter != nil && (*b.Delays.Jitter < 0 || *b.Delays.Jitter > 1) {
		return configErr("jitter", *b.Delays.Jitter, "must be within [0, 1]")
	}
	if b.AcquireTimeout != nil && *b.AcquireTimeout < 0 {
		return configErr("acquire timeout", *b.AcquireTimeout, "must be non-negative")
	}
	if b.PassTimeout != nil && *b.PassTimeout < 0 {
		return configErr("pass timeout", *b.PassTimeout, "must be non-negative")
	}
	return nil
}
