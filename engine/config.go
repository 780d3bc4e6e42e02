package engine

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rlange/anneal/analysis"
	"github.com/rlange/anneal/optim"
)

// Report output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrBadConfig is returned for any configuration the engine refuses to
// run with.
var ErrBadConfig = errors.New("engine: invalid configuration")

// Config is the engine configuration surface. The zero value is not
// usable; start from DefaultConfig and override fields.
type Config struct {
	// Concurrency bounds the scheduler's worker pool. Zero means the
	// available hardware parallelism.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// ComplexityThreshold is the score above which a function is
	// reported. Scores are recorded either way; zero disables only the
	// diagnostic.
	ComplexityThreshold int `json:"complexity_threshold" yaml:"complexity_threshold"`

	// Passes lists the enabled top-level passes: complexity, security,
	// callgraph, optimize. Empty enables all of them.
	Passes []string `json:"passes,omitempty" yaml:"passes"`

	// Optimizations lists the optimization sub-passes in run order.
	// Empty means fold, dce, licm, inline.
	Optimizations []string `json:"optimizations,omitempty" yaml:"optimizations"`

	// OptimizeRounds repeats the pipeline over each function, picking up
	// rewrites one round exposes to the next. Values below one run once.
	OptimizeRounds int `json:"optimize_rounds" yaml:"optimize_rounds"`

	// Inline bounds the inliner.
	Inline optim.InlineGates `json:"inline" yaml:"inline"`

	// Format selects the report rendering: FormatText or FormatJSON.
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		ComplexityThreshold: 10,
		OptimizeRounds:      1,
		Inline: optim.InlineGates{
			MaxBlocks: 8,
			MaxInstrs: 48,
			MaxDepth:  4,
		},
		Format: FormatText,
	}
}

// WithConcurrency returns a copy of c with the worker pool bound set.
func (c Config) WithConcurrency(n int) Config {
	c.Concurrency = n
	return c
}

// WithFormat returns a copy of c with the report format set.
func (c Config) WithFormat(format string) Config {
	c.Format = format
	return c
}

// WithPasses returns a copy of c with the enabled pass set replaced.
func (c Config) WithPasses(passes ...string) Config {
	c.Passes = passes
	return c
}

// LoadConfig reads a YAML configuration from r on top of the defaults.
// Unknown keys are an error; an empty document keeps the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	conf := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil {
		if errors.Is(err, io.EOF) {
			return conf, nil
		}
		return conf, errors.Wrap(err, "engine: cannot parse config")
	}
	return conf, nil
}

// LoadConfigFile reads a YAML configuration file on top of the defaults.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return DefaultConfig(), errors.Wrap(err, "engine: cannot open config")
	}
	defer f.Close()
	return LoadConfig(f)
}

// validate reports the first configuration error. Configuration errors
// are fatal up front: the engine refuses to construct rather than run a
// partial or misordered pass set.
func (c Config) validate() error {
	if c.Concurrency < 0 {
		return errors.Wrapf(ErrBadConfig, "concurrency %d", c.Concurrency)
	}
	if c.ComplexityThreshold < 0 {
		return errors.Wrapf(ErrBadConfig, "complexity threshold %d", c.ComplexityThreshold)
	}
	for _, p := range c.Passes {
		switch p {
		case analysis.PassComplexity, analysis.PassSecurity, analysis.PassCallGraph, optim.PassOptimize:
		default:
			return errors.Wrapf(ErrBadConfig, "unknown pass %q", p)
		}
	}
	for _, p := range c.Optimizations {
		if !knownOptimization(p) {
			return errors.Wrapf(ErrBadConfig, "unknown optimization %q", p)
		}
	}
	switch c.Format {
	case "", FormatText, FormatJSON:
	default:
		return errors.Wrapf(ErrBadConfig, "unknown format %q", c.Format)
	}
	return nil
}

func knownOptimization(name string) bool {
	for _, n := range optim.PassNames {
		if n == name {
			return true
		}
	}
	return false
}

// enabled reports whether the named top-level pass is on.
func (c Config) enabled(name string) bool {
	if len(c.Passes) == 0 {
		return true
	}
	for _, p := range c.Passes {
		if p == name {
			return true
		}
	}
	return false
}
