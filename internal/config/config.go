// Package config manages the optional .jdime.toml configuration file and
// the parsing of the option formats shared by the file and the CLI
// (look-ahead values, cost-model tuples, seeds).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/t03i/jdime/internal/artifact"
	"github.com/t03i/jdime/internal/merge"
)

const (
	// ConfigFile is the configuration file name searched upward from the
	// working directory.
	ConfigFile = ".jdime.toml"

	// StateDir holds run-local state such as the statistics database.
	StateDir = ".jdime"

	// StatsDatabaseFile is the statistics database inside StateDir.
	StatsDatabaseFile = "stats.db"
)

// Config mirrors the configuration file. Zero values mean "not set"; Apply
// only overrides context fields that are present.
type Config struct {
	Strategy                  string            `toml:"strategy"`
	LookAhead                 string            `toml:"lookahead"`
	LookAheads                map[string]string `toml:"lookaheads"`
	Stats                     bool              `toml:"stats"`
	KeepGoing                 bool              `toml:"keep_going"`
	ExitOnError               bool              `toml:"exit_on_error"`
	Quiet                     bool              `toml:"quiet"`
	Pretend                   bool              `toml:"pretend"`
	Recursive                 bool              `toml:"recursive"`
	ConditionalOutsideMethods *bool             `toml:"conditional_outside_methods"`

	CM              string  `toml:"cm"`
	CMOptions       string  `toml:"cm_options"`
	CMFixPercentage string  `toml:"cm_fix_percentage"`
	CMSeed          string  `toml:"cm_seed"`
	CMParallel      *bool   `toml:"cm_parallel"`
	CMReMatchBound  float64 `toml:"cm_rematch_bound"`

	path string // directory the config was found in, empty for defaults
}

// FindRoot walks up from the working directory looking for a configuration
// file and returns the directory containing it.
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// Load reads the nearest configuration file. When none exists an empty
// configuration is returned.
func Load() (*Config, error) {
	root, err := FindRoot()
	if err != nil {
		return &Config{}, nil
	}

	data, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.path = root
	return &cfg, nil
}

// Save writes the configuration next to where it was loaded from, or into
// the working directory for a fresh configuration.
func (c *Config) Save() error {
	root := c.path
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		root = cwd
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(root, ConfigFile), data, 0644)
}

// StatsDatabasePath returns the statistics database location, creating the
// state directory when needed.
func (c *Config) StatsDatabasePath() (string, error) {
	root := c.path
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = cwd
	}
	dir := filepath.Join(root, StateDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return filepath.Join(dir, StatsDatabaseFile), nil
}

// Apply folds the configuration into a merge context.
func (c *Config) Apply(mc *merge.MergeContext) error {
	if c.LookAhead != "" {
		la, err := ParseLookAhead(c.LookAhead)
		if err != nil {
			return err
		}
		mc.LookAhead = la
	}
	for name, val := range c.LookAheads {
		kind, err := artifact.ParseKind(name)
		if err != nil {
			return err
		}
		la, err := ParseLookAhead(val)
		if err != nil {
			return err
		}
		mc.LookAheads[kind] = la
	}

	if c.Stats {
		mc.EnableStatistics()
	}
	if c.KeepGoing {
		mc.KeepGoing = true
	}
	if c.ExitOnError {
		mc.ExitOnError = true
	}
	if c.Quiet {
		mc.Quiet = true
	}
	if c.Pretend {
		mc.Pretend = true
	}
	if c.Recursive {
		mc.Recursive = true
	}
	if c.ConditionalOutsideMethods != nil {
		mc.ConditionalOutsideMethods = *c.ConditionalOutsideMethods
	}

	if c.CM != "" {
		mode, err := ParseCMMode(c.CM)
		if err != nil {
			return err
		}
		mc.CMMatcherMode = mode
	}
	if c.CMOptions != "" {
		if err := ApplyCostModelOptions(mc, c.CMOptions); err != nil {
			return err
		}
	}
	if c.CMFixPercentage != "" {
		if err := ApplyFixPercentage(mc, c.CMFixPercentage); err != nil {
			return err
		}
	}
	if c.CMSeed != "" {
		seed, err := ParseSeed(c.CMSeed)
		if err != nil {
			return err
		}
		mc.Seed = seed
	}
	if c.CMParallel != nil {
		mc.CMMatcherParallel = *c.CMParallel
	}
	if c.CMReMatchBound > 0 {
		mc.CMReMatchBound = c.CMReMatchBound
	}

	return nil
}

// ParseLookAhead parses a look-ahead configuration value: an integer >= 0,
// or the tokens "off" and "full".
func ParseLookAhead(val string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "off":
		return merge.LookAheadOff, nil
	case "full":
		return merge.LookAheadFull, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid lookahead value %q", val)
	}
	return n, nil
}

// ParseCMMode parses the cost-model matcher mode.
func ParseCMMode(val string) (merge.CMMode, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "off":
		return merge.CMOff, nil
	case "on":
		return merge.CMOn, nil
	default:
		return merge.CMOff, fmt.Errorf("invalid cost model mode %q", val)
	}
}

// ApplyCostModelOptions parses the comma-separated cost-model tuple
// "iterations, pAssign, wr, wn, wa, ws, wo" into the context.
func ApplyCostModelOptions(mc *merge.MergeContext, opts string) error {
	fields := splitTuple(opts)
	if len(fields) != 7 {
		return fmt.Errorf("cost model options need 7 comma-separated values, got %d", len(fields))
	}

	iterations, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("invalid cost model iterations %q", fields[0])
	}
	floats := make([]float64, 6)
	for i, f := range fields[1:] {
		floats[i], err = strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("invalid cost model option %q", f)
		}
	}

	mc.CostModelIterations = iterations
	mc.PAssign = floats[0]
	mc.WR = floats[1]
	mc.WN = floats[2]
	mc.WA = floats[3]
	mc.WS = floats[4]
	mc.WO = floats[5]
	return nil
}

// ApplyFixPercentage parses the "fixLower, fixUpper" tuple and enables
// random-percentage pinning.
func ApplyFixPercentage(mc *merge.MergeContext, opts string) error {
	fields := splitTuple(opts)
	if len(fields) != 2 {
		return fmt.Errorf("fix percentages need 2 comma-separated values, got %d", len(fields))
	}
	lower, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("invalid fix percentage %q", fields[0])
	}
	upper, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("invalid fix percentage %q", fields[1])
	}
	mc.CMFixRandomPercentage = true
	mc.FixLower = lower
	mc.FixUpper = upper
	return nil
}

// ParseSeed parses a cost-model seed: an integer, or "none" for an
// unseeded, nondeterministic run.
func ParseSeed(val string) (*int64, error) {
	trimmed := strings.ToLower(strings.TrimSpace(val))
	if trimmed == "none" {
		return nil, nil
	}
	seed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid seed %q", val)
	}
	return &seed, nil
}

func splitTuple(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
