package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the project configuration file looked up from the working
// directory upwards.
const FileName = "sire.toml"

// DefaultURL is where the trace server of an instrumented run listens.
const DefaultURL = "http://localhost:8000/1000.sir"

// Config is the merged configuration of a sire invocation.
type Config struct {
	Source      SourceConfig      `toml:"source"`
	Reconstruct ReconstructConfig `toml:"reconstruct"`
	Cache       CacheConfig       `toml:"cache"`
	Output      OutputConfig      `toml:"output"`

	// Path of the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// SourceConfig describes where traces come from.
type SourceConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
	Retries int      `toml:"retries"`
	Jobs    int      `toml:"jobs"`
}

// ReconstructConfig mirrors calltree.Options.
type ReconstructConfig struct {
	Lenient    bool `toml:"lenient"`
	MatchNames bool `toml:"match_names"`
	CheckRefs  bool `toml:"check_refs"`
}

// CacheConfig controls the on-disk cache of structured traces.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Format   string `toml:"format"`
	Color    string `toml:"color"`
	MaxDepth int    `toml:"max_depth"`
	ArgWidth int    `toml:"arg_width"`
}

// Duration decodes TOML strings such as "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Source: SourceConfig{
			URL:     DefaultURL,
			Timeout: Duration{10 * time.Second},
			Jobs:    0,
		},
		Cache: CacheConfig{
			Enabled: false,
		},
		Output: OutputConfig{
			Format:   "text",
			Color:    "auto",
			MaxDepth: 0,
			ArgWidth: 60,
		},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load reads path on top of the defaults. Unknown keys are rejected so typos
// do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("source", "url") && strings.TrimSpace(cfg.Source.URL) == "" {
		return Config{}, fmt.Errorf("%s: [source].url must not be empty", path)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads explicit when set, otherwise the nearest FileName above
// startDir, otherwise the defaults.
func Resolve(explicit, startDir string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Source.Timeout.Duration < 0 {
		return fmt.Errorf("[source].timeout must not be negative")
	}
	if c.Source.Retries < 0 {
		return fmt.Errorf("[source].retries must not be negative")
	}
	if c.Source.Jobs < 0 {
		return fmt.Errorf("[source].jobs must not be negative")
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("[output].format %q (expected: text|json)", c.Output.Format)
	}
	switch c.Output.Color {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("[output].color %q (expected: auto|on|off)", c.Output.Color)
	}
	if c.Output.MaxDepth < 0 || c.Output.ArgWidth < 0 {
		return fmt.Errorf("[output] limits must not be negative")
	}
	return nil
}
