package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for codegraph.
type Config struct {
	// Classify controls how files are categorized before extraction.
	Classify ClassifyConfig `koanf:"classify" toml:"classify"`

	// Scan controls directory traversal and worker parallelism.
	Scan ScanConfig `koanf:"scan" toml:"scan"`

	// Snapshot controls graph snapshot persistence.
	Snapshot SnapshotConfig `koanf:"snapshot" toml:"snapshot"`

	// Output controls output formatting.
	Output OutputConfig `koanf:"output" toml:"output"`
}

// ClassifyConfig defines how test and example files are recognized.
type ClassifyConfig struct {
	// TestDirs are directory names whose contents count as test files.
	TestDirs []string `koanf:"test_dirs" toml:"test_dirs"`

	// TestFileGlobs match test file basenames, extension excluded.
	TestFileGlobs []string `koanf:"test_file_globs" toml:"test_file_globs"`

	// TestFuncPrefixes mark functions as tests by name.
	TestFuncPrefixes []string `koanf:"test_func_prefixes" toml:"test_func_prefixes"`

	// TestClassPatterns match test class names.
	TestClassPatterns []string `koanf:"test_class_patterns" toml:"test_class_patterns"`

	// ExampleDirs are directory names whose contents count as examples.
	ExampleDirs []string `koanf:"example_dirs" toml:"example_dirs"`
}

// ScanConfig controls traversal.
type ScanConfig struct {
	IgnoreDirs []string `koanf:"ignore_dirs" toml:"ignore_dirs"`
	Gitignore  bool     `koanf:"gitignore" toml:"gitignore"`
	Workers    int      `koanf:"workers" toml:"workers"`
}

// SnapshotConfig controls where graph snapshots are stored.
type SnapshotConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Classify: ClassifyConfig{
			TestDirs:          []string{"tests", "test", "testing"},
			TestFileGlobs:     []string{"test_*", "*_test"},
			TestFuncPrefixes:  []string{"test_"},
			TestClassPatterns: []string{"Test*", "*Test"},
			ExampleDirs:       []string{"examples"},
		},
		Scan: ScanConfig{
			IgnoreDirs: []string{
				"vendor",
				"node_modules",
				".git",
				".codegraph",
				"dist",
				"build",
				"__pycache__",
			},
			Gitignore: true,
			Workers:   0, // 0 means runtime.NumCPU
		},
		Snapshot: SnapshotConfig{
			Enabled: false,
			Dir:     ".codegraph/snapshots",
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file and validates it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"codegraph.toml",
		"codegraph.yaml",
		"codegraph.yml",
		"codegraph.json",
		".codegraph.toml",
		".codegraph.yaml",
		".codegraph.yml",
		".codegraph.json",
	}
	searchDirs := []string{".", ".codegraph"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}
	return DefaultConfig()
}

// Validate rejects configurations that would make classification ambiguous.
// A directory may mark files as tests or as examples, never both, and every
// glob must compile.
func (c *Config) Validate() error {
	testDirs := make(map[string]bool, len(c.Classify.TestDirs))
	for _, d := range c.Classify.TestDirs {
		testDirs[d] = true
	}
	for _, d := range c.Classify.ExampleDirs {
		if testDirs[d] {
			return fmt.Errorf("directory %q is listed as both a test dir and an example dir", d)
		}
	}

	for _, pattern := range c.Classify.TestFileGlobs {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid test file glob %q: %w", pattern, err)
		}
	}
	for _, pattern := range c.Classify.TestClassPatterns {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid test class pattern %q: %w", pattern, err)
		}
	}

	if c.Scan.Workers < 0 {
		return fmt.Errorf("scan workers must not be negative, got %d", c.Scan.Workers)
	}

	switch c.Output.Format {
	case "", "text", "json", "markdown":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	return nil
}

// ShouldIgnore checks if a path falls under an ignored directory.
func (c *Config) ShouldIgnore(path string) bool {
	for _, dir := range c.Scan.IgnoreDirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
