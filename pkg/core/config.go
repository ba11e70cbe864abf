package core

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when no path is given
const DefaultConfigFile = "cbridge.yaml"

// Config holds cbridge configuration
type Config struct {
	Library     LibraryConfig     `yaml:"library"`
	Bridge      BridgeConfig      `yaml:"bridge"`
	Outputs     OutputConfig      `yaml:"outputs"`
	OverrideEnv string            `yaml:"override_env"` // env var naming a local distribution root
	CacheDir    string            `yaml:"cache_dir"`    // where packed distributions are unpacked
	TargetOS    string            `yaml:"target_os"`    // empty means auto-detect
	Hints       map[string]string `yaml:"hints"`        // backend -> package name for install hints
	Debug       bool              `yaml:"debug"`

	// Path of the file this config was loaded from, empty for defaults
	Path string `yaml:"-"`
}

// LibraryConfig describes the third-party library
type LibraryConfig struct {
	Name       string `yaml:"name"`
	PkgConfig  string `yaml:"pkgconfig"`
	MinVersion string `yaml:"min_version"`
}

// BridgeConfig describes the bridging translation unit
type BridgeConfig struct {
	Name     string   `yaml:"name"`     // archive name, produces lib<name>.a
	Sources  []string `yaml:"sources"`  // C++ sources to compile
	Headers  []string `yaml:"headers"`  // headers whose change forces a re-run
	Includes []string `yaml:"includes"` // extra include directories
	Flags    []string `yaml:"flags"`    // best-effort compiler flags
	OutDir   string   `yaml:"out_dir"`
	CXX      string   `yaml:"cxx"`
	AR       string   `yaml:"ar"`
}

// OutputConfig controls where build outputs are written
type OutputConfig struct {
	Directives string `yaml:"directives"`  // text directive stream, "-" for stdout
	CgoFile    string `yaml:"cgo_file"`    // generated Go file with #cgo flags
	CgoPackage string `yaml:"cgo_package"` // package clause of the generated file
	Stamp      string `yaml:"stamp"`       // rerun trigger stamp
}

// LibrarySpec builds the immutable library spec from the config
func (c *Config) LibrarySpec() (LibrarySpec, error) {
	return NewLibrarySpec(c.Library.Name, c.Library.PkgConfig, c.Library.MinVersion)
}

// Validate reports configuration that cannot produce a bridge
func (c *Config) Validate() error {
	if _, err := c.LibrarySpec(); err != nil {
		return err
	}
	if c.Bridge.Name == "" {
		return fmt.Errorf("bridge name is required")
	}
	if len(c.Bridge.Sources) == 0 {
		return fmt.Errorf("bridge %s has no sources", c.Bridge.Name)
	}
	if c.Outputs.CgoFile != "" && !token.IsIdentifier(c.Outputs.CgoPackage) {
		return fmt.Errorf("cgo_package %q is not a valid Go package name", c.Outputs.CgoPackage)
	}
	return nil
}

// Override returns the local distribution override, loading .env first.
// An empty result selects the system package strategy.
func (c *Config) Override() string {
	_ = godotenv.Load()
	return os.Getenv(c.OverrideEnv)
}

// DefaultConfig returns the configuration for the aria2 bridge
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			Name:       "aria2",
			PkgConfig:  "libaria2",
			MinVersion: "1.35.0",
		},
		Bridge: BridgeConfig{
			Name:    "aria2_bridge",
			Sources: []string{filepath.Join("src", "aria2_bridge.cpp")},
			Headers: []string{
				filepath.Join("include", "aria2_bridge.hpp"),
				filepath.Join("include", "DownloadHandleWrapper.hpp"),
			},
			Flags:  []string{"-std=c++14", "-O3"},
			OutDir: "build",
		},
		Outputs: OutputConfig{
			Directives: "-",
			CgoFile:    "zz_cbridge_cgo.go",
			CgoPackage: "aria2",
			Stamp:      filepath.Join("build", "cbridge.stamp"),
		},
		OverrideEnv: "LIBARIA2_DIR",
		CacheDir:    getDefaultCacheDir(),
		Hints:       make(map[string]string),
	}
}

// LoadConfig loads configuration from file.
// Missing files yield DefaultConfig; present files are layered on top of it.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Path = path
	if cfg.Hints == nil {
		cfg.Hints = make(map[string]string)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigFile
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() {
	if dir := os.Getenv("CBRIDGE_CACHE_DIR"); dir != "" {
		c.CacheDir = dir
	}
	if target := os.Getenv("CBRIDGE_TARGET_OS"); target != "" {
		c.TargetOS = target
	}
}

func getDefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "cbridge")
	}
	return filepath.Join(os.TempDir(), "cbridge")
}
