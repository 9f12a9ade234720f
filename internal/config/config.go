package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"reviewgate/internal/lang"
)

// ManifestCandidates are probed in order under the project root; the first
// existing file wins.
var ManifestCandidates = []string{
	filepath.Join("saascode-kit", "manifest.yaml"),
	filepath.Join(".saascode", "manifest.yaml"),
	"manifest.yaml",
	"saascode-kit.yaml",
	filepath.Join(".reviewgate", "config.yaml"),
}

var tenantKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config is the project manifest. Zero values mean "not set" and disable any
// rule group that depends on them.
type Config struct {
	Project ProjectConfig `yaml:"project,omitempty"`
	Stack   StackConfig   `yaml:"stack,omitempty"`
	Tenancy TenancyConfig `yaml:"tenancy,omitempty"`
	AI      AIConfig      `yaml:"ai,omitempty"`
	Paths   PathsConfig   `yaml:"paths,omitempty"`
	Scan    ScanConfig    `yaml:"scan,omitempty"`

	// Source is the manifest file the project layer came from.
	Source string `yaml:"-"`
}

type ProjectConfig struct {
	Name string `yaml:"name,omitempty"`
}

type StackConfig struct {
	Language string          `yaml:"language,omitempty"`
	Backend  FrameworkConfig `yaml:"backend,omitempty"`
	Frontend FrameworkConfig `yaml:"frontend,omitempty"`
}

type FrameworkConfig struct {
	Framework string `yaml:"framework,omitempty"`
	ORM       string `yaml:"orm,omitempty"`
}

type TenancyConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Key     string `yaml:"key,omitempty"`
}

type AIConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

type PathsConfig struct {
	Backend  string `yaml:"backend,omitempty"`
	Frontend string `yaml:"frontend,omitempty"`
}

type ScanConfig struct {
	Exclude []string `yaml:"exclude,omitempty"`
	Workers *int     `yaml:"workers,omitempty"`
}

// Error is a configuration problem found before any scanning starts.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return "config: " + e.Err.Error()
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// TenancyEnabled is true only when tenancy is switched on and a usable key is
// present.
func (c Config) TenancyEnabled() bool {
	return c.Tenancy.Enabled != nil && *c.Tenancy.Enabled && strings.TrimSpace(c.Tenancy.Key) != ""
}

func (c Config) TenantKey() string {
	return strings.TrimSpace(c.Tenancy.Key)
}

func (c Config) AIAssisted() bool {
	return c.AI.Enabled != nil && *c.AI.Enabled
}

func (c Config) ORM() string {
	return strings.ToLower(strings.TrimSpace(c.Stack.Backend.ORM))
}

func (c Config) BackendFramework() string {
	return strings.ToLower(strings.TrimSpace(c.Stack.Backend.Framework))
}

func (c Config) FrontendFramework() string {
	return strings.ToLower(strings.TrimSpace(c.Stack.Frontend.Framework))
}

func (c Config) Workers() int {
	if c.Scan.Workers == nil {
		return 0
	}
	return *c.Scan.Workers
}

// Roots returns the configured source sub-directories, if any.
func (c Config) Roots() []string {
	var roots []string
	for _, p := range []string{c.Paths.Backend, c.Paths.Frontend} {
		p = strings.TrimSpace(p)
		if p != "" && p != "." {
			roots = append(roots, filepath.Clean(p))
		}
	}
	return roots
}

func (c Config) Validate() error {
	var errs []string
	if raw := strings.TrimSpace(c.Stack.Language); raw != "" {
		if _, err := lang.Parse(raw); err != nil {
			errs = append(errs, "stack.language: "+err.Error())
		}
	}
	if key := c.TenantKey(); key != "" && !tenantKeyPattern.MatchString(key) {
		errs = append(errs, "tenancy.key must be an identifier")
	}
	if c.Scan.Workers != nil && *c.Scan.Workers < 1 {
		errs = append(errs, "scan.workers must be >= 1")
	}
	for _, glob := range c.Scan.Exclude {
		if !doublestar.ValidatePattern(glob) {
			errs = append(errs, fmt.Sprintf("scan.exclude: invalid glob %q", glob))
		}
	}
	if len(errs) > 0 {
		return &Error{Path: c.Source, Err: errors.New(strings.Join(errs, "; "))}
	}
	return nil
}

// Load resolves configuration for a project root from layered sources:
//  1. ~/.reviewgate/config.yaml (user defaults)
//  2. the first existing manifest candidate under root (takes precedence)
//
// Missing files are silently ignored. Returns zero Config if neither exists.
func Load(root string) (Config, error) {
	var merged Config
	if home, _ := os.UserHomeDir(); home != "" {
		global, err := LoadFile(filepath.Join(home, ".reviewgate", "config.yaml"))
		if err != nil {
			return Config{}, err
		}
		merged = merge(merged, global)
	}

	for _, candidate := range ManifestCandidates {
		path := filepath.Join(root, candidate)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		project, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		merged = merge(merged, project)
		break
	}

	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}

// LoadFile reads one manifest. A missing file yields a zero Config.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, &Error{Path: path, Err: err}
	}
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return Config{Source: path}, nil
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &Error{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}
	cfg.Source = path
	return cfg, nil
}

// merge applies overrides from b onto a. Non-zero fields in b win.
func merge(a, b Config) Config {
	if b.Project.Name != "" {
		a.Project.Name = b.Project.Name
	}
	if b.Stack.Language != "" {
		a.Stack.Language = b.Stack.Language
	}
	a.Stack.Backend = mergeFramework(a.Stack.Backend, b.Stack.Backend)
	a.Stack.Frontend = mergeFramework(a.Stack.Frontend, b.Stack.Frontend)
	if b.Tenancy.Enabled != nil {
		a.Tenancy.Enabled = b.Tenancy.Enabled
	}
	if b.Tenancy.Key != "" {
		a.Tenancy.Key = b.Tenancy.Key
	}
	if b.AI.Enabled != nil {
		a.AI.Enabled = b.AI.Enabled
	}
	if b.Paths.Backend != "" {
		a.Paths.Backend = b.Paths.Backend
	}
	if b.Paths.Frontend != "" {
		a.Paths.Frontend = b.Paths.Frontend
	}
	if len(b.Scan.Exclude) > 0 {
		a.Scan.Exclude = append(append([]string(nil), a.Scan.Exclude...), b.Scan.Exclude...)
	}
	if b.Scan.Workers != nil {
		a.Scan.Workers = b.Scan.Workers
	}
	if b.Source != "" {
		a.Source = b.Source
	}
	return a
}

func mergeFramework(a, b FrameworkConfig) FrameworkConfig {
	if b.Framework != "" {
		a.Framework = b.Framework
	}
	if b.ORM != "" {
		a.ORM = b.ORM
	}
	return a
}
