package config

import (
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/semmodel/model"
)

// Store mode constants
const (
	StoreModeMemory = "memory" // in-process store, single deployment
	StoreModeNATS   = "nats"   // NATS JetStream KV bucket
)

// Config represents the complete engine configuration.
type Config struct {
	Version string        `yaml:"version"`
	Store   StoreConfig   `yaml:"store"`
	NATS    NATSConfig    `yaml:"nats,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Models  []ModelDecl   `yaml:"models"`
}

// StoreConfig selects and parameterizes the triple store backend.
type StoreConfig struct {
	Mode   string `yaml:"mode"`
	Bucket string `yaml:"bucket,omitempty"`
}

// NATSConfig defines NATS connection settings.
type NATSConfig struct {
	URLs          []string      `yaml:"urls,omitempty"`
	MaxReconnects int           `yaml:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `yaml:"reconnect_wait,omitempty"`
	Username      string        `yaml:"username,omitempty"`
	Password      string        `yaml:"password,omitempty"`
	Token         string        `yaml:"token,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// ModelDecl declares one model: its identity, ancestry, the paths of its
// declarative documents and its identifier generation policy.
type ModelDecl struct {
	Name        string   `yaml:"name"`
	Class       string   `yaml:"class"`
	Parents     []string `yaml:"parents,omitempty"`
	Context     string   `yaml:"context"`
	Constraints string   `yaml:"constraints,omitempty"`
	IRITemplate string   `yaml:"iri_template,omitempty"`
	Generation  string   `yaml:"generation,omitempty"`
}

// Validate checks the configuration for structural problems. It reports
// the first problem found.
func (c *Config) Validate() error {
	switch c.Store.Mode {
	case StoreModeMemory:
	case StoreModeNATS:
		if len(c.NATS.URLs) == 0 {
			return stderrors.New("nats store requires nats.urls")
		}
		if c.Store.Bucket == "" {
			return stderrors.New("nats store requires store.bucket")
		}
	case "":
		return stderrors.New("store.mode is required")
	default:
		return fmt.Errorf("unknown store.mode %q", c.Store.Mode)
	}

	if len(c.Models) == 0 {
		return stderrors.New("at least one model is required")
	}
	seen := make(map[string]bool, len(c.Models))
	for i, decl := range c.Models {
		if decl.Name == "" {
			return fmt.Errorf("models[%d]: name is required", i)
		}
		if seen[decl.Name] {
			return fmt.Errorf("models[%d]: duplicate model name %q", i, decl.Name)
		}
		seen[decl.Name] = true
		if decl.Class == "" {
			return fmt.Errorf("model %q: class is required", decl.Name)
		}
		if decl.Context == "" {
			return fmt.Errorf("model %q: context is required", decl.Name)
		}
		switch model.GenerationPolicy(decl.Generation) {
		case "", model.GenerationRandom, model.GenerationCounter:
		default:
			return fmt.Errorf("model %q: unknown generation policy %q", decl.Name, decl.Generation)
		}
	}

	// Parents must be declared in the same configuration.
	for _, decl := range c.Models {
		for _, parent := range decl.Parents {
			if !seen[parent] {
				return fmt.Errorf("model %q: undeclared parent %q", decl.Name, parent)
			}
		}
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port %d out of range", c.Metrics.Port)
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := yaml.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}
	return &clone
}

// GenerationPolicy converts the declaration's generation string.
func (d ModelDecl) GenerationPolicy() model.GenerationPolicy {
	if d.Generation == "" {
		return model.GenerationRandom
	}
	return model.GenerationPolicy(strings.ToLower(d.Generation))
}

// SafeConfig provides thread-safe access to configuration.
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper.
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SafeConfig{
		config: cfg,
	}
}

// Get returns a deep copy of the current configuration.
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically replaces the configuration after validation.
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return stderrors.New("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}
