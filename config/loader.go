package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360/semmodel/errors"
	"github.com/c360/semmodel/model"
)

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// ExpandEnv substitutes ${VAR} and ${VAR:-default} references. An unset
// variable without a default expands to the empty string.
func ExpandEnv(raw string) string {
	return envRefPattern.ReplaceAllStringFunc(raw, func(ref string) string {
		groups := envRefPattern.FindStringSubmatch(ref)
		if value, ok := os.LookupEnv(groups[1]); ok {
			return value
		}
		return groups[3]
	})
}

// Load reads, expands and validates a configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(err, "Config", "Load", "read file")
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Load", "parse yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Load", "validate")
	}
	return &cfg, nil
}

// BuildDefinitions reads every declared model's documents and builds the
// registrable definitions, in declaration order. Document paths resolve
// relative to baseDir, normally the configuration file's directory.
func (c *Config) BuildDefinitions(baseDir string) ([]model.Definition, error) {
	defs := make([]model.Definition, 0, len(c.Models))
	for _, decl := range c.Models {
		contextDoc, err := readDocument(baseDir, decl.Context)
		if err != nil {
			return nil, errors.WrapFatal(err, "Config", "BuildDefinitions",
				fmt.Sprintf("model %q context document", decl.Name))
		}

		// Missing constraint path means no vocabulary restrictions.
		constraintDoc := []byte("{}")
		if decl.Constraints != "" {
			constraintDoc, err = readDocument(baseDir, decl.Constraints)
			if err != nil {
				return nil, errors.WrapFatal(err, "Config", "BuildDefinitions",
					fmt.Sprintf("model %q constraint document", decl.Name))
			}
		}

		def, err := model.DefinitionFromDocuments(decl.Name, decl.Class, decl.Parents,
			contextDoc, constraintDoc, decl.IRITemplate, decl.GenerationPolicy())
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func readDocument(baseDir, path string) ([]byte, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, fmt.Errorf("document %s is empty", path)
	}
	return raw, nil
}
