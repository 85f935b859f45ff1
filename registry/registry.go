// CLAUDE:SUMMARY Loads the named-target YAML configuration and resolves requested target keys in configured order.
// Package registry loads the benchmark target configuration. A target is a
// named HTTP endpoint under test; the registry is pure configuration with
// no behaviour beyond name resolution.
package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Target is one configured HTTP endpoint.
type Target struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

type targetSpec struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
}

// Config is the loaded target registry. Targets keep their file order.
type Config struct {
	targets map[string]Target
	order   []string
}

// LoadFile reads a YAML configuration file of the form:
//
//	targets:
//	  pyxis:
//	    name: Pyxis staging
//	    url: https://pyxis.example.com
//
// A missing or malformed file, or a missing targets map, is a fatal
// condition for the caller: the harness cannot run without targets.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration bytes. Exposed for tests.
func Parse(data []byte) (*Config, error) {
	var doc struct {
		Targets yaml.Node `yaml:"targets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("registry: parse config: %w", err)
	}
	if doc.Targets.Kind == 0 {
		return nil, fmt.Errorf("registry: config has no targets map")
	}
	if doc.Targets.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("registry: targets must be a map of key to target")
	}

	cfg := &Config{targets: make(map[string]Target)}

	// yaml mapping nodes alternate key, value in Content.
	for i := 0; i+1 < len(doc.Targets.Content); i += 2 {
		key := doc.Targets.Content[i].Value

		var spec targetSpec
		if err := doc.Targets.Content[i+1].Decode(&spec); err != nil {
			return nil, fmt.Errorf("registry: target %q: %w", key, err)
		}
		if spec.URL == "" {
			return nil, fmt.Errorf("registry: target %q has no url", key)
		}
		if spec.Name == "" {
			spec.Name = key
		}

		cfg.targets[key] = Target{
			Key:         key,
			Name:        spec.Name,
			URL:         spec.URL,
			Description: spec.Description,
		}
		cfg.order = append(cfg.order, key)
	}

	if len(cfg.order) == 0 {
		return nil, fmt.Errorf("registry: config has no targets")
	}
	return cfg, nil
}

// All returns every configured target in file order.
func (c *Config) All() []Target {
	out := make([]Target, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.targets[key])
	}
	return out
}

// Resolve maps requested names to targets, preserving request order. An
// empty request resolves all configured targets in file order. Unknown
// names yield one error each and are skipped; the caller decides whether
// to proceed with the remainder.
func (c *Config) Resolve(names []string) ([]Target, []error) {
	if len(names) == 0 {
		return c.All(), nil
	}

	var (
		out  []Target
		errs []error
	)
	for _, name := range names {
		t, ok := c.targets[name]
		if !ok {
			errs = append(errs, fmt.Errorf("registry: unknown target %q", name))
			continue
		}
		out = append(out, t)
	}
	return out, errs
}
