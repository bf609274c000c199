package pattern

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvCatalogPath names the environment variable pointing at an external
// pattern catalog file.
const EnvCatalogPath = "VIBEPILOT_PATTERNS"

// filePattern is the YAML schema for one external catalog entry.
type filePattern struct {
	ID       string       `yaml:"id"`
	Regex    string       `yaml:"regex"`
	Trigger  string       `yaml:"trigger"`
	Category string       `yaml:"category"`
	Kind     string       `yaml:"kind"`
	Response responseSpec `yaml:"response"`
	Notify   bool         `yaml:"notify"`
	Once     bool         `yaml:"once"`
}

// responseSpec accepts either a scalar string or a list of strings.
type responseSpec struct {
	parts []string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *responseSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		r.parts = []string{s}
		return nil
	case yaml.SequenceNode:
		return node.Decode(&r.parts)
	default:
		return errors.New("response must be a string or a list of strings")
	}
}

type catalogFile struct {
	Patterns []filePattern `yaml:"patterns"`
}

// LoadFile parses an external YAML pattern catalog. Every entry is
// schema-validated; invalid entries are rejected and their errors returned
// alongside the valid patterns, so a bad entry never silently disappears.
func LoadFile(path string) ([]Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse pattern catalog %s: %w", path, err)
	}

	var (
		patterns []Pattern
		errs     []error
	)
	for i, fp := range file.Patterns {
		p := Pattern{
			ID:       fp.ID,
			Regex:    fp.Regex,
			Trigger:  fp.Trigger,
			Category: Category(fp.Category),
			Kind:     Kind(fp.Kind),
			Notify:   fp.Notify,
			OnceOnly: fp.Once,
		}
		switch len(fp.Response.parts) {
		case 0:
		case 1:
			p.Response = Literal(fp.Response.parts[0])
		default:
			p.Response = Sequence(fp.Response.parts...)
		}
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		patterns = append(patterns, p)
	}
	return patterns, errors.Join(errs...)
}

// Merge adds the given patterns to the registry, collecting per-pattern
// failures (duplicate IDs) instead of aborting. It returns the IDs actually
// added and the joined failures.
func Merge(r *Registry, patterns []Pattern) ([]string, error) {
	var (
		added []string
		errs  []error
	)
	for _, p := range patterns {
		if err := r.Add(p); err != nil {
			errs = append(errs, err)
			continue
		}
		added = append(added, p.ID)
	}
	return added, errors.Join(errs...)
}
