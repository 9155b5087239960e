// Package config loads the investigation configuration: where the run
// logs and thread dump live, and the category table the experiment
// matrix is generated from.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"flakelens/internal/matrix"
)

// Config is the YAML investigation file.
type Config struct {
	// Investigation names the session; reports and store rows key on it.
	Investigation string `yaml:"investigation"`

	// RunsDir holds one run log per file. Required for flakiness analysis.
	RunsDir string `yaml:"runs_dir"`

	// ThreadDump is the optional JSON snapshot path.
	ThreadDump string `yaml:"thread_dump"`

	// Categories declares the experiment factors. The baseline level is
	// implicit and must not be listed.
	Categories []CategoryConfig `yaml:"categories"`

	// Triples optionally overrides the built-in interaction rows.
	Triples []TripleConfig `yaml:"triples"`
}

// CategoryConfig is one factor declaration.
type CategoryConfig struct {
	Name   string   `yaml:"name"`
	Levels []string `yaml:"levels"`
}

// TripleConfig is one hand-picked multi-factor row.
type TripleConfig struct {
	Name   string            `yaml:"name"`
	Levels map[string]string `yaml:"levels"`
}

// Load reads and validates a config file. A missing file is reported
// with its exact path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the category table and triples; every error names the
// offending entry.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category with empty name")
		}
		if seen[cat.Name] {
			return fmt.Errorf("duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true
		if len(cat.Levels) == 0 {
			return fmt.Errorf("category %q declares no levels", cat.Name)
		}
		for _, l := range cat.Levels {
			if l == matrix.BaselineName {
				return fmt.Errorf("category %q lists the implicit baseline level %q", cat.Name, matrix.BaselineName)
			}
		}
	}
	table := c.Table()
	for _, t := range c.Triples {
		for cat, level := range t.Levels {
			found := false
			for _, tc := range table {
				if tc.Name == cat {
					found = true
					if !tc.HasLevel(level) {
						return fmt.Errorf("triple %q references unknown level %q of category %q", t.Name, level, cat)
					}
				}
			}
			if !found {
				return fmt.Errorf("triple %q references unknown category %q", t.Name, cat)
			}
		}
	}
	return nil
}

// Table converts the declared categories into the matrix form.
func (c *Config) Table() []matrix.Category {
	var table []matrix.Category
	for _, cat := range c.Categories {
		mc := matrix.Category{Name: cat.Name}
		for _, l := range cat.Levels {
			mc.Levels = append(mc.Levels, matrix.NewLevel(l))
		}
		table = append(table, mc)
	}
	return table
}

// MatrixTriples returns the configured triples, or the applicable
// built-in defaults when none are configured.
func (c *Config) MatrixTriples() []matrix.Triple {
	if len(c.Triples) == 0 {
		return matrix.FilterApplicable(c.Table(), matrix.DefaultTriples)
	}
	var out []matrix.Triple
	for _, t := range c.Triples {
		mt := matrix.Triple{Name: t.Name}
		// Sorted for a stable assignment order.
		for _, cat := range sortedKeys(t.Levels) {
			mt.Assignments = append(mt.Assignments, matrix.Assignment{
				Category: cat,
				Level:    t.Levels[cat],
			})
		}
		out = append(out, mt)
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
