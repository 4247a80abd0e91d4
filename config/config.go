// Package config loads query files: named selector sets the CLI runs
// against a document in one pass.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// QueryFile is the top-level structure of a YAML query file.
type QueryFile struct {
	// Document is an optional default document path, overridable on the
	// command line.
	Document string `yaml:"document"`

	// Limit caps the size of any single selection step. Zero means
	// unlimited.
	Limit int `yaml:"limit"`

	// Queries run in file order.
	Queries []Query `yaml:"queries"`
}

// Query is one named selector, with optional follow-up selectors that run
// with the previous result as their search context.
type Query struct {
	Name     string        `yaml:"name"`
	Selector string        `yaml:"selector"`
	Then     StringOrSlice `yaml:"then"`
}

// StringOrSlice supports YAML fields that can be either a string or a slice of strings
type StringOrSlice []string

// UnmarshalYAML implements yaml.Unmarshaler to handle both string and []string
func (s *StringOrSlice) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var slice []string
	if err := unmarshal(&slice); err != nil {
		return err
	}
	*s = slice
	return nil
}

// Load reads and validates a query file.
func Load(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}

	qf := &QueryFile{}
	if err := yaml.Unmarshal(data, qf); err != nil {
		return nil, fmt.Errorf("parsing query file %s: %w", path, err)
	}

	if err := validate(qf); err != nil {
		return nil, err
	}

	return qf, nil
}

// validate collects all problems rather than stopping at the first.
func validate(qf *QueryFile) error {
	var problems []string

	if qf.Limit < 0 {
		problems = append(problems, "limit: must not be negative")
	}
	if len(qf.Queries) == 0 {
		problems = append(problems, "queries: at least one query is required")
	}

	seen := make(map[string]bool)
	for i, q := range qf.Queries {
		where := fmt.Sprintf("queries[%d]", i)
		if q.Name == "" {
			problems = append(problems, where+": name is required")
		} else if seen[q.Name] {
			problems = append(problems, where+": duplicate name '"+q.Name+"'")
		} else {
			seen[q.Name] = true
		}
		if strings.TrimSpace(q.Selector) == "" {
			problems = append(problems, where+": selector is required")
		}
		for j, t := range q.Then {
			if strings.TrimSpace(t) == "" {
				problems = append(problems, fmt.Sprintf("%s.then[%d]: selector is required", where, j))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("query file errors:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
