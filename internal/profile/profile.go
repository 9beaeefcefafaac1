// Package profile loads metric vocabularies used to interpret score vectors.
package profile

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dshills/byteme/internal/score"
	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Profile defines a named metric set and the advice attached to it.
type Profile struct {
	Name          string   `yaml:"name"`
	Version       int      `yaml:"version"`
	Description   string   `yaml:"description"`
	Metrics       []Metric `yaml:"metrics"`
	Ignore        []string `yaml:"ignore"`
	GenericAdvice string   `yaml:"generic_advice"`
}

// Metric is a single scored dimension.
type Metric struct {
	Name   string `yaml:"name"`
	Label  string `yaml:"label"`
	Advice string `yaml:"advice"`
}

// LoadBuiltin loads a built-in profile by name.
func LoadBuiltin(name string) (*Profile, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("profile.LoadBuiltin: unknown profile %q: %w", name, err)
	}
	p, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile.LoadBuiltin: %q: %w", name, err)
	}
	return p, nil
}

// LoadFile loads a profile from a YAML file on disk.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile.LoadFile: %w", err)
	}
	p, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile.LoadFile: %s: %w", path, err)
	}
	return p, nil
}

// Load resolves ref as a built-in name, or as a file path when it ends in
// .yaml or .yml.
func Load(ref string) (*Profile, error) {
	if strings.HasSuffix(ref, ".yaml") || strings.HasSuffix(ref, ".yml") {
		return LoadFile(ref)
	}
	return LoadBuiltin(ref)
}

func parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that the profile declares a usable vocabulary.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(p.Metrics) == 0 {
		return fmt.Errorf("profile %q declares no metrics", p.Name)
	}
	seen := make(map[string]bool, len(p.Metrics))
	for i, m := range p.Metrics {
		if m.Name == "" {
			return fmt.Errorf("metrics[%d].name is required", i)
		}
		if seen[m.Name] {
			return fmt.Errorf("metrics[%d]: duplicate metric %q", i, m.Name)
		}
		if m.Advice == "" {
			return fmt.Errorf("metrics[%d]: metric %q has no advice", i, m.Name)
		}
		seen[m.Name] = true
	}
	for _, name := range p.Ignore {
		if seen[name] {
			return fmt.Errorf("metric %q is both declared and ignored", name)
		}
	}
	return nil
}

// Vocabulary converts the profile into the form the score package consumes.
func (p *Profile) Vocabulary() *score.Vocabulary {
	v := &score.Vocabulary{GenericAdvice: p.GenericAdvice}
	for _, m := range p.Metrics {
		label := m.Label
		if label == "" {
			label = m.Name
		}
		v.Metrics = append(v.Metrics, score.Metric{Name: m.Name, Label: label, Advice: m.Advice})
	}
	return v
}

// Ignored reports whether a metric key is dropped before validation.
func (p *Profile) Ignored(name string) bool {
	for _, n := range p.Ignore {
		if n == name {
			return true
		}
	}
	return false
}

// List returns the names of all available built-in profiles, sorted.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Describe renders a short human-readable summary of the profile.
func Describe(p *Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (v%d)\n", p.Name, p.Version)
	if p.Description != "" {
		fmt.Fprintf(&b, "  %s\n", strings.TrimSpace(strings.ReplaceAll(p.Description, "\n", " ")))
	}
	for _, m := range p.Metrics {
		fmt.Fprintf(&b, "  - %s", m.Name)
		if m.Label != "" && m.Label != m.Name {
			fmt.Fprintf(&b, " (%s)", m.Label)
		}
		b.WriteString("\n")
	}
	if len(p.Ignore) > 0 {
		fmt.Fprintf(&b, "  ignored: %s\n", strings.Join(p.Ignore, ", "))
	}
	return b.String()
}
