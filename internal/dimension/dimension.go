// Package dimension holds the canonical list of scoring dimensions and the
// order in which they are shown.
package dimension

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed dimensions.yaml
var catalogYAML []byte

// Dimension describes one scoring criterion.
type Dimension struct {
	Name          string `yaml:"name"`
	Abbreviation  string `yaml:"abbreviation"`
	DisplayName   string `yaml:"display_name"`
	Description   string `yaml:"description"`
	JudgeQuestion string `yaml:"judge_question"`
}

type catalogFile struct {
	Dimensions []Dimension `yaml:"dimensions"`
}

var (
	loadOnce sync.Once
	loadErr  error
	ordered  []Dimension
	byName   map[string]Dimension
	byAbbrev map[string]Dimension
)

func load() error {
	loadOnce.Do(func() {
		var f catalogFile
		if err := yaml.Unmarshal(catalogYAML, &f); err != nil {
			loadErr = fmt.Errorf("parse dimensions.yaml: %w", err)
			return
		}
		ordered = f.Dimensions
		byName = make(map[string]Dimension, len(ordered))
		byAbbrev = make(map[string]Dimension, len(ordered))
		for _, d := range ordered {
			byName[d.Name] = d
			byAbbrev[d.Abbreviation] = d
		}
	})
	return loadErr
}

// mustLoad panics if the embedded catalog is broken, which is a build defect.
func mustLoad() {
	if err := load(); err != nil {
		panic(err)
	}
}

// All returns the canonical dimensions in display order.
func All() []Dimension {
	mustLoad()
	out := make([]Dimension, len(ordered))
	copy(out, ordered)
	return out
}

// Names returns the canonical dimension names in display order.
func Names() []string {
	mustLoad()
	names := make([]string, len(ordered))
	for i, d := range ordered {
		names[i] = d.Name
	}
	return names
}

// Lookup finds a dimension by name or abbreviation.
func Lookup(nameOrAbbrev string) (Dimension, bool) {
	mustLoad()
	if d, ok := byName[nameOrAbbrev]; ok {
		return d, true
	}
	d, ok := byAbbrev[nameOrAbbrev]
	return d, ok
}

// Filter keeps only canonical dimensions present in names, in canonical order.
// Unknown names are dropped.
func Filter(names []string) []string {
	mustLoad()
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	var out []string
	for _, d := range ordered {
		if present[d.Name] {
			out = append(out, d.Name)
		}
	}
	return out
}

// Order sorts names into canonical order and appends names outside the
// catalog in their first-seen order.
func Order(names []string) []string {
	out := Filter(names)
	seen := make(map[string]bool, len(names))
	for _, n := range out {
		seen[n] = true
	}
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Abbrev returns the short label used on radar axes.
func Abbrev(name string) string {
	if d, ok := Lookup(name); ok {
		return d.Abbreviation
	}
	return name
}

// DisplayName returns the human-readable name.
func DisplayName(name string) string {
	if d, ok := Lookup(name); ok {
		return d.DisplayName
	}
	return name
}

// Description returns the help text, or "" for unknown dimensions.
func Description(name string) string {
	if d, ok := Lookup(name); ok {
		return d.Description
	}
	return ""
}
