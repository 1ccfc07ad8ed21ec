package screen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// PresetFile is a set of named screens
type PresetFile struct {
	Screens map[string]Preset `yaml:"screens"`
}

// Preset is one saved screen, using the legacy filter keys
type Preset struct {
	Description string             `yaml:"description"`
	Filters     map[string]float64 `yaml:"filters"`
	Sort        *SortState         `yaml:"sort,omitempty"`
}

// LoadPresets reads and validates a preset file
func LoadPresets(path string) (*PresetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	pf, err := ParsePresets(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pf, nil
}

// ParsePresets decodes a preset document. Unknown fields are rejected.
func ParsePresets(data []byte) (*PresetFile, error) {
	var pf PresetFile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}

	if err := pf.Validate(); err != nil {
		return nil, err
	}
	return &pf, nil
}

// Validate checks filter keys, bound ordering and sort settings of every screen
func (pf *PresetFile) Validate() error {
	for _, name := range pf.Names() {
		p := pf.Screens[name]

		for key := range p.Filters {
			if _, _, ok := metricForFilterKey(key); !ok {
				return fmt.Errorf("screen %q: unknown filter %q", name, key)
			}
		}

		fs := p.FilterState()
		for metric, b := range fs {
			if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
				return fmt.Errorf("screen %q: %s min %.4g exceeds max %.4g", name, metric, *b.Min, *b.Max)
			}
		}

		if p.Sort != nil {
			if !Sortable(p.Sort.Key) {
				return fmt.Errorf("screen %q: unknown sort key %q", name, p.Sort.Key)
			}
			if p.Sort.Direction != "" && p.Sort.Direction != Asc && p.Sort.Direction != Desc {
				return fmt.Errorf("screen %q: invalid sort direction %q", name, p.Sort.Direction)
			}
		}
	}
	return nil
}

// Names returns screen names in sorted order
func (pf *PresetFile) Names() []string {
	names := make([]string, 0, len(pf.Screens))
	for name := range pf.Screens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get looks up a screen by name
func (pf *PresetFile) Get(name string) (Preset, error) {
	p, ok := pf.Screens[name]
	if !ok {
		return Preset{}, fmt.Errorf("screen %q not found", name)
	}
	return p, nil
}

// FilterState converts the preset filters, with the same sentinel handling as query input
func (p Preset) FilterState() FilterState {
	values := make(map[string]string, len(p.Filters))
	for k, v := range p.Filters {
		values[k] = fmt.Sprintf("%g", v)
	}
	return ParseFilterState(values)
}

// SortState returns the preset sort, or the default one
func (p Preset) SortState() SortState {
	if p.Sort == nil || p.Sort.Key == "" {
		return DefaultSort()
	}
	s := *p.Sort
	if s.Direction == "" {
		s.Direction = Asc
	}
	return s
}
