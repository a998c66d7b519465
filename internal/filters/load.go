package filters

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/petr-muller/atlassian-search/internal/config"
	"github.com/petr-muller/atlassian-search/internal/querylang"
)

const (
	filtersFileName = "filters.yaml"
)

// ErrUnknownTransform is returned when a configured filter references a transform that does not exist
var ErrUnknownTransform = errors.New("unknown transform")

// Definition is the on-disk form of a filter
type Definition struct {
	ID            string `yaml:"id"`
	Label         string `yaml:"label,omitempty"`
	Icon          string `yaml:"icon,omitempty"`
	Query         string `yaml:"query,omitempty"`
	LogicOperator string `yaml:"logicOperator,omitempty"`
	OrderBy       string `yaml:"orderBy,omitempty"`
	AutoQuery     bool   `yaml:"autoQuery,omitempty"`
	// Transform names one of the registered transforms, e.g. title-only
	Transform string `yaml:"transform,omitempty"`
}

// File holds user-defined filters per dialect
type File struct {
	JQL []Definition `yaml:"jql,omitempty"`
	CQL []Definition `yaml:"cql,omitempty"`
}

// DefaultPath returns the location of the user's filter file
func DefaultPath() string {
	return filepath.Join(config.MustConfigDir(), filtersFileName)
}

// Load returns the builtin filters of the dialect overlaid with the ones defined in the file at
// path. A filter with the id of a builtin replaces it; other filters are appended. A missing file
// yields just the builtin filters.
func Load(path string, dialect querylang.Dialect) (*Set, error) {
	file, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	definitions := file.JQL
	if dialect == querylang.CQL {
		definitions = file.CQL
	}

	merged := Builtin(dialect).List()
	for _, definition := range definitions {
		filter, err := definition.toFilter()
		if err != nil {
			return nil, fmt.Errorf("invalid %s filter %q in %s: %w", dialect, definition.ID, path, err)
		}

		replaced := false
		for i := range merged {
			if merged[i].ID == filter.ID {
				merged[i] = filter
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, filter)
		}
	}

	return NewSet(dialect, merged...)
}

// ReadFile parses a filter file; a missing file is an empty File
func ReadFile(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &File{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read filters file: %w", err)
	}

	var file File
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse filters file: %w", err)
	}

	return &file, nil
}

// WriteFile saves a filter file, creating its directory when needed
func WriteFile(path string, file *File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal filters: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write filters file: %w", err)
	}

	return nil
}

func (d Definition) toFilter() (*querylang.Filter, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("filter has no id")
	}

	operator, err := querylang.ParseLogicOperator(d.LogicOperator)
	if err != nil {
		return nil, err
	}

	filter := &querylang.Filter{
		ID:            d.ID,
		Label:         d.Label,
		Icon:          d.Icon,
		Query:         d.Query,
		LogicOperator: operator,
		OrderBy:       d.OrderBy,
		AutoQuery:     d.AutoQuery,
	}
	if filter.Label == "" {
		filter.Label = d.ID
	}

	if d.Transform != "" {
		transform, ok := Transform(d.Transform)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownTransform, d.Transform)
		}
		filter.Transform = transform
	}

	return filter, nil
}
