// Package registry provides the list of search engines whose metrics are tracked.
package registry

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vshulcz/enginestats/internal/domain"
)

var (
	errEmptyName     = errors.New("engine name is empty")
	errDuplicateName = errors.New("duplicate engine name")
)

// File is the layout of an engines YAML file.
type File struct {
	Engines []domain.Engine `yaml:"engines"`
}

// Static is an immutable, ordered engine list.
type Static struct {
	engines []domain.Engine
}

// New validates engines and keeps the enabled ones in their original order.
func New(engines []domain.Engine) (*Static, error) {
	seen := make(map[string]struct{}, len(engines))
	out := make([]domain.Engine, 0, len(engines))
	for i, e := range engines {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("engine #%d: %w", i, errEmptyName)
		}
		if !domain.ValidEngineName(e.Name) {
			return nil, fmt.Errorf("engine %q: %w", e.Name, domain.ErrInvalidKey)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("engine %q: %w", e.Name, errDuplicateName)
		}
		seen[e.Name] = struct{}{}
		if e.Disabled {
			continue
		}
		out = append(out, e)
	}
	return &Static{engines: out}, nil
}

// Load reads an engines file.
func Load(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading engines file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML engine definitions.
func Parse(data []byte) (*Static, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing engines YAML: %w", err)
	}
	return New(f.Engines)
}

// Default returns the built-in engine list used when no file is configured.
func Default() *Static {
	s, _ := New(DefaultEngines())
	return s
}

// DefaultEngines is a small general-purpose set of engines.
func DefaultEngines() []domain.Engine {
	return []domain.Engine{
		{Name: "bing", Shortcut: "bi", Categories: []string{"general"}},
		{Name: "duckduckgo", Shortcut: "ddg", Categories: []string{"general"}},
		{Name: "google", Shortcut: "go", Categories: []string{"general"}},
		{Name: "wikipedia", Shortcut: "wp", Categories: []string{"general"}},
		{Name: "qwant", Shortcut: "qw", Categories: []string{"general", "news"}},
		{Name: "github", Shortcut: "gh", Categories: []string{"it"}},
	}
}

// Engines returns a copy of the enabled engines.
func (s *Static) Engines() []domain.Engine {
	out := make([]domain.Engine, len(s.engines))
	copy(out, s.engines)
	return out
}

// Names returns the enabled engine names in order.
func (s *Static) Names() []string {
	out := make([]string, 0, len(s.engines))
	for _, e := range s.engines {
		out = append(out, e.Name)
	}
	return out
}
