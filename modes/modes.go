// Package modes holds the registry of task modes a sub-task may be started in.
package modes

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Mode is one agent mode.
type Mode struct {
	Slug        string `yaml:"slug" json:"slug"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// ErrUnknownMode is returned by Lookup for slugs that are not registered.
var ErrUnknownMode = errors.New("unknown mode")

// Registry is a set of modes keyed by slug. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	modes map[string]Mode
}

// NewRegistry returns a registry holding ms. Later duplicates replace earlier ones.
func NewRegistry(ms ...Mode) *Registry {
	r := &Registry{modes: make(map[string]Mode, len(ms))}
	for _, m := range ms {
		r.modes[m.Slug] = m
	}
	return r
}

// Default returns the built-in modes.
func Default() *Registry {
	return NewRegistry(
		Mode{Slug: "code", Name: "Code", Description: "Write, modify and refactor code"},
		Mode{Slug: "architect", Name: "Architect", Description: "Plan and design before implementation"},
		Mode{Slug: "ask", Name: "Ask", Description: "Answer questions without changing files"},
		Mode{Slug: "debug", Name: "Debug", Description: "Diagnose and fix problems"},
		Mode{Slug: "orchestrator", Name: "Orchestrator", Description: "Split work into sub-tasks"},
	)
}

// Register adds or replaces m.
func (r *Registry) Register(m Mode) error {
	if strings.TrimSpace(m.Slug) == "" {
		return errors.New("mode slug must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes[m.Slug] = m
	return nil
}

// Lookup returns the mode for slug.
func (r *Registry) Lookup(slug string) (Mode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modes[slug]
	if !ok {
		return Mode{}, fmt.Errorf("%w: %q", ErrUnknownMode, slug)
	}
	return m, nil
}

// Slugs returns registered slugs, sorted.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.modes))
	for s := range r.modes {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

type file struct {
	Modes []Mode `yaml:"modes"`
}

// Load reads a YAML document with a top-level "modes" list.
func Load(rd io.Reader) (*Registry, error) {
	var f file
	if err := yaml.NewDecoder(rd).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode modes: %w", err)
	}
	r := NewRegistry()
	for i, m := range f.Modes {
		if err := r.Register(m); err != nil {
			return nil, fmt.Errorf("modes[%d]: %w", i, err)
		}
	}
	return r, nil
}

// LoadFile is Load on the file at path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
