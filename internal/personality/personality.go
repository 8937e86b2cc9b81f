// Package personality loads the debater and judge personality registries.
//
// Each personality is a YAML file whose base name is its id. The built-in
// sets are embedded in the binary; a directory on disk can replace either
// set at startup.
package personality

import (
	"embed"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FallbackID is the debater personality used when a requested id is unknown.
const FallbackID = "honest"

//go:embed debaters/*.yaml
var debaterFiles embed.FS

//go:embed judges/*.yaml
var judgeFiles embed.FS

// Personality describes how a debater argues or how a judge evaluates.
type Personality struct {
	ID          string `json:"id" yaml:"-"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Style       string `json:"-" yaml:"style"`
}

// Registry is an immutable set of personalities keyed by id.
// It is safe for concurrent use.
type Registry struct {
	byID map[string]Personality
	ids  []string

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Registry.
type Option func(*Registry)

// WithRand sets the random source used by PickUnused.
func WithRand(rng *rand.Rand) Option {
	return func(r *Registry) {
		r.rng = rng
	}
}

// New builds a registry from an explicit list.
func New(personalities []Personality, opts ...Option) (*Registry, error) {
	r := &Registry{
		byID: make(map[string]Personality, len(personalities)),
		rng:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, p := range personalities {
		if err := validate(p); err != nil {
			return nil, err
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate personality: %s", p.ID)
		}
		r.byID[p.ID] = p
		r.ids = append(r.ids, p.ID)
	}
	if len(r.ids) == 0 {
		return nil, fmt.Errorf("no personalities defined")
	}
	slices.Sort(r.ids)
	return r, nil
}

// Load reads every *.yaml file at the root of fsys into a registry.
func Load(fsys fs.FS, opts ...Option) (*Registry, error) {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to list personalities: %w", err)
	}

	personalities := make([]Personality, 0, len(files))
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read personality %s: %w", name, err)
		}

		var p Personality
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse personality %s: %w", name, err)
		}
		p.ID = strings.TrimSuffix(path.Base(name), ".yaml")
		personalities = append(personalities, p)
	}

	return New(personalities, opts...)
}

// LoadDebaters loads the debater personalities from dir, or the built-in
// set when dir is empty.
func LoadDebaters(dir string, opts ...Option) (*Registry, error) {
	return loadSet(dir, debaterFiles, "debaters", opts...)
}

// LoadJudges loads the judge personalities from dir, or the built-in set
// when dir is empty.
func LoadJudges(dir string, opts ...Option) (*Registry, error) {
	return loadSet(dir, judgeFiles, "judges", opts...)
}

func loadSet(dir string, embedded embed.FS, sub string, opts ...Option) (*Registry, error) {
	if dir != "" {
		r, err := Load(os.DirFS(dir), opts...)
		if err != nil {
			return nil, fmt.Errorf("%s from %s: %w", sub, dir, err)
		}
		return r, nil
	}

	fsys, err := fs.Sub(embedded, sub)
	if err != nil {
		return nil, err
	}
	r, err := Load(fsys, opts...)
	if err != nil {
		return nil, fmt.Errorf("built-in %s: %w", sub, err)
	}
	return r, nil
}

func validate(p Personality) error {
	switch {
	case p.ID == "":
		return fmt.Errorf("personality id cannot be empty")
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("personality %s: name is required", p.ID)
	case strings.TrimSpace(p.Description) == "":
		return fmt.Errorf("personality %s: description is required", p.ID)
	case strings.TrimSpace(p.Style) == "":
		return fmt.Errorf("personality %s: style is required", p.ID)
	}
	return nil
}

// Get returns the personality with the given id.
func (r *Registry) Get(id string) (Personality, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Valid checks if a personality id exists.
func (r *Registry) Valid(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// ResolveStyle returns the style instruction for id. Unknown ids resolve to
// the honest personality, and to "" when that is missing too.
func (r *Registry) ResolveStyle(id string) string {
	if p, ok := r.byID[id]; ok {
		return p.Style
	}
	if p, ok := r.byID[FallbackID]; ok {
		return p.Style
	}
	return ""
}

// PickUnused returns a random id that is not in used. When every id has
// been used it picks from the whole registry.
func (r *Registry) PickUnused(used []string) string {
	pool := make([]string, 0, len(r.ids))
	for _, id := range r.ids {
		if !slices.Contains(used, id) {
			pool = append(pool, id)
		}
	}
	if len(pool) == 0 {
		pool = r.ids
	}

	r.mu.Lock()
	i := r.rng.IntN(len(pool))
	r.mu.Unlock()
	return pool[i]
}

// IDs returns all personality ids in sorted order.
func (r *Registry) IDs() []string {
	return slices.Clone(r.ids)
}

// List returns all personalities sorted by id.
func (r *Registry) List() []Personality {
	out := make([]Personality, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of personalities.
func (r *Registry) Len() int {
	return len(r.ids)
}
