package registry

import (
	"fmt"
	"strings"
)

// Registry is the process-wide step pattern catalog. It is populated during
// the registration phase and read-only afterwards, so execution workers may
// share one instance without synchronization.
type Registry struct {
	byID       map[string]*Pattern
	categories []string
	byCategory map[string][]*Pattern
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byID:       make(map[string]*Pattern),
		byCategory: make(map[string][]*Pattern),
	}
}

// Register adds a pattern to the catalog. It fails when the id is already
// taken or a template does not compile.
func (r *Registry) Register(p Pattern) error {
	if p.ID == "" {
		return fmt.Errorf("pattern must have an id")
	}
	if _, exists := r.byID[p.ID]; exists {
		return fmt.Errorf("pattern %q already registered", p.ID)
	}
	if err := p.compile(); err != nil {
		return err
	}
	if _, seen := r.byCategory[p.Category]; !seen {
		r.categories = append(r.categories, p.Category)
	}
	stored := &p
	r.byID[p.ID] = stored
	r.byCategory[p.Category] = append(r.byCategory[p.Category], stored)
	return nil
}

// MustRegister registers a pattern and panics on error. Intended for the
// built-in catalog, where a bad template is a programming defect.
func (r *Registry) MustRegister(p Pattern) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Match resolves step text to a pattern. Patterns are tried category by
// category in registration order, and in registration order within a
// category; the first structural match wins. Overlapping patterns are an
// authoring defect, not something the matcher resolves: it never backtracks.
func (r *Registry) Match(text string) (*Match, bool) {
	for _, cat := range r.categories {
		for _, p := range r.byCategory[cat] {
			if m, ok := p.match(text); ok {
				return m, true
			}
		}
	}
	return nil, false
}

// Lookup returns a pattern by id.
func (r *Registry) Lookup(id string) (*Pattern, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Search returns every pattern whose template, aliases or description contain
// the query, case-insensitively, in catalog order.
func (r *Registry) Search(query string) []*Pattern {
	q := strings.ToLower(query)
	var out []*Pattern
	for _, cat := range r.categories {
		for _, p := range r.byCategory[cat] {
			if patternContains(p, q) {
				out = append(out, p)
			}
		}
	}
	return out
}

func patternContains(p *Pattern, q string) bool {
	if strings.Contains(strings.ToLower(p.Template), q) ||
		strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, a := range p.Aliases {
		if strings.Contains(strings.ToLower(a), q) {
			return true
		}
	}
	return false
}

// ByCategory returns the patterns of one category in registration order.
func (r *Registry) ByCategory(name string) []*Pattern {
	return r.byCategory[name]
}

// Categories lists category names in registration order.
func (r *Registry) Categories() []string {
	return append([]string(nil), r.categories...)
}

// All returns every pattern in catalog order.
func (r *Registry) All() []*Pattern {
	var out []*Pattern
	for _, cat := range r.categories {
		out = append(out, r.byCategory[cat]...)
	}
	return out
}

// Len reports the number of registered patterns.
func (r *Registry) Len() int {
	return len(r.byID)
}
