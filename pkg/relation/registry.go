package relation

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/SalvaTerol/filament/pkg/store"
)

// Factory builds a relationship bound to owner.
type Factory func(owner *store.Record) Relationship

// Resolver resolves named relations of a record.
type Resolver interface {
	Resolve(owner *store.Record, name string) (Relationship, error)
}

// Registry maps (table, relation name) pairs to factories. It is safe for
// concurrent use; registration usually happens once at startup.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]map[string]Factory{}}
}

// Register adds a factory for table.name. The latest registration wins.
func (r *Registry) Register(table, name string, factory Factory) {
	table = strings.TrimSpace(table)
	name = strings.TrimSpace(name)
	if r == nil || factory == nil || table == "" || name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = map[string]map[string]Factory{}
	}
	if r.entries[table] == nil {
		r.entries[table] = map[string]Factory{}
	}
	r.entries[table][name] = factory
}

// Names returns the relation names registered for table.
func (r *Registry) Names(table string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries[table]))
	for name := range r.entries[table] {
		names = append(names, name)
	}
	return names
}

// Resolve implements Resolver.
func (r *Registry) Resolve(owner *store.Record, name string) (Relationship, error) {
	if owner == nil || owner.Model() == nil {
		return nil, fmt.Errorf("%w: %q has no owner model", ErrUnknownRelation, name)
	}
	table := owner.Model().Table
	r.mu.RLock()
	factory := r.entries[table][strings.TrimSpace(name)]
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, table, name)
	}
	return factory(owner), nil
}

// BelongsToFactory is a registry-ready factory for a to-one relation.
func BelongsToFactory(name string, related *store.Model, foreignKey, ownerKey string) Factory {
	return func(owner *store.Record) Relationship {
		return NewBelongsTo(name, owner, related, foreignKey, ownerKey)
	}
}

// BelongsToManyFactory is a registry-ready factory for a pivot relation.
func BelongsToManyFactory(name string, related *store.Model, pivot, foreignPivotKey, relatedPivotKey, parentKey, relatedKey string) Factory {
	return func(owner *store.Record) Relationship {
		return NewBelongsToMany(name, owner, related, pivot, foreignPivotKey, relatedPivotKey, parentKey, relatedKey)
	}
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
