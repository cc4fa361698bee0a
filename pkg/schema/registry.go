package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SalvaTerol/filament/pkg/relation"
	"github.com/SalvaTerol/filament/pkg/store"
)

// Catalog resolves the models and relations of a definition.
type Catalog struct {
	models    map[string]*store.Model
	relations *relation.Registry
}

// Catalog builds the models and registers every relation against its
// owner's table.
func (d Definition) Catalog() (*Catalog, error) {
	c := &Catalog{models: map[string]*store.Model{}, relations: relation.NewRegistry()}
	for name, def := range d.Models {
		m, err := def.model(name)
		if err != nil {
			return nil, err
		}
		c.models[name] = m
	}

	owners := make([]string, 0, len(d.Relations))
	for owner := range d.Relations {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	for _, owner := range owners {
		ownerModel, ok := c.models[owner]
		if !ok {
			return nil, fmt.Errorf("schema: relations declared for unknown model %q", owner)
		}
		for name, def := range d.Relations[owner] {
			related, ok := c.models[def.Related]
			if !ok {
				return nil, fmt.Errorf("schema: relation %s.%s: unknown model %q", owner, name, def.Related)
			}
			factory, err := def.factory(name, related)
			if err != nil {
				return nil, fmt.Errorf("schema: relation %s.%s: %w", owner, name, err)
			}
			c.relations.Register(ownerModel.Table, name, factory)
		}
	}
	return c, nil
}

// Model returns the named model.
func (c *Catalog) Model(name string) (*store.Model, bool) {
	m, ok := c.models[name]
	return m, ok
}

// Relations returns the relation registry forms resolve through.
func (c *Catalog) Relations() *relation.Registry { return c.relations }

func (def ModelDef) model(name string) (*store.Model, error) {
	m := store.NewModel(name)
	if def.Table != "" {
		m.Table = def.Table
	}
	if def.Key != "" {
		m.PrimaryKey = def.Key
	}
	switch strings.ToLower(strings.TrimSpace(def.KeyType)) {
	case "", "auto":
		m.KeyType = store.KeyAuto
	case "uuid":
		m.KeyType = store.KeyUUID
	case "manual":
		m.KeyType = store.KeyManual
	default:
		return nil, fmt.Errorf("schema: model %q: unknown key type %q", name, def.KeyType)
	}
	return m, nil
}

func (def RelationDef) factory(name string, related *store.Model) (relation.Factory, error) {
	kind, err := relation.NormalizeKind(def.Kind)
	if err != nil {
		return nil, err
	}
	if kind == relation.KindBelongsTo {
		return relation.BelongsToFactory(name, related, def.ForeignKey, def.OwnerKey), nil
	}
	if def.Pivot == "" {
		return nil, fmt.Errorf("pivot table required for %s", kind)
	}
	return relation.BelongsToManyFactory(name, related, def.Pivot, def.ForeignPivotKey, def.RelatedPivotKey, def.ParentKey, def.RelatedKey), nil
}
