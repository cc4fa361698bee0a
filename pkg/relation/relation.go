package relation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SalvaTerol/filament/pkg/query"
	"github.com/SalvaTerol/filament/pkg/store"
)

// Kind identifies the association shape.
type Kind string

const (
	KindBelongsTo     Kind = "belongsTo"
	KindBelongsToMany Kind = "belongsToMany"
)

// ErrUnknownRelation is returned when a name is not registered for a model.
var ErrUnknownRelation = errors.New("relation: unknown relation")

// NormalizeKind maps user supplied relationship names to a Kind.
func NormalizeKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "belongsto", "belongs_to", "hasone", "has_one":
		return KindBelongsTo, nil
	case "belongstomany", "belongs_to_many", "hasmany", "has_many", "manytomany", "many_to_many":
		return KindBelongsToMany, nil
	}
	return "", fmt.Errorf("relation: unsupported kind %q", raw)
}

// Relationship is an association resolved from an owning record.
type Relationship interface {
	// Name is the relation name as registered.
	Name() string
	Kind() Kind
	// Owner is the record the relation was resolved from.
	Owner() *store.Record
	// Related describes the table on the other side.
	Related() *store.Model
	// KeyName is the related column option keys are read from.
	KeyName() string
	IsMultiple() bool
}

// Query returns an unconstrained builder over the related table.
func Query(d query.Dialect, rel Relationship) *query.Builder {
	return query.New(d, rel.Related().Table)
}

// CreateRelated inserts a related row from data and returns its key.
func CreateRelated(ctx context.Context, exec store.Executor, rel Relationship, data map[string]any) (any, error) {
	rec, err := store.Insert(ctx, exec, rel.Related(), data)
	if err != nil {
		return nil, fmt.Errorf("relation: create %s: %w", rel.Name(), err)
	}
	return rec.Get(rel.KeyName()), nil
}

// BelongsTo is a to-one association stored as a foreign key on the owner.
type BelongsTo struct {
	name    string
	owner   *store.Record
	related *store.Model

	// ForeignKey is the owner column holding the related key.
	ForeignKey string
	// OwnerKey is the related column ForeignKey points at.
	OwnerKey string
}

// NewBelongsTo builds a to-one relation. Empty keys default to
// "<name>_id" and the related primary key.
func NewBelongsTo(name string, owner *store.Record, related *store.Model, foreignKey, ownerKey string) *BelongsTo {
	if foreignKey == "" {
		foreignKey = snake(name) + "_id"
	}
	if ownerKey == "" {
		ownerKey = related.KeyName()
	}
	return &BelongsTo{name: name, owner: owner, related: related, ForeignKey: foreignKey, OwnerKey: ownerKey}
}

func (r *BelongsTo) Name() string          { return r.name }
func (r *BelongsTo) Kind() Kind            { return KindBelongsTo }
func (r *BelongsTo) Owner() *store.Record  { return r.owner }
func (r *BelongsTo) Related() *store.Model { return r.related }
func (r *BelongsTo) KeyName() string       { return r.OwnerKey }
func (r *BelongsTo) IsMultiple() bool      { return false }

// Result loads the related record. It returns nil without error when the
// foreign key is empty or points at a missing row.
func (r *BelongsTo) Result(ctx context.Context, exec store.Executor) (*store.Record, error) {
	fk := r.owner.Get(r.ForeignKey)
	if fk == nil || fk == "" {
		return nil, nil
	}
	exec = store.Use(ctx, exec)
	records, err := store.Get(ctx, exec, r.related, Query(exec.Dialect(), r).Where(r.OwnerKey, "=", fk).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Associate points the owner's foreign key at key. The owner is not saved.
func (r *BelongsTo) Associate(key any) {
	r.owner.Set(r.ForeignKey, key)
}

// Dissociate clears the owner's foreign key.
func (r *BelongsTo) Dissociate() {
	r.owner.Set(r.ForeignKey, nil)
}

// BelongsToMany is a to-many association through a pivot table.
type BelongsToMany struct {
	name    string
	owner   *store.Record
	related *store.Model

	Pivot           string
	ForeignPivotKey string
	RelatedPivotKey string
	ParentKey       string
	RelatedKey      string
}

// NewBelongsToMany builds a pivot relation. Empty parent and related keys
// default to the primary keys of the two models.
func NewBelongsToMany(name string, owner *store.Record, related *store.Model, pivot, foreignPivotKey, relatedPivotKey, parentKey, relatedKey string) *BelongsToMany {
	if parentKey == "" {
		parentKey = owner.Model().KeyName()
	}
	if relatedKey == "" {
		relatedKey = related.KeyName()
	}
	return &BelongsToMany{
		name: name, owner: owner, related: related,
		Pivot: pivot, ForeignPivotKey: foreignPivotKey, RelatedPivotKey: relatedPivotKey,
		ParentKey: parentKey, RelatedKey: relatedKey,
	}
}

func (r *BelongsToMany) Name() string          { return r.name }
func (r *BelongsToMany) Kind() Kind            { return KindBelongsToMany }
func (r *BelongsToMany) Owner() *store.Record  { return r.owner }
func (r *BelongsToMany) Related() *store.Model { return r.related }
func (r *BelongsToMany) KeyName() string       { return r.RelatedKey }
func (r *BelongsToMany) IsMultiple() bool      { return true }

func (r *BelongsToMany) parentValue() any {
	return r.owner.Get(r.ParentKey)
}

// Results loads the related records through the pivot, ordered by the
// related key.
func (r *BelongsToMany) Results(ctx context.Context, exec store.Executor) ([]*store.Record, error) {
	if !r.owner.Exists() {
		return nil, nil
	}
	exec = store.Use(ctx, exec)
	table := r.related.Table
	q := query.New(exec.Dialect(), table).
		Select(table+".*").
		Join(r.Pivot, r.Pivot+"."+r.RelatedPivotKey, "=", table+"."+r.RelatedKey).
		Where(r.Pivot+"."+r.ForeignPivotKey, "=", r.parentValue()).
		OrderBy(table+"."+r.RelatedKey, "asc")
	return store.Get(ctx, exec, r.related, q)
}

func (r *BelongsToMany) pivotKeys(ctx context.Context, exec store.Executor) ([]any, error) {
	q := query.New(exec.Dialect(), r.Pivot).
		Select(r.RelatedPivotKey).
		Where(r.ForeignPivotKey, "=", r.parentValue())
	return store.Pluck(ctx, exec, q, r.RelatedPivotKey)
}
