package forms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SalvaTerol/filament/pkg/evaluate"
	"github.com/SalvaTerol/filament/pkg/options"
	"github.com/SalvaTerol/filament/pkg/query"
	"github.com/SalvaTerol/filament/pkg/relation"
	"github.com/SalvaTerol/filament/pkg/store"
	"github.com/SalvaTerol/filament/pkg/validation"
)

type keyLister interface {
	RelatedKeys(ctx context.Context, exec store.Executor) ([]string, error)
}

type resultLoader interface {
	Result(ctx context.Context, exec store.Executor) (*store.Record, error)
}

type syncer interface {
	Sync(ctx context.Context, exec store.Executor, keys []any) (relation.SyncResult, error)
}

type associator interface {
	Associate(key any)
	Dissociate()
}

// Relationship binds the select to the named relation of the form record.
// Options, search results, label lookups, hydration, persistence and
// option creation are all derived from it; titleColumn labels the options.
// A multiple select is not dehydrated since its value lives in a pivot. A
// blank single select is not dehydrated either; saving dissociates it.
func (b *SelectBuilder) Relationship(name, titleColumn string, modify QueryModifier) *SelectBuilder {
	b.cfg.relationship = strings.TrimSpace(name)
	b.cfg.relationshipTitle = strings.TrimSpace(titleColumn)
	b.cfg.modifyQuery = modify

	b.cfg.searchResults = evaluate.Computed(relationshipSearchResults, evaluate.ParamComponent, evaluate.ParamSearch)
	b.cfg.options = evaluate.Computed(relationshipOptions, evaluate.ParamComponent)
	b.cfg.optionLabel = evaluate.Computed(relationshipOptionLabel, evaluate.ParamComponent, evaluate.ParamValue)
	b.cfg.optionLabels = evaluate.Computed(relationshipOptionLabels, evaluate.ParamComponent, evaluate.ParamValues)
	b.cfg.createOptionUsing = evaluate.Computed(createRelatedOption, evaluate.ParamComponent, evaluate.ParamData)
	b.cfg.hydrate = hydrateFromRelationship
	b.cfg.save = saveRelationship
	b.cfg.field.dehydrated = evaluate.Computed(func(in evaluate.Inputs) (bool, error) {
		s, err := componentOf(in)
		if err != nil {
			return false, err
		}
		multiple, err := s.IsMultiple(in.Context())
		if err != nil || multiple {
			return false, err
		}
		return !validation.Blank(s.State()), nil
	}, evaluate.ParamComponent)
	return b
}

// HasRelationship reports whether the select is bound to a relation.
func (s *Select) HasRelationship() bool { return s.cfg.relationship != "" }

// GetRelationshipName returns the configured relation name.
func (s *Select) GetRelationshipName() string { return s.cfg.relationship }

// GetRelationshipTitleAttribute returns the column labelling options.
func (s *Select) GetRelationshipTitleAttribute() string { return s.cfg.relationshipTitle }

// GetRelationship resolves the relation from the form record, or from a new
// instance of the form model when there is no record. The result is cached
// until the record changes.
func (s *Select) GetRelationship() (relation.Relationship, error) {
	if !s.HasRelationship() {
		return nil, fmt.Errorf("%w: %s", ErrNoRelationship, s.StatePath())
	}
	if s.form == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnbound, s.StatePath())
	}
	if s.form.relations == nil {
		return nil, fmt.Errorf("forms: select %s: form has no relation resolver", s.StatePath())
	}
	owner := s.form.ModelInstance()
	if owner == nil {
		return nil, fmt.Errorf("forms: select %s: relationship %s needs a record or a model", s.StatePath(), s.cfg.relationship)
	}
	if s.rel != nil && s.relOwner == owner {
		return s.rel, nil
	}
	rel, err := s.form.relations.Resolve(owner, s.cfg.relationship)
	if err != nil {
		return nil, err
	}
	s.rel, s.relOwner = rel, owner
	return rel, nil
}

func (s *Select) relationshipScope(ctx context.Context) (relation.Relationship, store.Executor, error) {
	rel, err := s.GetRelationship()
	if err != nil {
		return nil, nil, err
	}
	if s.form.exec == nil {
		return nil, nil, fmt.Errorf("forms: select %s: form has no executor", s.StatePath())
	}
	return rel, store.Use(ctx, s.form.exec), nil
}

// relationshipQuery builds the related query with the modifier applied.
func (s *Select) relationshipQuery(ctx context.Context, search string) (*query.Builder, error) {
	rel, exec, err := s.relationshipScope(ctx)
	if err != nil {
		return nil, err
	}
	q := relation.Query(exec.Dialect(), rel)
	if s.cfg.modifyQuery == nil {
		return q, nil
	}
	values := map[evaluate.Param]any{
		evaluate.ParamQuery:     q,
		evaluate.ParamSearch:    search,
		evaluate.ParamComponent: s,
		evaluate.ParamState:     s.State(),
	}
	if s.form.record != nil {
		values[evaluate.ParamRecord] = s.form.record
	}
	if modified := s.cfg.modifyQuery(q, evaluate.NewInputs(ctx, values)); modified != nil {
		q = modified
	}
	return q, nil
}

func (s *Select) orderByTitle(q *query.Builder, rel relation.Relationship) {
	if q.HasOrders() || s.cfg.relationshipTitle == "" {
		return
	}
	q.OrderBy(rel.Related().Table+"."+s.cfg.relationshipTitle, "asc")
}

func (s *Select) recordLabel(ctx context.Context, rec *store.Record) (string, error) {
	if s.cfg.optionLabelFromRecord.IsSet() {
		return s.cfg.optionLabelFromRecord.Evaluate(ctx, s.args().With(evaluate.ParamRecord, rec))
	}
	return options.Key(rec.Get(s.cfg.relationshipTitle)), nil
}

func (s *Select) optionsFromRecords(ctx context.Context, rel relation.Relationship, records []*store.Record) (*options.Set, error) {
	set := options.New()
	for _, rec := range records {
		label, err := s.recordLabel(ctx, rec)
		if err != nil {
			return nil, err
		}
		set.Put(rec.Get(rel.KeyName()), label)
	}
	return set, nil
}

func componentOf(in evaluate.Inputs) (*Select, error) {
	s, ok := evaluate.As[*Select](in, evaluate.ParamComponent)
	if !ok || s == nil {
		return nil, errors.New("forms: relationship computation without select component")
	}
	return s, nil
}

func relationshipSearchResults(in evaluate.Inputs) (*options.Set, error) {
	s, err := componentOf(in)
	if err != nil {
		return nil, err
	}
	ctx := in.Context()
	rel, exec, err := s.relationshipScope(ctx)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(in.String(evaluate.ParamSearch))
	q, err := s.relationshipQuery(ctx, search)
	if err != nil {
		return nil, err
	}
	s.orderByTitle(q, rel)
	query.ApplySearchConstraint(q, s.GetSearchColumns(), search)
	if _, ok := q.LimitValue(); !ok {
		limit, err := s.cfg.optionsLimit.Evaluate(ctx, s.args())
		if err != nil {
			return nil, err
		}
		q.Limit(limit)
	}
	records, err := store.Get(ctx, exec, rel.Related(), q)
	if err != nil {
		return nil, err
	}
	s.form.logger.DebugContext(ctx, "select search",
		"path", s.StatePath(), "relationship", rel.Name(), "search", search, "results", len(records))
	return s.optionsFromRecords(ctx, rel, records)
}

func relationshipOptions(in evaluate.Inputs) (*options.Set, error) {
	s, err := componentOf(in)
	if err != nil {
		return nil, err
	}
	ctx := in.Context()
	searchable, err := s.IsSearchable(ctx)
	if err != nil {
		return nil, err
	}
	preload, err := s.IsPreloaded(ctx)
	if err != nil {
		return nil, err
	}
	if searchable && !preload {
		return options.New(), nil
	}
	rel, exec, err := s.relationshipScope(ctx)
	if err != nil {
		return nil, err
	}
	q, err := s.relationshipQuery(ctx, "")
	if err != nil {
		return nil, err
	}
	s.orderByTitle(q, rel)
	records, err := store.Get(ctx, exec, rel.Related(), q)
	if err != nil {
		return nil, err
	}
	return s.optionsFromRecords(ctx, rel, records)
}

func relationshipOptionLabel(in evaluate.Inputs) (options.Label, error) {
	s, err := componentOf(in)
	if err != nil {
		return options.NoLabel(), err
	}
	value := in.Get(evaluate.ParamValue)
	if validation.Blank(value) {
		return options.NoLabel(), nil
	}
	ctx := in.Context()
	rel, exec, err := s.relationshipScope(ctx)
	if err != nil {
		return options.NoLabel(), err
	}
	table := rel.Related().Table
	q := relation.Query(exec.Dialect(), rel).Where(table+"."+rel.KeyName(), "=", value).Limit(1)
	records, err := store.Get(ctx, exec, rel.Related(), q)
	if err != nil {
		return options.NoLabel(), err
	}
	if len(records) == 0 {
		return options.NoLabel(), nil
	}
	label, err := s.recordLabel(ctx, records[0])
	if err != nil {
		return options.NoLabel(), err
	}
	return options.LabelOf(label), nil
}

func relationshipOptionLabels(in evaluate.Inputs) (*options.Set, error) {
	s, err := componentOf(in)
	if err != nil {
		return nil, err
	}
	values := in.Values(evaluate.ParamValues)
	if len(values) == 0 {
		return options.New(), nil
	}
	ctx := in.Context()
	rel, exec, err := s.relationshipScope(ctx)
	if err != nil {
		return nil, err
	}
	table := rel.Related().Table
	q := relation.Query(exec.Dialect(), rel).WhereIn(table+"."+rel.KeyName(), values)
	records, err := store.Get(ctx, exec, rel.Related(), q)
	if err != nil {
		return nil, err
	}
	return s.optionsFromRecords(ctx, rel, records)
}

func createRelatedOption(in evaluate.Inputs) (any, error) {
	s, err := componentOf(in)
	if err != nil {
		return nil, err
	}
	ctx := in.Context()
	rel, exec, err := s.relationshipScope(ctx)
	if err != nil {
		return nil, err
	}
	return relation.CreateRelated(ctx, exec, rel, in.Map(evaluate.ParamData))
}

// hydrateFromRelationship fills an empty state from the stored relation:
// the related keys as strings for a to-many, the related key for a to-one.
func hydrateFromRelationship(ctx context.Context, s *Select, state any) error {
	if !validation.Blank(state) || s.form == nil || s.form.record == nil {
		return nil
	}
	rel, exec, err := s.relationshipScope(ctx)
	if err != nil {
		return err
	}
	switch r := rel.(type) {
	case keyLister:
		keys, err := r.RelatedKeys(ctx, exec)
		if err != nil {
			return err
		}
		s.SetState(keys)
	case resultLoader:
		related, err := r.Result(ctx, exec)
		if err != nil {
			return err
		}
		if related == nil {
			s.form.logger.DebugContext(ctx, "select hydration found no related record",
				"path", s.StatePath(), "relationship", rel.Name())
			return nil
		}
		s.SetState(related.Get(rel.KeyName()))
	}
	return nil
}

// saveRelationship syncs a to-many or associates a to-one and saves the
// owner.
func saveRelationship(ctx context.Context, s *Select, state any) error {
	rel, exec, err := s.relationshipScope(ctx)
	if err != nil {
		return err
	}
	multiple, err := s.IsMultiple(ctx)
	if err != nil {
		return err
	}
	if multiple {
		r, ok := rel.(syncer)
		if !ok {
			return fmt.Errorf("forms: select %s: relationship %s cannot sync keys", s.StatePath(), rel.Name())
		}
		keys := toSlice(state)
		if keys == nil {
			keys = []any{}
		}
		result, err := r.Sync(ctx, exec, keys)
		if err != nil {
			return err
		}
		s.form.logger.DebugContext(ctx, "select synced relationship",
			"path", s.StatePath(), "relationship", rel.Name(),
			"attached", result.Attached, "detached", result.Detached)
		return nil
	}
	r, ok := rel.(associator)
	if !ok {
		return fmt.Errorf("forms: select %s: relationship %s cannot associate", s.StatePath(), rel.Name())
	}
	if validation.Blank(state) {
		r.Dissociate()
	} else {
		r.Associate(state)
	}
	return store.Save(ctx, exec, rel.Owner())
}

func (s *Select) relationshipRules(ctx context.Context, rules []validation.Rule) ([]validation.Rule, error) {
	multiple, err := s.IsMultiple(ctx)
	if err != nil || multiple {
		return rules, err
	}
	rel, _, err := s.relationshipScope(ctx)
	if err != nil {
		return nil, err
	}
	return append(rules, validation.Exists{
		Exec:   s.form.exec,
		Table:  rel.Related().Table,
		Column: rel.KeyName(),
	}), nil
}
