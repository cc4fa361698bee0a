package relation

import (
	"context"
	"errors"
	"fmt"

	"github.com/SalvaTerol/filament/pkg/options"
	"github.com/SalvaTerol/filament/pkg/query"
	"github.com/SalvaTerol/filament/pkg/store"
)

// SyncResult lists the keys touched by Sync, coerced to strings.
type SyncResult struct {
	Attached []string
	Detached []string
	Kept     []string
}

// Sync makes the pivot rows of the owner match keys exactly: missing keys are
// attached, extra ones detached, the rest kept. Keys compare as strings.
func (r *BelongsToMany) Sync(ctx context.Context, exec store.Executor, keys []any) (SyncResult, error) {
	var result SyncResult
	if !r.owner.Exists() {
		return result, errors.New("relation: sync on unsaved owner")
	}
	exec = store.Use(ctx, exec)

	current, err := r.pivotKeys(ctx, exec)
	if err != nil {
		return result, fmt.Errorf("relation: sync %s: %w", r.name, err)
	}
	wanted := make(map[string]any, len(keys))
	var order []string
	for _, key := range keys {
		k := options.Key(key)
		if k == "" {
			continue
		}
		if _, seen := wanted[k]; !seen {
			order = append(order, k)
		}
		wanted[k] = key
	}

	existing := make(map[string]bool, len(current))
	var detach []any
	for _, key := range current {
		k := options.Key(key)
		existing[k] = true
		if _, keep := wanted[k]; keep {
			result.Kept = append(result.Kept, k)
			continue
		}
		result.Detached = append(result.Detached, k)
		detach = append(detach, key)
	}

	if len(detach) > 0 {
		stmt, args, err := query.New(exec.Dialect(), r.Pivot).
			Where(r.ForeignPivotKey, "=", r.parentValue()).
			WhereIn(r.RelatedPivotKey, detach).
			ToDeleteSQL()
		if err != nil {
			return result, err
		}
		if _, err := exec.Exec(ctx, stmt, args...); err != nil {
			return result, fmt.Errorf("relation: detach %s: %w", r.name, err)
		}
	}

	for _, k := range order {
		if existing[k] {
			continue
		}
		stmt, args, err := query.Insert(exec.Dialect(), r.Pivot, []query.Assignment{
			{Column: r.ForeignPivotKey, Value: r.parentValue()},
			{Column: r.RelatedPivotKey, Value: wanted[k]},
		}, "")
		if err != nil {
			return result, err
		}
		if _, err := exec.Exec(ctx, stmt, args...); err != nil {
			return result, fmt.Errorf("relation: attach %s: %w", r.name, err)
		}
		result.Attached = append(result.Attached, k)
	}
	return result, nil
}

// RelatedKeys returns the related keys of the owner as strings, ordered by
// the related key.
func (r *BelongsToMany) RelatedKeys(ctx context.Context, exec store.Executor) ([]string, error) {
	records, err := r.Results(ctx, exec)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(records))
	for i, rec := range records {
		keys[i] = options.Key(rec.Get(r.RelatedKey))
	}
	return keys, nil
}
