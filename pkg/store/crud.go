package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SalvaTerol/filament/pkg/query"
)

// Query starts a builder over m in exec's dialect.
func Query(exec Executor, m *Model) *query.Builder {
	return query.New(exec.Dialect(), m.Table)
}

// Find loads the record of m with the given key.
func Find(ctx context.Context, exec Executor, m *Model, key any) (*Record, error) {
	exec = Use(ctx, exec)
	records, err := Get(ctx, exec, m, Query(exec, m).Where(m.QualifiedKeyName(), "=", key).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRows
	}
	return records[0], nil
}

// Get runs q and hydrates every row as a record of m.
func Get(ctx context.Context, exec Executor, m *Model, q *query.Builder) ([]*Record, error) {
	rows, err := Select(ctx, exec, q)
	if err != nil {
		return nil, err
	}
	records := make([]*Record, len(rows))
	for i, row := range rows {
		records[i] = m.Hydrate(row)
	}
	return records, nil
}

// Select runs q and returns each row as a column map.
func Select(ctx context.Context, exec Executor, q *query.Builder) ([]map[string]any, error) {
	stmt, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := Use(ctx, exec).Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query %s: %w", q.Table(), err)
	}
	defer rows.Close()
	return ScanMaps(rows)
}

// Pluck runs q and returns the values of column from every row.
func Pluck(ctx context.Context, exec Executor, q *query.Builder, column string) ([]any, error) {
	rows, err := Select(ctx, exec, q)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		v, ok := row[column]
		if !ok {
			return nil, fmt.Errorf("store: column %q not in result", column)
		}
		out = append(out, v)
	}
	return out, nil
}

// ScanMaps drains rows into column maps. Byte slices become strings and
// 16-byte arrays become UUID strings.
func ScanMaps(rows Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("store: columns: %w", err)
	}
	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = normalize(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: rows: %w", err)
	}
	return out, nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case [16]byte:
		return uuid.UUID(t).String()
	}
	return v
}

// Insert creates a record of m with attrs.
func Insert(ctx context.Context, exec Executor, m *Model, attrs map[string]any) (*Record, error) {
	rec := m.New(nil).Fill(attrs)
	if err := Save(ctx, exec, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Save inserts a new record or updates the dirty attributes of an existing
// one. Auto keys are read back through RETURNING.
func Save(ctx context.Context, exec Executor, rec *Record) error {
	if rec == nil || rec.model == nil {
		return errors.New("store: save of record without model")
	}
	exec = Use(ctx, exec)
	if rec.exists {
		return update(ctx, exec, rec)
	}
	return insert(ctx, exec, rec)
}

func insert(ctx context.Context, exec Executor, rec *Record) error {
	m := rec.model
	if rec.Key() == nil {
		if key := m.newKey(); key != nil {
			rec.Set(m.KeyName(), key)
		}
	}
	attrs := rec.Attributes()
	if v, ok := attrs[m.KeyName()]; ok && v == nil {
		delete(attrs, m.KeyName())
	}
	values := query.AssignmentsFromMap(attrs)

	returning := ""
	if rec.Key() == nil && m.KeyType == KeyAuto {
		if !exec.Dialect().SupportsReturning() {
			return fmt.Errorf("store: insert into %s: %s cannot return generated keys", m.Table, exec.Dialect())
		}
		returning = m.KeyName()
	}
	stmt, args, err := query.Insert(exec.Dialect(), m.Table, values, returning)
	if err != nil {
		return err
	}
	if returning == "" {
		if _, err := exec.Exec(ctx, stmt, args...); err != nil {
			return fmt.Errorf("store: insert into %s: %w", m.Table, err)
		}
		rec.markClean()
		return nil
	}
	var key any
	if err := exec.QueryRow(ctx, stmt, args...).Scan(&key); err != nil {
		return fmt.Errorf("store: insert into %s: %w", m.Table, err)
	}
	rec.attrs[m.KeyName()] = normalize(key)
	rec.markClean()
	return nil
}

func update(ctx context.Context, exec Executor, rec *Record) error {
	if !rec.IsDirty() {
		return nil
	}
	m := rec.model
	columns := rec.dirtyColumns()
	values := make([]query.Assignment, 0, len(columns))
	for _, column := range columns {
		if column == m.KeyName() {
			continue
		}
		values = append(values, query.Assignment{Column: column, Value: rec.attrs[column]})
	}
	if len(values) == 0 {
		rec.markClean()
		return nil
	}
	stmt, args, err := query.Update(Query(exec, m).Where(m.KeyName(), "=", rec.Key()), values)
	if err != nil {
		return err
	}
	affected, err := exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("store: update %s: %w", m.Table, err)
	}
	if affected == 0 {
		return fmt.Errorf("store: update %s %v: %w", m.Table, rec.Key(), ErrNoRows)
	}
	rec.markClean()
	return nil
}

// Delete removes the record's row.
func Delete(ctx context.Context, exec Executor, rec *Record) error {
	if !rec.Exists() {
		return nil
	}
	exec = Use(ctx, exec)
	stmt, args, err := Query(exec, rec.model).Where(rec.model.KeyName(), "=", rec.Key()).ToDeleteSQL()
	if err != nil {
		return err
	}
	if _, err := exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("store: delete from %s: %w", rec.model.Table, err)
	}
	rec.exists = false
	return nil
}
