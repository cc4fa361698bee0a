package store

import (
	"sort"

	"github.com/google/uuid"
)

// KeyType controls how primary keys are produced on insert.
type KeyType int

const (
	// KeyAuto lets the database assign the key and reads it back.
	KeyAuto KeyType = iota
	// KeyUUID generates a random UUID before insert.
	KeyUUID
	// KeyManual expects the caller to set the key.
	KeyManual
)

// Model describes a table.
type Model struct {
	Table      string
	PrimaryKey string
	KeyType    KeyType
}

// NewModel returns a model keyed by "id".
func NewModel(table string) *Model {
	return &Model{Table: table, PrimaryKey: "id"}
}

// KeyName returns the primary key column, defaulting to "id".
func (m *Model) KeyName() string {
	if m == nil || m.PrimaryKey == "" {
		return "id"
	}
	return m.PrimaryKey
}

// QualifiedKeyName returns table.key.
func (m *Model) QualifiedKeyName() string {
	return m.Table + "." + m.KeyName()
}

// New returns an unsaved record of this model.
func (m *Model) New(attrs map[string]any) *Record {
	return &Record{model: m, attrs: copyAttrs(attrs)}
}

// Hydrate wraps attributes loaded from the database.
func (m *Model) Hydrate(attrs map[string]any) *Record {
	return &Record{model: m, attrs: copyAttrs(attrs), exists: true}
}

func (m *Model) newKey() any {
	if m.KeyType == KeyUUID {
		return uuid.NewString()
	}
	return nil
}

// Record is a row of a Model. The zero value and nil are usable as empty
// records.
type Record struct {
	model  *Model
	attrs  map[string]any
	exists bool
	dirty  map[string]struct{}
}

// Model returns the record's model.
func (r *Record) Model() *Model {
	if r == nil {
		return nil
	}
	return r.model
}

// Get returns the attribute value or nil.
func (r *Record) Get(column string) any {
	if r == nil {
		return nil
	}
	return r.attrs[column]
}

// Set assigns an attribute and marks it dirty.
func (r *Record) Set(column string, value any) *Record {
	if r.attrs == nil {
		r.attrs = map[string]any{}
	}
	if r.dirty == nil {
		r.dirty = map[string]struct{}{}
	}
	r.attrs[column] = value
	r.dirty[column] = struct{}{}
	return r
}

// Fill sets every entry of attrs.
func (r *Record) Fill(attrs map[string]any) *Record {
	for column, value := range attrs {
		r.Set(column, value)
	}
	return r
}

// Key returns the primary key value.
func (r *Record) Key() any {
	if r == nil {
		return nil
	}
	return r.attrs[r.model.KeyName()]
}

// Exists reports whether the record was loaded from or saved to the database.
func (r *Record) Exists() bool {
	return r != nil && r.exists
}

// IsDirty reports whether any attribute changed since the last save.
func (r *Record) IsDirty() bool {
	return r != nil && len(r.dirty) > 0
}

// Attributes returns a copy of the attribute map.
func (r *Record) Attributes() map[string]any {
	if r == nil {
		return map[string]any{}
	}
	return copyAttrs(r.attrs)
}

func (r *Record) dirtyColumns() []string {
	columns := make([]string, 0, len(r.dirty))
	for column := range r.dirty {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

// Checkpoint captures the record's attributes and persistence flags.
type Checkpoint struct {
	rec    *Record
	attrs  map[string]any
	dirty  map[string]struct{}
	exists bool
}

// Checkpoint snapshots the record so a rolled back save can be undone.
func (r *Record) Checkpoint() Checkpoint {
	cp := Checkpoint{rec: r, attrs: copyAttrs(r.attrs), exists: r.exists}
	if r.dirty != nil {
		cp.dirty = make(map[string]struct{}, len(r.dirty))
		for k := range r.dirty {
			cp.dirty[k] = struct{}{}
		}
	}
	return cp
}

// Restore puts the record back to the checkpointed state.
func (c Checkpoint) Restore() {
	if c.rec == nil {
		return
	}
	c.rec.attrs = c.attrs
	c.rec.dirty = c.dirty
	c.rec.exists = c.exists
}

func (r *Record) markClean() {
	r.dirty = nil
	r.exists = true
}

func copyAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
