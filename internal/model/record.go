package model

import (
	"maps"
	"sync"

	"orm-mirror/internal/field"
)

// Record is one instance of a synthesized model.
type Record struct {
	model *Model

	mu     sync.RWMutex
	values map[string]any
	isNew  bool
}

// NewRecord creates an unsaved record. Fields missing from values get
// their default, or nil when they declare none.
func (m *Model) NewRecord(values map[string]any) *Record {
	r := &Record{model: m, values: make(map[string]any, len(m.fields)), isNew: true}

	for _, f := range m.fields {
		opts := f.Options()
		if v, ok := values[opts.Name]; ok {
			r.values[opts.Name] = v
			continue
		}

		if _, m2m := f.(*field.ManyToMany); m2m {
			continue
		}

		r.values[opts.Name] = opts.DefaultValue()
	}

	return r
}

// Load wraps values read from storage in a saved record.
func (m *Model) Load(values map[string]any) *Record {
	return &Record{model: m, values: values}
}

// Model returns the model the record belongs to.
func (r *Record) Model() *Model { return r.model }

// Get returns the value of field name.
func (r *Record) Get(name string) any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.values[name]
}

// Set assigns the value of field name.
func (r *Record) Set(name string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[name] = v
}

// IsNew reports whether the record has not been saved yet.
func (r *Record) IsNew() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.isNew
}

// MarkSaved flags the record as stored.
func (r *Record) MarkSaved() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.isNew = false
}

// PK returns the primary key value.
func (r *Record) PK() any {
	if r.model.pk == nil {
		return nil
	}

	return r.Get(r.model.pk.Options().Name)
}

// Values returns a copy of all field values.
func (r *Record) Values() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Clone(r.values)
}
