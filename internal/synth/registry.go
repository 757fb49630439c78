package synth

import (
	"reflect"

	"orm-mirror/internal/common"
	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/model"
	"orm-mirror/internal/relation"
	"orm-mirror/internal/schema"
)

// Pair associates a source model with its synthesized model.
type Pair struct {
	Source *schema.Model
	Async  *model.Model
}

// Registry maps source model names to their pairs. It is written only by
// the synthesis pass and is read-only once frozen, so reads take no lock.
type Registry struct {
	bySource map[string]*Pair
	byAsync  map[string]*Pair
	order    []*Pair
	frozen   bool
}

func newRegistry() *Registry {
	return &Registry{
		bySource: make(map[string]*Pair),
		byAsync:  make(map[string]*Pair),
	}
}

func (r *Registry) add(p *Pair) error {
	if r.frozen {
		return diagnostic.Configuration("registry is frozen")
	}

	if prev, dup := r.bySource[p.Source.Name]; dup {
		return diagnostic.Configuration("model name %q is used by both %s and %s",
			p.Source.Name, prev.Source.Ref(), p.Source.Ref())
	}

	r.bySource[p.Source.Name] = p
	r.byAsync[p.Async.Name()] = p
	r.order = append(r.order, p)

	return nil
}

// Pair returns the pair of a source model. name may be the bare model
// name, a dotted "app.Name" reference or the synthesized name.
func (r *Registry) Pair(name string) (*Pair, bool) {
	if p, ok := r.byAsync[name]; ok {
		return p, true
	}

	p, ok := r.bySource[common.LastSegment(name)]

	return p, ok
}

// Async returns the synthesized model of the source model name.
func (r *Registry) Async(name string) (*model.Model, bool) {
	p, ok := r.Pair(name)
	if !ok {
		return nil, false
	}

	return p.Async, true
}

// MustAsync is Async for names known to exist; it panics otherwise.
func (r *Registry) MustAsync(name string) *model.Model {
	m, ok := r.Async(name)
	if !ok {
		panic("synth: no synthesized model for " + name)
	}

	return m
}

// AsyncFor returns the synthesized model of the struct type of v, which
// may be a struct value or a pointer to one.
func (r *Registry) AsyncFor(v any) (*model.Model, bool) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return nil, false
	}

	return r.Async(t.Name())
}

// Target returns the synthesized model a relation target name refers to.
func (r *Registry) Target(name string) (*model.Model, bool) {
	p, ok := r.byAsync[name]
	if !ok {
		return nil, false
	}

	return p.Async, true
}

// Pairs returns every pair in synthesis order.
func (r *Registry) Pairs() []*Pair {
	out := make([]*Pair, len(r.order))
	copy(out, r.order)

	return out
}

// Models returns the synthesized models in synthesis order.
func (r *Registry) Models() []*model.Model {
	out := make([]*model.Model, len(r.order))
	for i, p := range r.order {
		out[i] = p.Async
	}

	return out
}

// Names returns the synthesized model names in synthesis order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	for i, p := range r.order {
		out[i] = p.Async.Name()
	}

	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int { return len(r.order) }

// Frozen reports whether the synthesis pass has completed.
func (r *Registry) Frozen() bool { return r.frozen }

// AsyncName returns the synthesized name of a source model name.
func AsyncName(source string) string {
	return common.LastSegment(source) + relation.Suffix
}
