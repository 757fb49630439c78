package schema

import (
	"strings"

	"orm-mirror/internal/common"
)

type notProvided struct{}

// String implements fmt.Stringer.
func (notProvided) String() string { return "NOT_PROVIDED" }

// NotProvided marks a column that declares no default. It is never a
// value: translation turns it into "no default".
var NotProvided any = notProvided{}

// OnDelete is the referential action of a relation.
type OnDelete string

const (
	Cascade    OnDelete = "CASCADE"
	SetNull    OnDelete = "SET_NULL"
	SetDefault OnDelete = "SET_DEFAULT"
	Protect    OnDelete = "PROTECT"
	Restrict   OnDelete = "RESTRICT"
	DoNothing  OnDelete = "DO_NOTHING"
)

// ParseOnDelete accepts "SET_NULL", "set_null" and "set-null".
func ParseOnDelete(s string) OnDelete {
	return OnDelete(strings.ToUpper(strings.ReplaceAll(s, "-", "_")))
}

// SelfRef is the relation target that points back at the owning model.
const SelfRef = "self"

// Relation describes the target of a relational column.
type Relation struct {
	// To is the target model: "Customer", "store.Customer" or "self".
	// Forward references to models registered later are allowed.
	To string
	// RelatedName is the reverse accessor name on the target.
	RelatedName string
	OnDelete    OnDelete
	// Through names the junction table of a many-to-many relation.
	Through string
	// ThroughFields are the explicit (owner, target) key columns of the junction table.
	ThroughFields [2]string
}

// Column is the descriptor of one source field.
type Column struct {
	Name string
	// DBColumn overrides the storage column name.
	DBColumn   string
	Kind       Kind
	Null       bool
	PrimaryKey bool
	Index      bool
	Unique     bool
	// Default holds the declared default, NotProvided or nil when there is none.
	Default any

	MaxLength     int
	MaxDigits     int
	DecimalPlaces int
	AutoNow       bool
	AutoNowAdd    bool

	// Protocol is "both", "IPv4" or "IPv6" for GenericIPAddress columns.
	Protocol     string
	UnpackIPv4   bool
	AllowUnicode bool

	// Validators are validator specs such as "min_value=1" or "regex=^[a-z]+$".
	Validators []string

	// Encoder and Decoder name custom JSON codecs.
	Encoder string
	Decoder string

	Relation *Relation
}

// HasDefault reports whether the column declares a default value.
func (c *Column) HasDefault() bool {
	return c.Default != nil && c.Default != NotProvided
}

// Attname is the storage column: DBColumn if set, otherwise the field
// name with an "_id" suffix for foreign keys and one-to-one relations.
func (c *Column) Attname() string {
	if c.DBColumn != "" {
		return c.DBColumn
	}

	if c.Kind == KindForeignKey || c.Kind == KindOneToOne {
		return c.Name + "_id"
	}

	return c.Name
}

// Meta is the table metadata of a model.
type Meta struct {
	Table    string
	Schema   string // tablespace
	Abstract bool
	Ordering []string
}

// Model is one source model.
type Model struct {
	App     string
	Name    string
	Meta    Meta
	Columns []Column
}

// Ref returns "app.Name".
func (m *Model) Ref() string {
	if m.App == "" {
		return m.Name
	}

	return m.App + "." + m.Name
}

// TableName returns Meta.Table, or "<app>_<name lower>" when unset.
func (m *Model) TableName() string {
	if m.Meta.Table != "" {
		return m.Meta.Table
	}

	if m.App == "" {
		return strings.ToLower(m.Name)
	}

	return m.App + "_" + strings.ToLower(m.Name)
}

// Column returns the column named name.
func (m *Model) Column(name string) (*Column, bool) {
	for i := range m.Columns {
		if m.Columns[i].Name == name {
			return &m.Columns[i], true
		}
	}

	return nil, false
}

// PrimaryKey returns the primary key column, if any.
func (m *Model) PrimaryKey() (*Column, bool) {
	for i := range m.Columns {
		if m.Columns[i].PrimaryKey || m.Columns[i].Kind.IsAuto() {
			return &m.Columns[i], true
		}
	}

	return nil, false
}

// App is a named group of models.
type App struct {
	Label  string
	Models []*Model
}

// Registry holds all source models grouped by app, in registration order.
type Registry struct {
	apps  []*App
	index map[string]*App
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]*App)}
}

// Register adds models to app, creating the app on first use. The app
// label of each model is set to app.
func (r *Registry) Register(app string, models ...*Model) {
	if r.index == nil {
		r.index = make(map[string]*App)
	}

	a, ok := r.index[app]
	if !ok {
		a = &App{Label: app}
		r.index[app] = a
		r.apps = append(r.apps, a)
	}

	for _, m := range models {
		m.App = app
		a.Models = append(a.Models, m)
	}
}

// Apps returns the registered apps in registration order.
func (r *Registry) Apps() []*App {
	return r.apps
}

// Models returns every model, app by app.
func (r *Registry) Models() []*Model {
	var out []*Model
	for _, a := range r.apps {
		out = append(out, a.Models...)
	}

	return out
}

// Lookup finds a model by "app.Name" or by bare name. A bare name matches
// the first model with that name in registration order.
func (r *Registry) Lookup(ref string) (*Model, bool) {
	app, name := common.SplitRef(ref)

	for _, a := range r.apps {
		if app != "" && a.Label != app {
			continue
		}

		for _, m := range a.Models {
			if m.Name == name {
				return m, true
			}
		}
	}

	return nil, false
}
