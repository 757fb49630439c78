package mapping

// File is a parsed schema file.
type File struct {
	Version string `yaml:"version"`
	Apps    []App  `yaml:"apps"`
}

// App groups the models of one application.
type App struct {
	Label  string  `yaml:"app"`
	Models []Model `yaml:"models"`
}

// Model is one source model.
type Model struct {
	Name     string        `yaml:"name"`
	Table    string        `yaml:"table,omitempty"`
	Schema   string        `yaml:"schema,omitempty"`
	Abstract bool          `yaml:"abstract,omitempty"`
	Ordering StringOrArray `yaml:"ordering,omitempty"`
	Fields   []Field       `yaml:"fields"`
}

// Field is one source field. Relation keys apply to the relational kinds.
type Field struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Column     string `yaml:"column,omitempty"`
	Null       bool   `yaml:"null,omitempty"`
	PrimaryKey bool   `yaml:"primary_key,omitempty"`
	Index      bool   `yaml:"index,omitempty"`
	Unique     bool   `yaml:"unique,omitempty"`
	// Default is nil when the key is missing or null.
	Default *Value `yaml:"default,omitempty"`

	MaxLength     int  `yaml:"max_length,omitempty"`
	MaxDigits     int  `yaml:"max_digits,omitempty"`
	DecimalPlaces int  `yaml:"decimal_places,omitempty"`
	AutoNow       bool `yaml:"auto_now,omitempty"`
	AutoNowAdd    bool `yaml:"auto_now_add,omitempty"`

	Protocol     string `yaml:"protocol,omitempty"`
	UnpackIPv4   bool   `yaml:"unpack_ipv4,omitempty"`
	AllowUnicode bool   `yaml:"allow_unicode,omitempty"`

	Validators StringOrArray `yaml:"validators,omitempty"`
	Encoder    string        `yaml:"encoder,omitempty"`
	Decoder    string        `yaml:"decoder,omitempty"`

	To            string   `yaml:"to,omitempty"`
	RelatedName   string   `yaml:"related_name,omitempty"`
	OnDelete      string   `yaml:"on_delete,omitempty"`
	Through       string   `yaml:"through,omitempty"`
	ThroughFields []string `yaml:"through_fields,omitempty"`
}
