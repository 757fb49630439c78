package model

import (
	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"

	"orm-mirror/internal/field"
)

// FieldDescription is the printable form of one field.
type FieldDescription struct {
	Name          string `json:"name" yaml:"name"`
	Type          string `json:"type" yaml:"type"`
	Column        string `json:"column,omitempty" yaml:"column,omitempty"`
	Null          bool   `json:"null,omitempty" yaml:"null,omitempty"`
	PK            bool   `json:"pk,omitempty" yaml:"pk,omitempty"`
	Generated     bool   `json:"generated,omitempty" yaml:"generated,omitempty"`
	Index         bool   `json:"index,omitempty" yaml:"index,omitempty"`
	Unique        bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
	Default       any    `json:"default,omitempty" yaml:"default,omitempty"`
	MaxLength     int    `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	MaxDigits     int    `json:"max_digits,omitempty" yaml:"max_digits,omitempty"`
	DecimalPlaces int    `json:"decimal_places,omitempty" yaml:"decimal_places,omitempty"`
	AutoNow       bool   `json:"auto_now,omitempty" yaml:"auto_now,omitempty"`
	AutoNowAdd    bool   `json:"auto_now_add,omitempty" yaml:"auto_now_add,omitempty"`
	Protocol      string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	UnpackIPv4    bool   `json:"unpack_ipv4,omitempty" yaml:"unpack_ipv4,omitempty"`
	AllowUnicode  bool   `json:"allow_unicode,omitempty" yaml:"allow_unicode,omitempty"`
	Validators    int    `json:"validators,omitempty" yaml:"validators,omitempty"`

	Target      string `json:"target,omitempty" yaml:"target,omitempty"`
	RelatedName string `json:"related_name,omitempty" yaml:"related_name,omitempty"`
	OnDelete    string `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`
	Through     string `json:"through,omitempty" yaml:"through,omitempty"`
	ForwardKey  string `json:"forward_key,omitempty" yaml:"forward_key,omitempty"`
	BackwardKey string `json:"backward_key,omitempty" yaml:"backward_key,omitempty"`
}

// Description is the printable form of a model.
type Description struct {
	Name   string             `json:"name" yaml:"name"`
	Meta   Meta               `json:"meta" yaml:"meta"`
	Fields []FieldDescription `json:"fields" yaml:"fields"`
}

// Describe returns the printable form of m.
func (m *Model) Describe() Description {
	d := Description{Name: m.name, Meta: m.Meta()}

	for _, f := range m.fields {
		d.Fields = append(d.Fields, DescribeField(f))
	}

	return d
}

// DescribeField returns the printable form of f.
func DescribeField(f field.Field) FieldDescription {
	o := f.Options()

	fd := FieldDescription{
		Name:          o.Name,
		Type:          f.Type(),
		Column:        o.Column,
		Null:          o.Null,
		PK:            o.PK,
		Generated:     o.Generated,
		Index:         o.Index,
		Unique:        o.Unique,
		MaxLength:     o.MaxLength,
		MaxDigits:     o.MaxDigits,
		DecimalPlaces: o.DecimalPlaces,
		AutoNow:       o.AutoNow,
		AutoNowAdd:    o.AutoNowAdd,
		Protocol:      o.Protocol,
		UnpackIPv4:    o.UnpackIPv4,
		AllowUnicode:  o.AllowUnicode,
		Validators:    len(o.Validators),
	}

	if _, callable := o.Default.(func() any); !callable {
		fd.Default = o.Default
	}

	switch rf := f.(type) {
	case *field.ForeignKey:
		fd.Target = rf.Target()
		fd.RelatedName = rf.RelatedName()
		fd.OnDelete = string(rf.OnDelete())
	case *field.ManyToMany:
		fd.Target = rf.Target()
		fd.RelatedName = rf.RelatedName()
		fd.Through = rf.Through()
		fd.ForwardKey = rf.ForwardKey()
		fd.BackwardKey = rf.BackwardKey()
	}

	return fd
}

// Fingerprint hashes the description of m. Two models with the same
// fields, constraints and metadata have the same fingerprint.
func (m *Model) Fingerprint() uint64 {
	data, err := json.Marshal(m.Describe())
	if err != nil {
		// defaults that cannot be marshalled only lose their contribution
		d := m.Describe()
		for i := range d.Fields {
			d.Fields[i].Default = nil
		}

		data, _ = json.Marshal(d)
	}

	return xxhash.Sum64(data)
}
