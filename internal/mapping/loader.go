package mapping

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"orm-mirror/internal/diagnostic"
)

// LoadFile loads and parses a YAML schema file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "read schema file %s", path), diagnostic.ErrConfiguration)
	}

	return Parse(data)
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var f File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parse schema YAML"), diagnostic.ErrConfiguration)
	}

	applyDefaults(&f)

	return &f, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}

	for i := range f.Apps {
		for j := range f.Apps[i].Models {
			m := &f.Apps[i].Models[j]
			if !hasPrimaryKey(m) {
				m.Fields = append([]Field{{Name: "id", Kind: "AutoField", PrimaryKey: true}}, m.Fields...)
			}
		}
	}
}

func hasPrimaryKey(m *Model) bool {
	for _, f := range m.Fields {
		if f.PrimaryKey {
			return true
		}

		if k, ok := parseKind(f.Kind); ok && k.IsAuto() {
			return true
		}
	}

	return false
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// WriteFile writes a File to the given path.
func WriteFile(f *File, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return errors.Wrap(err, "marshal schema")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write schema file %s", path)
	}

	return nil
}
