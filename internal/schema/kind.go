package schema

import "orm-mirror/internal/common"

//go:generate go tool stringer -type=Kind -linecomment -output=kind_string.go

// Kind is the semantic type tag of a source column. Its string form is the
// field class name used in schema files and struct tags.
type Kind int

const (
	_ Kind = iota // zero value is an invalid kind

	KindAuto                 // AutoField
	KindBigAuto              // BigAutoField
	KindSmallAuto            // SmallAutoField
	KindBigInteger           // BigIntegerField
	KindBinary               // BinaryField
	KindBoolean              // BooleanField
	KindChar                 // CharField
	KindDate                 // DateField
	KindDateTime             // DateTimeField
	KindDecimal              // DecimalField
	KindDuration             // DurationField
	KindEmail                // EmailField
	KindFile                 // FileField
	KindFilePath             // FilePathField
	KindFloat                // FloatField
	KindGenericIPAddress     // GenericIPAddressField
	KindImage                // ImageField
	KindInteger              // IntegerField
	KindJSON                 // JSONField
	KindPositiveBigInteger   // PositiveBigIntegerField
	KindPositiveInteger      // PositiveIntegerField
	KindPositiveSmallInteger // PositiveSmallIntegerField
	KindSlug                 // SlugField
	KindSmallInteger         // SmallIntegerField
	KindText                 // TextField
	KindTime                 // TimeField
	KindURL                  // URLField
	KindUUID                 // UUIDField
	KindForeignKey           // ForeignKey
	KindOneToOne             // OneToOneField
	KindManyToMany           // ManyToManyField
	KindManyToOneRel         // ManyToOneRel
	KindOneToOneRel          // OneToOneRel
	KindManyToManyRel        // ManyToManyRel
)

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(_Kind_index)-1)
	for k := KindAuto; k <= KindManyToManyRel; k++ {
		m[k.String()] = k
	}

	return m
}()

// ParseKind returns the Kind named s. It accepts the field class name
// ("CharField") or its short lower-case form ("char").
func ParseKind(s string) (Kind, bool) {
	if k, ok := kindByName[s]; ok {
		return k, true
	}

	k, ok := kindByShort[s]

	return k, ok
}

var kindByShort = func() map[string]Kind {
	m := make(map[string]Kind, len(kindByName))
	for name, k := range kindByName {
		m[shortName(name)] = k
	}

	return m
}()

// shortName turns "PositiveSmallIntegerField" into "positive_small_integer"
// and "ForeignKey" into "foreign_key".
func shortName(name string) string {
	if len(name) > len("Field") && name[len(name)-len("Field"):] == "Field" {
		name = name[:len(name)-len("Field")]
	}

	return common.SnakeCase(name)
}

// ShortName returns the lower-case form accepted by ParseKind.
func (k Kind) ShortName() string {
	return shortName(k.String())
}

// IsRelation reports whether the kind has a forward relation to another model.
func (k Kind) IsRelation() bool {
	switch k {
	case KindForeignKey, KindOneToOne, KindManyToMany:
		return true
	default:
		return false
	}
}

// IsReverse reports whether the kind is the reverse side of a relation,
// which has no storage of its own.
func (k Kind) IsReverse() bool {
	switch k {
	case KindManyToOneRel, KindOneToOneRel, KindManyToManyRel:
		return true
	default:
		return false
	}
}

// IsAuto reports whether the kind is an auto-incrementing primary key.
func (k Kind) IsAuto() bool {
	return k == KindAuto || k == KindBigAuto || k == KindSmallAuto
}

// IsPositiveInteger reports whether the kind is one of the bounded positive tiers.
func (k Kind) IsPositiveInteger() bool {
	return k == KindPositiveSmallInteger || k == KindPositiveInteger || k == KindPositiveBigInteger
}
