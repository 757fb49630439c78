// Package analyze turns Go structs declared with db struct tags into
// source model descriptors.
//
// Structs are read either from source with golang.org/x/tools/go/packages
// (LoadPackages) or from values at runtime through reflect (Reflect). Both
// produce the same StructInfo, which Build converts into schema models.
//
// Field tags:
//
//	db:"name,opt,key=value,..."
//
// The first element is the field name, defaulting to the snake_case Go
// name; "-" skips the field. Options: pk, null, index, unique, auto_now,
// auto_now_add, unpack_ipv4, allow_unicode, kind=, column=, default=,
// max_length=, max_digits=, decimal_places=, protocol=, validators=a;b,
// fk=, o2o=, m2m=, on_delete=, related_name=, through=, through_fields=a;b,
// encoder=, decoder=.
//
// Model options sit on a blank field:
//
//	_ struct{} `meta:"table=t,schema=s,ordering=-a;b,abstract"`
//
// Embedded structs contribute their fields.
package analyze
