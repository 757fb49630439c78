// Package schema describes the models of the synchronous mapper: the
// column descriptors, relations and table metadata that the rest of
// orm-mirror reads but never writes back.
//
// A Registry groups models by owning app, in registration order. It is
// filled by the analyze package (Go struct tags), the mapping package
// (YAML schema files) or by hand.
package schema
