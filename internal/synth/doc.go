// Package synth runs the synthesis pass: every source model of a
// schema.Registry becomes a model.Model named "<Name>Async", recorded as
// a Pair in a Registry that is frozen once every relation target has been
// found.
//
// The pass is single-threaded and performs no I/O. Reverse relation
// descriptors carry no storage and are skipped. Kinds without a
// translation abort the pass in strict mode; in lenient mode they are
// skipped with a warning unless they are relations.
package synth
