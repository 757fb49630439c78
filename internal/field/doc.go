// Package field implements the field types of synthesized models.
//
// Every field converts between three representations:
//   - the input a caller or driver hands over (strings, driver types, Go values)
//   - the canonical in-memory value returned by Decode
//   - the storage value returned by Encode for the active backend
//
// Decode and Encode are pure apart from the auto-now write-back onto the
// Instance being saved, and are safe for concurrent use.
package field
