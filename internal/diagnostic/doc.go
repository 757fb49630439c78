// Package diagnostic provides the error taxonomy and structured
// synthesis reports for orm-mirror.
//
// Errors fall into four classes, each with a sentinel usable with errors.Is:
//   - ErrNotSupported: a column kind, on-delete policy or engine has no translation
//   - ErrBadValue: a value could not be decoded into a field's canonical type
//   - ErrValidation: a value parsed but violates a field constraint
//   - ErrConfiguration: datasource settings are missing or malformed
//
// Warnings are recoverable: the value is usable after a best-effort coercion.
// Diagnostics collects errors, warnings and infos produced by a synthesis
// pass so they can be reported together.
package diagnostic
