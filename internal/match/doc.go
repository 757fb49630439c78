// Package match finds near-miss names. The synthesizer uses it to attach
// "did you mean" suggestions to relation targets that resolve to no model.
//
// Key functions:
//   - Normalize: folds an identifier to a comparable form
//   - Levenshtein: edit distance between two strings
//   - Suggest: ranks candidate names by similarity
package match
