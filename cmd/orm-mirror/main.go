// Package main provides the orm-mirror CLI.
//
// orm-mirror reads source model definitions, either from a YAML schema file
// or from tagged Go structs, and mirrors them into async models:
//   - inspect prints the synthesized models and their fingerprints
//   - ddl prints the CREATE TABLE statements for a backend
//   - migrate creates the tables on the configured datasources
//   - check runs a strict synthesis and reports diagnostics
//   - export writes the schema file equivalent of Go models
//   - serve keeps the engines open and exposes metrics until signalled
package main

var version = "dev"

func main() {
	Execute()
}
