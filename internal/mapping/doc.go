// Package mapping loads source models from a YAML schema file.
//
// The file lists apps and their models:
//
//	version: "1"
//	apps:
//	  - app: library
//	    models:
//	      - name: Book
//	        table: library_book
//	        ordering: [-published, title]
//	        fields:
//	          - {name: title, kind: char, max_length: 200}
//	          - {name: price, kind: decimal, max_digits: 6, decimal_places: 2}
//	          - name: author
//	            kind: foreign_key
//	            to: library.Author
//	            on_delete: CASCADE
//	            related_name: books
//
// Kinds take either the field class name ("CharField") or its short
// form ("char"). A model without a primary key gets an auto "id" field.
//
// Validate checks the file structurally and reports every problem as a
// diagnostic; Registry converts a valid file into a schema.Registry.
package mapping
