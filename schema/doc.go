// Package schema turns the two declarative inputs of the mapping engine --
// a JSON-LD-style context document and vocabulary-constraint metadata --
// into canonical attribute definitions, and enforces those definitions on
// attribute writes.
//
// # Overview
//
// A context document maps attribute names to predicate IRIs and container
// shapes:
//
//	{
//	    "@prefixes": {"foaf": "http://xmlns.com/foaf/0.1/"},
//	    "name":   "foaf:name",
//	    "emails": {"@id": "foaf:mbox", "@container": "@set"},
//	    "title":  {"@id": "http://purl.org/dc/terms/title", "@container": "@language"}
//	}
//
// Constraint metadata carries one record per attribute:
//
//	{
//	    "name": {"required": true, "datatype": "xsd:string"},
//	    "emails": {"cardinality": {"min": 1, "max": 5}}
//	}
//
// ResolveContext parses the context into an ordered term list (declaration
// order is preserved and later governs serialization key order).
// BuildAttributes merges terms with constraint records into one
// AttributeDefinition per name, rejecting contradictory definitions.
//
// # Validation
//
// The Validator applies write-time checks in a fixed order: read-only,
// datatype coercion, cardinality, language-tag well-formedness. Requirement
// is deliberately not a write-time check; resources may be transiently
// incomplete and are only checked for required attributes at save time via
// CheckRequired.
//
// Both raw documents can be structurally validated against embedded JSON
// Schemas before parsing; see ValidateContextDocument and
// ValidateConstraintDocument.
package schema
