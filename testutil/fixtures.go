package testutil

// Canonical declarative documents for tests that build models from raw
// context and constraint JSON rather than hand-assembled definitions.

// PersonContextDoc declares a small person vocabulary covering every
// container kind.
const PersonContextDoc = `{
	"@prefixes": {
		"foaf": "http://xmlns.com/foaf/0.1/",
		"xsd": "http://www.w3.org/2001/XMLSchema#",
		"ex": "http://example.org/vocab#"
	},
	"name": {"@id": "foaf:name", "@type": "xsd:string"},
	"age": {"@id": "ex:age", "@type": "xsd:integer"},
	"emails": {"@id": "foaf:mbox", "@container": "@set"},
	"steps": {"@id": "ex:steps", "@container": "@list", "@type": "xsd:integer"},
	"bio": {"@id": "ex:bio", "@container": "@language"},
	"homepage": {"@id": "foaf:homepage", "@type": "@id"}
}`

// PersonConstraintDoc tightens the person vocabulary: a mandatory name
// and a bounded email set.
const PersonConstraintDoc = `{
	"name": {"required": true},
	"emails": {"cardinality": {"min": 0, "max": 3}}
}`

// MalformedContextDoc fails context resolution: the prefix is never
// declared.
const MalformedContextDoc = `{
	"name": "undeclared:name"
}`
