package vocabulary

// Standard Vocabulary IRIs
//
// These constants provide the W3C namespaces the mapping engine depends on:
// XSD datatypes for literal coercion, and the RDF/RDFS core for
// class-membership triples emitted on first save.
//
// References:
// - XSD: https://www.w3.org/TR/xmlschema11-2/
// - RDF: https://www.w3.org/TR/rdf11-concepts/
// - RDFS: https://www.w3.org/TR/rdf-schema/

// Namespace prefixes
const (
	// XSDNamespace is the XML Schema datatype namespace
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"

	// RDFNamespace is the RDF core namespace
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	// RDFSNamespace is the RDF Schema namespace
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
)

// XSD datatype IRIs forming the engine's core coercion set.
// Literals with datatypes outside this set pass through opaquely as strings.
const (
	XSDString   = XSDNamespace + "string"
	XSDBoolean  = XSDNamespace + "boolean"
	XSDInteger  = XSDNamespace + "integer"
	XSDDouble   = XSDNamespace + "double"
	XSDDateTime = XSDNamespace + "dateTime"
)

// RDF core IRIs
const (
	// RDFType links a resource to its class.
	// Emitted for a model's full ancestry on first save.
	RDFType = RDFNamespace + "type"

	// RDFSLabel provides a human-readable name for a resource
	RDFSLabel = RDFSNamespace + "label"

	// RDFSComment provides a human-readable description
	RDFSComment = RDFSNamespace + "comment"
)

// IDType is the JSON-LD keyword marking an attribute as an IRI reference
// to another resource rather than a literal.
const IDType = "@id"
