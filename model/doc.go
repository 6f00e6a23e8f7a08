// Package model resolves declared resource models into effective attribute
// tables and manages the process-wide model registry.
//
// A ModelDefinition names its parents, its own attribute definitions and an
// identifier-generation template. Registration merges the definition with
// its ancestors' effective tables in declaration order: an attribute keeps
// the definition of the model that declared it first, later contributors
// may narrow constraints (optional to required, writable to read-only,
// looser to tighter cardinality) but never change predicate, collection
// kind or datatype. Genuine disagreements fail registration with an
// inheritance conflict naming the attribute and both models; cyclic parent
// references are rejected.
//
// The registry is populated during an initialization phase and is
// read-mostly afterwards; lookups are safe for unsynchronized concurrent
// use while registration itself is serialized. Failed registrations leave
// no trace.
//
// Identifier generation draws candidate suffixes from a source (monotonic
// counter or random token) into the model's template and checks each
// against the store until a free identifier is found, bounded by
// MaxGenerationAttempts.
package model
