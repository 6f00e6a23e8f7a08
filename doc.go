// Package semmodel is a declarative object-to-graph mapping engine.
//
// Applications declare resource models from two machine-readable inputs: a
// JSON-LD-style context document that maps attribute names to predicate IRIs
// and container shapes, and vocabulary-constraint metadata that carries
// validation rules (required, read-only, write-only, datatype, cardinality).
// Registered models expose their instances as in-memory Resource objects
// whose attribute reads and writes are translated to and from RDF-style
// triples against a pluggable triple store.
//
// # Architecture
//
// Model registration flows leaf-first through the packages:
//
//	┌─────────────────────────────────────┐
//	│        schema                       │  context parsing,
//	│  (terms, constraints, attributes)   │  write-time validation
//	└──────────────────┬──────────────────┘
//	                   ↓
//	┌─────────────────────────────────────┐
//	│        model                        │  inheritance merge,
//	│  (registry, effective tables, IRIs) │  identifier generation
//	└──────────────────┬──────────────────┘
//	                   ↓
//	┌─────────────────────────────────────┐
//	│        resource                     │  live resources, dirty
//	│  (get/set, save/load, triple diff)  │  tracking, serialization
//	└──────────────────┬──────────────────┘
//	                   ↓
//	┌─────────────────────────────────────┐
//	│        store                        │  memory store for tests,
//	│  (LoadTriples, ApplyDiff, Exists)   │  NATS JetStream KV store
//	└─────────────────────────────────────┘
//
// # Framework Packages
//
//   - schema: context-document parsing and attribute-level validation
//   - model: inheritance resolution, the model registry, IRI generation
//   - resource: live resources, dirty tracking, triple diff computation
//   - store: the store collaborator contract plus in-memory and NATS
//     JetStream KV implementations
//   - vocabulary: namespace constants and IRI/language-tag helpers
//   - errors: classified error handling shared by all packages
//   - metric: Prometheus instrumentation for engine operations
//   - config: YAML configuration and model-declaration loading
//   - testutil: scripted store stubs and model fixtures for tests
//
// # Concurrency Model
//
// Model registration happens during an initialization phase and is
// serialized by the registry; afterwards the registry is read-mostly and
// safe for concurrent lookup without further coordination. Individual
// Resource instances follow a single-writer document model and are not safe
// for concurrent mutation. Identifier generation is the one place where
// cross-flow contention is expected: generators retry with bounded attempts
// when the store reports a reservation conflict.
package semmodel
