// Package store defines the store collaborator contract of the mapping
// engine and provides two implementations: a mutex-guarded in-memory store
// for tests and single-process use, and a NATS JetStream KV store for
// shared deployments.
//
// The engine only ever interprets three outcomes of a store call: success,
// conflict (another writer changed the subject first) and failure. Causes
// behind failures are opaque and pass through wrapped in ErrStoreUnavailable.
//
// # Triple Encoding
//
// A subject's state is a flat set of triples. Collection kinds map onto
// triples as follows:
//
//   - atomic: exactly one triple, or none when absent
//   - set: one triple per element, no ordering guarantee
//   - list: one triple per element with an explicit order index; decoding
//     re-sorts by index rather than trusting store iteration order
//   - language map: one language-tagged literal triple per entry
//
// The KV implementation stores the full triple set of a subject as one JSON
// document per key and applies diffs under revision CAS, so concurrent
// writers to the same subject surface as ErrStoreConflict and can retry.
package store
