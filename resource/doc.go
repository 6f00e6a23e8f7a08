// Package resource implements the object side of the object-to-graph
// mapping: typed resources whose attribute writes are validated against a
// model's effective attribute table and persisted as minimal triple diffs.
//
// A Resource moves through three states. It starts transient after
// Mapper.New, becomes persisted on the first successful Save, and ends
// detached after Delete. Every accessor and mutator rejects a detached
// resource.
//
// Writes are tracked per attribute. Save encodes only the dirty
// attributes, diffs the encoded triples against the last persisted state,
// and hands the store an add set and a remove set. An unchanged resource
// saves without a store round-trip.
//
//	mapper := resource.NewMapper(registry, st)
//	person, err := mapper.New(ctx, "Person")
//	if err != nil { ... }
//	if err := person.Set("name", "Ada"); err != nil { ... }
//	if err := person.Save(ctx); err != nil { ... }
package resource
