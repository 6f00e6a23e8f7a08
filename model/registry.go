package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/c360/semmodel/errors"
)

// Operation is an externally supplied capability attached to a model by
// name. The receiver is passed as an opaque value to keep the capability
// table independent of the resource layer.
type Operation func(ctx context.Context, receiver any, args ...any) (any, error)

// Registry is the process-wide table of registered models. It is populated
// during an initialization phase and read-mostly afterwards; lookups take
// only a read lock and are safe from many goroutines. Re-registration under
// an existing name is rejected rather than silently replacing, so resources
// never end up bound to a stale table.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
	tables      map[string]*EffectiveTable
	generators  map[string]*IRIGenerator
	operations  map[string]map[string]Operation
}

// NewRegistry creates an empty model registry
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]Definition),
		tables:      make(map[string]*EffectiveTable),
		generators:  make(map[string]*IRIGenerator),
		operations:  make(map[string]map[string]Operation),
	}
}

// Register resolves a definition against already-registered parents and
// stores its effective table. Fails without side effects on duplicate
// names, unknown parents or inheritance conflicts.
func (r *Registry) Register(def Definition) error {
	return r.RegisterAll([]Definition{def})
}

// RegisterAll registers a batch of definitions that may reference each
// other as parents, in any order. Cycles across the batch are rejected.
// On any error the whole batch is discarded: either every definition
// becomes visible or none does.
func (r *Registry) RegisterAll(defs []Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := make(map[string]Definition, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return errors.WrapInvalid(
				fmt.Errorf("definition without a name: %w", errors.ErrConstraintDef),
				"ModelRegistry", "RegisterAll", "definition check")
		}
		if _, exists := r.definitions[def.Name]; exists {
			return errors.WrapInvalid(
				fmt.Errorf("model %s: %w", def.Name, errors.ErrDuplicateModel),
				"ModelRegistry", "RegisterAll", "duplicate check")
		}
		if _, dup := batch[def.Name]; dup {
			return errors.WrapInvalid(
				fmt.Errorf("model %s appears twice in batch: %w", def.Name, errors.ErrDuplicateModel),
				"ModelRegistry", "RegisterAll", "duplicate check")
		}
		batch[def.Name] = def
	}

	// Resolve against registered models plus the rest of the batch
	all := make(map[string]Definition, len(r.definitions)+len(batch))
	for name, def := range r.definitions {
		all[name] = def
	}
	for name, def := range batch {
		all[name] = def
	}

	res := newResolver(all, r.tables)
	tables := make(map[string]*EffectiveTable, len(batch))
	generators := make(map[string]*IRIGenerator, len(batch))
	for name, def := range batch {
		table, err := res.resolve(name)
		if err != nil {
			return err
		}
		tables[name] = table
		generators[name] = newGeneratorForDefinition(def)
	}

	// Commit the whole batch
	for name, def := range batch {
		r.definitions[name] = def
		r.tables[name] = tables[name]
		r.generators[name] = generators[name]
	}
	return nil
}

// Lookup returns the effective attribute table for a model name
func (r *Registry) Lookup(name string) (*EffectiveTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, ok := r.tables[name]
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("model %s: %w", name, errors.ErrUnknownModel),
			"ModelRegistry", "Lookup", "model lookup")
	}
	return table, nil
}

// Generator returns the identifier generator bound to a model
func (r *Registry) Generator(name string) (*IRIGenerator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gen, ok := r.generators[name]
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("model %s: %w", name, errors.ErrUnknownModel),
			"ModelRegistry", "Generator", "model lookup")
	}
	return gen, nil
}

// Names returns the registered model names, unordered
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	return names
}

// RegisterOperation attaches a named capability to a registered model.
// The capability table is kept entirely separate from attribute
// definitions; operations never participate in validation or persistence.
func (r *Registry) RegisterOperation(modelName, opName string, op Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[modelName]; !ok {
		return errors.WrapInvalid(
			fmt.Errorf("model %s: %w", modelName, errors.ErrUnknownModel),
			"ModelRegistry", "RegisterOperation", "model lookup")
	}
	ops := r.operations[modelName]
	if ops == nil {
		ops = make(map[string]Operation)
		r.operations[modelName] = ops
	}
	ops[opName] = op
	return nil
}

// Operation resolves a capability by model and operation name
func (r *Registry) Operation(modelName, opName string) (Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.tables[modelName]; !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("model %s: %w", modelName, errors.ErrUnknownModel),
			"ModelRegistry", "Operation", "model lookup")
	}
	op, ok := r.operations[modelName][opName]
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("model %s has no operation %q: %w", modelName, opName, errors.ErrUnknownOperation),
			"ModelRegistry", "Operation", "operation lookup")
	}
	return op, nil
}
