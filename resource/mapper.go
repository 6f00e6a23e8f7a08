package resource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360/semmodel/errors"
	"github.com/c360/semmodel/metric"
	"github.com/c360/semmodel/model"
	"github.com/c360/semmodel/schema"
	"github.com/c360/semmodel/store"
)

// Mapper binds a model registry to a triple store and mints resources.
// It is safe for concurrent use.
type Mapper struct {
	registry  *model.Registry
	store     store.Store
	validator *schema.Validator
	metrics   *metric.Metrics
	logger    *slog.Logger
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithMetrics attaches engine metrics to the mapper.
func WithMetrics(m *metric.Metrics) Option {
	return func(mp *Mapper) {
		mp.metrics = m
	}
}

// WithLogger sets the logger used for engine activity.
func WithLogger(l *slog.Logger) Option {
	return func(mp *Mapper) {
		mp.logger = l
	}
}

// NewMapper creates a mapper over a populated registry and a store.
func NewMapper(registry *model.Registry, st store.Store, opts ...Option) *Mapper {
	m := &Mapper{
		registry:  registry,
		store:     st,
		validator: schema.NewValidator(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "TripleMapper")
	return m
}

// New creates a transient resource with a freshly generated identifier.
// Nothing is written to the store until Save.
func (m *Mapper) New(ctx context.Context, modelName string) (*Resource, error) {
	table, err := m.registry.Lookup(modelName)
	if err != nil {
		return nil, err
	}
	gen, err := m.registry.Generator(modelName)
	if err != nil {
		return nil, err
	}

	attempts := 0
	exists := func(ctx context.Context, identifier string) (bool, error) {
		attempts++
		return m.store.Exists(ctx, identifier)
	}
	identifier, err := gen.Generate(ctx, exists)
	if err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.RecordIRIGenerationAttempts(modelName, attempts)
	}

	m.logger.Debug("resource created", "model", modelName, "identifier", identifier)
	return newResource(m, table, identifier), nil
}

// NewWithIdentifier creates a transient resource under a caller-chosen
// identifier. The identifier must not already hold triples in the store.
func (m *Mapper) NewWithIdentifier(ctx context.Context, modelName, identifier string) (*Resource, error) {
	table, err := m.registry.Lookup(modelName)
	if err != nil {
		return nil, err
	}

	taken, err := m.store.Exists(ctx, identifier)
	if err != nil {
		return nil, errors.WrapTransient(err, "TripleMapper", "NewWithIdentifier", "uniqueness check")
	}
	if taken {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%s: %w", identifier, errors.ErrIdentifierTaken),
			"TripleMapper", "NewWithIdentifier", "uniqueness check")
	}

	return newResource(m, table, identifier), nil
}

// Load materializes a persisted resource from the store. Stored predicates
// the model does not declare are left untouched in the graph and simply
// not surfaced on the resource.
func (m *Mapper) Load(ctx context.Context, identifier, modelName string) (*Resource, error) {
	table, err := m.registry.Lookup(modelName)
	if err != nil {
		return nil, err
	}

	triples, err := m.store.LoadTriples(ctx, identifier)
	if err != nil {
		return nil, errors.WrapTransient(err, "TripleMapper", "Load", "triple load")
	}
	if len(triples) == 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%s: %w", identifier, errors.ErrSubjectNotFound),
			"TripleMapper", "Load", "triple load")
	}

	values, err := decodeAttributes(table, m.validator, triples)
	if err != nil {
		return nil, err
	}

	r := newResource(m, table, identifier)
	r.state = StatePersisted
	r.typesAsserted = true
	for name, value := range values {
		r.values[name] = value
		r.persisted[name] = cloneValue(value)
	}

	if m.metrics != nil {
		m.metrics.RecordResourceOp(modelName, "load")
	}
	m.logger.Debug("resource loaded", "model", modelName, "identifier", identifier,
		"triples", len(triples))
	return r, nil
}
