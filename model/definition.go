package model

import (
	"fmt"

	"github.com/c360/semmodel/errors"
	"github.com/c360/semmodel/schema"
)

// GenerationPolicy selects the candidate source for new identifiers
type GenerationPolicy string

const (
	// GenerationRandom draws random UUID tokens (default)
	GenerationRandom GenerationPolicy = "random"
	// GenerationCounter draws from a monotonic counter
	GenerationCounter GenerationPolicy = "counter"
)

// Definition declares one resource model: its own attributes, its parent
// models and how identifiers for new instances are generated. A definition
// owns only its own attributes; inherited ones are shared by reference with
// the parents' effective tables at registration time.
type Definition struct {
	// Name uniquely identifies the model in the registry
	Name string

	// ClassIRI is the RDFS class this model maps to. Emitted as an
	// rdf:type triple on first save together with the ancestors' classes.
	ClassIRI string

	// Parents lists parent model names in declaration order
	Parents []string

	// Attributes are the model's own attribute definitions, in
	// declaration order
	Attributes []schema.AttributeDefinition

	// IRITemplate is a format string with an "{id}" placeholder for the
	// generated suffix. Empty selects the blank-node generator.
	IRITemplate string

	// Generation selects the candidate source; empty means random
	Generation GenerationPolicy
}

// DefinitionFromDocuments builds a Definition from raw declarative inputs:
// a context document and vocabulary-constraint metadata. Both documents are
// structurally validated before parsing.
func DefinitionFromDocuments(name, classIRI string, parents []string,
	contextDoc, constraintDoc []byte, iriTemplate string, generation GenerationPolicy) (Definition, error) {

	if err := schema.ValidateContextDocument(contextDoc); err != nil {
		return Definition{}, errors.Wrap(err, "Model", "DefinitionFromDocuments", "context validation")
	}
	if err := schema.ValidateConstraintDocument(constraintDoc); err != nil {
		return Definition{}, errors.Wrap(err, "Model", "DefinitionFromDocuments", "constraint validation")
	}

	ctx, err := schema.ResolveContext(contextDoc)
	if err != nil {
		return Definition{}, err
	}
	constraints, err := schema.ParseConstraints(constraintDoc)
	if err != nil {
		return Definition{}, err
	}
	attrs, err := schema.BuildAttributes(ctx, constraints)
	if err != nil {
		return Definition{}, err
	}

	return Definition{
		Name:        name,
		ClassIRI:    classIRI,
		Parents:     parents,
		Attributes:  attrs,
		IRITemplate: iriTemplate,
		Generation:  generation,
	}, nil
}

// EffectiveTable is the fully merged, conflict-resolved attribute table of
// one model, including inherited attributes. Immutable after registration
// and safe for concurrent reads.
type EffectiveTable struct {
	modelName string
	classIRIs []string
	order     []string
	defs      map[string]schema.AttributeDefinition
}

// ModelName returns the owning model's name
func (t *EffectiveTable) ModelName() string {
	return t.modelName
}

// ClassIRIs returns the model's class IRI followed by its ancestors',
// first-seen order, duplicates removed
func (t *EffectiveTable) ClassIRIs() []string {
	out := make([]string, len(t.classIRIs))
	copy(out, t.classIRIs)
	return out
}

// Lookup returns the definition for an attribute name
func (t *EffectiveTable) Lookup(name string) (schema.AttributeDefinition, error) {
	def, ok := t.defs[name]
	if !ok {
		return schema.AttributeDefinition{}, errors.WrapInvalid(
			fmt.Errorf("model %s has no attribute %q: %w", t.modelName, name, errors.ErrUnknownAttribute),
			"EffectiveTable", "Lookup", "attribute lookup")
	}
	return def, nil
}

// Attributes returns all definitions in first-seen declaration order
// (ancestors before the model's own additions)
func (t *EffectiveTable) Attributes() []schema.AttributeDefinition {
	out := make([]schema.AttributeDefinition, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.defs[name])
	}
	return out
}

// Len returns the number of attributes in the table
func (t *EffectiveTable) Len() int {
	return len(t.order)
}
