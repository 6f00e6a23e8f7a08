package model

import (
	"fmt"

	"github.com/c360/semmodel/errors"
	"github.com/c360/semmodel/schema"
)

// resolver merges attribute definitions across a model's ancestry into one
// effective table per model. Parents are processed in declaration order,
// each parent's table fully resolved first; memoization keeps diamond
// ancestries cheap and a visiting set rejects cycles.
type resolver struct {
	definitions map[string]Definition
	resolved    map[string]*EffectiveTable
	visiting    map[string]bool
}

func newResolver(definitions map[string]Definition, preResolved map[string]*EffectiveTable) *resolver {
	resolved := make(map[string]*EffectiveTable, len(preResolved))
	for name, table := range preResolved {
		resolved[name] = table
	}
	return &resolver{
		definitions: definitions,
		resolved:    resolved,
		visiting:    make(map[string]bool),
	}
}

// attrSource records which model contributed an attribute first, for
// conflict reporting.
type attrSource struct {
	def   schema.AttributeDefinition
	model string
}

func (r *resolver) resolve(name string) (*EffectiveTable, error) {
	if table, ok := r.resolved[name]; ok {
		return table, nil
	}
	if r.visiting[name] {
		return nil, errors.WrapInvalid(
			fmt.Errorf("model %s is part of a parent cycle: %w", name, errors.ErrCyclicInheritance),
			"InheritanceResolver", "Resolve", "cycle detection")
	}

	def, ok := r.definitions[name]
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("parent model %s: %w", name, errors.ErrUnknownModel),
			"InheritanceResolver", "Resolve", "parent lookup")
	}

	r.visiting[name] = true
	defer delete(r.visiting, name)

	table := &EffectiveTable{
		modelName: name,
		defs:      make(map[string]schema.AttributeDefinition),
	}
	sources := make(map[string]attrSource)
	classSeen := make(map[string]bool)

	addClass := func(iri string) {
		if iri != "" && !classSeen[iri] {
			classSeen[iri] = true
			table.classIRIs = append(table.classIRIs, iri)
		}
	}
	addClass(def.ClassIRI)

	merge := func(contributor string, attrs []schema.AttributeDefinition) error {
		for _, attr := range attrs {
			existing, seen := sources[attr.Name]
			if !seen {
				sources[attr.Name] = attrSource{def: attr, model: contributor}
				table.order = append(table.order, attr.Name)
				table.defs[attr.Name] = attr
				continue
			}
			narrowed, err := narrow(existing, attrSource{def: attr, model: contributor})
			if err != nil {
				return err
			}
			sources[attr.Name] = attrSource{def: narrowed, model: existing.model}
			table.defs[attr.Name] = narrowed
		}
		return nil
	}

	for _, parent := range def.Parents {
		parentTable, err := r.resolve(parent)
		if err != nil {
			return nil, err
		}
		for _, iri := range parentTable.ClassIRIs() {
			addClass(iri)
		}
		if err := merge(parent, parentTable.Attributes()); err != nil {
			return nil, err
		}
	}
	if err := merge(name, def.Attributes); err != nil {
		return nil, err
	}

	r.resolved[name] = table
	return table, nil
}

// narrow merges a later contribution into a first-seen attribute
// definition. Identity (predicate, kind, datatype, language) must agree;
// boolean constraints may only go false to true and cardinality may only
// tighten.
func narrow(first, later attrSource) (schema.AttributeDefinition, error) {
	a, b := first.def, later.def

	if a.Predicate != b.Predicate {
		return a, conflictErr(a.Name, first.model, later.model,
			fmt.Sprintf("predicate %s vs %s", a.Predicate, b.Predicate))
	}
	if a.Kind != b.Kind {
		return a, conflictErr(a.Name, first.model, later.model,
			fmt.Sprintf("collection kind %s vs %s", a.Kind, b.Kind))
	}
	if a.Datatype != b.Datatype && b.Datatype != "" && a.Datatype != "" {
		return a, conflictErr(a.Name, first.model, later.model,
			fmt.Sprintf("datatype %s vs %s", a.Datatype, b.Datatype))
	}
	if a.Language != b.Language && b.Language != "" && a.Language != "" {
		return a, conflictErr(a.Name, first.model, later.model,
			fmt.Sprintf("language %s vs %s", a.Language, b.Language))
	}

	merged := a
	if merged.Datatype == "" {
		merged.Datatype = b.Datatype
	}
	if merged.Language == "" {
		merged.Language = b.Language
	}
	merged.Required = a.Required || b.Required
	merged.ReadOnly = a.ReadOnly || b.ReadOnly
	merged.WriteOnly = a.WriteOnly || b.WriteOnly
	if merged.ReadOnly && merged.WriteOnly {
		return a, conflictErr(a.Name, first.model, later.model,
			"merged constraints are both read-only and write-only")
	}

	card, err := tightenCardinality(a, b, first.model, later.model)
	if err != nil {
		return a, err
	}
	merged.Cardinality = card

	return merged, nil
}

func tightenCardinality(a, b schema.AttributeDefinition, firstModel, laterModel string) (*schema.Cardinality, error) {
	if a.Cardinality == nil && b.Cardinality == nil {
		return nil, nil
	}
	if a.Cardinality == nil {
		c := *b.Cardinality
		return &c, nil
	}
	if b.Cardinality == nil {
		c := *a.Cardinality
		return &c, nil
	}

	merged := schema.Cardinality{Min: a.Cardinality.Min, Max: a.Cardinality.Max}
	if b.Cardinality.Min > merged.Min {
		merged.Min = b.Cardinality.Min
	}
	if b.Cardinality.Max > 0 && (merged.Max == 0 || b.Cardinality.Max < merged.Max) {
		merged.Max = b.Cardinality.Max
	}
	if merged.Max > 0 && merged.Min > merged.Max {
		return nil, conflictErr(a.Name, firstModel, laterModel,
			fmt.Sprintf("cardinality bounds [%d,%d] and [%d,%d] are contradictory",
				a.Cardinality.Min, a.Cardinality.Max, b.Cardinality.Min, b.Cardinality.Max))
	}
	return &merged, nil
}

func conflictErr(attr, firstModel, laterModel, detail string) error {
	return errors.WrapInvalid(
		fmt.Errorf("attribute %q redefined by %s against %s: %s: %w",
			attr, laterModel, firstModel, detail, errors.ErrInheritanceConflict),
		"InheritanceResolver", "Resolve", "definition merge")
}
