package schema

import (
	"fmt"

	"github.com/c360/semmodel/errors"
)

// Kind identifies the collection semantics of an attribute.
type Kind int

const (
	// KindAtomic holds a single scalar value (or is absent)
	KindAtomic Kind = iota
	// KindSet holds an unordered collection of unique values
	KindSet
	// KindList holds an ordered sequence; order survives round-trips
	KindList
	// KindLangMap maps well-formed language tags to literals
	KindLangMap
)

// String returns the context-document container keyword for the kind
func (k Kind) String() string {
	switch k {
	case KindAtomic:
		return "atomic"
	case KindSet:
		return "@set"
	case KindList:
		return "@list"
	case KindLangMap:
		return "@language"
	default:
		return "unknown"
	}
}

// Cardinality bounds the element count of a set or list attribute.
// Min 0 means no lower bound; Max 0 means no upper bound.
type Cardinality struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Constraint is the parsed vocabulary-constraint record for one attribute.
type Constraint struct {
	Required    bool         `json:"required" yaml:"required"`
	ReadOnly    bool         `json:"readOnly" yaml:"readOnly"`
	WriteOnly   bool         `json:"writeOnly" yaml:"writeOnly"`
	Datatype    string       `json:"datatype,omitempty" yaml:"datatype,omitempty"`
	Cardinality *Cardinality `json:"cardinality,omitempty" yaml:"cardinality,omitempty"`
}

// AttributeDefinition is the canonical, merged definition of one attribute:
// the context term (predicate, collection kind, datatype and language hints)
// combined with its vocabulary constraints. Immutable once the owning model
// is registered.
type AttributeDefinition struct {
	Name        string
	Predicate   string
	Kind        Kind
	Datatype    string
	Language    string
	Required    bool
	ReadOnly    bool
	WriteOnly   bool
	Cardinality *Cardinality
}

// BuildAttributes merges an ordered term list with constraint records into
// attribute definitions, preserving term order. Constraint records for
// names absent from the context are rejected: a constraint without a
// predicate mapping can never be enforced on a triple.
func BuildAttributes(ctx *Context, constraints map[string]Constraint) ([]AttributeDefinition, error) {
	known := make(map[string]bool, len(ctx.Terms))
	defs := make([]AttributeDefinition, 0, len(ctx.Terms))

	for _, term := range ctx.Terms {
		def := AttributeDefinition{
			Name:      term.Name,
			Predicate: term.Predicate,
			Kind:      term.Kind,
			Datatype:  term.Datatype,
			Language:  term.Language,
		}

		if c, ok := constraints[term.Name]; ok {
			merged, err := applyConstraint(def, c, ctx.Prefixes)
			if err != nil {
				return nil, err
			}
			def = merged
		}

		known[term.Name] = true
		defs = append(defs, def)
	}

	for name := range constraints {
		if !known[name] {
			return nil, errors.WrapInvalid(
				fmt.Errorf("constraint for %q has no context term: %w", name, errors.ErrConstraintDef),
				"Schema", "BuildAttributes", "constraint binding")
		}
	}

	return defs, nil
}

func applyConstraint(def AttributeDefinition, c Constraint, prefixes map[string]string) (AttributeDefinition, error) {
	if c.ReadOnly && c.WriteOnly {
		return def, errors.WrapInvalid(
			fmt.Errorf("attribute %q cannot be both read-only and write-only: %w", def.Name, errors.ErrConstraintDef),
			"Schema", "BuildAttributes", "access flags")
	}

	if c.Datatype != "" {
		datatype, err := expandDatatype(c.Datatype, prefixes)
		if err != nil {
			return def, err
		}
		if def.Datatype != "" && def.Datatype != datatype {
			return def, errors.WrapInvalid(
				fmt.Errorf("attribute %q declares datatype %s in the context but %s in its constraint: %w",
					def.Name, def.Datatype, datatype, errors.ErrConstraintDef),
				"Schema", "BuildAttributes", "datatype agreement")
		}
		def.Datatype = datatype
	}

	if c.Cardinality != nil {
		card := *c.Cardinality
		if card.Min < 0 || card.Max < 0 || (card.Max > 0 && card.Min > card.Max) {
			return def, errors.WrapInvalid(
				fmt.Errorf("attribute %q has inconsistent cardinality bounds [%d,%d]: %w",
					def.Name, card.Min, card.Max, errors.ErrConstraintDef),
				"Schema", "BuildAttributes", "cardinality bounds")
		}
		if def.Kind != KindSet && def.Kind != KindList {
			return def, errors.WrapInvalid(
				fmt.Errorf("attribute %q is %s but declares cardinality: %w", def.Name, def.Kind, errors.ErrConstraintDef),
				"Schema", "BuildAttributes", "cardinality applicability")
		}
		def.Cardinality = &card
	}

	def.Required = c.Required
	def.ReadOnly = c.ReadOnly
	def.WriteOnly = c.WriteOnly
	return def, nil
}
