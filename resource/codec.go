package resource

import (
	"fmt"
	"sort"
	"time"

	"github.com/c360/semmodel/errors"
	"github.com/c360/semmodel/model"
	"github.com/c360/semmodel/schema"
	"github.com/c360/semmodel/store"
	"github.com/c360/semmodel/vocabulary"
)

// encodeAttribute turns one attribute value into its triple form. A nil
// value encodes to no triples at all.
func encodeAttribute(subject string, def schema.AttributeDefinition, value any) []store.Triple {
	if value == nil {
		return nil
	}

	switch def.Kind {
	case schema.KindSet:
		elems, _ := value.([]any)
		triples := make([]store.Triple, 0, len(elems))
		for _, e := range elems {
			triples = append(triples, literalTriple(subject, def, e, "", nil))
		}
		return triples

	case schema.KindList:
		elems, _ := value.([]any)
		triples := make([]store.Triple, 0, len(elems))
		for i, e := range elems {
			idx := i
			triples = append(triples, literalTriple(subject, def, e, "", &idx))
		}
		return triples

	case schema.KindLangMap:
		entries, _ := value.(map[string]string)
		triples := make([]store.Triple, 0, len(entries))
		for tag, literal := range entries {
			triples = append(triples, store.Triple{
				Subject:   subject,
				Predicate: def.Predicate,
				Object:    literal,
				Lang:      tag,
			})
		}
		return triples

	default:
		return []store.Triple{literalTriple(subject, def, value, def.Language, nil)}
	}
}

func literalTriple(subject string, def schema.AttributeDefinition, value any, lang string, index *int) store.Triple {
	t := store.Triple{
		Subject:   subject,
		Predicate: def.Predicate,
		Object:    encodeObject(value),
		Lang:      lang,
		Index:     index,
	}
	if def.Datatype != "" && def.Datatype != vocabulary.IDType {
		t.Datatype = def.Datatype
	}
	return t
}

// encodeObject normalizes in-memory values to object terms that survive
// serialization by any store backend. Times become RFC 3339 strings so a
// JSON round-trip and an in-memory round-trip agree.
func encodeObject(value any) any {
	if t, ok := value.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return value
}

// typeTriples returns the rdf:type assertions for a subject, one per
// class IRI in the model's ancestry.
func typeTriples(subject string, classIRIs []string) []store.Triple {
	triples := make([]store.Triple, 0, len(classIRIs))
	for _, iri := range classIRIs {
		triples = append(triples, store.Triple{
			Subject:   subject,
			Predicate: vocabulary.RDFType,
			Object:    iri,
		})
	}
	return triples
}

// decodeAttributes reconstructs attribute values from a subject's stored
// triples. Predicates the table does not know, including rdf:type, are
// ignored so a model reads its own slice of a shared graph.
func decodeAttributes(table *model.EffectiveTable, v *schema.Validator, triples []store.Triple) (map[string]any, error) {
	byPredicate := make(map[string][]store.Triple)
	for _, t := range triples {
		byPredicate[t.Predicate] = append(byPredicate[t.Predicate], t)
	}

	values := make(map[string]any)
	for _, def := range table.Attributes() {
		group := byPredicate[def.Predicate]
		if len(group) == 0 {
			continue
		}
		value, err := decodeGroup(def, v, group)
		if err != nil {
			return nil, errors.Wrap(err, "TripleCodec", "decodeAttributes",
				fmt.Sprintf("attribute %q", def.Name))
		}
		values[def.Name] = value
	}
	return values, nil
}

func decodeGroup(def schema.AttributeDefinition, v *schema.Validator, group []store.Triple) (any, error) {
	switch def.Kind {
	case schema.KindSet:
		sortByKey(group)
		elems := make([]any, 0, len(group))
		for _, t := range group {
			e, err := v.Coerce(def, t.Object)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return elems, nil

	case schema.KindList:
		sort.SliceStable(group, func(i, j int) bool {
			return listIndex(group[i]) < listIndex(group[j])
		})
		elems := make([]any, 0, len(group))
		for _, t := range group {
			e, err := v.Coerce(def, t.Object)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return elems, nil

	case schema.KindLangMap:
		entries := make(map[string]string, len(group))
		for _, t := range group {
			literal, ok := t.Object.(string)
			if !ok {
				return nil, fmt.Errorf("language-tagged object %v (%T): %w",
					t.Object, t.Object, errors.ErrTypeMismatch)
			}
			entries[t.Lang] = literal
		}
		return entries, nil

	default:
		// Atomic. Several stored triples for one atomic predicate can
		// happen when external writers touch the same graph; the first
		// in key order wins to keep reads deterministic.
		sortByKey(group)
		return v.Coerce(def, group[0].Object)
	}
}

func sortByKey(group []store.Triple) {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].Key() < group[j].Key()
	})
}

func listIndex(t store.Triple) int {
	if t.Index == nil {
		// Unindexed list members sort last, after any indexed ones.
		return int(^uint(0) >> 1)
	}
	return *t.Index
}
