package schema

import (
	"fmt"
	"strconv"
	"time"

	"github.com/c360/semmodel/errors"
	"github.com/c360/semmodel/vocabulary"
)

// Validator applies vocabulary constraints to attribute writes.
// Stateless and safe for concurrent use.
type Validator struct{}

// NewValidator returns a write-time validator
func NewValidator() *Validator {
	return &Validator{}
}

// CheckWrite validates a value against an attribute definition and returns
// the coerced value to store. persisted reports whether the owning resource
// has been saved at least once: read-only attributes accept writes only
// before first save.
//
// Checks run in a fixed order: read-only, shape, datatype coercion,
// cardinality, language tags. nil always passes (it clears the attribute);
// requirement is enforced at save time, not here.
func (v *Validator) CheckWrite(def AttributeDefinition, value any, persisted bool) (any, error) {
	if def.ReadOnly && persisted {
		return nil, errors.WrapInvalid(
			fmt.Errorf("attribute %q: %w", def.Name, errors.ErrReadOnly),
			"SchemaValidator", "CheckWrite", "read-only check")
	}

	if value == nil {
		return nil, nil
	}

	switch def.Kind {
	case KindAtomic:
		return v.coerce(def, value)

	case KindSet:
		elems, err := elementSlice(def, value)
		if err != nil {
			return nil, err
		}
		coerced, err := v.coerceAll(def, elems)
		if err != nil {
			return nil, err
		}
		coerced = dedupe(coerced)
		if err := v.checkCardinality(def, len(coerced)); err != nil {
			return nil, err
		}
		return coerced, nil

	case KindList:
		elems, err := elementSlice(def, value)
		if err != nil {
			return nil, err
		}
		coerced, err := v.coerceAll(def, elems)
		if err != nil {
			return nil, err
		}
		if err := v.checkCardinality(def, len(coerced)); err != nil {
			return nil, err
		}
		return coerced, nil

	case KindLangMap:
		return v.checkLangMap(def, value)

	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("attribute %q has unsupported kind: %w", def.Name, errors.ErrTypeMismatch),
			"SchemaValidator", "CheckWrite", "kind dispatch")
	}
}

// CheckRequired verifies that a required attribute has a value.
// Called once per attribute at save time.
func (v *Validator) CheckRequired(def AttributeDefinition, value any) error {
	if !def.Required {
		return nil
	}
	if isAbsent(value) {
		return errors.WrapInvalid(
			fmt.Errorf("attribute %q: %w", def.Name, errors.ErrRequiredMissing),
			"SchemaValidator", "CheckRequired", "requirement check")
	}
	return nil
}

func isAbsent(value any) bool {
	switch val := value.(type) {
	case nil:
		return true
	case []any:
		return len(val) == 0
	case map[string]string:
		return len(val) == 0
	default:
		return false
	}
}

func elementSlice(def AttributeDefinition, value any) ([]any, error) {
	switch val := value.(type) {
	case []any:
		return val, nil
	case []string:
		elems := make([]any, len(val))
		for i, s := range val {
			elems[i] = s
		}
		return elems, nil
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("attribute %q (%s) expects a slice, got %T: %w",
				def.Name, def.Kind, value, errors.ErrTypeMismatch),
			"SchemaValidator", "CheckWrite", "shape check")
	}
}

func (v *Validator) coerceAll(def AttributeDefinition, elems []any) ([]any, error) {
	coerced := make([]any, 0, len(elems))
	for _, elem := range elems {
		c, err := v.coerce(def, elem)
		if err != nil {
			return nil, err
		}
		coerced = append(coerced, c)
	}
	return coerced, nil
}

func dedupe(elems []any) []any {
	seen := make(map[any]bool, len(elems))
	out := elems[:0]
	for _, e := range elems {
		key := e
		if t, ok := e.(time.Time); ok {
			key = t.UTC()
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

func (v *Validator) checkCardinality(def AttributeDefinition, count int) error {
	card := def.Cardinality
	if card == nil {
		return nil
	}
	if count < card.Min || (card.Max > 0 && count > card.Max) {
		return errors.WrapInvalid(
			fmt.Errorf("attribute %q has %d elements, bounds [%d,%d]: %w",
				def.Name, count, card.Min, card.Max, errors.ErrCardinality),
			"SchemaValidator", "CheckWrite", "cardinality check")
	}
	return nil
}

func (v *Validator) checkLangMap(def AttributeDefinition, value any) (any, error) {
	entries, err := langMapEntries(def, value)
	if err != nil {
		return nil, err
	}
	for tag := range entries {
		if !vocabulary.IsValidLanguageTag(tag) {
			return nil, errors.WrapInvalid(
				fmt.Errorf("attribute %q has malformed language tag %q: %w",
					def.Name, tag, errors.ErrTypeMismatch),
				"SchemaValidator", "CheckWrite", "language tag check")
		}
	}
	return entries, nil
}

func langMapEntries(def AttributeDefinition, value any) (map[string]string, error) {
	switch val := value.(type) {
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, v := range val {
			out[k] = v
		}
		return out, nil
	case map[string]any:
		out := make(map[string]string, len(val))
		for k, elem := range val {
			s, ok := elem.(string)
			if !ok {
				return nil, errors.WrapInvalid(
					fmt.Errorf("attribute %q language entry %q is %T, expected string: %w",
						def.Name, k, elem, errors.ErrTypeMismatch),
					"SchemaValidator", "CheckWrite", "language value check")
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("attribute %q (@language) expects a map, got %T: %w",
				def.Name, value, errors.ErrTypeMismatch),
			"SchemaValidator", "CheckWrite", "shape check")
	}
}

// Coerce converts a single literal to the attribute's declared datatype
// without running write-time checks. Triple decoding uses it to restore
// typed values from stored objects, where read-only restrictions do not
// apply.
func (v *Validator) Coerce(def AttributeDefinition, value any) (any, error) {
	return v.coerce(def, value)
}

// coerce converts a single literal to the attribute's declared datatype.
// The core coercion set covers xsd:string, xsd:boolean, xsd:integer,
// xsd:double, xsd:dateTime and @id references. Other datatypes pass through
// opaquely when the value is already a string.
func (v *Validator) coerce(def AttributeDefinition, value any) (any, error) {
	switch def.Datatype {
	case vocabulary.XSDString, "":
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, coercionErr(def, value, "string")

	case vocabulary.XSDBoolean:
		switch val := value.(type) {
		case bool:
			return val, nil
		case string:
			b, err := strconv.ParseBool(val)
			if err != nil {
				return nil, coercionErr(def, value, "boolean")
			}
			return b, nil
		}
		return nil, coercionErr(def, value, "boolean")

	case vocabulary.XSDInteger:
		switch val := value.(type) {
		case int:
			return int64(val), nil
		case int32:
			return int64(val), nil
		case int64:
			return val, nil
		case float64:
			if val != float64(int64(val)) {
				return nil, coercionErr(def, value, "integer")
			}
			return int64(val), nil
		case string:
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, coercionErr(def, value, "integer")
			}
			return n, nil
		}
		return nil, coercionErr(def, value, "integer")

	case vocabulary.XSDDouble:
		switch val := value.(type) {
		case float64:
			return val, nil
		case float32:
			return float64(val), nil
		case int:
			return float64(val), nil
		case int64:
			return float64(val), nil
		case string:
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, coercionErr(def, value, "double")
			}
			return f, nil
		}
		return nil, coercionErr(def, value, "double")

	case vocabulary.XSDDateTime:
		switch val := value.(type) {
		case time.Time:
			// Round(0) drops the monotonic reading so values survive a
			// store round trip with equality intact.
			return val.Round(0).UTC(), nil
		case string:
			t, err := time.Parse(time.RFC3339, val)
			if err != nil {
				return nil, coercionErr(def, value, "dateTime")
			}
			return t.UTC(), nil
		}
		return nil, coercionErr(def, value, "dateTime")

	case vocabulary.IDType:
		s, ok := value.(string)
		if !ok || !vocabulary.IsAbsoluteIRI(s) {
			return nil, coercionErr(def, value, "IRI reference")
		}
		return s, nil

	default:
		// Out-of-core datatype: opaque pass-through for strings only
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, coercionErr(def, value, def.Datatype)
	}
}

func coercionErr(def AttributeDefinition, value any, want string) error {
	return errors.WrapInvalid(
		fmt.Errorf("attribute %q: cannot coerce %T to %s: %w",
			def.Name, value, want, errors.ErrTypeMismatch),
		"SchemaValidator", "CheckWrite", "datatype coercion")
}
