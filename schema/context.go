package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/c360/semmodel/errors"
	"github.com/c360/semmodel/vocabulary"
)

// Term is one resolved context entry: an attribute name bound to a
// predicate IRI, a collection kind and optional literal hints.
type Term struct {
	Name      string
	Predicate string
	Kind      Kind
	Datatype  string
	Language  string
}

// Context is a fully resolved context document: the prefix table plus the
// term list in declaration order.
type Context struct {
	Prefixes map[string]string
	Terms    []Term
}

// termDescriptor is the expanded JSON form of a context entry.
type termDescriptor struct {
	ID        string `json:"@id"`
	Container string `json:"@container"`
	Type      string `json:"@type"`
	Language  string `json:"@language"`
}

// prefixesKey is the reserved context key holding the prefix table.
const prefixesKey = "@prefixes"

// ResolveContext parses a raw context document into an ordered term list.
// It is a pure function of its input: no registry or store interaction.
//
// Declaration order of the document is preserved (the decoder walks the
// token stream rather than an unordered map), because term order governs
// serialization key order downstream.
func ResolveContext(raw []byte) (*Context, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%v: %w", err, errors.ErrContextParse),
			"ContextResolver", "Resolve", "document shape")
	}

	type rawEntry struct {
		name  string
		value json.RawMessage
	}
	var entries []rawEntry
	prefixes := map[string]string{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%v: %w", err, errors.ErrContextParse),
				"ContextResolver", "Resolve", "token read")
		}
		name, ok := tok.(string)
		if !ok {
			return nil, errors.WrapInvalid(
				fmt.Errorf("non-string key %v: %w", tok, errors.ErrContextParse),
				"ContextResolver", "Resolve", "key read")
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("value of %q: %v: %w", name, err, errors.ErrContextParse),
				"ContextResolver", "Resolve", "value read")
		}

		if name == prefixesKey {
			if err := json.Unmarshal(value, &prefixes); err != nil {
				return nil, errors.WrapInvalid(
					fmt.Errorf("prefix table: %v: %w", err, errors.ErrContextParse),
					"ContextResolver", "Resolve", "prefix table")
			}
			continue
		}
		entries = append(entries, rawEntry{name: name, value: value})
	}

	ctx := &Context{Prefixes: prefixes}
	for _, e := range entries {
		term, err := resolveTerm(e.name, e.value, prefixes)
		if err != nil {
			return nil, err
		}
		ctx.Terms = append(ctx.Terms, term)
	}
	return ctx, nil
}

func resolveTerm(name string, value json.RawMessage, prefixes map[string]string) (Term, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 {
		return Term{}, termErr(name, "empty term value")
	}

	// Shorthand form: "name": "predicateIRI"
	if trimmed[0] == '"' {
		var iri string
		if err := json.Unmarshal(trimmed, &iri); err != nil {
			return Term{}, termErr(name, err.Error())
		}
		predicate, ok := vocabulary.ExpandPrefixed(iri, prefixes)
		if !ok {
			return Term{}, termErr(name, fmt.Sprintf("unresolvable IRI %q", iri))
		}
		return Term{Name: name, Predicate: predicate, Kind: KindAtomic}, nil
	}

	// Expanded form: "name": {"@id": ..., "@container": ..., ...}
	var desc termDescriptor
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&desc); err != nil {
		return Term{}, termErr(name, err.Error())
	}

	if desc.ID == "" {
		return Term{}, termErr(name, "missing @id")
	}
	predicate, ok := vocabulary.ExpandPrefixed(desc.ID, prefixes)
	if !ok {
		return Term{}, termErr(name, fmt.Sprintf("unresolvable IRI %q", desc.ID))
	}

	kind, err := containerKind(desc.Container)
	if err != nil {
		return Term{}, termErr(name, err.Error())
	}

	term := Term{Name: name, Predicate: predicate, Kind: kind, Language: desc.Language}

	if desc.Type != "" {
		datatype, err := expandDatatype(desc.Type, prefixes)
		if err != nil {
			return Term{}, termErr(name, err.Error())
		}
		term.Datatype = datatype
	}

	if term.Language != "" && !vocabulary.IsValidLanguageTag(term.Language) {
		return Term{}, termErr(name, fmt.Sprintf("malformed language tag %q", term.Language))
	}
	if kind == KindLangMap && term.Datatype != "" {
		return Term{}, termErr(name, "@language container cannot declare a datatype")
	}

	return term, nil
}

func containerKind(container string) (Kind, error) {
	switch container {
	case "":
		return KindAtomic, nil
	case "@set":
		return KindSet, nil
	case "@list":
		return KindList, nil
	case "@language":
		return KindLangMap, nil
	default:
		return KindAtomic, fmt.Errorf("unrecognized container %q", container)
	}
}

// expandDatatype resolves a datatype identifier: an absolute or prefixed
// IRI, or the "@id" keyword marking an IRI reference.
func expandDatatype(datatype string, prefixes map[string]string) (string, error) {
	if datatype == vocabulary.IDType {
		return vocabulary.IDType, nil
	}
	expanded, ok := vocabulary.ExpandPrefixed(datatype, prefixes)
	if !ok {
		return "", fmt.Errorf("unresolvable datatype %q", datatype)
	}
	return expanded, nil
}

func termErr(name, detail string) error {
	return errors.WrapInvalid(
		fmt.Errorf("term %q: %s: %w", name, detail, errors.ErrContextParse),
		"ContextResolver", "Resolve", "term parsing")
}

func expectDelim(dec *json.Decoder, want rune) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("empty document")
		}
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || rune(delim) != want {
		return fmt.Errorf("expected %q, got %v", string(want), tok)
	}
	return nil
}

// ParseConstraints decodes vocabulary-constraint metadata: one record per
// attribute name. xsd:-style prefixed datatypes are left unexpanded here;
// they are resolved against the context's prefix table during
// BuildAttributes.
func ParseConstraints(raw []byte) (map[string]Constraint, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]Constraint{}, nil
	}

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()

	constraints := map[string]Constraint{}
	if err := dec.Decode(&constraints); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%v: %w", err, errors.ErrConstraintDef),
			"SchemaValidator", "ParseConstraints", "decoding")
	}
	return constraints, nil
}
