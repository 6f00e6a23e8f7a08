package schema

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semmodel/errors"
	"github.com/c360/semmodel/vocabulary"
)

func atomicDef(datatype string) AttributeDefinition {
	return AttributeDefinition{
		Name:      "attr",
		Predicate: "http://example.org/attr",
		Kind:      KindAtomic,
		Datatype:  datatype,
	}
}

func TestCheckWriteCoercion(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		datatype string
		in       any
		want     any
		wantErr  bool
	}{
		{"string passes", vocabulary.XSDString, "hello", "hello", false},
		{"int to string fails", vocabulary.XSDString, 42, nil, true},
		{"bool passes", vocabulary.XSDBoolean, true, true, false},
		{"bool from string", vocabulary.XSDBoolean, "true", true, false},
		{"bad bool string", vocabulary.XSDBoolean, "maybe", nil, true},
		{"int passes", vocabulary.XSDInteger, 7, int64(7), false},
		{"integral float narrows", vocabulary.XSDInteger, float64(7), int64(7), false},
		{"fractional float fails", vocabulary.XSDInteger, 7.5, nil, true},
		{"int from string", vocabulary.XSDInteger, "12", int64(12), false},
		{"double passes", vocabulary.XSDDouble, 3.14, 3.14, false},
		{"double from int", vocabulary.XSDDouble, 3, float64(3), false},
		{"iri reference passes", vocabulary.IDType, "http://example.org/other", "http://example.org/other", false},
		{"non-iri reference fails", vocabulary.IDType, "not an iri", nil, true},
		{"unknown datatype string passthrough", "http://example.org/custom", "opaque", "opaque", false},
		{"unknown datatype non-string fails", "http://example.org/custom", 42, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.CheckWrite(atomicDef(tt.datatype), tt.in, false)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, errors.ErrTypeMismatch), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckWriteDateTime(t *testing.T) {
	v := NewValidator()
	def := atomicDef(vocabulary.XSDDateTime)

	got, err := v.CheckWrite(def, "2026-08-29T10:30:00Z", false)
	require.NoError(t, err)
	want, _ := time.Parse(time.RFC3339, "2026-08-29T10:30:00Z")
	assert.Equal(t, want, got)

	_, err = v.CheckWrite(def, "yesterday", false)
	require.Error(t, err)
}

func TestCheckWriteReadOnly(t *testing.T) {
	v := NewValidator()
	def := atomicDef(vocabulary.XSDString)
	def.ReadOnly = true

	// Allowed before first save
	_, err := v.CheckWrite(def, "initial", false)
	require.NoError(t, err)

	// Rejected once persisted
	_, err = v.CheckWrite(def, "changed", true)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrReadOnly))
}

func TestCheckWriteNilClears(t *testing.T) {
	v := NewValidator()
	got, err := v.CheckWrite(atomicDef(vocabulary.XSDString), nil, true)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCheckWriteSet(t *testing.T) {
	v := NewValidator()
	def := AttributeDefinition{
		Name: "tags", Predicate: "http://example.org/tag",
		Kind: KindSet, Datatype: vocabulary.XSDString,
		Cardinality: &Cardinality{Min: 1, Max: 3},
	}

	got, err := v.CheckWrite(def, []any{"a", "b", "a"}, false)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, got, "duplicates collapse")

	_, err = v.CheckWrite(def, []any{"a", "b", "c", "d"}, false)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrCardinality))

	_, err = v.CheckWrite(def, []any{}, false)
	require.Error(t, err, "below minimum bound")

	_, err = v.CheckWrite(def, "scalar", false)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrTypeMismatch))
}

func TestCheckWriteList(t *testing.T) {
	v := NewValidator()
	def := AttributeDefinition{
		Name: "steps", Predicate: "http://example.org/step",
		Kind: KindList, Datatype: vocabulary.XSDString,
	}

	got, err := v.CheckWrite(def, []string{"b", "a", "b"}, false)
	require.NoError(t, err)
	assert.Equal(t, []any{"b", "a", "b"}, got, "lists keep order and duplicates")
}

func TestCheckWriteLangMap(t *testing.T) {
	v := NewValidator()
	def := AttributeDefinition{
		Name: "bio", Predicate: "http://example.org/bio", Kind: KindLangMap,
	}

	got, err := v.CheckWrite(def, map[string]string{"en": "Hello", "fr": "Bonjour"}, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"en": "Hello", "fr": "Bonjour"}, got)

	_, err = v.CheckWrite(def, map[string]string{"": "Hello"}, false)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrTypeMismatch), "empty tag is a type mismatch")

	_, err = v.CheckWrite(def, map[string]any{"en": 42}, false)
	require.Error(t, err)
}

func TestCheckRequired(t *testing.T) {
	v := NewValidator()
	def := atomicDef(vocabulary.XSDString)
	def.Required = true

	assert.Error(t, v.CheckRequired(def, nil))
	assert.Error(t, v.CheckRequired(def, []any{}))
	assert.Error(t, v.CheckRequired(def, map[string]string{}))
	assert.NoError(t, v.CheckRequired(def, "present"))

	def.Required = false
	assert.NoError(t, v.CheckRequired(def, nil))
}

func TestBuildAttributesMerge(t *testing.T) {
	ctx, err := ResolveContext([]byte(personContext))
	require.NoError(t, err)

	constraints := map[string]Constraint{
		"name":   {Required: true},
		"emails": {Cardinality: &Cardinality{Min: 1}},
		"steps":  {ReadOnly: true},
	}

	defs, err := BuildAttributes(ctx, constraints)
	require.NoError(t, err)
	require.Len(t, defs, 5)

	assert.True(t, defs[0].Required)
	assert.Equal(t, "name", defs[0].Name)
	require.NotNil(t, defs[1].Cardinality)
	assert.Equal(t, 1, defs[1].Cardinality.Min)
	assert.True(t, defs[2].ReadOnly)
}

func TestBuildAttributesErrors(t *testing.T) {
	ctx, err := ResolveContext([]byte(personContext))
	require.NoError(t, err)

	tests := []struct {
		name        string
		constraints map[string]Constraint
	}{
		{"unbound constraint", map[string]Constraint{"ghost": {Required: true}}},
		{"read-only and write-only", map[string]Constraint{"name": {ReadOnly: true, WriteOnly: true}}},
		{"datatype disagreement", map[string]Constraint{"name": {Datatype: "xsd:integer"}}},
		{"cardinality on atomic", map[string]Constraint{"name": {Cardinality: &Cardinality{Max: 2}}}},
		{"inverted bounds", map[string]Constraint{"emails": {Cardinality: &Cardinality{Min: 5, Max: 2}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildAttributes(ctx, tt.constraints)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrConstraintDef), "got %v", err)
		})
	}
}
