package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/semmodel/errors"
)

// contextDocumentSchema structurally validates a raw context document
// before term resolution. Attribute names are free-form, so entries are
// constrained through additionalProperties.
const contextDocumentSchema = `{
	"type": "object",
	"properties": {
		"@prefixes": {
			"type": "object",
			"additionalProperties": {"type": "string", "minLength": 1}
		}
	},
	"additionalProperties": {
		"oneOf": [
			{"type": "string", "minLength": 1},
			{
				"type": "object",
				"properties": {
					"@id": {"type": "string", "minLength": 1},
					"@container": {"enum": ["@set", "@list", "@language"]},
					"@type": {"type": "string", "minLength": 1},
					"@language": {"type": "string", "minLength": 1}
				},
				"required": ["@id"],
				"additionalProperties": false
			}
		]
	}
}`

// constraintDocumentSchema structurally validates vocabulary-constraint
// metadata: one record per attribute name.
const constraintDocumentSchema = `{
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"required": {"type": "boolean"},
			"readOnly": {"type": "boolean"},
			"writeOnly": {"type": "boolean"},
			"datatype": {"type": "string", "minLength": 1},
			"cardinality": {
				"type": "object",
				"properties": {
					"min": {"type": "integer", "minimum": 0},
					"max": {"type": "integer", "minimum": 0}
				},
				"additionalProperties": false
			}
		},
		"additionalProperties": false
	}
}`

// ValidateContextDocument checks the structure of a raw context document
// against the embedded JSON Schema. Returns nil for valid documents.
func ValidateContextDocument(raw []byte) error {
	return validateDocument(raw, contextDocumentSchema, errors.ErrContextParse,
		"ContextResolver", "context document")
}

// ValidateConstraintDocument checks the structure of raw
// vocabulary-constraint metadata against the embedded JSON Schema.
func ValidateConstraintDocument(raw []byte) error {
	return validateDocument(raw, constraintDocumentSchema, errors.ErrConstraintDef,
		"SchemaValidator", "constraint document")
}

func validateDocument(raw []byte, schemaJSON string, sentinel error, component, what string) error {
	if len(raw) == 0 {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%s: %v: %w", what, err, sentinel),
			component, "ValidateDocument", "schema evaluation")
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		details = append(details, resultErr.String())
	}
	return errors.WrapInvalid(
		fmt.Errorf("%s: %s: %w", what, strings.Join(details, "; "), sentinel),
		component, "ValidateDocument", "structural validation")
}
