package ai

import (
	"fmt"
	"slices"
	"sort"
)

// Schema types accepted by the backend.
const (
	SchemaTypeString  = "string"
	SchemaTypeNumber  = "number"
	SchemaTypeInteger = "integer"
	SchemaTypeBoolean = "boolean"
	SchemaTypeArray   = "array"
	SchemaTypeObject  = "object"
)

// Schema is the OpenAPI subset used for response schemas and function
// parameters.
type Schema struct {
	// Type is one of the SchemaType* constants. Empty only when AnyOf is set.
	Type        string   `json:"type,omitempty"`
	Format      string   `json:"format,omitempty"`
	Description string   `json:"description,omitempty"`
	Title       string   `json:"title,omitempty"`
	Nullable    bool     `json:"nullable,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	// Items is the element schema of an array.
	Items    *Schema  `json:"items,omitempty"`
	MinItems *int     `json:"minItems,omitempty"`
	MaxItems *int     `json:"maxItems,omitempty"`
	Minimum  *float64 `json:"minimum,omitempty"`
	Maximum  *float64 `json:"maximum,omitempty"`
	// Properties of an object schema.
	Properties       map[string]*Schema `json:"properties,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
	Required         []string           `json:"required,omitempty"`
	AnyOf            []*Schema          `json:"anyOf,omitempty"`
}

// ObjectSchema builds an object schema in which every property is required
// except the ones listed in optional.
func ObjectSchema(properties map[string]*Schema, optional ...string) (*Schema, error) {
	for _, name := range optional {
		if _, ok := properties[name]; !ok {
			return nil, NewError(ErrorCodeInvalidSchema, fmt.Sprintf("Property %q specified in optionalProperties does not exist.", name))
		}
	}

	required := make([]string, 0, len(properties))
	for name := range properties {
		if !slices.Contains(optional, name) {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	return &Schema{Type: SchemaTypeObject, Properties: properties, Required: required}, nil
}

// Validate walks the schema and reports the first structural inconsistency
// as an invalid-schema error.
func (s *Schema) Validate() error {
	return s.validate("#")
}

func (s *Schema) validate(path string) error {
	if s == nil {
		return nil
	}

	switch s.Type {
	case "":
		if len(s.AnyOf) == 0 {
			return NewError(ErrorCodeInvalidSchema, fmt.Sprintf("schema at %s has no type", path))
		}
	case SchemaTypeString, SchemaTypeNumber, SchemaTypeInteger, SchemaTypeBoolean:
	case SchemaTypeArray:
		if s.Items == nil {
			return NewError(ErrorCodeInvalidSchema, fmt.Sprintf("array schema at %s has no items", path))
		}
		if err := s.Items.validate(path + "/items"); err != nil {
			return err
		}
	case SchemaTypeObject:
		for _, name := range s.Required {
			if _, ok := s.Properties[name]; !ok {
				return NewError(ErrorCodeInvalidSchema, fmt.Sprintf("required property %q is not declared at %s", name, path))
			}
		}
		for _, name := range s.PropertyOrdering {
			if _, ok := s.Properties[name]; !ok {
				return NewError(ErrorCodeInvalidSchema, fmt.Sprintf("ordered property %q is not declared at %s", name, path))
			}
		}
		for name, property := range s.Properties {
			if err := property.validate(path + "/properties/" + name); err != nil {
				return err
			}
		}
	default:
		return NewError(ErrorCodeInvalidSchema, fmt.Sprintf("unknown schema type %q at %s", s.Type, path))
	}

	for i, alternative := range s.AnyOf {
		if err := alternative.validate(fmt.Sprintf("%s/anyOf/%d", path, i)); err != nil {
			return err
		}
	}
	return nil
}
