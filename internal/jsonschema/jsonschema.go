package jsonschema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/leofalp/fireai/providers/ai"
)

var timeType = reflect.TypeFor[time.Time]()

// GenerateSchema derives the response schema of T. It returns nil, nil when
// T places no constraint on the output (an interface type such as any).
//
// Struct fields follow encoding/json naming. A field is required unless it
// is a pointer or tagged omitempty; `jsonschema:"required"` forces it.
// Pointers become nullable. Recursive types are rejected with an
// invalid-schema error because the backend schema has no references.
func GenerateSchema[T any]() (*ai.Schema, error) {
	return generate(reflect.TypeFor[T](), map[reflect.Type]bool{})
}

// generate builds the schema of t. inProgress holds the struct types on the
// current path.
func generate(t reflect.Type, inProgress map[reflect.Type]bool) (*ai.Schema, error) {
	if t == timeType {
		return &ai.Schema{Type: ai.SchemaTypeString, Format: "date-time"}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return &ai.Schema{Type: ai.SchemaTypeString}, nil
	case reflect.Bool:
		return &ai.Schema{Type: ai.SchemaTypeBoolean}, nil
	case reflect.Float32:
		return &ai.Schema{Type: ai.SchemaTypeNumber, Format: "float"}, nil
	case reflect.Float64:
		return &ai.Schema{Type: ai.SchemaTypeNumber, Format: "double"}, nil
	case reflect.Int32, reflect.Uint32:
		return &ai.Schema{Type: ai.SchemaTypeInteger, Format: "int32"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint64:
		return &ai.Schema{Type: ai.SchemaTypeInteger}, nil

	case reflect.Pointer:
		schema, err := generate(t.Elem(), inProgress)
		if err != nil || schema == nil {
			return schema, err
		}
		schema.Nullable = true
		return schema, nil

	case reflect.Slice, reflect.Array:
		items, err := generate(t.Elem(), inProgress)
		if err != nil {
			return nil, err
		}
		if items == nil {
			return nil, ai.NewError(ai.ErrorCodeInvalidSchema, fmt.Sprintf("array element type %s has no schema", t.Elem()))
		}
		return &ai.Schema{Type: ai.SchemaTypeArray, Items: items}, nil

	case reflect.Map:
		// Free-form objects cannot be described further.
		return &ai.Schema{Type: ai.SchemaTypeObject}, nil

	case reflect.Struct:
		return generateStruct(t, inProgress)

	case reflect.Interface:
		return nil, nil

	default:
		return nil, ai.NewError(ai.ErrorCodeInvalidSchema, fmt.Sprintf("type %s cannot be described by a schema", t))
	}
}

func generateStruct(t reflect.Type, inProgress map[reflect.Type]bool) (*ai.Schema, error) {
	if inProgress[t] {
		return nil, ai.NewError(ai.ErrorCodeInvalidSchema, fmt.Sprintf("recursive type %s is not supported", t))
	}
	inProgress[t] = true
	defer delete(inProgress, t)

	schema := &ai.Schema{Type: ai.SchemaTypeObject, Properties: map[string]*ai.Schema{}}
	if err := addFields(schema, t, inProgress); err != nil {
		return nil, err
	}
	return schema, nil
}

// addFields adds the fields of t to schema, flattening embedded structs the
// way encoding/json does.
func addFields(schema *ai.Schema, t reflect.Type, inProgress map[reflect.Type]bool) error {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, omitEmpty, skip := jsonName(field)
		if skip {
			continue
		}

		if field.Anonymous && field.Tag.Get("json") == "" {
			embedded := field.Type
			if embedded.Kind() == reflect.Pointer {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				if err := addFields(schema, embedded, inProgress); err != nil {
					return err
				}
				continue
			}
		}
		if !field.IsExported() {
			continue
		}

		property, err := generate(field.Type, inProgress)
		if err != nil {
			return err
		}
		if property == nil {
			// Unconstrained fields are left out of the schema.
			continue
		}

		forcedRequired, err := applyTag(field, property)
		if err != nil {
			return err
		}

		schema.Properties[name] = property
		schema.PropertyOrdering = append(schema.PropertyOrdering, name)
		if forcedRequired || (field.Type.Kind() != reflect.Pointer && !omitEmpty) {
			schema.Required = append(schema.Required, name)
		}
	}
	return nil
}

func jsonName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name = field.Name
	if tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			name = parts[0]
		}
		for _, option := range parts[1:] {
			if option == "omitempty" || option == "omitzero" {
				omitEmpty = true
			}
		}
	}
	return name, omitEmpty, false
}

// applyTag applies the jsonschema struct tag to schema and reports whether
// the field is forced required. Supported keys, separated by ';':
//
//	description=text
//	enum=a|b|c        (string fields only)
//	format=date
//	minimum=0
//	maximum=10
//	required
//
// A description may contain commas; the separator is ';'.
func applyTag(field reflect.StructField, schema *ai.Schema) (bool, error) {
	tag := field.Tag.Get("jsonschema")
	if tag == "" {
		return false, nil
	}

	required := false
	for _, item := range strings.Split(tag, ";") {
		key, value, hasValue := strings.Cut(strings.TrimSpace(item), "=")
		switch {
		case key == "":
		case key == "required" && !hasValue:
			required = true
		case key == "description":
			schema.Description = value
		case key == "format":
			schema.Format = value
		case key == "enum":
			if schema.Type != ai.SchemaTypeString {
				return false, ai.NewError(ai.ErrorCodeInvalidSchema, fmt.Sprintf("enum on field %s requires a string type", field.Name))
			}
			schema.Enum = strings.Split(value, "|")
			schema.Format = "enum"
		case key == "minimum" || key == "maximum":
			bound, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return false, ai.WrapError(ai.ErrorCodeInvalidSchema, fmt.Sprintf("invalid %s on field %s", key, field.Name), err)
			}
			if key == "minimum" {
				schema.Minimum = &bound
			} else {
				schema.Maximum = &bound
			}
		default:
			return false, ai.NewError(ai.ErrorCodeInvalidSchema, fmt.Sprintf("unknown jsonschema tag key %q on field %s", key, field.Name))
		}
	}
	return required, nil
}
