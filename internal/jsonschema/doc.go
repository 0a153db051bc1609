// Package jsonschema derives response schemas ([ai.Schema]) from Go types
// using reflection.
//
// It supports structs (embedded structs are flattened), primitives, slices,
// arrays, pointers (nullable) and time.Time. Maps become free-form objects.
// Recursive types are rejected: the backend's OpenAPI subset has no
// references.
//
// The entry point is [GenerateSchema], which works from the type parameter
// alone without a runtime value.
package jsonschema
