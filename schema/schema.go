// Package schema holds the read-only type graph a query is built against and
// the lookups used to walk it.
//
// A Schema wraps a validated *ast.Schema. Types are stored in a table keyed by
// name and every type reference only carries names, so self-referencing and
// mutually recursive types never require more than a map lookup to follow.
// A Schema is never mutated after it is loaded and may be shared by any number
// of goroutines. Reloading means building a new Schema and swapping the pointer.
package schema

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

var (
	// ErrNoRootType is returned when the schema has no root type for an operation.
	ErrNoRootType = errors.New("no root type for operation")
	// ErrUnknownType is returned when a type reference names a type the schema does not define.
	ErrUnknownType = errors.New("unknown type")
	// ErrUnknownField is returned when a field is looked up on a type that does not declare it.
	ErrUnknownField = errors.New("unknown field")
	// ErrUnknownArgument is returned when an argument is not declared on its field.
	ErrUnknownArgument = errors.New("unknown argument")
)

type Schema struct {
	schema *ast.Schema
}

// New wraps an already validated schema.
func New(s *ast.Schema) *Schema {
	return &Schema{schema: s}
}

// AST returns the underlying gqlparser schema. Callers must not modify it.
func (s *Schema) AST() *ast.Schema {
	return s.schema
}

// Type returns the named type definition, or nil.
func (s *Schema) Type(name string) *ast.Definition {
	return s.schema.Types[name]
}

// RootType returns the root object type for the given operation.
func (s *Schema) RootType(op ast.Operation) (*ast.Definition, error) {
	var def *ast.Definition
	switch op {
	case ast.Query:
		def = s.schema.Query
	case ast.Mutation:
		def = s.schema.Mutation
	case ast.Subscription:
		def = s.schema.Subscription
	default:
		return nil, fmt.Errorf("%w: invalid operation %q", ErrNoRootType, op)
	}

	if def == nil {
		return nil, fmt.Errorf("%w: schema does not define a %s type", ErrNoRootType, op)
	}

	return def, nil
}

// PossibleTypes returns the object types an interface or union can resolve to.
func (s *Schema) PossibleTypes(def *ast.Definition) []*ast.Definition {
	return s.schema.GetPossibleTypes(def)
}

// Overlap reports whether a value of type a can also be of type b, which is
// what a type condition b needs to be valid inside a selection on a.
func (s *Schema) Overlap(a, b *ast.Definition) bool {
	if a.Name == b.Name {
		return true
	}

	for _, x := range s.objectTypes(a) {
		for _, y := range s.objectTypes(b) {
			if x == y {
				return true
			}
		}
	}

	return false
}

func (s *Schema) objectTypes(def *ast.Definition) []string {
	if !IsAbstract(def) {
		return []string{def.Name}
	}

	var names []string
	for _, t := range s.PossibleTypes(def) {
		names = append(names, t.Name)
	}

	return names
}
