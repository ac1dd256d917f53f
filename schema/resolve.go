package schema

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

// ConcreteType strips list and non-null wrappers from t and returns the
// definition of the named type from the schema, not the reference itself, so
// the caller sees the complete field and interface lists.
func (s *Schema) ConcreteType(t *ast.Type) (*ast.Definition, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type reference", ErrUnknownType)
	}

	name := t.Name()
	def := s.schema.Types[name]
	if def == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, name)
	}

	return def, nil
}

// FieldOrInputField looks up a field on an object or interface, or an input
// field on an input object. A miss is reported with false, never as an error.
func FieldOrInputField(def *ast.Definition, name string) (*ast.FieldDefinition, bool) {
	if def == nil {
		return nil, false
	}

	switch def.Kind {
	case ast.Object, ast.Interface, ast.InputObject:
		field := def.Fields.ForName(name)
		return field, field != nil
	default:
		return nil, false
	}
}

// ArgumentType returns the declared type of the named argument of field.
func ArgumentType(field *ast.FieldDefinition, name string) (*ast.Type, error) {
	if field == nil {
		return nil, fmt.Errorf("%w %q: no field definition to declare it", ErrUnknownArgument, name)
	}

	arg := field.Arguments.ForName(name)
	if arg == nil {
		return nil, fmt.Errorf("%w %q on field %q", ErrUnknownArgument, name, field.Name)
	}

	return arg.Type, nil
}

// WireTypeString renders t the way it is written in a variable declaration,
// e.g. "[todos_order_by!]" or "uuid!".
func WireTypeString(t *ast.Type) string {
	var s string
	if t.NamedType != "" {
		s = t.NamedType
	} else {
		s = "[" + WireTypeString(t.Elem) + "]"
	}

	if t.NonNull {
		s += "!"
	}

	return s
}

// RootOperationField looks up an entry point field on the root type of op.
func (s *Schema) RootOperationField(op ast.Operation, name string) (*ast.FieldDefinition, error) {
	root, err := s.RootType(op)
	if err != nil {
		return nil, err
	}

	field := root.Fields.ForName(name)
	if field == nil {
		return nil, fmt.Errorf("%w %q on %s type %q", ErrUnknownField, name, op, root.Name)
	}

	return field, nil
}

// IsLeaf reports whether def is a scalar or an enum.
func IsLeaf(def *ast.Definition) bool {
	return def != nil && def.IsLeafType()
}

// IsAbstract reports whether def is an interface or a union.
func IsAbstract(def *ast.Definition) bool {
	return def != nil && def.IsAbstractType()
}
