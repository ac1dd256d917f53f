// Package querybuilder turns a selection.Spec into a GraphQL selection set and
// the variables it needs, walking the schema at every step.
//
// Arguments at any depth are hoisted to operation variables. Each variable is
// named after the path of the field it belongs to, e.g. an argument "where" on
// the field reached through "nodes" then "user" becomes $nodes_user_where, so
// the same argument name at different depths never collides and results
// merge without renaming.
//
// Variables are declared in the order they are bound: those of type
// conditions first, then the arguments of the field itself, then those of its
// subfields. At the root this puts $on_users_todos_limit before $text.
package querybuilder

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/gqlgo/gqlselect/schema"
	"github.com/gqlgo/gqlselect/selection"
)

const typenameField = "__typename"

var (
	// ErrAbstractSelection is returned when an interface or union is selected
	// without anything that says which concrete types to read.
	ErrAbstractSelection = errors.New("abstract type selected without fragments")
	// ErrInvalidFragment is returned for type conditions that cannot apply: on a
	// leaf type, naming a leaf type, or naming a type that never overlaps the parent.
	ErrInvalidFragment = errors.New("invalid fragment")
	// ErrVariableCollision is returned when two paths produce the same variable name.
	ErrVariableCollision = errors.New("variable name collision")
)

// Result is the output of one Build call.
type Result struct {
	// Arguments references variables for the arguments of the field the
	// selection was built for.
	Arguments ast.ArgumentList
	// SelectionSet is nil for scalar and enum types.
	SelectionSet ast.SelectionSet
	// Variables lists the declared variables in the order they were bound.
	Variables ast.VariableDefinitionList
	// Values maps variable names to the values sent along with the document.
	Values map[string]any
}

// WireTypes returns the declared type of every variable as written in the document.
func (r *Result) WireTypes() map[string]string {
	types := make(map[string]string, len(r.Variables))
	for _, v := range r.Variables {
		types[v.Variable] = schema.WireTypeString(v.Type)
	}

	return types
}

type Option func(*builder)

// WithStrict makes selecting a field the type does not declare an error
// instead of dropping it.
func WithStrict() Option {
	return func(b *builder) {
		b.strict = true
	}
}

type builder struct {
	schema *schema.Schema
	strict bool
}

// Build builds spec against field. Arguments in spec are bound to field and
// every variable name is prefixed with prefix; an empty prefix is used for
// root fields.
func Build(s *schema.Schema, spec *selection.Spec, field *ast.FieldDefinition, prefix string, opts ...Option) (*Result, error) {
	if field == nil {
		return nil, errors.New("querybuilder: nil field definition")
	}

	return newBuilder(s, opts).build(spec, field, field.Type, prefix)
}

// BuildType builds spec against a type that is not reached through a field,
// such as the target of a type condition. Variables in spec are ignored
// because there is no field to bind them to.
func BuildType(s *schema.Schema, spec *selection.Spec, typ *ast.Type, prefix string, opts ...Option) (*Result, error) {
	return newBuilder(s, opts).build(spec, nil, typ, prefix)
}

func newBuilder(s *schema.Schema, opts []Option) *builder {
	b := &builder{schema: s}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *builder) build(spec *selection.Spec, field *ast.FieldDefinition, typ *ast.Type, prefix string) (*Result, error) {
	def, err := b.schema.ConcreteType(typ)
	if err != nil {
		return nil, err
	}

	res := &Result{Values: map[string]any{}}

	if spec.HasFragments() {
		if !def.IsCompositeType() {
			return nil, fmt.Errorf("%w: %s %q has no fields to select on", ErrInvalidFragment, strings.ToLower(string(def.Kind)), def.Name)
		}
		if err := b.buildFragments(res, spec, def, prefix); err != nil {
			return nil, err
		}
	}

	if spec.HasVariables() && field != nil {
		for _, v := range spec.Variables {
			name := variableName(prefix, v.Name)
			argType, err := schema.ArgumentType(field, v.Name)
			if err != nil {
				return nil, err
			}
			if err := res.declare(name, argType, v.Value); err != nil {
				return nil, err
			}
			res.Arguments = append(res.Arguments, &ast.Argument{
				Name:  v.Name,
				Value: &ast.Value{Kind: ast.Variable, Raw: name},
			})
		}
	}

	if schema.IsAbstract(def) && !spec.HasFragments() && (def.Kind == ast.Union || !spec.HasFields()) {
		return nil, fmt.Errorf("%w: %s %q needs an \"on\" selection", ErrAbstractSelection, strings.ToLower(string(def.Kind)), def.Name)
	}

	if spec.HasFields() {
		if err := b.buildFields(res, spec, def, prefix); err != nil {
			return nil, err
		}
	} else if def.Kind == ast.Object {
		if err := b.defaultFields(res, def); err != nil {
			return nil, err
		}
	}

	// An empty selection set is not valid on a composite type.
	if def.IsCompositeType() && len(res.SelectionSet) == 0 {
		res.SelectionSet = append(res.SelectionSet, typename(def))
	}

	return res, nil
}

func (b *builder) buildFragments(res *Result, spec *selection.Spec, def *ast.Definition, prefix string) error {
	res.SelectionSet = append(res.SelectionSet, typename(def))

	for _, fragment := range spec.Fragments {
		fragmentDef := b.schema.Type(fragment.TypeName)
		if fragmentDef == nil {
			return fmt.Errorf("%w %q in fragment on %q", schema.ErrUnknownType, fragment.TypeName, def.Name)
		}
		if !fragmentDef.IsCompositeType() {
			return fmt.Errorf("%w: %s %q cannot be a type condition", ErrInvalidFragment, strings.ToLower(string(fragmentDef.Kind)), fragment.TypeName)
		}
		if !b.schema.Overlap(def, fragmentDef) {
			return fmt.Errorf("%w: fragment on %q can never match type %q", ErrInvalidFragment, fragment.TypeName, def.Name)
		}

		child, err := b.build(fragment.Spec, nil, ast.NamedType(fragment.TypeName, nil), variableName(prefix, "on_"+fragment.TypeName))
		if err != nil {
			return err
		}

		res.SelectionSet = append(res.SelectionSet, &ast.InlineFragment{
			TypeCondition:    fragment.TypeName,
			SelectionSet:     child.SelectionSet,
			ObjectDefinition: fragmentDef,
		})
		if err := res.merge(child); err != nil {
			return err
		}
	}

	return nil
}

func (b *builder) buildFields(res *Result, spec *selection.Spec, def *ast.Definition, prefix string) error {
	for _, f := range spec.Fields {
		fieldDef, ok := schema.FieldOrInputField(def, f.Name)
		if !ok {
			if f.Name == typenameField && def.IsCompositeType() {
				if !hasTypename(res.SelectionSet) {
					res.SelectionSet = append(res.SelectionSet, typename(def))
				}
				continue
			}
			if b.strict {
				return fmt.Errorf("%w %q on type %q", schema.ErrUnknownField, f.Name, def.Name)
			}
			continue
		}

		child, err := b.build(f.Spec, fieldDef, fieldDef.Type, variableName(prefix, f.Name))
		if err != nil {
			return err
		}

		res.SelectionSet = append(res.SelectionSet, &ast.Field{
			Alias:            f.Name,
			Name:             f.Name,
			Arguments:        child.Arguments,
			SelectionSet:     child.SelectionSet,
			Definition:       fieldDef,
			ObjectDefinition: def,
		})
		if err := res.merge(child); err != nil {
			return err
		}
	}

	return nil
}

// defaultFields selects the scalar and enum fields of an object. Composite
// fields are never followed, and fields that cannot be selected without an
// argument value are skipped.
func (b *builder) defaultFields(res *Result, def *ast.Definition) error {
	for _, fieldDef := range def.Fields {
		if strings.HasPrefix(fieldDef.Name, "__") || hasRequiredArguments(fieldDef) {
			continue
		}

		fieldType, err := b.schema.ConcreteType(fieldDef.Type)
		if err != nil {
			return err
		}
		if !schema.IsLeaf(fieldType) {
			continue
		}

		res.SelectionSet = append(res.SelectionSet, &ast.Field{
			Alias:            fieldDef.Name,
			Name:             fieldDef.Name,
			Definition:       fieldDef,
			ObjectDefinition: def,
		})
	}

	return nil
}

func (r *Result) declare(name string, typ *ast.Type, value any) error {
	if r.Variables.ForName(name) != nil {
		return fmt.Errorf("%w: $%s", ErrVariableCollision, name)
	}

	r.Variables = append(r.Variables, &ast.VariableDefinition{Variable: name, Type: typ})
	r.Values[name] = value

	return nil
}

func (r *Result) merge(child *Result) error {
	for _, v := range child.Variables {
		if r.Variables.ForName(v.Variable) != nil {
			return fmt.Errorf("%w: $%s", ErrVariableCollision, v.Variable)
		}
	}

	r.Variables = append(r.Variables, child.Variables...)
	maps.Copy(r.Values, child.Values)

	return nil
}

func variableName(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return prefix + "_" + name
}

func typename(def *ast.Definition) *ast.Field {
	return &ast.Field{
		Alias:            typenameField,
		Name:             typenameField,
		ObjectDefinition: def,
	}
}

func hasTypename(set ast.SelectionSet) bool {
	for _, sel := range set {
		if f, ok := sel.(*ast.Field); ok && f.Name == typenameField {
			return true
		}
	}

	return false
}

func hasRequiredArguments(field *ast.FieldDefinition) bool {
	for _, arg := range field.Arguments {
		if arg.Type.NonNull && arg.DefaultValue == nil {
			return true
		}
	}

	return false
}
