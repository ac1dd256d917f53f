package introspection

import (
	"maps"
	"slices"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// FromSchema renders a validated schema as an introspection payload, the shape
// a server would answer the Introspection query with. Types and directives are
// sorted by name so snapshots are stable.
func FromSchema(schema *ast.Schema) Query {
	var q Query

	q.Schema.QueryType = operationType(schema.Query)
	q.Schema.MutationType = operationType(schema.Mutation)
	q.Schema.SubscriptionType = operationType(schema.Subscription)

	for _, name := range slices.Sorted(maps.Keys(schema.Types)) {
		q.Schema.Types = append(q.Schema.Types, fullType(schema, schema.Types[name]))
	}

	for _, name := range slices.Sorted(maps.Keys(schema.Directives)) {
		d := schema.Directives[name]
		locations := make([]string, 0, len(d.Locations))
		for _, location := range d.Locations {
			locations = append(locations, string(location))
		}
		q.Schema.Directives = append(q.Schema.Directives, &DirectiveType{
			Name:         d.Name,
			Description:  optionalString(d.Description),
			Locations:    locations,
			Args:         inputValues(schema, d.Arguments),
			IsRepeatable: d.IsRepeatable,
		})
	}

	return q
}

func fullType(schema *ast.Schema, def *ast.Definition) *FullType {
	t := &FullType{
		Kind:        TypeKind(def.Kind),
		Name:        &def.Name,
		Description: optionalString(def.Description),
	}

	switch def.Kind {
	case ast.Object, ast.Interface:
		for _, field := range def.Fields {
			// __schema and __type are meta fields added by the validator.
			if strings.HasPrefix(field.Name, "__") {
				continue
			}
			reason, deprecated := deprecation(field.Directives)
			t.Fields = append(t.Fields, &FieldValue{
				Name:              field.Name,
				Description:       optionalString(field.Description),
				Args:              inputValues(schema, field.Arguments),
				Type:              *typeRef(schema, field.Type),
				IsDeprecated:      deprecated,
				DeprecationReason: reason,
			})
		}
		for _, intf := range def.Interfaces {
			t.Interfaces = append(t.Interfaces, namedRef(schema, intf))
		}
		if def.Kind == ast.Interface {
			var names []string
			for _, possible := range schema.GetPossibleTypes(def) {
				names = append(names, possible.Name)
			}
			slices.Sort(names)
			for _, name := range names {
				t.PossibleTypes = append(t.PossibleTypes, namedRef(schema, name))
			}
		}
	case ast.Union:
		for _, member := range def.Types {
			t.PossibleTypes = append(t.PossibleTypes, namedRef(schema, member))
		}
	case ast.Enum:
		for _, value := range def.EnumValues {
			reason, deprecated := deprecation(value.Directives)
			t.EnumValues = append(t.EnumValues, &EnumValue{
				Name:              value.Name,
				Description:       optionalString(value.Description),
				IsDeprecated:      deprecated,
				DeprecationReason: reason,
			})
		}
	case ast.InputObject:
		for _, field := range def.Fields {
			t.InputFields = append(t.InputFields, &InputValue{
				Name:         field.Name,
				Description:  optionalString(field.Description),
				Type:         *typeRef(schema, field.Type),
				DefaultValue: valueString(field.DefaultValue),
			})
		}
	}

	return t
}

func inputValues(schema *ast.Schema, args ast.ArgumentDefinitionList) []*InputValue {
	values := make([]*InputValue, 0, len(args))
	for _, arg := range args {
		values = append(values, &InputValue{
			Name:         arg.Name,
			Description:  optionalString(arg.Description),
			Type:         *typeRef(schema, arg.Type),
			DefaultValue: valueString(arg.DefaultValue),
		})
	}

	return values
}

func typeRef(schema *ast.Schema, t *ast.Type) *TypeRef {
	var ref *TypeRef
	if t.NamedType != "" {
		ref = namedRef(schema, t.NamedType)
	} else {
		ref = &TypeRef{Kind: TypeKindList, OfType: typeRef(schema, t.Elem)}
	}

	if t.NonNull {
		return &TypeRef{Kind: TypeKindNonNull, OfType: ref}
	}

	return ref
}

func namedRef(schema *ast.Schema, name string) *TypeRef {
	ref := &TypeRef{Name: &name}
	if def := schema.Types[name]; def != nil {
		ref.Kind = TypeKind(def.Kind)
	}

	return ref
}

func operationType(def *ast.Definition) *OperationType {
	if def == nil {
		return nil
	}

	return &OperationType{Name: &def.Name}
}

func deprecation(directives ast.DirectiveList) (*string, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return nil, false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		reason := arg.Value.Raw
		return &reason, true
	}

	return nil, true
}

func valueString(v *ast.Value) *string {
	if v == nil {
		return nil
	}
	s := v.String()

	return &s
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
