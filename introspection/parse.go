package introspection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// SchemaFromIntrospection converts an introspection payload into a schema
// document. The document still has to go through validator.ValidateSchemaDocument
// to become an *ast.Schema. name is recorded as the source of every definition.
func SchemaFromIntrospection(name string, query Query) (*ast.SchemaDocument, error) {
	p := schemaParser{
		position: &ast.Position{Src: &ast.Source{Name: name}},
	}

	return p.parseSchema(query.Schema)
}

type schemaParser struct {
	position *ast.Position
}

func (p schemaParser) parseSchema(s Schema) (*ast.SchemaDocument, error) {
	doc := &ast.SchemaDocument{Position: p.position}

	var operationTypes ast.OperationTypeDefinitionList
	for _, root := range []struct {
		operation ast.Operation
		typ       *OperationType
	}{
		{ast.Query, s.QueryType},
		{ast.Mutation, s.MutationType},
		{ast.Subscription, s.SubscriptionType},
	} {
		if root.typ == nil || root.typ.Name == nil || *root.typ.Name == "" {
			continue
		}
		operationTypes = append(operationTypes, &ast.OperationTypeDefinition{
			Operation: root.operation,
			Type:      *root.typ.Name,
			Position:  p.position,
		})
	}
	if len(operationTypes) > 0 {
		doc.Schema = append(doc.Schema, &ast.SchemaDefinition{
			OperationTypes: operationTypes,
			Position:       p.position,
		})
	}

	for _, typ := range s.Types {
		def, err := p.parseDefinition(typ)
		if err != nil {
			return nil, err
		}
		doc.Definitions = append(doc.Definitions, def)
	}

	for _, directive := range s.Directives {
		def, err := p.parseDirective(directive)
		if err != nil {
			return nil, fmt.Errorf("directive @%s: %w", directive.Name, err)
		}
		doc.Directives = append(doc.Directives, def)
	}

	return doc, nil
}

func (p schemaParser) parseDefinition(typ *FullType) (*ast.Definition, error) {
	if typ == nil || typ.Name == nil || *typ.Name == "" {
		return nil, errors.New("introspection type without a name")
	}
	name := *typ.Name

	def := &ast.Definition{
		Name:        name,
		Description: pointerString(typ.Description),
		Position:    p.position,
		BuiltIn:     isBuiltIn(name),
	}

	switch typ.Kind {
	case TypeKindScalar:
		def.Kind = ast.Scalar
	case TypeKindEnum:
		def.Kind = ast.Enum
		for _, value := range typ.EnumValues {
			def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
				Name:        value.Name,
				Description: pointerString(value.Description),
				Position:    p.position,
			})
		}
	case TypeKindObject, TypeKindInterface:
		def.Kind = ast.Object
		if typ.Kind == TypeKindInterface {
			def.Kind = ast.Interface
		}
		for _, field := range typ.Fields {
			f, err := p.parseField(field)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, field.Name, err)
			}
			def.Fields = append(def.Fields, f)
		}
		for _, intf := range typ.Interfaces {
			def.Interfaces = append(def.Interfaces, pointerString(intf.Name))
		}
	case TypeKindUnion:
		def.Kind = ast.Union
		for _, member := range typ.PossibleTypes {
			def.Types = append(def.Types, pointerString(member.Name))
		}
	case TypeKindInputObject:
		def.Kind = ast.InputObject
		for _, input := range typ.InputFields {
			f, err := p.parseInputField(input)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, input.Name, err)
			}
			def.Fields = append(def.Fields, f)
		}
	default:
		return nil, fmt.Errorf("type %s has unsupported kind %q", name, typ.Kind)
	}

	return def, nil
}

func (p schemaParser) parseField(field *FieldValue) (*ast.FieldDefinition, error) {
	typ, err := p.parseTypeRef(&field.Type)
	if err != nil {
		return nil, err
	}

	args, err := p.parseArguments(field.Args)
	if err != nil {
		return nil, err
	}

	return &ast.FieldDefinition{
		Name:        field.Name,
		Description: pointerString(field.Description),
		Arguments:   args,
		Type:        typ,
		Position:    p.position,
	}, nil
}

func (p schemaParser) parseInputField(input *InputValue) (*ast.FieldDefinition, error) {
	typ, err := p.parseTypeRef(&input.Type)
	if err != nil {
		return nil, err
	}

	defaultValue, err := parseDefaultValue(input.DefaultValue)
	if err != nil {
		return nil, err
	}

	return &ast.FieldDefinition{
		Name:         input.Name,
		Description:  pointerString(input.Description),
		DefaultValue: defaultValue,
		Type:         typ,
		Position:     p.position,
	}, nil
}

func (p schemaParser) parseArguments(inputs []*InputValue) (ast.ArgumentDefinitionList, error) {
	var args ast.ArgumentDefinitionList
	for _, input := range inputs {
		typ, err := p.parseTypeRef(&input.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", input.Name, err)
		}

		defaultValue, err := parseDefaultValue(input.DefaultValue)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", input.Name, err)
		}

		args = append(args, &ast.ArgumentDefinition{
			Name:         input.Name,
			Description:  pointerString(input.Description),
			DefaultValue: defaultValue,
			Type:         typ,
			Position:     p.position,
		})
	}

	return args, nil
}

func (p schemaParser) parseDirective(directive *DirectiveType) (*ast.DirectiveDefinition, error) {
	args, err := p.parseArguments(directive.Args)
	if err != nil {
		return nil, err
	}

	locations := make([]ast.DirectiveLocation, 0, len(directive.Locations))
	for _, location := range directive.Locations {
		locations = append(locations, ast.DirectiveLocation(location))
	}

	return &ast.DirectiveDefinition{
		Name:         directive.Name,
		Description:  pointerString(directive.Description),
		Arguments:    args,
		Locations:    locations,
		IsRepeatable: directive.IsRepeatable,
		Position:     p.position,
	}, nil
}

func (p schemaParser) parseTypeRef(ref *TypeRef) (*ast.Type, error) {
	if ref == nil {
		return nil, errors.New("missing type reference")
	}

	switch ref.Kind {
	case TypeKindList:
		if ref.OfType == nil {
			return nil, errors.New("LIST type reference without ofType")
		}
		elem, err := p.parseTypeRef(ref.OfType)
		if err != nil {
			return nil, err
		}

		return ast.ListType(elem, p.position), nil
	case TypeKindNonNull:
		if ref.OfType == nil {
			return nil, errors.New("NON_NULL type reference without ofType")
		}
		if ref.OfType.Kind == TypeKindNonNull {
			return nil, errors.New("NON_NULL type reference wraps another NON_NULL")
		}
		inner, err := p.parseTypeRef(ref.OfType)
		if err != nil {
			return nil, err
		}
		inner.NonNull = true

		return inner, nil
	default:
		if ref.Name == nil || *ref.Name == "" {
			return nil, fmt.Errorf("%s type reference without a name", ref.Kind)
		}

		return ast.NamedType(*ref.Name, p.position), nil
	}
}

// parseDefaultValue reads a default value literal as printed by introspection,
// e.g. `10`, `"asc"` or `{limit: 5}`, by parsing it as a variable default.
func parseDefaultValue(literal *string) (*ast.Value, error) {
	if literal == nil {
		return nil, nil
	}

	doc, err := parser.ParseQuery(&ast.Source{
		Name:  "defaultValue",
		Input: "query ($v: Boolean = " + *literal + ") { __typename }",
	})
	if err != nil {
		return nil, fmt.Errorf("invalid default value %q: %w", *literal, err)
	}

	return doc.Operations[0].VariableDefinitions[0].DefaultValue, nil
}

var builtInScalars = map[string]bool{
	"String":  true,
	"Int":     true,
	"Float":   true,
	"Boolean": true,
	"ID":      true,
}

func isBuiltIn(name string) bool {
	return strings.HasPrefix(name, "__") || builtInScalars[name]
}

func pointerString(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
