// Package document assembles complete GraphQL operations from a root field and
// a selection.Spec.
//
// The text is printed on one line with a fixed layout:
//
//	query ($id: uuid!) { todo(id: $id) { id } }
//
// and can be parsed, validated or pretty printed with gqlparser when a
// transport needs more than the raw text.
package document

import (
	"bytes"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/gqlgo/gqlselect/client"
	"github.com/gqlgo/gqlselect/querybuilder"
	"github.com/gqlgo/gqlselect/schema"
	"github.com/gqlgo/gqlselect/selection"
)

// Document is a built operation together with the values of its variables.
type Document struct {
	Operation ast.Operation
	Name      string
	RootField string
	Text      string
	// Variables holds the value of every declared variable, nil values included.
	Variables map[string]any
	// VariableTypes lists the declarations in the order they appear in Text.
	VariableTypes ast.VariableDefinitionList
	// Query is set by Parse, Validate or the WithParse option.
	Query *ast.QueryDocument
}

type Option func(*options)

type options struct {
	name    string
	parse   bool
	builder []querybuilder.Option
}

// WithOperationName names the operation.
func WithOperationName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithStrict rejects selected fields the schema does not declare.
func WithStrict() Option {
	return func(o *options) {
		o.builder = append(o.builder, querybuilder.WithStrict())
	}
}

// WithParse parses the text into Document.Query as part of Build.
func WithParse() Option {
	return func(o *options) {
		o.parse = true
	}
}

// Build resolves rootField on the root type of op and builds spec against it.
func Build(s *schema.Schema, op ast.Operation, rootField string, spec *selection.Spec, opts ...Option) (*Document, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	field, err := s.RootOperationField(op, rootField)
	if err != nil {
		return nil, err
	}

	res, err := querybuilder.Build(s, spec, field, "", o.builder...)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", op, rootField, err)
	}

	root := &ast.Field{
		Alias:        rootField,
		Name:         rootField,
		Arguments:    res.Arguments,
		SelectionSet: res.SelectionSet,
		Definition:   field,
	}

	var p printer
	p.operation(op, o.name, res.Variables, root)

	doc := &Document{
		Operation:     op,
		Name:          o.name,
		RootField:     rootField,
		Text:          p.String(),
		Variables:     res.Values,
		VariableTypes: res.Variables,
	}

	if o.parse {
		if err := doc.Parse(); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// Parse parses Text into Query.
func (d *Document) Parse() error {
	q, err := parser.ParseQuery(&ast.Source{Name: d.sourceName(), Input: d.Text})
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	d.Query = q

	return nil
}

// Validate checks Text against s with the standard validation rules and
// stores the validated document in Query. The returned error is a
// gqlerror.List.
func (d *Document) Validate(s *schema.Schema) error {
	q, errs := gqlparser.LoadQuery(s.AST(), d.Text)
	if len(errs) > 0 {
		return errs
	}
	d.Query = q

	return nil
}

// Pretty returns the operation formatted over multiple lines.
func (d *Document) Pretty() (string, error) {
	if d.Query == nil {
		if err := d.Parse(); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf, formatter.WithIndent("  ")).FormatQueryDocument(d.Query)

	return buf.String(), nil
}

// Payload returns the request body for a GraphQL-over-HTTP POST.
func (d *Document) Payload() client.Request {
	return client.Request{
		OperationName: d.Name,
		Query:         d.Text,
		Variables:     d.Variables,
	}
}

// MarshalJSON encodes the request payload with sorted variable keys.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Payload(), json.Deterministic(true))
}

func (d *Document) sourceName() string {
	if d.Name != "" {
		return d.Name
	}

	return d.RootField
}
