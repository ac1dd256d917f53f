// Package codegen writes Go functions that build documents for every root
// field of a schema, so callers get a typed entry point per operation.
package codegen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	gqlgenconfig "github.com/99designs/gqlgen/codegen/config"
	"github.com/99designs/gqlgen/codegen/templates"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/gqlgo/gqlselect/schema"
)

// Operation is one generated builder function.
type Operation struct {
	// Func is the Go name, e.g. QueryTodosAggregate.
	Func string
	// Op is the ast.Operation constant the builder passes on.
	Op string
	// Field is the root field name as declared in the schema.
	Field string
	// Type is the wire type of the root field.
	Type string
	// Arguments are "name: Type" pairs in declaration order.
	Arguments []string
}

var operationConsts = map[ast.Operation]string{
	ast.Query:        "Query",
	ast.Mutation:     "Mutation",
	ast.Subscription: "Subscription",
}

// Operations lists the builder functions for s, ordered by operation and
// then by field name. Introspection fields are skipped.
func Operations(s *schema.Schema) ([]*Operation, error) {
	var ops []*Operation
	seen := map[string]string{}

	for _, op := range []ast.Operation{ast.Query, ast.Mutation, ast.Subscription} {
		root, err := s.RootType(op)
		if err != nil {
			continue
		}

		fields := slices.Clone(root.Fields)
		slices.SortFunc(fields, func(a, b *ast.FieldDefinition) int {
			return strings.Compare(a.Name, b.Name)
		})

		for _, field := range fields {
			if strings.HasPrefix(field.Name, "__") {
				continue
			}

			name := templates.ToGo(string(op)) + templates.ToGo(field.Name)
			key := string(op) + "." + field.Name
			if other, ok := seen[name]; ok {
				return nil, fmt.Errorf("%s and %s both generate %s", other, key, name)
			}
			seen[name] = key

			args := make([]string, 0, len(field.Arguments))
			for _, arg := range field.Arguments {
				args = append(args, arg.Name+": "+schema.WireTypeString(arg.Type))
			}

			ops = append(ops, &Operation{
				Func:      name,
				Op:        operationConsts[op],
				Field:     field.Name,
				Type:      schema.WireTypeString(field.Type),
				Arguments: args,
			})
		}
	}

	return ops, nil
}

var fileTemplate = template.Must(template.New("builders").Funcs(template.FuncMap{"lower": strings.ToLower}).Parse(`// Code generated by gqlselect, DO NOT EDIT.

package {{ .Package }}

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/gqlgo/gqlselect/document"
	"github.com/gqlgo/gqlselect/schema"
	"github.com/gqlgo/gqlselect/selection"
)
{{ range .Operations }}
// {{ .Func }}Arguments are the arguments {{ .Field }} declares.
var {{ .Func }}Arguments = []string{ {{- range $i, $arg := .Arguments }}{{ if $i }}, {{ end }}{{ printf "%q" $arg }}{{ end -}} }

// {{ .Func }} builds a {{ .Op | lower }} on {{ .Field }}, which returns {{ .Type }}.
func {{ .Func }}(s *schema.Schema, spec *selection.Spec, opts ...document.Option) (*document.Document, error) {
	return document.Build(s, ast.{{ .Op }}, {{ printf "%q" .Field }}, spec, opts...)
}
{{ end -}}
`))

// Render returns the formatted source of the builders file for s.
func Render(s *schema.Schema, pkg string) ([]byte, error) {
	return render(s, pkg, pkg+".go")
}

func render(s *schema.Schema, pkg, filename string) ([]byte, error) {
	ops, err := Operations(s)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, struct {
		Package    string
		Operations []*Operation
	}{pkg, ops}); err != nil {
		return nil, fmt.Errorf("template failed: %w", err)
	}

	src, err := imports.Process(filename, buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("go imports: %w", err)
	}

	return src, nil
}

// Generate writes the builders file described by cfg.
func Generate(s *schema.Schema, cfg gqlgenconfig.PackageConfig) error {
	if err := cfg.Check(); err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	pkg := cfg.Package
	if pkg == "" {
		pkg = filepath.Base(filepath.Dir(cfg.Filename))
	}

	src, err := render(s, pkg, cfg.Filename)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(cfg.Filename, src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Filename, err)
	}

	return nil
}
