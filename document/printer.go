package document

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/gqlgo/gqlselect/schema"
)

// printer writes single-line operation text. Output depends only on the order
// of its input lists, so the same build always prints the same bytes.
type printer struct {
	strings.Builder
}

func (p *printer) operation(op ast.Operation, name string, vars ast.VariableDefinitionList, root *ast.Field) {
	p.WriteString(string(op))
	if name != "" {
		p.WriteString(" ")
		p.WriteString(name)
	}

	if len(vars) > 0 {
		if name == "" {
			p.WriteString(" ")
		}
		p.WriteString("(")
		for i, v := range vars {
			if i > 0 {
				p.WriteString(", ")
			}
			p.WriteString("$")
			p.WriteString(v.Variable)
			p.WriteString(": ")
			p.WriteString(schema.WireTypeString(v.Type))
		}
		p.WriteString(")")
	}

	p.selectionSet(ast.SelectionSet{root})
}

func (p *printer) selectionSet(set ast.SelectionSet) {
	if len(set) == 0 {
		return
	}

	p.WriteString(" {")
	for _, sel := range set {
		p.WriteString(" ")
		switch sel := sel.(type) {
		case *ast.Field:
			p.field(sel)
		case *ast.InlineFragment:
			p.WriteString("... on ")
			p.WriteString(sel.TypeCondition)
			p.selectionSet(sel.SelectionSet)
		}
	}
	p.WriteString(" }")
}

func (p *printer) field(f *ast.Field) {
	if f.Alias != "" && f.Alias != f.Name {
		p.WriteString(f.Alias)
		p.WriteString(": ")
	}
	p.WriteString(f.Name)

	if len(f.Arguments) > 0 {
		p.WriteString("(")
		for i, arg := range f.Arguments {
			if i > 0 {
				p.WriteString(", ")
			}
			p.WriteString(arg.Name)
			p.WriteString(": ")
			p.WriteString(arg.Value.String())
		}
		p.WriteString(")")
	}

	p.selectionSet(f.SelectionSet)
}
