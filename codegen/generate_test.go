package codegen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	gqlast "github.com/vektah/gqlparser/v2/ast"

	gqlgenconfig "github.com/99designs/gqlgen/codegen/config"

	"github.com/gqlgo/gqlselect/schema"
)

func loadSchema(t *testing.T) *schema.Schema {
	t.Helper()

	s, err := schema.LoadSDL("../testdata/schema/todos.graphql")
	if err != nil {
		t.Fatalf("LoadSDL() error = %v", err)
	}

	return s
}

func TestOperations(t *testing.T) {
	t.Parallel()

	ops, err := Operations(loadSchema(t))
	if err != nil {
		t.Fatalf("Operations() error = %v", err)
	}

	var names []string
	for _, op := range ops {
		names = append(names, op.Func)
	}
	want := []string{
		"QueryNode",
		"QuerySearch",
		"QueryTodo",
		"QueryTodos",
		"QueryTodosAggregate",
		"QueryUser",
		"MutationDeleteTodos",
		"MutationInsertTodosOne",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Operations() names mismatch (-want +got):\n%s", diff)
	}

	todos := ops[3]
	wantTodos := &Operation{
		Func:  "QueryTodos",
		Op:    "Query",
		Field: "todos",
		Type:  "[todos!]!",
		Arguments: []string{
			"limit: Int",
			"offset: Int",
			"where: todos_bool_exp",
			"order_by: [todos_order_by!]",
		},
	}
	if diff := cmp.Diff(wantTodos, todos); diff != "" {
		t.Errorf("todos operation mismatch (-want +got):\n%s", diff)
	}
}

func TestOperationsNameClash(t *testing.T) {
	t.Parallel()

	s, err := schema.LoadSources(&gqlast.Source{Name: "clash.graphql", Input: `
type Query {
  todo_list: [String!]!
  todoList: [String!]!
}
`})
	if err != nil {
		t.Fatal(err)
	}

	_, err = Operations(s)
	if err == nil || !strings.Contains(err.Error(), "both generate QueryTodoList") {
		t.Errorf("Operations() error = %v", err)
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	src, err := Render(loadSchema(t), "todosapi")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.HasPrefix(string(src), "// Code generated by gqlselect, DO NOT EDIT.\n") {
		t.Errorf("missing generated header:\n%s", src)
	}

	file, err := parser.ParseFile(token.NewFileSet(), "todosapi.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated source does not parse: %v\n%s", err, src)
	}
	if file.Name.Name != "todosapi" {
		t.Errorf("package = %s", file.Name.Name)
	}

	funcs := map[string]bool{}
	vars := map[string]bool{}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			funcs[d.Name.Name] = true
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				if vs, ok := spec.(*ast.ValueSpec); ok {
					for _, name := range vs.Names {
						vars[name.Name] = true
					}
				}
			}
		}
	}

	for _, name := range []string{"QueryTodo", "QueryTodosAggregate", "MutationInsertTodosOne"} {
		if !funcs[name] {
			t.Errorf("function %s not generated", name)
		}
		if !vars[name+"Arguments"] {
			t.Errorf("variable %sArguments not generated", name)
		}
	}

	for _, want := range []string{
		`return document.Build(s, ast.Mutation, "insert_todos_one", spec, opts...)`,
		`var QueryTodoArguments = []string{"id: uuid!"}`,
		`var QuerySearchArguments = []string{"text: String!"}`,
		"// QueryTodo builds a query on todo, which returns todos.",
	} {
		if !strings.Contains(string(src), want) {
			t.Errorf("generated source lacks %q:\n%s", want, src)
		}
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	s := loadSchema(t)
	filename := filepath.Join(t.TempDir(), "gen", "builders.go")

	if err := Generate(s, gqlgenconfig.PackageConfig{Filename: filename}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	got, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("read generated file: %v", err)
	}
	want, err := Render(s, "gen")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(string(want), string(got)); diff != "" {
		t.Errorf("generated file mismatch (-want +got):\n%s", diff)
	}

	err = Generate(s, gqlgenconfig.PackageConfig{Filename: filepath.Join(t.TempDir(), "builders.txt")})
	if err == nil || !strings.HasPrefix(err.Error(), "generate: ") {
		t.Errorf("Generate(non-go filename) error = %v", err)
	}
}
