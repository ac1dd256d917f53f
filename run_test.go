package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const todosSchema = "testdata/schema/todos.graphql"

func TestRunBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{
			name: "default projection",
			args: []string{"build", "-schema", todosSchema, "-field", "todos"},
			want: "query { todos { id contents done priority createdAt userId } }\n",
		},
		{
			name: "json spec",
			args: []string{"build", "-schema", todosSchema, "-field", "todos", "-spec", "testdata/spec/todos.json", "-name", "GetTodos"},
			want: "query GetTodos($limit: Int) { todos(limit: $limit) { id contents user { email } } }\n",
		},
		{
			name: "yaml spec with fragments",
			args: []string{"build", "-schema", todosSchema, "-field", "search", "-spec", "testdata/spec/search.yaml", "-validate"},
			want: "query ($text: String!) { search(text: $text) { __typename ... on todos { contents } ... on users { email } } }\n",
		},
		{
			name:  "spec on stdin",
			args:  []string{"build", "-schema", todosSchema, "-field", "todos", "-spec", "-"},
			stdin: `{"select": {"id": true, "done": true}}`,
			want:  "query { todos { id done } }\n",
		},
		{
			name: "unknown fields are dropped",
			args: []string{"build", "-schema", todosSchema, "-field", "todos", "-spec", "testdata/spec/unknown_field.json"},
			want: "query { todos { id } }\n",
		},
		{
			name: "json payload",
			args: []string{"build", "-schema", todosSchema, "-field", "todos", "-spec", "testdata/spec/todos.json", "-name", "GetTodos", "-format", "json"},
			want: `{"operationName":"GetTodos","query":"query GetTodos($limit: Int) { todos(limit: $limit) { id contents user { email } } }","variables":{"limit":2}}` + "\n",
		},
		{
			name:  "json payload keeps wide integers",
			args:  []string{"build", "-schema", todosSchema, "-field", "todo", "-spec", "-", "-format", "json"},
			stdin: `{"variables": {"id": 9007199254740993}, "select": {"id": true}}`,
			want:  `{"query":"query ($id: uuid!) { todo(id: $id) { id } }","variables":{"id":9007199254740993}}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout bytes.Buffer
			if err := run(context.Background(), "", tt.args, strings.NewReader(tt.stdin), &stdout); err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, stdout.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunBuildPretty(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	err := run(context.Background(), "",
		[]string{"build", "-schema", todosSchema, "-op", "mutation", "-field", "insert_todos_one", "-spec", "-", "-format", "pretty"},
		strings.NewReader(`{"variables": {"object": {"contents": "buy milk"}}, "select": {"id": true}}`), &stdout)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	got := stdout.String()
	if !strings.HasPrefix(got, "mutation") || strings.Count(got, "\n") < 4 {
		t.Errorf("output = %q, want a multi-line mutation", got)
	}
	for _, want := range []string{"$object: todos_insert_input!", "insert_todos_one(object: $object) {", "    id\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "no command",
			args:    nil,
			wantErr: "missing command",
		},
		{
			name:    "unknown command",
			args:    []string{"serve"},
			wantErr: `unknown command "serve"`,
		},
		{
			name:    "missing field",
			args:    []string{"build", "-schema", todosSchema},
			wantErr: "build: -field is required",
		},
		{
			name:    "unknown root field",
			args:    []string{"build", "-schema", todosSchema, "-field", "posts"},
			wantErr: `"posts"`,
		},
		{
			name:    "strict rejects unknown fields",
			args:    []string{"build", "-schema", todosSchema, "-field", "todos", "-spec", "testdata/spec/unknown_field.json", "-strict"},
			wantErr: `"title"`,
		},
		{
			name:    "two schema sources",
			args:    []string{"build", "-schema", todosSchema, "-introspection", "schema.json", "-field", "todos"},
			wantErr: "more than one of",
		},
		{
			name:    "missing spec file",
			args:    []string{"build", "-schema", todosSchema, "-field", "todos", "-spec", "testdata/spec/missing.json"},
			wantErr: "unable to read spec",
		},
		{
			name:    "unknown build format",
			args:    []string{"build", "-schema", todosSchema, "-field", "todos", "-format", "xml"},
			wantErr: `unknown format "xml"`,
		},
		{
			name:    "invalid document",
			args:    []string{"build", "-schema", todosSchema, "-field", "user", "-validate"},
			wantErr: "document is invalid",
		},
		{
			name:    "malformed header",
			args:    []string{"introspect", "-endpoint", "http://localhost", "-header", "no-colon"},
			wantErr: "not in Name: value form",
		},
		{
			name:    "generate without output",
			args:    []string{"generate", "-schema", todosSchema},
			wantErr: "no output file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout bytes.Buffer
			err := run(context.Background(), "", tt.args, strings.NewReader(""), &stdout)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("run() error = %v, want to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunIntrospectRoundTrip(t *testing.T) {
	t.Parallel()

	snapshot := filepath.Join(t.TempDir(), "schema.json")
	if err := run(context.Background(), "", []string{"introspect", "-schema", todosSchema, "-o", snapshot}, nil, &bytes.Buffer{}); err != nil {
		t.Fatalf("introspect error = %v", err)
	}

	fromSDL := runOutput(t, "build", "-schema", todosSchema, "-field", "todos", "-spec", "testdata/spec/todos.json")
	fromSnapshot := runOutput(t, "build", "-introspection", snapshot, "-field", "todos", "-spec", "testdata/spec/todos.json")
	if diff := cmp.Diff(fromSDL, fromSnapshot); diff != "" {
		t.Errorf("documents differ between sources (-sdl +snapshot):\n%s", diff)
	}

	sdl := runOutput(t, "introspect", "-introspection", snapshot, "-format", "sdl")
	for _, want := range []string{"query: query_root", "type todos implements Node", "union search_result", "input todos_bool_exp"} {
		if !strings.Contains(sdl, want) {
			t.Errorf("sdl lacks %q:\n%s", want, sdl)
		}
	}
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()

	abs, err := filepath.Abs(todosSchema)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "gqlselect.yml")
	content := "schema:\n  - " + abs + "\noperation_name: Todos\ngenerate:\n  filename: " + filepath.Join(dir, "gen", "builders.go") + "\n  package: todosapi\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	if err := run(context.Background(), cfgFile, []string{"build", "-field", "todos", "-spec", "testdata/spec/unknown_field.json"}, nil, &stdout); err != nil {
		t.Fatalf("build error = %v", err)
	}
	if diff := cmp.Diff("query Todos { todos { id } }\n", stdout.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	if err := run(context.Background(), cfgFile, []string{"generate"}, nil, &bytes.Buffer{}); err != nil {
		t.Fatalf("generate error = %v", err)
	}
	src, err := os.ReadFile(filepath.Join(dir, "gen", "builders.go"))
	if err != nil {
		t.Fatalf("read generated file: %v", err)
	}
	for _, want := range []string{"package todosapi", "func QueryTodo(", "func MutationDeleteTodos("} {
		if !strings.Contains(string(src), want) {
			t.Errorf("generated file lacks %q", want)
		}
	}
}

func runOutput(t *testing.T, args ...string) string {
	t.Helper()

	var stdout bytes.Buffer
	if err := run(context.Background(), "", args, nil, &stdout); err != nil {
		t.Fatalf("run(%v) error = %v", args, err)
	}

	return stdout.String()
}
