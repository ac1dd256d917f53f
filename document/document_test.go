package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/gqlgo/gqlselect/querybuilder"
	"github.com/gqlgo/gqlselect/schema"
	"github.com/gqlgo/gqlselect/selection"
)

const todoID = "6503ef87-30a6-4a59-9d62-6e9d8a9f1c4b"

func loadSchema(t *testing.T) *schema.Schema {
	t.Helper()

	s, err := schema.LoadSDL("../testdata/schema/todos.graphql")
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}

	return s
}

func TestBuild(t *testing.T) {
	t.Parallel()

	s := loadSchema(t)

	type args struct {
		op    ast.Operation
		field string
		spec  *selection.Spec
		opts  []Option
	}

	type want struct {
		text      string
		variables map[string]any
	}

	tests := []struct {
		name string
		args args
		want want
	}{
		{
			name: "single variable",
			args: args{
				op:    ast.Query,
				field: "todo",
				spec:  selection.New().Field("id").Var("id", todoID),
			},
			want: want{
				text:      `query ($id: uuid!) { todo(id: $id) { id } }`,
				variables: map[string]any{"id": todoID},
			},
		},
		{
			name: "several variables on a list field",
			args: args{
				op:    ast.Query,
				field: "todos",
				spec: selection.New().
					Field("createdAt", "contents").
					Var("limit", 2).
					Var("where", map[string]any{"done": map[string]any{"_eq": false}}).
					Var("order_by", []any{map[string]any{"createdAt": "desc"}}),
			},
			want: want{
				text: `query ($limit: Int, $where: todos_bool_exp, $order_by: [todos_order_by!]) ` +
					`{ todos(limit: $limit, where: $where, order_by: $order_by) { createdAt contents } }`,
				variables: map[string]any{
					"limit":    2,
					"where":    map[string]any{"done": map[string]any{"_eq": false}},
					"order_by": []any{map[string]any{"createdAt": "desc"}},
				},
			},
		},
		{
			name: "no variables means no declarations",
			args: args{
				op:    ast.Query,
				field: "todos",
				spec: selection.New().
					Field("userId").
					Child("user", selection.New().Field("email", "avatarUrl")),
			},
			want: want{
				text:      `query { todos { userId user { email avatarUrl } } }`,
				variables: map[string]any{},
			},
		},
		{
			name: "same argument name at two depths",
			args: args{
				op:    ast.Query,
				field: "todos_aggregate",
				spec: selection.New().
					Var("where", map[string]any{"done": map[string]any{"_eq": true}}).
					Child("aggregate", selection.New().Field("count")).
					Child("nodes", selection.New().
						Field("id").
						Child("user", selection.New().
							Field("email").
							Var("where", map[string]any{"email": map[string]any{"_ilike": "%@example.com"}}))),
			},
			want: want{
				text: `query ($where: todos_bool_exp, $nodes_user_where: users_bool_exp) ` +
					`{ todos_aggregate(where: $where) { aggregate { count } nodes { id user(where: $nodes_user_where) { email } } } }`,
				variables: map[string]any{
					"where":            map[string]any{"done": map[string]any{"_eq": true}},
					"nodes_user_where": map[string]any{"email": map[string]any{"_ilike": "%@example.com"}},
				},
			},
		},
		{
			name: "named operation with fragments",
			args: args{
				op:    ast.Query,
				field: "search",
				spec: selection.New().
					Var("text", "milk").
					On("todos", selection.New().Field("contents")).
					On("users", selection.New().Field("email")),
				opts: []Option{WithOperationName("Search")},
			},
			want: want{
				text:      `query Search($text: String!) { search(text: $text) { __typename ... on todos { contents } ... on users { email } } }`,
				variables: map[string]any{"text": "milk"},
			},
		},
		{
			name: "named operation without variables",
			args: args{
				op:    ast.Query,
				field: "todos",
				spec:  selection.New().Field("id"),
				opts:  []Option{WithOperationName("TodoIDs")},
			},
			want: want{
				text:      `query TodoIDs { todos { id } }`,
				variables: map[string]any{},
			},
		},
		{
			name: "default projection",
			args: args{
				op:    ast.Query,
				field: "todos",
			},
			want: want{
				text:      `query { todos { id contents done priority createdAt userId } }`,
				variables: map[string]any{},
			},
		},
		{
			name: "interface with fields and fragments",
			args: args{
				op:    ast.Query,
				field: "node",
				spec: selection.New().
					Field("id").
					Var("id", "n1").
					On("attachments", selection.New().Field("url").Child("todo", selection.New().Field("contents"))),
			},
			want: want{
				text:      `query ($id: uuid!) { node(id: $id) { __typename ... on attachments { url todo { contents } } id } }`,
				variables: map[string]any{"id": "n1"},
			},
		},
		{
			name: "mutation",
			args: args{
				op:    ast.Mutation,
				field: "insert_todos_one",
				spec:  selection.New().Field("id").Var("object", map[string]any{"contents": "buy milk"}),
			},
			want: want{
				text:      `mutation ($object: todos_insert_input!) { insert_todos_one(object: $object) { id } }`,
				variables: map[string]any{"object": map[string]any{"contents": "buy milk"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Build(s, tt.args.op, tt.args.field, tt.args.spec, tt.args.opts...)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}

			if diff := cmp.Diff(tt.want.text, got.Text); diff != "" {
				t.Errorf("text mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want.variables, got.Variables); diff != "" {
				t.Errorf("variables mismatch (-want +got):\n%s", diff)
			}

			if err := got.Validate(s); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if got.Query == nil || len(got.Query.Operations) != 1 {
				t.Fatalf("Validate() did not store the document")
			}
			if name := got.Query.Operations[0].Name; name != got.Name {
				t.Errorf("operation name = %q, want %q", name, got.Name)
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	s := loadSchema(t)

	tests := []struct {
		name    string
		op      ast.Operation
		field   string
		spec    *selection.Spec
		opts    []Option
		wantErr error
	}{
		{
			name:    "unknown root field",
			op:      ast.Query,
			field:   "posts",
			wantErr: schema.ErrUnknownField,
		},
		{
			name:    "missing root type",
			op:      ast.Subscription,
			field:   "todos",
			wantErr: schema.ErrNoRootType,
		},
		{
			name:    "union without fragments",
			op:      ast.Query,
			field:   "search",
			spec:    selection.New().Var("text", "milk"),
			wantErr: querybuilder.ErrAbstractSelection,
		},
		{
			name:    "undeclared argument",
			op:      ast.Query,
			field:   "todo",
			spec:    selection.New().Var("uuid", todoID),
			wantErr: schema.ErrUnknownArgument,
		},
		{
			name:    "strict mode",
			op:      ast.Query,
			field:   "todos",
			spec:    selection.New().Field("title"),
			opts:    []Option{WithStrict()},
			wantErr: schema.ErrUnknownField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Build(s, tt.op, tt.field, tt.spec, tt.opts...); !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildDeterministic(t *testing.T) {
	t.Parallel()

	s := loadSchema(t)
	spec := selection.New().
		Var("where", map[string]any{"done": map[string]any{"_eq": true}, "contents": map[string]any{"_ilike": "%milk%"}}).
		Child("nodes", selection.New().
			Field("id").
			Child("user", selection.New().Var("where", map[string]any{})).
			Child("attachments", selection.New().Var("limit", 3)))

	first, err := Build(s, ast.Query, "todos_aggregate", spec)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	second, err := Build(s, ast.Query, "todos_aggregate", spec)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if first.Text != second.Text {
		t.Errorf("text differs between builds:\n%s\n%s", first.Text, second.Text)
	}

	firstJSON, err := first.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	secondJSON, err := second.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if diff := cmp.Diff(string(firstJSON), string(secondJSON)); diff != "" {
		t.Errorf("payload differs between builds:\n%s", diff)
	}
}

func TestMarshalJSON(t *testing.T) {
	t.Parallel()

	s := loadSchema(t)

	doc, err := Build(s, ast.Query, "todos", selection.New().Field("id").Var("where", map[string]any{"b": 1, "a": true}).Var("limit", 2))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	got, err := doc.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	want := `{"query":"query ($where: todos_bool_exp, $limit: Int) { todos(where: $where, limit: $limit) { id } }","variables":{"limit":2,"where":{"a":true,"b":1}}}`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("MarshalJSON() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAndPretty(t *testing.T) {
	t.Parallel()

	s := loadSchema(t)

	doc, err := Build(s, ast.Query, "todo", selection.New().Field("id", "contents").Var("id", todoID), WithParse(), WithOperationName("GetTodo"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if doc.Query == nil {
		t.Fatal("WithParse() did not populate Query")
	}

	op := doc.Query.Operations.ForName("GetTodo")
	if op == nil {
		t.Fatalf("parsed document has no GetTodo operation")
	}
	if diff := cmp.Diff([]string{"id"}, []string{op.VariableDefinitions[0].Variable}); diff != "" {
		t.Errorf("variable definitions mismatch (-want +got):\n%s", diff)
	}

	pretty, err := doc.Pretty()
	if err != nil {
		t.Fatalf("Pretty() error = %v", err)
	}
	if strings.Count(pretty, "\n") < 4 {
		t.Errorf("Pretty() = %q, want multi-line output", pretty)
	}
	if _, err := parser.ParseQuery(&ast.Source{Input: pretty}); err != nil {
		t.Errorf("Pretty() output does not parse: %v", err)
	}
}

func TestValidateReportsSchemaErrors(t *testing.T) {
	t.Parallel()

	s := loadSchema(t)

	doc := &Document{Text: `query { todos { title } }`}
	if err := doc.Validate(s); err == nil || !strings.Contains(err.Error(), "title") {
		t.Errorf("Validate() error = %v, want it to name the field", err)
	}
}
