package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/gqlgo/gqlselect/client"
	"github.com/gqlgo/gqlselect/introspection"
)

// LoadSDL loads a schema from SDL files. Patterns are expanded with
// filepath.Glob, and a "**" path element matches any number of directories.
func LoadSDL(patterns ...string) (*Schema, error) {
	filenames, err := ExpandFilenames(patterns)
	if err != nil {
		return nil, err
	}
	if len(filenames) == 0 {
		return nil, fmt.Errorf("no schema files match %s", strings.Join(patterns, ", "))
	}

	sources := make([]*ast.Source, 0, len(filenames))
	for _, filename := range filenames {
		content, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("unable to open schema: %w", err)
		}
		sources = append(sources, &ast.Source{Name: filename, Input: string(content)})
	}

	return LoadSources(sources...)
}

// LoadSources loads a schema from in-memory SDL sources.
func LoadSources(sources ...*ast.Source) (*Schema, error) {
	s, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	return New(s), nil
}

// ExpandFilenames resolves glob patterns into a sorted, de-duplicated list of files.
func ExpandFilenames(patterns []string) ([]string, error) {
	var filenames []string
	for _, pattern := range patterns {
		if root, rest, ok := strings.Cut(pattern, "**"); ok {
			rest = strings.TrimLeft(rest, `/\`)
			err := filepath.WalkDir(filepath.Clean(root), func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					return nil
				}
				if matched, _ := filepath.Match(rest, d.Name()); matched {
					filenames = append(filenames, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to walk schema at root %s: %w", root, err)
			}
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to glob schema filename %s: %w", pattern, err)
		}
		filenames = append(filenames, matches...)
	}

	slices.Sort(filenames)

	return slices.Compact(filenames), nil
}

// snapshot accepts both a bare introspection result and a full response envelope.
type snapshot struct {
	Data   *introspection.Query  `json:"data"`
	Schema *introspection.Schema `json:"__schema"`
	Errors gqlerror.List         `json:"errors"`
}

// LoadIntrospection loads a schema from an introspection snapshot in JSON.
// name is used as the source name in error positions.
func LoadIntrospection(name string, r io.Reader) (*Schema, error) {
	var snap snapshot
	if err := json.UnmarshalRead(r, &snap); err != nil {
		return nil, fmt.Errorf("unable to parse introspection %s: %w", name, err)
	}
	if len(snap.Errors) > 0 {
		return nil, fmt.Errorf("introspection %s carries errors: %w", name, snap.Errors)
	}

	var q introspection.Query
	switch {
	case snap.Data != nil:
		q = *snap.Data
	case snap.Schema != nil:
		q.Schema = *snap.Schema
	default:
		return nil, fmt.Errorf("introspection %s: missing __schema", name)
	}

	return FromIntrospection(name, q)
}

// LoadIntrospectionFile loads a schema from an introspection snapshot file.
func LoadIntrospectionFile(filename string) (*Schema, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to open introspection: %w", err)
	}
	defer f.Close()

	return LoadIntrospection(filename, f)
}

// FromIntrospection validates an introspection payload into a schema.
func FromIntrospection(name string, q introspection.Query) (*Schema, error) {
	doc, err := introspection.SchemaFromIntrospection(name, q)
	if err != nil {
		return nil, fmt.Errorf("convert introspection: %w", err)
	}

	s, err := validator.ValidateSchemaDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	return New(s), nil
}

// FetchIntrospection runs the introspection query against a live endpoint.
func FetchIntrospection(ctx context.Context, httpClient *http.Client, endpoint string, header http.Header) (*Schema, error) {
	if endpoint == "" {
		return nil, errors.New("introspection endpoint is empty")
	}

	slog.DebugContext(ctx, "fetching introspection", slog.String("endpoint", endpoint))

	c := client.NewClient(endpoint, client.WithHTTPClient(httpClient), client.WithHTTPHeader(header))

	var res introspection.Query
	if err := c.Post(ctx, "IntrospectionQuery", introspection.Introspection, nil, &res); err != nil {
		return nil, fmt.Errorf("introspection query failed: %w", err)
	}

	slog.DebugContext(ctx, "fetched introspection",
		slog.String("endpoint", endpoint),
		slog.Int("types", len(res.Schema.Types)),
	)

	return FromIntrospection(endpoint, res)
}
