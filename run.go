package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	gqlgenconfig "github.com/99designs/gqlgen/codegen/config"

	"github.com/gqlgo/gqlselect/codegen"
	"github.com/gqlgo/gqlselect/config"
	"github.com/gqlgo/gqlselect/document"
	"github.com/gqlgo/gqlselect/introspection"
	"github.com/gqlgo/gqlselect/schema"
	"github.com/gqlgo/gqlselect/selection"
)

func run(ctx context.Context, cfgFile string, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("missing command: build, introspect or generate")
	}

	switch args[0] {
	case "build":
		return runBuild(ctx, cfgFile, args[1:], stdin, stdout)
	case "introspect":
		return runIntrospect(ctx, cfgFile, args[1:], stdout)
	case "generate":
		return runGenerate(ctx, cfgFile, args[1:])
	default:
		return fmt.Errorf("unknown command %q: want build, introspect or generate", args[0])
	}
}

// sourceFlags override the schema source of the config file.
type sourceFlags struct {
	schema        []string
	introspection string
	endpoint      string
	header        http.Header
}

func (f *sourceFlags) register(fs *flag.FlagSet) {
	f.header = http.Header{}
	fs.Func("schema", "SDL file or glob, repeatable", func(v string) error {
		f.schema = append(f.schema, v)
		return nil
	})
	fs.StringVar(&f.introspection, "introspection", "", "introspection snapshot file")
	fs.StringVar(&f.endpoint, "endpoint", "", "GraphQL endpoint to introspect")
	fs.Func("header", `"Name: value" header sent to -endpoint, repeatable`, func(v string) error {
		name, value, ok := strings.Cut(v, ":")
		if !ok {
			return fmt.Errorf("header %q is not in Name: value form", v)
		}
		f.header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
		return nil
	})
}

func (f *sourceFlags) set() bool {
	return len(f.schema) > 0 || f.introspection != "" || f.endpoint != ""
}

// loadConfig reads cfgFile, or the nearest default config file, and applies
// the source flags. A config file is optional when the flags name a source.
func loadConfig(cfgFile string, src *sourceFlags) (*config.Config, error) {
	if cfgFile == "" {
		found, err := config.FindConfigFile(".", config.DefaultFilenames)
		switch {
		case err == nil:
			cfgFile = found
		case errors.Is(err, config.ErrConfigNotFound) && src.set():
		default:
			return nil, fmt.Errorf("failed to find config file: %w", err)
		}
	}

	cfg := &config.Config{}
	if cfgFile != "" {
		slog.Debug("loading config", slog.String("file", cfgFile))

		loaded, err := config.LoadConfig(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg = loaded
	}

	if src.set() {
		cfg.Schema = src.schema
		cfg.Introspection = src.introspection
		cfg.Endpoint = nil
		if src.endpoint != "" {
			cfg.Endpoint = &config.EndPointConfig{URL: src.endpoint, Headers: src.header}
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func loadSchema(ctx context.Context, cfgFile string, src *sourceFlags) (*config.Config, *schema.Schema, error) {
	cfg, err := loadConfig(cfgFile, src)
	if err != nil {
		return nil, nil, err
	}

	s, err := cfg.LoadSchema(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load schema: %w", err)
	}

	return cfg, s, nil
}

func runBuild(ctx context.Context, cfgFile string, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	var src sourceFlags
	src.register(fs)
	op := fs.String("op", string(ast.Query), "operation type: query, mutation or subscription")
	field := fs.String("field", "", "root field to select from")
	specFile := fs.String("spec", "", `selection spec file (.json, .yaml or .yml), "-" for JSON on stdin`)
	name := fs.String("name", "", "operation name")
	strict := fs.Bool("strict", false, "reject fields the schema does not declare")
	validate := fs.Bool("validate", false, "validate the document against the schema")
	format := fs.String("format", "text", "output format: text, pretty or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *field == "" {
		return errors.New("build: -field is required")
	}

	cfg, s, err := loadSchema(ctx, cfgFile, &src)
	if err != nil {
		return err
	}

	spec, err := readSpec(*specFile, stdin)
	if err != nil {
		return err
	}

	var opts []document.Option
	if *name == "" {
		*name = cfg.OperationName
	}
	if *name != "" {
		opts = append(opts, document.WithOperationName(*name))
	}
	if *strict || cfg.Strict {
		opts = append(opts, document.WithStrict())
	}

	doc, err := document.Build(s, ast.Operation(*op), *field, spec, opts...)
	if err != nil {
		return err
	}

	slog.Debug("built document",
		slog.String("operation", *op),
		slog.String("field", *field),
		slog.Int("variables", len(doc.VariableTypes)),
	)

	if *validate {
		if err := doc.Validate(s); err != nil {
			return fmt.Errorf("document is invalid: %w", err)
		}
	}

	switch *format {
	case "text":
		_, err = fmt.Fprintln(stdout, doc.Text)
	case "pretty":
		var pretty string
		pretty, err = doc.Pretty()
		if err == nil {
			_, err = io.WriteString(stdout, pretty)
		}
	case "json":
		var data []byte
		data, err = doc.MarshalJSON()
		if err == nil {
			_, err = fmt.Fprintf(stdout, "%s\n", data)
		}
	default:
		return fmt.Errorf("unknown format %q: want text, pretty or json", *format)
	}

	return err
}

func readSpec(filename string, stdin io.Reader) (*selection.Spec, error) {
	switch filename {
	case "":
		return nil, nil
	case "-":
		spec, err := selection.DecodeJSON(stdin)
		if err != nil {
			return nil, fmt.Errorf("read spec from stdin: %w", err)
		}
		return spec, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to read spec: %w", err)
	}

	var spec *selection.Spec
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		spec, err = selection.ParseYAML(data)
	default:
		spec, err = selection.ParseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to parse spec %s: %w", filename, err)
	}

	return spec, nil
}

func runIntrospect(ctx context.Context, cfgFile string, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("introspect", flag.ContinueOnError)
	var src sourceFlags
	src.register(fs)
	format := fs.String("format", "json", "output format: json (introspection snapshot) or sdl")
	output := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, s, err := loadSchema(ctx, cfgFile, &src)
	if err != nil {
		return err
	}

	w := stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("create %s: %w", *output, err)
		}
		defer f.Close()
		w = f
	}

	switch *format {
	case "json":
		data, err := json.Marshal(introspection.FromSchema(s.AST()), json.Deterministic(true), jsontext.WithIndent("  "))
		if err != nil {
			return fmt.Errorf("encode introspection: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return err
		}
	case "sdl":
		formatter.NewFormatter(w, formatter.WithIndent("  ")).FormatSchema(s.AST())
	default:
		return fmt.Errorf("unknown format %q: want json or sdl", *format)
	}

	if *output != "" {
		slog.Info("wrote schema", slog.String("file", *output), slog.String("format", *format))
	}

	return nil
}

func runGenerate(ctx context.Context, cfgFile string, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	var src sourceFlags
	src.register(fs)
	output := fs.String("o", "", "output Go file (default: generate.filename from the config)")
	pkg := fs.String("package", "", "output package name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, s, err := loadSchema(ctx, cfgFile, &src)
	if err != nil {
		return err
	}

	out := cfg.Generate
	if *output != "" {
		out = gqlgenconfig.PackageConfig{Filename: *output, Package: *pkg}
	} else if *pkg != "" {
		out.Package = *pkg
	}
	if !out.IsDefined() {
		return errors.New("generate: no output file, set generate.filename in the config or pass -o")
	}

	if err := codegen.Generate(s, out); err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	slog.Info("generated builders", slog.String("file", out.Filename))

	return nil
}
