package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	gqlgenconfig "github.com/99designs/gqlgen/codegen/config"

	"github.com/gqlgo/gqlselect/schema"
)

// DefaultFilenames are the config file names FindConfigFile looks for.
var DefaultFilenames = []string{".gqlselect.yml", "gqlselect.yml", ".gqlselect.yaml", "gqlselect.yaml"}

// ErrConfigNotFound is returned by FindConfigFile when no directory up to the
// filesystem root holds a config file.
var ErrConfigNotFound = errors.New("unable to find config file")

const sourceHelp = "Use schema to load SDL files, introspection to load a snapshot file, endpoint to introspect a remote server"

// Config represents the config file.
type Config struct {
	Schema        gqlgenconfig.StringList    `yaml:"schema,omitempty"`
	Introspection string                     `yaml:"introspection,omitempty"`
	Endpoint      *EndPointConfig            `yaml:"endpoint,omitempty"`
	Strict        bool                       `yaml:"strict,omitempty"`
	OperationName string                     `yaml:"operation_name,omitempty"`
	Generate      gqlgenconfig.PackageConfig `yaml:"generate,omitempty"`
}

// EndPointConfig are the allowed options for the 'endpoint' config.
type EndPointConfig struct {
	URL     string       `yaml:"url"`
	Headers http.Header  `yaml:"headers,omitempty"`
	Client  *http.Client `yaml:"-"`
}

// LoadConfig loads and validates a config file. Environment variables in the
// file are expanded before parsing.
func LoadConfig(configFilename string) (*Config, error) {
	configContent, err := os.ReadFile(configFilename)
	if err != nil {
		return nil, fmt.Errorf("unable to read config: %w", err)
	}

	var c Config

	yamlDecoder := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(configContent)))), yaml.DisallowUnknownField())
	if err := yamlDecoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("unable to parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks that exactly one schema source is set and that the
// generate package, if any, is usable.
func (c *Config) Validate() error {
	sources := 0
	if len(c.Schema) > 0 {
		sources++
	}
	if c.Introspection != "" {
		sources++
	}
	if c.Endpoint != nil {
		sources++
	}

	switch {
	case sources == 0:
		return errors.New("none of 'schema', 'introspection' or 'endpoint' specified. " + sourceHelp)
	case sources > 1:
		return errors.New("more than one of 'schema', 'introspection' and 'endpoint' specified. " + sourceHelp)
	}

	if c.Endpoint != nil && c.Endpoint.URL == "" {
		return errors.New("endpoint: url must be specified")
	}

	if c.Generate.IsDefined() {
		if err := c.Generate.Check(); err != nil {
			return fmt.Errorf("generate: %w", err)
		}
	}

	return nil
}

// LoadSchema loads the schema from whichever source the config names.
func (c *Config) LoadSchema(ctx context.Context) (*schema.Schema, error) {
	switch {
	case len(c.Schema) > 0:
		s, err := schema.LoadSDL(c.Schema...)
		if err != nil {
			return nil, fmt.Errorf("load local schema failed: %w", err)
		}

		return s, nil
	case c.Introspection != "":
		s, err := schema.LoadIntrospectionFile(c.Introspection)
		if err != nil {
			return nil, fmt.Errorf("load introspection snapshot failed: %w", err)
		}

		return s, nil
	case c.Endpoint != nil:
		httpClient := c.Endpoint.Client
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		s, err := schema.FetchIntrospection(ctx, httpClient, c.Endpoint.URL, c.Endpoint.Headers)
		if err != nil {
			return nil, fmt.Errorf("introspect schema failed: %w", err)
		}

		return s, nil
	default:
		return nil, errors.New("none of 'schema', 'introspection' or 'endpoint' specified. " + sourceHelp)
	}
}

// FindConfigFile searches dir and then each of its parents for the first of
// names that exists.
func FindConfigFile(dir string, names []string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("unable to resolve %s: %w", dir, err)
	}

	for {
		for _, name := range names {
			path := filepath.Join(dir, name)
			info, err := os.Stat(path)
			if err == nil && !info.IsDir() {
				return path, nil
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("unable to stat %s: %w", path, err)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}
		dir = parent
	}
}
