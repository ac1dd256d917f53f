package selection

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/goccy/go-yaml"
)

const (
	keySelect    = "select"
	keyVariables = "variables"
	keyOn        = "on"
)

// ParseJSON decodes a Spec from JSON, keeping object member order.
func ParseJSON(data []byte) (*Spec, error) {
	return DecodeJSON(bytes.NewReader(data))
}

// DecodeJSON decodes a single Spec from r.
func DecodeJSON(r io.Reader) (*Spec, error) {
	dec := jsontext.NewDecoder(r)

	spec, err := decodeNode(dec)
	if err != nil {
		return nil, err
	}

	if _, err := dec.ReadToken(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("selection: unexpected data after the top-level value")
	}

	return spec, nil
}

func decodeNode(dec *jsontext.Decoder) (*Spec, error) {
	switch kind := dec.PeekKind(); kind {
	case 't':
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		return nil, nil
	case '"':
		tok, err := dec.ReadToken()
		if err != nil {
			return nil, err
		}
		if tok.String() != All {
			return nil, fmt.Errorf("selection %s: unknown marker %q, want %q", dec.StackPointer(), tok.String(), All)
		}
		return nil, nil
	case '{':
	default:
		if _, err := dec.ReadToken(); err != nil {
			return nil, fmt.Errorf("selection: %w", err)
		}
		return nil, fmt.Errorf("selection %s: unexpected %s, want true, %q or an object", dec.StackPointer(), kind, All)
	}

	spec := New()
	err := decodeObject(dec, func(key string) error {
		switch key {
		case keySelect, keyVariables, keyOn:
		default:
			return fmt.Errorf("selection %s: unknown key %q, want one of %q, %q, %q", dec.StackPointer(), key, keySelect, keyVariables, keyOn)
		}

		// null is the same as an empty object.
		if dec.PeekKind() == 'n' {
			_, err := dec.ReadToken()
			return err
		}

		switch key {
		case keySelect:
			return decodeObject(dec, func(name string) error {
				if dec.PeekKind() == 'f' {
					_, err := dec.ReadToken()
					return err
				}
				child, err := decodeNode(dec)
				if err != nil {
					return err
				}
				spec.Child(name, child)
				return nil
			})
		case keyVariables:
			return decodeObject(dec, func(name string) error {
				value, err := decodeValue(dec)
				if err != nil {
					return fmt.Errorf("selection %s: %w", dec.StackPointer(), err)
				}
				spec.Var(name, value)
				return nil
			})
		default:
			return decodeObject(dec, func(typeName string) error {
				child, err := decodeNode(dec)
				if err != nil {
					return err
				}
				spec.On(typeName, child)
				return nil
			})
		}
	})
	if err != nil {
		return nil, err
	}

	return spec, nil
}

// decodeValue reads one variable value. Numbers are kept as the literal
// jsontext.Value so integers wider than a float64 are sent unchanged.
func decodeValue(dec *jsontext.Decoder) (any, error) {
	switch dec.PeekKind() {
	case '0':
		raw, err := dec.ReadValue()
		if err != nil {
			return nil, err
		}
		return raw.Clone(), nil
	case '{':
		m := map[string]any{}
		err := decodeObject(dec, func(name string) error {
			v, err := decodeValue(dec)
			if err != nil {
				return err
			}
			m[name] = v
			return nil
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case '[':
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		list := []any{}
		for dec.PeekKind() != ']' {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		return list, nil
	}

	tok, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}
	switch tok.Kind() {
	case 'n':
		return nil, nil
	case 't', 'f':
		return tok.Bool(), nil
	default:
		return tok.String(), nil
	}
}

// decodeObject reads one JSON object and calls member for each name. member
// must consume exactly one value.
func decodeObject(dec *jsontext.Decoder, member func(name string) error) error {
	tok, err := dec.ReadToken()
	if err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	if tok.Kind() != '{' {
		return fmt.Errorf("selection %s: unexpected %s, want an object", dec.StackPointer(), tok.Kind())
	}

	for dec.PeekKind() != '}' {
		name, err := dec.ReadToken()
		if err != nil {
			return fmt.Errorf("selection: %w", err)
		}
		if err := member(name.String()); err != nil {
			return err
		}
	}

	if _, err := dec.ReadToken(); err != nil {
		return fmt.Errorf("selection: %w", err)
	}

	return nil
}

// ParseYAML decodes a Spec from YAML, keeping mapping order.
func ParseYAML(data []byte) (*Spec, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("selection: %w", err)
	}

	return fromYAML(v, "")
}

func fromYAML(v any, path string) (*Spec, error) {
	switch v := v.(type) {
	case bool:
		if !v {
			return nil, fmt.Errorf("selection %s: false is only allowed as a field value", pathOrRoot(path))
		}
		return nil, nil
	case string:
		if v != All {
			return nil, fmt.Errorf("selection %s: unknown marker %q, want %q", pathOrRoot(path), v, All)
		}
		return nil, nil
	case yaml.MapSlice:
	default:
		return nil, fmt.Errorf("selection %s: unexpected %T, want true, %q or a mapping", pathOrRoot(path), v, All)
	}

	spec := New()
	for _, item := range v.(yaml.MapSlice) {
		key := fmt.Sprint(item.Key)
		switch key {
		case keySelect, keyVariables, keyOn:
		default:
			return nil, fmt.Errorf("selection %s: unknown key %q, want one of %q, %q, %q", pathOrRoot(path), key, keySelect, keyVariables, keyOn)
		}

		members, ok := item.Value.(yaml.MapSlice)
		if !ok && item.Value != nil {
			return nil, fmt.Errorf("selection %s/%s: unexpected %T, want a mapping", path, key, item.Value)
		}

		for _, member := range members {
			name := fmt.Sprint(member.Key)
			memberPath := path + "/" + key + "/" + name
			switch key {
			case keySelect:
				if b, ok := member.Value.(bool); ok && !b {
					continue
				}
				child, err := fromYAML(member.Value, memberPath)
				if err != nil {
					return nil, err
				}
				spec.Child(name, child)
			case keyVariables:
				spec.Var(name, normalizeYAML(member.Value))
			case keyOn:
				child, err := fromYAML(member.Value, memberPath)
				if err != nil {
					return nil, err
				}
				spec.On(name, child)
			}
		}
	}

	return spec, nil
}

// normalizeYAML turns ordered mappings into plain maps so variable values
// encode as JSON objects.
func normalizeYAML(v any) any {
	switch v := v.(type) {
	case yaml.MapSlice:
		m := make(map[string]any, len(v))
		for _, item := range v {
			m[fmt.Sprint(item.Key)] = normalizeYAML(item.Value)
		}
		return m
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = normalizeYAML(elem)
		}
		return out
	default:
		return v
	}
}

func pathOrRoot(path string) string {
	if path == "" {
		return "/"
	}

	return path
}
