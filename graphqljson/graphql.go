package graphqljson

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Response is the envelope every GraphQL server answers with.
type Response struct {
	Data       jsontext.Value `json:"data,omitempty"`
	Errors     gqlerror.List  `json:"errors,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// ErrNoData is returned when a response carries neither data nor errors.
var ErrNoData = errors.New("graphql response has no data")

// DecodeResponse reads a response envelope from r. GraphQL errors in the
// envelope are returned as a gqlerror.List, otherwise data is decoded into v.
func DecodeResponse(r io.Reader, v any) error {
	var resp Response
	if err := json.UnmarshalRead(r, &resp); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}

	if len(resp.Errors) > 0 {
		return resp.Errors
	}

	return UnmarshalData(resp.Data, v)
}

// UnmarshalData parses the GraphQL response payload contained in data and stores
// the result into v, which must be a non-nil pointer.
func UnmarshalData(data jsontext.Value, v any) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode graphql data: decode json: cannot decode into non-pointer %T", v)
	}

	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return ErrNoData
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode graphql data: decode json: %w", err)
	}

	return nil
}
