package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/gqlgo/gqlselect/graphqljson"
)

// RequestIDHeader carries a fresh id on every request so server logs can be
// matched with ours.
const RequestIDHeader = "X-Request-Id"

// Request is the standard GraphQL-over-HTTP payload.
type Request struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

// NewRequest builds a POST request carrying the JSON payload.
func NewRequest(ctx context.Context, endpoint, operationName, query string, variables map[string]any) (*http.Request, error) {
	body, err := json.Marshal(Request{
		OperationName: operationName,
		Query:         query,
		Variables:     variables,
	}, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/graphql-response+json, application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())

	return req, nil
}

// ErrorResponse is returned for non-2xx responses that do not carry a GraphQL
// error envelope.
type ErrorResponse struct {
	StatusCode int
	Body       string
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// ParseResponse decodes resp into out. Servers answer GraphQL errors with
// either 200 or 4xx, so the envelope is tried before the status code is blamed.
func ParseResponse(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	err = graphqljson.DecodeResponse(bytes.NewReader(body), out)
	if err == nil {
		return nil
	}

	var gqlErrs gqlerror.List
	if errors.As(err, &gqlErrs) {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ErrorResponse{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return err
}
