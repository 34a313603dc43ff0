package paapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const errorsKey = "Errors"

// Response is a decoded PAAPI response body. It is either an error list
// (Errors non-empty) or a set of result objects keyed by their top-level
// name, e.g. "ItemsResult".
type Response struct {
	// Errors is the decoded API error list, if any.
	Errors APIErrors

	// RawErrors is the error list exactly as received.
	RawErrors json.RawMessage

	// Fields holds every other top-level key of the body, undecoded.
	Fields map[string]json.RawMessage
}

// HasErrors reports whether the response carries a non-empty error list.
func (r *Response) HasErrors() bool {
	return len(r.Errors) > 0
}

// DecodeResponse validates and decodes a raw response body.
func DecodeResponse(body []byte) (*Response, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, errors.New("decode response: body is not a JSON object")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	resp := &Response{Fields: make(map[string]json.RawMessage, len(top))}
	for key, value := range top {
		if key != errorsKey {
			resp.Fields[key] = value
			continue
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			continue
		}
		if err := json.Unmarshal(value, &resp.Errors); err != nil {
			return nil, fmt.Errorf("decode response errors: %w", err)
		}
		resp.RawErrors = value
	}
	return resp, nil
}

// NewResultResponse builds a success response holding v under key.
func NewResultResponse(key string, v any) (*Response, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return &Response{Fields: map[string]json.RawMessage{key: raw}}, nil
}

// NewErrorResponse builds a response carrying the given API errors.
func NewErrorResponse(errs ...APIError) *Response {
	raw, _ := json.Marshal(errs)
	return &Response{
		Errors:    APIErrors(errs),
		RawErrors: raw,
		Fields:    map[string]json.RawMessage{},
	}
}

// ResultKey returns the top-level key PAAPI uses for the result of o.
func (o Operation) ResultKey() string {
	switch o {
	case OperationGetItems:
		return "ItemsResult"
	case OperationSearchItems:
		return "SearchResult"
	case OperationGetBrowseNodes:
		return "BrowseNodesResult"
	case OperationGetVariations:
		return "VariationsResult"
	default:
		return ""
	}
}
