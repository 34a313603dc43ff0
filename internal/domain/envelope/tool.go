package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
)

// ToolEnvelope is the result of one tool-surface entry. A successful search
// carries Results (possibly empty). A successful detail lookup carries
// Product.
type ToolEnvelope struct {
	Success      bool
	Operation    paapi.ToolOperation
	Results      []CuratedItem
	Product      *CuratedItem
	ErrorMessage string
	Errors       json.RawMessage

	// Kind classifies a failure. It is not serialized.
	Kind paapi.ErrorKind
}

type toolWire struct {
	Success      bool                `json:"success"`
	Operation    paapi.ToolOperation `json:"operation,omitempty"`
	Results      *[]CuratedItem      `json:"results,omitempty"`
	Product      *CuratedItem        `json:"product,omitempty"`
	ErrorMessage string              `json:"errorMessage,omitempty"`
	Errors       json.RawMessage     `json:"errors,omitempty"`
}

// MarshalJSON renders the envelope. A successful search always emits a
// results array, even when empty.
func (e ToolEnvelope) MarshalJSON() ([]byte, error) {
	w := toolWire{
		Success:   e.Success,
		Operation: e.Operation,
	}
	if !e.Success {
		w.ErrorMessage = e.ErrorMessage
		w.Errors = e.Errors
		return json.Marshal(w)
	}
	switch e.Operation {
	case paapi.ToolOperationGetProductDetails:
		w.Product = e.Product
	default:
		results := e.Results
		if results == nil {
			results = []CuratedItem{}
		}
		w.Results = &results
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses an envelope produced by MarshalJSON.
func (e *ToolEnvelope) UnmarshalJSON(data []byte) error {
	var w toolWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = ToolEnvelope{
		Success:      w.Success,
		Operation:    w.Operation,
		Product:      w.Product,
		ErrorMessage: w.ErrorMessage,
		Errors:       w.Errors,
	}
	if w.Results != nil {
		e.Results = *w.Results
	}
	return nil
}

// ToolFailure reports a failed tool entry.
func ToolFailure(op paapi.ToolOperation, err error) ToolEnvelope {
	env := FromError(err)
	return ToolEnvelope{
		Operation:    op,
		ErrorMessage: env.ErrorMessage,
		Errors:       env.Errors,
		Kind:         env.Kind,
	}
}

// ShapeSearch curates every item of a SearchItems response. A response
// without items is a successful, empty search.
func ShapeSearch(marketplace string, resp *paapi.Response, err error) ToolEnvelope {
	const op = paapi.ToolOperationSearchProducts

	if fail, ok := toolFailure(op, resp, err); ok {
		return fail
	}
	items, err := resultItems(resp, paapi.OperationSearchItems.ResultKey())
	if err != nil {
		return ToolFailure(op, err)
	}

	results := make([]CuratedItem, 0, len(items))
	for _, raw := range items {
		results = append(results, Curate(raw, marketplace, false))
	}
	return ToolEnvelope{Success: true, Operation: op, Results: results}
}

// ShapeDetails curates the first item of a GetItems response. A response
// without items is a failure.
func ShapeDetails(marketplace, asin string, resp *paapi.Response, err error) ToolEnvelope {
	const op = paapi.ToolOperationGetProductDetails

	if fail, ok := toolFailure(op, resp, err); ok {
		return fail
	}
	items, err := resultItems(resp, paapi.OperationGetItems.ResultKey())
	if err != nil {
		return ToolFailure(op, err)
	}
	if len(items) == 0 {
		return ToolEnvelope{
			Operation:    op,
			ErrorMessage: fmt.Sprintf("no product found for ASIN %s", asin),
			Kind:         paapi.KindAPI,
		}
	}

	product := Curate(items[0], marketplace, true)
	return ToolEnvelope{Success: true, Operation: op, Product: &product}
}

func toolFailure(op paapi.ToolOperation, resp *paapi.Response, err error) (ToolEnvelope, bool) {
	env := Shape(resp, err)
	if env.Success {
		return ToolEnvelope{}, false
	}
	return ToolEnvelope{
		Operation:    op,
		ErrorMessage: env.ErrorMessage,
		Errors:       env.Errors,
		Kind:         env.Kind,
	}, true
}

func resultItems(resp *paapi.Response, key string) ([]json.RawMessage, error) {
	raw, ok := resp.Fields[key]
	if !ok {
		return nil, nil
	}
	var result struct {
		Items []json.RawMessage `json:"Items"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &paapi.TransportError{Err: fmt.Errorf("decode %s: %w", key, err)}
	}
	return result.Items, nil
}
