// Package paapigate provides a Go SDK for the paapi-gate HTTP API.
//
// paapi-gate normalizes batches of Amazon Product Advertising API 5.0
// parameter sets, runs them with server-side credentials and returns one
// envelope per entry. It uses only the Go standard library (net/http) with
// zero external dependencies.
//
// Quick start:
//
//	// Set PAAPIGATE_SERVER_ADDR and PAAPIGATE_API_KEY env vars, then:
//	client := paapigate.NewClient()
//
//	results, err := client.Invoke(ctx, []paapigate.Parameters{{
//	    Operation: paapigate.OperationSearchItems,
//	    Keywords:  "usb c hub",
//	}})
//	if err != nil {
//	    return err
//	}
//	for _, env := range results {
//	    if !env.Success {
//	        fmt.Println("failed:", env.ErrorMessage)
//	    }
//	}
package paapigate

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Operation names a PAAPI operation.
type Operation string

const (
	// OperationGetItems looks up items by ASIN.
	OperationGetItems Operation = "GetItems"

	// OperationSearchItems searches by keywords or browse node.
	OperationSearchItems Operation = "SearchItems"

	// OperationGetBrowseNodes looks up browse nodes by ID.
	OperationGetBrowseNodes Operation = "GetBrowseNodes"

	// OperationGetVariations lists the variations of an ASIN.
	OperationGetVariations Operation = "GetVariations"
)

// Parameters is one entry of an invoke batch. ID lists are comma separated.
type Parameters struct {
	Operation         Operation `json:"operation"`
	PartnerTag        string    `json:"partnerTag,omitempty"`
	ItemIDs           string    `json:"itemIds,omitempty"`
	VariationASIN     string    `json:"variationAsin,omitempty"`
	Keywords          string    `json:"keywords,omitempty"`
	SearchIndex       string    `json:"searchIndex,omitempty"`
	BrowseNodeIDs     string    `json:"browseNodeIds,omitempty"`
	Resources         []string  `json:"resources,omitempty"`
	UseOffersV2       bool      `json:"useOffersV2,omitempty"`
	AdditionalOptions Options   `json:"additionalOptions"`
}

// Options are the optional request fields. Zero values are not sent to PAAPI.
type Options struct {
	LanguageOfPreference string `json:"languageOfPreference,omitempty"`
	SortBy               string `json:"sortBy,omitempty"`
	ItemPage             int    `json:"itemPage,omitempty"`
	ItemCount            int    `json:"itemCount,omitempty"`
	Merchant             string `json:"merchant,omitempty"`
	Condition            string `json:"condition,omitempty"`
	MinPrice             int    `json:"minPrice,omitempty"`
	MaxPrice             int    `json:"maxPrice,omitempty"`
	MinReviewsRating     int    `json:"minReviewsRating,omitempty"`
}

// APIError is one entry of a PAAPI error list.
type APIError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

// Envelope is the result of one invoke entry. On success Fields holds the
// top-level PAAPI response members (e.g. "ItemsResult").
type Envelope struct {
	Success      bool
	ErrorMessage string
	Errors       []APIError
	Fields       map[string]json.RawMessage
}

// UnmarshalJSON parses the flat envelope object.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}
	raw, ok := top["success"]
	if !ok {
		return errors.New("envelope has no success field")
	}
	*e = Envelope{}
	if err := json.Unmarshal(raw, &e.Success); err != nil {
		return fmt.Errorf("envelope success: %w", err)
	}
	delete(top, "success")

	if e.Success {
		e.Fields = top
		return nil
	}
	if raw, ok := top["errorMessage"]; ok {
		if err := json.Unmarshal(raw, &e.ErrorMessage); err != nil {
			return fmt.Errorf("envelope errorMessage: %w", err)
		}
	}
	if raw, ok := top["errors"]; ok {
		if err := json.Unmarshal(raw, &e.Errors); err != nil {
			return fmt.Errorf("envelope errors: %w", err)
		}
	}
	return nil
}

// Decode unmarshals the named response member into v. It returns false when
// the envelope failed or has no such member.
func (e Envelope) Decode(field string, v any) (bool, error) {
	raw, ok := e.Fields[field]
	if !e.Success || !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", field, err)
	}
	return true, nil
}

// ToolOperation names an operation of the simplified tool API.
type ToolOperation string

const (
	// ToolSearchProducts searches all categories by keywords.
	ToolSearchProducts ToolOperation = "searchProducts"

	// ToolGetProductDetails looks up a single ASIN.
	ToolGetProductDetails ToolOperation = "getProductDetails"
)

// ToolParameters is one entry of a tools batch.
type ToolParameters struct {
	Operation     ToolOperation `json:"operation"`
	Keywords      string        `json:"keywords,omitempty"`
	ASIN          string        `json:"asin,omitempty"`
	IncludeFields []string      `json:"includeFields,omitempty"`
}

// Product is a curated item. Absent fields are nil.
type Product struct {
	Title       *string  `json:"title,omitempty"`
	ASIN        *string  `json:"asin,omitempty"`
	URL         *string  `json:"url,omitempty"`
	Price       *string  `json:"price,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
	Rating      *string  `json:"rating,omitempty"`
	ReviewCount *int     `json:"reviewCount,omitempty"`
	Features    []string `json:"features,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	Description *string  `json:"description,omitempty"`
}

// ToolEnvelope is the result of one tools entry. Searches fill Results and
// detail lookups fill Product.
type ToolEnvelope struct {
	Success      bool          `json:"success"`
	Operation    ToolOperation `json:"operation,omitempty"`
	Results      []Product     `json:"results,omitempty"`
	Product      *Product      `json:"product,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	Errors       []APIError    `json:"errors,omitempty"`
}

// Health is the body of GET /health.
type Health struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Version string            `json:"version,omitempty"`
}

type batchRequest[T any] struct {
	Items []T `json:"items"`
}

type batchResponse[T any] struct {
	Results []T `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}
